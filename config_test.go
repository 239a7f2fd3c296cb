// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package hashextract_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"testing"

	hashextract "github.com/hashicorp/go-hashextract"
)

// TestCheckMaxFiles implements test cases
func TestCheckMaxFiles(t *testing.T) {
	// prepare test cases
	cases := []struct {
		name        string
		input       int64
		config      *hashextract.Config
		expectError bool
	}{
		{
			name:        "less files then maximum",
			input:       5,                                                   // within limit
			config:      hashextract.NewConfig(hashextract.WithMaxFiles(10)), // 10
			expectError: false,
		},
		{
			name:        "equal to maximum",
			input:       10,
			config:      hashextract.NewConfig(hashextract.WithMaxFiles(10)),
			expectError: false,
		},
		{
			name:        "more files then maximum",
			input:       15,                                                  // over limit
			config:      hashextract.NewConfig(hashextract.WithMaxFiles(10)), // 10
			expectError: true,
		},
		{
			name:        "disable file counter check",
			input:       5000,                                                // ignored
			config:      hashextract.NewConfig(hashextract.WithMaxFiles(-1)), // disable
			expectError: false,
		},
		{
			name:        "default is unlimited",
			input:       1 << 40,
			config:      hashextract.NewConfig(),
			expectError: false,
		},
	}

	// run cases
	for i, tc := range cases {
		t.Run(fmt.Sprintf("tc %d", i), func(t *testing.T) {
			err := tc.config.CheckMaxFiles(tc.input)
			if got := err != nil; got != tc.expectError {
				t.Errorf("test case %d failed: %s (error: %v)", i, tc.name, err)
			}
			if err != nil && !errors.Is(err, hashextract.ErrMaxFilesExceeded) {
				t.Errorf("test case %d: unexpected error %v", i, err)
			}
		})
	}
}

// TestCheckMaxDepth implements test cases
func TestCheckMaxDepth(t *testing.T) {
	cases := []struct {
		name        string
		depth       int
		config      *hashextract.Config
		expectError bool
	}{
		{
			name:        "default allows 512 levels",
			depth:       512,
			config:      hashextract.NewConfig(),
			expectError: false,
		},
		{
			name:        "default rejects 513 levels",
			depth:       513,
			config:      hashextract.NewConfig(),
			expectError: true,
		},
		{
			name:        "custom maximum",
			depth:       3,
			config:      hashextract.NewConfig(hashextract.WithMaxDepth(2)),
			expectError: true,
		},
		{
			name:        "disabled",
			depth:       100000,
			config:      hashextract.NewConfig(hashextract.WithMaxDepth(-1)),
			expectError: false,
		},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("tc %d", i), func(t *testing.T) {
			err := tc.config.CheckMaxDepth(tc.depth)
			if got := err != nil; got != tc.expectError {
				t.Errorf("test case %d failed: %s (error: %v)", i, tc.name, err)
			}
			if err != nil && !errors.Is(err, hashextract.ErrMaxDepthExceeded) {
				t.Errorf("test case %d: unexpected error %v", i, err)
			}
		})
	}
}

// TestCheckExtractionSize implements test cases
func TestCheckExtractionSize(t *testing.T) {
	config := hashextract.NewConfig(hashextract.WithMaxExtractionSize(1024))

	err := config.CheckExtractionSize(2048)
	if !errors.Is(err, hashextract.ErrMaxExtractionSizeExceeded) {
		t.Errorf("Expected error when fileSize exceeds MaxExtractionSize, but got %v", err)
	}

	err = config.CheckExtractionSize(1024)
	if err != nil {
		t.Errorf("Expected no error when fileSize equals MaxExtractionSize, but got: %s", err)
	}

	err = config.CheckExtractionSize(512)
	if err != nil {
		t.Errorf("Expected no error when fileSize is less than MaxExtractionSize, but got: %s", err)
	}

	config = hashextract.NewConfig(hashextract.WithMaxExtractionSize(-1))
	err = config.CheckExtractionSize(2048)
	if err != nil {
		t.Errorf("Expected no error when MaxExtractionSize is -1, but got: %s", err)
	}
}

// TestWithMaxInputSize implements test cases
func TestWithMaxInputSize(t *testing.T) {
	config := hashextract.NewConfig(hashextract.WithMaxInputSize(1024))
	if config.MaxInputSize() != 1024 {
		t.Errorf("Expected MaxInputSize to be 1024, but got %d", config.MaxInputSize())
	}
	if def := hashextract.NewConfig().MaxInputSize(); def != -1 {
		t.Errorf("Expected default MaxInputSize to be -1, but got %d", def)
	}
}

// TestWithPattern implements test cases
func TestWithPattern(t *testing.T) {
	config := hashextract.NewConfig(hashextract.WithPatterns("*.jpg"), hashextract.WithPatterns("*.png", "*.gif"))
	want := []string{"*.jpg", "*.png", "*.gif"}
	got := config.Patterns()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, but got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, but got %v", want, got)
		}
	}
}

// TestWithAlgorithm implements test cases
func TestWithAlgorithm(t *testing.T) {
	if alg := hashextract.NewConfig().Algorithm(); alg != hashextract.MD5 {
		t.Errorf("Expected default algorithm md5, but got %s", alg)
	}
	if alg := hashextract.NewConfig(hashextract.WithAlgorithm(hashextract.SHA256)).Algorithm(); alg != hashextract.SHA256 {
		t.Errorf("Expected algorithm sha256, but got %s", alg)
	}
}

// TestIgnoredValues checks that invalid chunk sizes and worker counts keep the defaults.
func TestIgnoredValues(t *testing.T) {
	cases := []struct {
		name        string
		config      *hashextract.Config
		wantChunk   int
		wantWorkers int
	}{
		{
			name:        "defaults",
			config:      hashextract.NewConfig(),
			wantChunk:   4096,
			wantWorkers: 1,
		},
		{
			name:        "valid values",
			config:      hashextract.NewConfig(hashextract.WithChunkSize(512), hashextract.WithWorkers(8)),
			wantChunk:   512,
			wantWorkers: 8,
		},
		{
			name:        "zero is ignored",
			config:      hashextract.NewConfig(hashextract.WithChunkSize(0), hashextract.WithWorkers(0)),
			wantChunk:   4096,
			wantWorkers: 1,
		},
		{
			name:        "negative is ignored",
			config:      hashextract.NewConfig(hashextract.WithChunkSize(-1), hashextract.WithWorkers(-4)),
			wantChunk:   4096,
			wantWorkers: 1,
		},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("tc %d", i), func(t *testing.T) {
			if got := tc.config.ChunkSize(); got != tc.wantChunk {
				t.Errorf("%s: chunk size %d, want %d", tc.name, got, tc.wantChunk)
			}
			if got := tc.config.Workers(); got != tc.wantWorkers {
				t.Errorf("%s: workers %d, want %d", tc.name, got, tc.wantWorkers)
			}
		})
	}
}

// TestWithLogger implements test cases
func TestWithLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	config := &hashextract.Config{}
	option := hashextract.WithLogger(logger)
	option(config)

	if config.Logger() == nil {
		t.Errorf("Expected Logger to be set, but it was nil")
	}
}

// TestWithLoggerNil implements test cases
func TestWithLoggerNil(t *testing.T) {
	config := hashextract.NewConfig(hashextract.WithLogger(nil))
	if config.Logger() == nil {
		t.Fatalf("Expected default Logger to be kept, but it was nil")
	}

	// must not panic
	config.Logger().Debug("walk root directory", "path", "/")
}

// TestWithCreateDestination implements test cases
func TestWithCreateDestination(t *testing.T) {
	config := &hashextract.Config{}
	option := hashextract.WithCreateDestination(true)
	option(config)

	if config.CreateDestination() != true {
		t.Errorf("Expected CreateDestination to be true, but got false")
	}

	option = hashextract.WithCreateDestination(false)
	option(config)

	if config.CreateDestination() != false {
		t.Errorf("Expected CreateDestination to be false, but got true")
	}
}

// TestFileModes implements test cases
func TestFileModes(t *testing.T) {
	config := hashextract.NewConfig()
	if config.CustomFileMode() != fs.FileMode(0640) {
		t.Errorf("Expected default file mode 0640, but got %o", config.CustomFileMode())
	}
	if config.CustomCreateDirMode() != fs.FileMode(0750) {
		t.Errorf("Expected default dir mode 0750, but got %o", config.CustomCreateDirMode())
	}

	config = hashextract.NewConfig(hashextract.WithCustomFileMode(0600), hashextract.WithCustomCreateDirMode(0700))
	if config.CustomFileMode() != fs.FileMode(0600) {
		t.Errorf("Expected file mode 0600, but got %o", config.CustomFileMode())
	}
	if config.CustomCreateDirMode() != fs.FileMode(0700) {
		t.Errorf("Expected dir mode 0700, but got %o", config.CustomCreateDirMode())
	}
}

// TestCheckWithContinueOnError implements test cases
func TestCheckWithContinueOnError(t *testing.T) {

	// prepare test cases
	cases := []struct {
		name   string
		config *hashextract.Config
		expect bool
	}{
		{
			name:   "Do continue on error",
			config: hashextract.NewConfig(hashextract.WithContinueOnError(true)),
			expect: true,
		},
		{
			name:   "Don't continue on error",
			config: hashextract.NewConfig(hashextract.WithContinueOnError(false)),
			expect: false,
		},
		{
			name:   "Default is enabled",
			config: hashextract.NewConfig(), // check default value
			expect: true,
		},
	}

	// run cases
	for i, tc := range cases {
		t.Run(fmt.Sprintf("tc %d", i), func(t *testing.T) {
			want := tc.expect
			got := tc.config.ContinueOnError()
			if got != want {
				t.Errorf("test case %d failed: %s", i, tc.name)
			}
		})
	}
}

// TestBooleanOptions implements test cases
func TestBooleanOptions(t *testing.T) {
	cases := []struct {
		name   string
		config *hashextract.Config
		get    func(*hashextract.Config) bool
		expect bool
	}{
		{
			name:   "skip duplicates default",
			config: hashextract.NewConfig(),
			get:    (*hashextract.Config).SkipDuplicateExtraction,
			expect: false,
		},
		{
			name:   "skip duplicates",
			config: hashextract.NewConfig(hashextract.WithSkipDuplicateExtraction(true)),
			get:    (*hashextract.Config).SkipDuplicateExtraction,
			expect: true,
		},
		{
			name:   "drop attributes default",
			config: hashextract.NewConfig(),
			get:    (*hashextract.Config).DropFileAttributes,
			expect: false,
		},
		{
			name:   "drop attributes",
			config: hashextract.NewConfig(hashextract.WithDropFileAttributes(true)),
			get:    (*hashextract.Config).DropFileAttributes,
			expect: true,
		},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("tc %d", i), func(t *testing.T) {
			if got := tc.get(tc.config); got != tc.expect {
				t.Errorf("test case %d failed: %s", i, tc.name)
			}
		})
	}
}

func TestWithTelemetryHook(t *testing.T) {

	// Create a new Config without specified hook
	telemetryDelivered := false
	c := hashextract.NewConfig(hashextract.WithTelemetryHook(func(ctx context.Context, td *hashextract.TelemetryData) {
		telemetryDelivered = true
	}))

	// submit hook
	c.TelemetryHook()(context.Background(), &hashextract.TelemetryData{})

	// check if hook was delivered
	if !telemetryDelivered {
		t.Errorf("Expected telemetry data to be delivered, but it was not")
	}

	// default hooks are never nil
	hashextract.NewConfig().TelemetryHook()(context.Background(), &hashextract.TelemetryData{})
	hashextract.NewConfig().EventHook()(context.Background(), hashextract.Event{})
}
