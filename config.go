// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
)

// ConfigOption is a function pointer to implement the option pattern
type ConfigOption func(*Config)

// Config provides a configuration struct and options to adjust the configuration.
//
// The configuration struct holds all configuration options for a walk over an image.
// The configuration options can be adjusted using the option pattern style.
//
// The default configuration hashes with MD5, walks single threaded, creates the
// output directory if it is missing and keeps going when a single file cannot be extracted.
type Config struct {
	// algorithm is the digest algorithm used to fingerprint file content
	algorithm Algorithm

	// chunkSize is the number of bytes requested per read from the image
	chunkSize int

	// continueOnError decides if the walk should be continued if a file cannot be extracted
	continueOnError bool

	// create destination directory if it does not exist
	createDestination bool

	// customCreateDirMode is the file mode for the created output directory (respecting umask)
	customCreateDirMode fs.FileMode

	// customFileMode is the file mode for extracted files (respecting umask)
	customFileMode fs.FileMode

	// dropFileAttributes is a flag to drop the modification time of the extracted files
	dropFileAttributes bool

	// eventHook is called for every processed or skipped entry
	eventHook EventHook

	// logger stream for the walk
	logger logger

	// maxDepth is the maximum directory depth below the root.
	// Set value to -1 to disable the check.
	maxDepth int

	// maxExtractionSize is the maximum size over all extracted files.
	// Set value to -1 to disable the check.
	maxExtractionSize int64

	// maxFiles is the maximum of entries (files, directories and others) that are visited.
	// Set value to -1 to disable the check.
	maxFiles int64

	// maxInputSize is the maximum size of a decompressed image or hash set.
	// Set value to -1 to disable the check.
	maxInputSize int64

	// patterns is a list of file patterns a file name needs to match to be hashed
	patterns []string

	// skipDuplicateExtraction writes every digest+extension combination only once per walk
	skipDuplicateExtraction bool

	// telemetryHook is a function to consume telemetry data after a finished walk
	// Important: do not adjust this value after the walk started
	telemetryHook TelemetryHook

	// workers is the number of goroutines that walk sibling directories in parallel
	workers int
}

// Algorithm returns the digest algorithm.
func (c *Config) Algorithm() Algorithm {
	return c.algorithm
}

// ChunkSize returns the number of bytes requested per read.
func (c *Config) ChunkSize() int {
	return c.chunkSize
}

// CheckMaxDepth checks if depth exceeds the configured maximum. If the maximum is exceeded,
// a [ErrMaxDepthExceeded] error is returned.
func (c *Config) CheckMaxDepth(depth int) error {

	// check if disabled
	if c.MaxDepth() == -1 {
		return nil
	}

	// check value
	if depth > c.MaxDepth() {
		return ErrMaxDepthExceeded
	}
	return nil
}

// CheckMaxFiles checks if counter exceeds the configured maximum. If the maximum is exceeded,
// a [ErrMaxFilesExceeded] error is returned.
func (c *Config) CheckMaxFiles(counter int64) error {

	// check if disabled
	if c.MaxFiles() == -1 {
		return nil
	}

	// check value
	if counter > c.MaxFiles() {
		return ErrMaxFilesExceeded
	}
	return nil
}

// CheckExtractionSize checks if fileSize exceeds configured maximum. If the maximum is exceeded,
// a [ErrMaxExtractionSizeExceeded] error is returned.
func (c *Config) CheckExtractionSize(fileSize int64) error {

	// check if disabled
	if c.MaxExtractionSize() == -1 {
		return nil
	}

	// check value
	if fileSize > c.MaxExtractionSize() {
		return ErrMaxExtractionSizeExceeded
	}
	return nil
}

// ContinueOnError returns true if the walk should continue when a file cannot be opened
// or extracted.
func (c *Config) ContinueOnError() bool {
	return c.continueOnError
}

// CreateDestination returns true if the output directory should be
// created if it does not exist.
func (c *Config) CreateDestination() bool {
	return c.createDestination
}

// CustomCreateDirMode returns the file mode for the created output directory.
// (respecting umask)
func (c *Config) CustomCreateDirMode() fs.FileMode {
	return c.customCreateDirMode
}

// CustomFileMode returns the file mode for extracted files.
// (respecting umask)
func (c *Config) CustomFileMode() fs.FileMode {
	return c.customFileMode
}

// DropFileAttributes returns true if the modification time of the source entry
// should not be applied to the extracted file.
func (c *Config) DropFileAttributes() bool {
	return c.dropFileAttributes
}

// EventHook returns the event hook.
func (c *Config) EventHook() EventHook {
	if c.eventHook == nil {
		return defaultEventHook
	}
	return c.eventHook
}

// Logger returns the logger.
func (c *Config) Logger() logger {
	return c.logger
}

// MaxDepth returns the maximum directory depth below the root.
func (c *Config) MaxDepth() int {
	return c.maxDepth
}

// MaxExtractionSize returns the maximum size over all extracted files.
func (c *Config) MaxExtractionSize() int64 {
	return c.maxExtractionSize
}

// MaxFiles returns the maximum of visited entries.
func (c *Config) MaxFiles() int64 {
	return c.maxFiles
}

// MaxInputSize returns the maximum size of a decompressed input.
func (c *Config) MaxInputSize() int64 {
	return c.maxInputSize
}

// Patterns returns a list of unix-filepath patterns a file name needs to match to be hashed.
// Patterns are matched using [filepath.Match](https://golang.org/pkg/path/filepath/#Match).
func (c *Config) Patterns() []string {
	return c.patterns
}

// SkipDuplicateExtraction returns true if a digest+extension combination is written only once
// per walk.
func (c *Config) SkipDuplicateExtraction() bool {
	return c.skipDuplicateExtraction
}

// TelemetryHook returns the telemetry hook.
func (c *Config) TelemetryHook() TelemetryHook {
	if c.telemetryHook == nil {
		return defaultTelemetryHook
	}
	return c.telemetryHook
}

// Workers returns the number of goroutines that walk directories.
func (c *Config) Workers() int {
	return c.workers
}

const (
	defaultAlgorithm               = MD5  // same digest the known-hash sets are usually published in
	defaultChunkSize               = 4096 // bytes per read
	defaultContinueOnError         = true // keep walking if a single file fails
	defaultCreateDestination       = true // create output directory
	defaultCustomCreateDirMode     = 0750 // default directory permissions rwxr-x---
	defaultCustomFileMode          = 0640 // default file permissions rw-r-----
	defaultDropFileAttributes      = false
	defaultMaxDepth                = 512 // directory levels below the root
	defaultMaxExtractionSize       = -1  // no limit
	defaultMaxFiles                = -1  // no limit
	defaultMaxInputSize            = -1  // no limit
	defaultSkipDuplicateExtraction = false
	defaultWorkers                 = 1 // single threaded walk
)

var (
	// slog to discard
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	// no operation telemetry hook
	defaultTelemetryHook = func(ctx context.Context, d *TelemetryData) {
		// noop
	}
	// no operation event hook
	defaultEventHook = func(ctx context.Context, e Event) {
		// noop
	}
)

// NewConfig is a generator option that takes opts as adjustments of the
// default configuration in an option pattern style.
func NewConfig(opts ...ConfigOption) *Config {

	// setup default values
	config := &Config{
		algorithm:               defaultAlgorithm,
		chunkSize:               defaultChunkSize,
		continueOnError:         defaultContinueOnError,
		createDestination:       defaultCreateDestination,
		customCreateDirMode:     defaultCustomCreateDirMode,
		customFileMode:          defaultCustomFileMode,
		dropFileAttributes:      defaultDropFileAttributes,
		eventHook:               defaultEventHook,
		logger:                  defaultLogger,
		maxDepth:                defaultMaxDepth,
		maxExtractionSize:       defaultMaxExtractionSize,
		maxFiles:                defaultMaxFiles,
		maxInputSize:            defaultMaxInputSize,
		skipDuplicateExtraction: defaultSkipDuplicateExtraction,
		telemetryHook:           defaultTelemetryHook,
		workers:                 defaultWorkers,
	}

	// Loop through each option
	for _, opt := range opts {
		opt(config)
	}

	return config
}

// WithAlgorithm options pattern function to set the digest algorithm.
func WithAlgorithm(alg Algorithm) ConfigOption {
	return func(c *Config) {
		c.algorithm = alg
	}
}

// WithChunkSize options pattern function to set the number of bytes requested per read.
// Values below 1 are ignored.
func WithChunkSize(size int) ConfigOption {
	return func(c *Config) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithContinueOnError options pattern function to continue the walk if a file cannot be opened
// or extracted. If set to true, the error is logged and the walk continues. If set to false,
// the walk stops and returns the error.
func WithContinueOnError(yes bool) ConfigOption {
	return func(c *Config) {
		c.continueOnError = yes
	}
}

// WithCreateDestination options pattern function to create the
// output directory if it does not exist.
func WithCreateDestination(create bool) ConfigOption {
	return func(c *Config) {
		c.createDestination = create
	}
}

// WithCustomCreateDirMode options pattern function to set the file mode
// for the created output directory. (respecting umask)
func WithCustomCreateDirMode(mode fs.FileMode) ConfigOption {
	return func(c *Config) {
		c.customCreateDirMode = mode
	}
}

// WithCustomFileMode options pattern function to set the file mode for extracted files.
// (respecting umask)
func WithCustomFileMode(mode fs.FileMode) ConfigOption {
	return func(c *Config) {
		c.customFileMode = mode
	}
}

// WithDropFileAttributes options pattern function to drop the
// modification time of the extracted files.
func WithDropFileAttributes(drop bool) ConfigOption {
	return func(c *Config) {
		c.dropFileAttributes = drop
	}
}

// WithEventHook options pattern function to set an [EventHook], which is called for every
// processed or skipped entry. The hook is called concurrently if more than one worker is configured.
func WithEventHook(hook EventHook) ConfigOption {
	return func(c *Config) {
		c.eventHook = hook
	}
}

// WithLogger options pattern function to set a custom logger.
func WithLogger(logger logger) ConfigOption {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxDepth options pattern function to set the maximum directory depth below the root.
// Deeper directories are skipped. (-1 to disable check)
func WithMaxDepth(maxDepth int) ConfigOption {
	return func(c *Config) {
		c.maxDepth = maxDepth
	}
}

// WithMaxExtractionSize options pattern function to set maximum size over all
// extracted files. (-1 to disable check)
func WithMaxExtractionSize(maxExtractionSize int64) ConfigOption {
	return func(c *Config) {
		c.maxExtractionSize = maxExtractionSize
	}
}

// WithMaxFiles options pattern function to set maximum number of visited entries.
// (-1 to disable check)
func WithMaxFiles(maxFiles int64) ConfigOption {
	return func(c *Config) {
		c.maxFiles = maxFiles
	}
}

// WithMaxInputSize options pattern function to set the maximum size of a decompressed image
// or hash set. (-1 to disable check)
func WithMaxInputSize(maxInputSize int64) ConfigOption {
	return func(c *Config) {
		c.maxInputSize = maxInputSize
	}
}

// WithPatterns options pattern function to set filepath pattern, that file names need to match
// to be hashed. Patterns are matched using [pkg/path/filepath.Match].
func WithPatterns(pattern ...string) ConfigOption {
	return func(c *Config) {
		c.patterns = append(c.patterns, pattern...)
	}
}

// WithSkipDuplicateExtraction options pattern function to write every digest+extension
// combination only once per walk instead of overwriting it on every match.
func WithSkipDuplicateExtraction(skip bool) ConfigOption {
	return func(c *Config) {
		c.skipDuplicateExtraction = skip
	}
}

// WithTelemetryHook options pattern function to set a [TelemetryHook], which is called after the walk.
func WithTelemetryHook(hook TelemetryHook) ConfigOption {
	return func(c *Config) {
		c.telemetryHook = hook
	}
}

// WithWorkers options pattern function to set the number of goroutines that walk sibling
// directories in parallel. Values below 1 are ignored.
func WithWorkers(workers int) ConfigOption {
	return func(c *Config) {
		if workers > 0 {
			c.workers = workers
		}
	}
}
