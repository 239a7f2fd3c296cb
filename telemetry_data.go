// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// now is a function point that returns time.Now to the caller.
var now = time.Now

// TelemetryData holds all telemetry data of a walk.
type TelemetryData struct {
	// Algorithm is the digest algorithm of the walk
	Algorithm string `json:"algorithm"`

	// DeduplicatedFiles is the number of matches that were not written again
	DeduplicatedFiles int64 `json:"deduplicated_files"`

	// ExtractedFiles is the number of extracted files
	ExtractedFiles int64 `json:"extracted_files"`

	// ExtractionErrors is the number of errors during the walk
	ExtractionErrors int64 `json:"extraction_errors"`

	// ExtractionSize is the size of the extracted files
	ExtractionSize int64 `json:"extraction_size"`

	// HashSetSize is the number of entries in the hash set
	HashSetSize int64 `json:"hash_set_size"`

	// HashedBytes is the number of bytes read while hashing
	HashedBytes int64 `json:"hashed_bytes"`

	// HashedFiles is the number of hashed regular files
	HashedFiles int64 `json:"hashed_files"`

	// LastExtractionError is the last error during the walk
	LastExtractionError error `json:"last_extraction_error"`

	// LastSkippedDir is the logical path of the last directory that could not be walked
	LastSkippedDir string `json:"last_skipped_dir"`

	// MatchedFiles is the number of files whose digest is in the hash set
	MatchedFiles int64 `json:"matched_files"`

	// PatternMismatches is the number of skipped files
	PatternMismatches int64 `json:"pattern_mismatches"`

	// Revisits is the number of entries skipped because their logical path was visited before
	Revisits int64 `json:"revisits"`

	// ScanDuration is the time it took to walk the image
	ScanDuration time.Duration `json:"scan_duration"`

	// ShortReads is the number of files that delivered less data than declared
	ShortReads int64 `json:"short_reads"`

	// SkippedDirs is the number of directories that could not be opened or listed
	SkippedDirs int64 `json:"skipped_dirs"`

	// UnsupportedEntries is the number of skipped entries that are neither files nor directories
	UnsupportedEntries int64 `json:"unsupported_entries"`

	// VisitedDirs is the number of walked directories, including the root
	VisitedDirs int64 `json:"visited_dirs"`

	// VisitedEntries is the number of distinct logical paths below the root
	VisitedEntries int64 `json:"visited_entries"`
}

// String returns a string representation of [TelemetryData].
func (m TelemetryData) String() string {
	b, _ := json.Marshal(m)
	return string(b)
}

// MarshalJSON implements the [encoding/json.Marshaler] interface.
func (m TelemetryData) MarshalJSON() ([]byte, error) {
	var lastError string
	if m.LastExtractionError != nil {
		lastError = m.LastExtractionError.Error()
	}

	type Alias TelemetryData
	return json.Marshal(&struct {
		LastExtractionError string `json:"last_extraction_error"`
		*Alias
	}{
		LastExtractionError: lastError,
		Alias:               (*Alias)(&m),
	})
}

// TelemetryHook is a function type that performs operations on [TelemetryData]
// after a walk has finished which can be used to submit the [TelemetryData]
// to a telemetry service, for example.
type TelemetryHook func(context.Context, *TelemetryData)

// ChainTelemetryHooks returns a [TelemetryHook] that calls all hooks in order. Nil hooks are skipped.
func ChainTelemetryHooks(hooks ...TelemetryHook) TelemetryHook {
	return func(ctx context.Context, td *TelemetryData) {
		for _, hook := range hooks {
			if hook != nil {
				hook(ctx, td)
			}
		}
	}
}

// Equals returns true if the given [TelemetryData] is equal to the receiver.
// The duration and the last error are not compared.
func (td *TelemetryData) Equals(other *TelemetryData) bool {
	if td == nil && other == nil {
		return true
	}
	if td == nil || other == nil {
		return false
	}
	return td.Algorithm == other.Algorithm &&
		td.DeduplicatedFiles == other.DeduplicatedFiles &&
		td.ExtractedFiles == other.ExtractedFiles &&
		td.ExtractionErrors == other.ExtractionErrors &&
		td.ExtractionSize == other.ExtractionSize &&
		td.HashSetSize == other.HashSetSize &&
		td.HashedBytes == other.HashedBytes &&
		td.HashedFiles == other.HashedFiles &&
		td.LastSkippedDir == other.LastSkippedDir &&
		td.MatchedFiles == other.MatchedFiles &&
		td.PatternMismatches == other.PatternMismatches &&
		td.Revisits == other.Revisits &&
		td.ShortReads == other.ShortReads &&
		td.SkippedDirs == other.SkippedDirs &&
		td.UnsupportedEntries == other.UnsupportedEntries &&
		td.VisitedDirs == other.VisitedDirs &&
		td.VisitedEntries == other.VisitedEntries
}

// scanCounters collects telemetry while walker goroutines are running.
type scanCounters struct {
	deduplicated   atomic.Int64
	errors         atomic.Int64
	extracted      atomic.Int64
	extractionSize atomic.Int64
	hashedBytes    atomic.Int64
	hashed         atomic.Int64
	matched        atomic.Int64
	mismatches     atomic.Int64
	revisits       atomic.Int64
	shortReads     atomic.Int64
	skippedDirs    atomic.Int64
	unsupported    atomic.Int64
	visitedDirs    atomic.Int64
	visited        atomic.Int64

	mu             sync.Mutex
	lastError      error
	lastSkippedDir string
}

// recordError increases the error counter and remembers err as the last error.
func (s *scanCounters) recordError(err error) {
	s.errors.Add(1)
	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()
}

// recordSkippedDir increases the skipped directory counter and remembers the path.
func (s *scanCounters) recordSkippedDir(path string) {
	s.skippedDirs.Add(1)
	s.mu.Lock()
	s.lastSkippedDir = path
	s.mu.Unlock()
}

// snapshot copies the counters into td.
func (s *scanCounters) snapshot(td *TelemetryData) {
	td.DeduplicatedFiles = s.deduplicated.Load()
	td.ExtractedFiles = s.extracted.Load()
	td.ExtractionErrors = s.errors.Load()
	td.ExtractionSize = s.extractionSize.Load()
	td.HashedBytes = s.hashedBytes.Load()
	td.HashedFiles = s.hashed.Load()
	td.MatchedFiles = s.matched.Load()
	td.PatternMismatches = s.mismatches.Load()
	td.Revisits = s.revisits.Load()
	td.ShortReads = s.shortReads.Load()
	td.SkippedDirs = s.skippedDirs.Load()
	td.UnsupportedEntries = s.unsupported.Load()
	td.VisitedDirs = s.visitedDirs.Load()
	td.VisitedEntries = s.visited.Load()

	s.mu.Lock()
	td.LastExtractionError = s.lastError
	td.LastSkippedDir = s.lastSkippedDir
	s.mu.Unlock()
}

// captureScanDuration captures the duration of the walk
func captureScanDuration(td *TelemetryData, start time.Time) {
	stop := now()
	td.ScanDuration = stop.Sub(start)
}
