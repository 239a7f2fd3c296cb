// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import "context"

// EventKind tells what happened to an entry.
type EventKind int

const (
	// EventHashed is emitted for every hashed regular file that is not in the hash set.
	EventHashed EventKind = iota

	// EventExtracted is emitted for every regular file whose digest is in the hash set
	// and that has been written to the output location.
	EventExtracted

	// EventRevisit is emitted for an entry whose logical path has been visited before.
	EventRevisit

	// EventUnsupported is emitted for entries that are neither files nor directories.
	EventUnsupported

	// EventDirFailed is emitted for a directory that cannot be opened or listed.
	EventDirFailed

	// EventMaxDepth is emitted for a directory that is nested too deep.
	EventMaxDepth

	// EventPatternMismatch is emitted for a regular file that does not match the configured patterns.
	EventPatternMismatch

	// EventError is emitted for a regular file that cannot be opened or extracted.
	EventError
)

var eventKindNames = map[EventKind]string{
	EventHashed:          "hashed",
	EventExtracted:       "extracted",
	EventRevisit:         "revisit",
	EventUnsupported:     "unsupported",
	EventDirFailed:       "dir_failed",
	EventMaxDepth:        "max_depth",
	EventPatternMismatch: "pattern_mismatch",
	EventError:           "error",
}

// String returns the name of the event kind.
func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event describes the outcome for one entry of the image.
type Event struct {
	// Kind is the outcome.
	Kind EventKind

	// Path is the logical path of the entry.
	Path string

	// EntryKind is the kind of the entry as reported by the filesystem.
	EntryKind EntryKind

	// Size is the declared size of the entry.
	Size uint64

	// Digest is set for hashed files.
	Digest string

	// ShortRead is true if the file delivered less data than declared.
	ShortRead bool

	// Extracted is set for [EventExtracted].
	Extracted *ExtractedFile

	// Err is set for failures.
	Err error
}

// EventHook is a function type that consumes [Event]s while the walk is running.
// With more than one worker it is called from several goroutines.
type EventHook func(context.Context, Event)

// ExtractedFile is the record of one successful extraction.
type ExtractedFile struct {
	// Digest is the uppercase hex digest of the content.
	Digest string

	// Extension is the extension of the source file name, including the leading dot.
	Extension string

	// SourcePath is the logical path of the file inside the image.
	SourcePath string

	// SourceSize is the declared size of the source file.
	SourceSize uint64

	// OutputPath is the path of the written file.
	OutputPath string

	// Written is the number of bytes written to OutputPath.
	Written int64

	// Deduplicated is true if the output already existed from an earlier match of this walk
	// and was not written again.
	Deduplicated bool
}

// ChainEventHooks returns an [EventHook] that calls all hooks in order. Nil hooks are skipped.
func ChainEventHooks(hooks ...EventHook) EventHook {
	return func(ctx context.Context, ev Event) {
		for _, hook := range hooks {
			if hook != nil {
				hook(ctx, ev)
			}
		}
	}
}
