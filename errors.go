// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"errors"
	"fmt"
)

var (
	// ErrMaxFilesExceeded indicates that more entries were visited than allowed.
	ErrMaxFilesExceeded = errors.New("maximum files exceeded")

	// ErrMaxExtractionSizeExceeded indicates that the extracted files exceed the size limit.
	ErrMaxExtractionSizeExceeded = errors.New("maximum extraction size exceeded")

	// ErrMaxDepthExceeded indicates that a directory is nested deeper than allowed.
	ErrMaxDepthExceeded = errors.New("maximum directory depth exceeded")

	// ErrMaxInputSizeExceeded indicates that a decompressed input is larger than allowed.
	ErrMaxInputSizeExceeded = errors.New("maximum input size exceeded")

	// ErrInsufficientSpace indicates that the output location cannot hold the file.
	ErrInsufficientSpace = errors.New("insufficient space in output location")

	// ErrUnknownAlgorithm indicates an unsupported digest algorithm name.
	ErrUnknownAlgorithm = errors.New("unknown digest algorithm")
)

// handleError increases the error counter, sets the latest error and
// decides if the walk should continue.
func handleError(c *Config, td *scanCounters, msg string, err error) error {

	// increase error counter and set error
	wrapped := fmt.Errorf("%s: %w", msg, err)
	td.recordError(wrapped)

	// do not end on error
	if c.ContinueOnError() {
		c.Logger().Error(msg, "error", err)
		return nil
	}

	// end walk on error
	return wrapped
}
