// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// detectCompression returns the file extension of the compression format of header,
// or an empty string if header is not compressed. Formats without magic bytes are
// detected by the extension of name.
func detectCompression(header []byte, name string) string {
	for _, c := range codecs {
		if c.matches(header) {
			return c.Ext
		}
	}

	// no magic bytes, check file extension
	nameExt := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if c, ok := codecByExt(nameExt); ok && len(c.Magic) == 0 {
		return c.Ext
	}
	return ""
}

// decompressStream sniffs the header of src and returns a reader with the decompressed
// content and the detected compression. If src is not compressed, the returned reader yields
// src unmodified and the compression is empty. The returned reader is limited to
// cfg.MaxInputSize() bytes and fails once ctx is canceled.
func decompressStream(ctx context.Context, src io.Reader, name string, cfg *Config) (io.ReadCloser, string, error) {

	// check if context is canceled
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("context error: %w", err)
	}

	header, sniffed, err := sniffHeader(src, maxHeaderLength)
	if err != nil {
		return nil, "", err
	}

	compression := detectCompression(header, name)
	if len(compression) == 0 {
		return io.NopCloser(newInputLimitReader(&contextReader{ctx: ctx, r: sniffed}, cfg.MaxInputSize())), "", nil
	}

	// start decompression
	c, _ := codecByExt(compression)
	decompressed, err := c.Open(sniffed)
	if err != nil {
		return nil, "", fmt.Errorf("cannot start %s decompression: %w", compression, err)
	}

	limited := newInputLimitReader(&contextReader{ctx: ctx, r: decompressed}, cfg.MaxInputSize())
	if closer, ok := decompressed.(io.Closer); ok {
		return &readCloser{Reader: limited, Closer: closer}, compression, nil
	}
	return io.NopCloser(limited), compression, nil
}

// sniffHeader reads up to size bytes from r. It returns these bytes and a reader that yields
// the complete stream, header included. A stream shorter than size is not an error.
func sniffHeader(r io.Reader, size int) ([]byte, io.Reader, error) {
	buf := make([]byte, size)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, nil, fmt.Errorf("cannot read header: %w", err)
	}
	header := buf[:n]
	return header, io.MultiReader(bytes.NewReader(header), r), nil
}

// readCloser combines a reader with the closer of the stream it wraps.
type readCloser struct {
	io.Reader
	io.Closer
}
