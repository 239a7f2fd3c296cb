// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"context"
	"io"
)

// inputLimitReader reads at most limit bytes from an image or hash set stream. Reading past
// the limit fails with [ErrMaxInputSizeExceeded] unless the stream ends exactly at the limit.
// A negative limit disables the check.
type inputLimitReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func newInputLimitReader(r io.Reader, limit int64) *inputLimitReader {
	return &inputLimitReader{r: r, limit: limit}
}

func (l *inputLimitReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if l.limit < 0 {
		n, err := l.r.Read(p)
		l.read += int64(n)
		return n, err
	}

	left := l.limit - l.read
	if left == 0 {
		// the stream may end right at the limit
		var probe [1]byte
		if n, err := l.r.Read(probe[:]); n == 0 && err == io.EOF {
			return 0, io.EOF
		}
		return 0, ErrMaxInputSizeExceeded
	}
	if int64(len(p)) > left {
		p = p[:left]
	}

	n, err := l.r.Read(p)
	l.read += int64(n)
	return n, err
}

// budgetWriter writes at most budget bytes and fails with [ErrMaxExtractionSizeExceeded]
// once a write would cross it. The bytes up to the budget are still written.
type budgetWriter struct {
	w       io.Writer
	budget  int64
	written int64
}

func (b *budgetWriter) Write(p []byte) (int, error) {
	left := b.budget - b.written
	if int64(len(p)) <= left {
		n, err := b.w.Write(p)
		b.written += int64(n)
		return n, err
	}

	n, err := b.w.Write(p[:left])
	b.written += int64(n)
	if err != nil {
		return n, err
	}
	return n, ErrMaxExtractionSizeExceeded
}

// limitWriter returns w limited to maxSize bytes. A negative maxSize disables the limit.
func limitWriter(w io.Writer, maxSize int64) io.Writer {
	if maxSize < 0 {
		return w
	}
	return &budgetWriter{w: w, budget: maxSize}
}

// contextReader is a reader that fails as soon as ctx is canceled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
