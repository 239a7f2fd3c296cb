// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"errors"
	"io"
)

// chunkReader is an io.Reader that reads a [Readable] sequentially from offset 0 in
// requests of at most chunk bytes. It stops after size bytes or at the first read that
// returns no data. Read errors end the stream like a regular EOF, the error is kept
// in err.
type chunkReader struct {
	r      Readable // underlying file
	size   uint64   // declared size
	chunk  int      // maximum bytes per request
	offset uint64   // bytes read so far
	err    error    // last error other than io.EOF
}

// newChunkReader returns a new chunkReader that reads up to size bytes from r.
func newChunkReader(r Readable, size uint64, chunk int) *chunkReader {
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	return &chunkReader{r: r, size: size, chunk: chunk}
}

// Read reads the next chunk into p.
func (c *chunkReader) Read(p []byte) (int, error) {
	if c.offset >= c.size {
		return 0, io.EOF
	}

	// determine how many bytes to request
	want := len(p)
	if want > c.chunk {
		want = c.chunk
	}
	if remaining := c.size - c.offset; uint64(want) > remaining {
		want = int(remaining)
	}

	n, err := c.r.ReadAt(p[:want], int64(c.offset))
	c.offset += uint64(n)
	if err != nil && !errors.Is(err, io.EOF) {
		c.err = err
	}

	// zero bytes ends the stream, even without an error
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// stats returns the read statistics of the stream.
func (c *chunkReader) stats() ReadStats {
	return ReadStats{
		Read:  c.offset,
		Short: c.offset < c.size,
		Err:   c.err,
	}
}

// ReadStats describes how much of a file could be read.
type ReadStats struct {
	// Read is the number of bytes that have been read.
	Read uint64

	// Short is true if less than the declared size could be read.
	Short bool

	// Err is the read error that ended the stream early, if any.
	Err error
}
