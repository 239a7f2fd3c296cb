// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package imagefs

import (
	"errors"
	"io"
	"sync"
)

// seekReaderAt presents a cursor based file as [io.ReaderAt]. Every ReadAt seeks and reads
// while holding mu, so concurrent calls never share the cursor.
type seekReaderAt struct {
	mu *sync.Mutex
	rs io.ReadSeeker
}

// ReadAt reads len(p) bytes at off. At the end of the data it returns fewer bytes together
// with io.EOF.
func (s *seekReaderAt) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.rs.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(s.rs, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n, err
}

// Close closes the underlying file if it can be closed.
func (s *seekReaderAt) Close() error {
	if c, ok := s.rs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
