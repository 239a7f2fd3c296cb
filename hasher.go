// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"encoding/hex"
	"io"
	"strings"
)

// Hash reads size bytes from r in requests of chunkSize bytes and returns the uppercase hex digest
// of the data. A short or failing read ends the stream early; the digest then covers the data that was
// available and the returned [ReadStats] tell how much that was. Hash does not fail.
//
// Hash is safe to call concurrently on distinct [Readable]s.
func Hash(r Readable, size uint64, alg Algorithm, chunkSize int) (string, ReadStats) {
	cr := newChunkReader(r, size, chunkSize)
	h := alg.New()

	// writes to a hash.Hash never fail and read errors are kept in cr
	buf := make([]byte, cr.chunk)
	_, _ = io.CopyBuffer(h, cr, buf)

	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), cr.stats()
}
