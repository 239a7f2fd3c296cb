// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// HashSet is an immutable set of normalized digests. It is safe for concurrent use.
//
// Lines are normalized by trimming surrounding whitespace and converting to upper case. The set
// does not validate its content: empty or malformed lines are kept as they are. Such entries can
// never equal a digest produced by [Hash], but callers that want to report them can use
// [HashSet.Malformed].
type HashSet struct {
	hashes map[string]struct{}
	lines  int
}

// HashSetOption is a function pointer to implement the option pattern for [ReadHashSet].
type HashSetOption func(*hashSetOptions)

type hashSetOptions struct {
	skipHeader bool
}

// WithSkipHeader options pattern function to ignore the first line of a hash set file, e.g.,
// a column header like "MD5".
func WithSkipHeader(skip bool) HashSetOption {
	return func(o *hashSetOptions) {
		o.skipHeader = skip
	}
}

// normalizeDigest trims whitespace and converts the digest to upper case.
func normalizeDigest(line string) string {
	return strings.ToUpper(strings.TrimSpace(line))
}

// NewHashSet creates a [HashSet] from lines.
func NewHashSet(lines ...string) *HashSet {
	hs := &HashSet{hashes: make(map[string]struct{}, len(lines)), lines: len(lines)}
	for _, line := range lines {
		hs.hashes[normalizeDigest(line)] = struct{}{}
	}
	return hs
}

// ReadHashSet reads a [HashSet] from r, one digest per line.
func ReadHashSet(r io.Reader, opts ...HashSetOption) (*HashSet, error) {
	var o hashSetOptions
	for _, opt := range opts {
		opt(&o)
	}

	hs := &HashSet{hashes: make(map[string]struct{})}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		if first && o.skipHeader {
			first = false
			continue
		}
		first = false
		hs.hashes[normalizeDigest(scanner.Text())] = struct{}{}
		hs.lines++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read hash set: %w", err)
	}
	return hs, nil
}

// OpenHashSetFile reads a [HashSet] from the file at path. Compressed files (gzip, bzip2, xz,
// zstd, lz4, snappy, zlib, brotli) are decompressed transparently, limited by
// [Config.MaxInputSize].
func OpenHashSetFile(ctx context.Context, path string, cfg *Config, opts ...HashSetOption) (*HashSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open hash set: %w", err)
	}
	defer f.Close()

	stream, compression, err := decompressStream(ctx, f, path, cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot open hash set: %w", err)
	}
	defer stream.Close()
	if len(compression) > 0 {
		cfg.Logger().Info("decompress hash set", "path", path, "compression", compression)
	}

	return ReadHashSet(stream, opts...)
}

// Contains returns true if the normalized digest is part of the set.
func (hs *HashSet) Contains(digest string) bool {
	if hs == nil {
		return false
	}
	_, ok := hs.hashes[normalizeDigest(digest)]
	return ok
}

// Len returns the number of distinct entries.
func (hs *HashSet) Len() int {
	if hs == nil {
		return 0
	}
	return len(hs.hashes)
}

// Lines returns the number of lines the set has been loaded from, without a skipped header.
func (hs *HashSet) Lines() int {
	if hs == nil {
		return 0
	}
	return hs.lines
}

// Malformed returns all entries that are not a hex digest of alg, in no particular order.
func (hs *HashSet) Malformed(alg Algorithm) []string {
	if hs == nil {
		return nil
	}
	var malformed []string
	want := alg.HexLen()
	for h := range hs.hashes {
		if len(h) != want {
			malformed = append(malformed, h)
			continue
		}
		if _, err := hex.DecodeString(h); err != nil {
			malformed = append(malformed, h)
		}
	}
	return malformed
}
