// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
)

// Algorithm is a digest algorithm used to fingerprint file content.
type Algorithm string

const (
	// MD5 is the algorithm most known-hash sets are published with.
	MD5 Algorithm = "md5"

	// SHA1 is used by NSRL style hash sets.
	SHA1 Algorithm = "sha1"

	// SHA256 is the SHA-2 256 bit digest.
	SHA256 Algorithm = "sha256"

	// BLAKE3 is the unkeyed 256 bit BLAKE3 digest.
	BLAKE3 Algorithm = "blake3"
)

// Algorithms lists all supported algorithms.
var Algorithms = []Algorithm{MD5, SHA1, SHA256, BLAKE3}

// ParseAlgorithm returns the [Algorithm] for name (case-insensitive).
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Algorithms {
		if alg == known {
			return alg, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// New returns a fresh incremental digest for the algorithm.
func (a Algorithm) New() hash.Hash {
	switch a {
	case SHA1:
		return sha1.New()
	case SHA256:
		return sha256.New()
	case BLAKE3:
		return blake3.New()
	default:
		return md5.New()
	}
}

// HexLen returns the length of the hex encoded digest.
func (a Algorithm) HexLen() int {
	return a.New().Size() * 2
}

// String returns the name of the algorithm.
func (a Algorithm) String() string {
	if a == "" {
		return string(MD5)
	}
	return string(a)
}
