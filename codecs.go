// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// File extensions of the supported compressions, as reported by [Image.Compression].
const (
	fileExtensionBrotli = "br"
	fileExtensionBzip2  = "bz2"
	fileExtensionGZip   = "gz"
	fileExtensionLZ4    = "lz4"
	fileExtensionSnappy = "sz"
	fileExtensionXz     = "xz"
	fileExtensionZlib   = "zz"
	fileExtensionZstd   = "zst"
)

// codec describes a compression that images and hash sets may be stored with.
type codec struct {
	// Ext is the file extension of the compression without the leading dot.
	Ext string

	// Magic lists alternative byte sequences one of which starts every stream.
	// A codec without magic bytes is detected by Ext only.
	Magic [][]byte

	// Open returns a reader yielding the decompressed stream. If the reader is an
	// io.Closer, it must be closed after use.
	Open func(io.Reader) (io.Reader, error)
}

// matches reports whether header starts with one of the magic byte sequences of c.
func (c codec) matches(header []byte) bool {
	for _, mb := range c.Magic {
		if bytes.HasPrefix(header, mb) {
			return true
		}
	}
	return false
}

// codecs is ordered by the length of the magic bytes, longest first, so that the two
// byte signatures of gzip and zlib never shadow a longer one.
var codecs = []codec{
	{
		// https://github.com/google/snappy/blob/main/framing_format.txt
		Ext:   fileExtensionSnappy,
		Magic: [][]byte{append([]byte{0xff, 0x06, 0x00, 0x00}, "sNaPpY"...)},
		Open: func(r io.Reader) (io.Reader, error) {
			return snappy.NewReader(r), nil
		},
	},
	{
		// https://tukaani.org/xz/xz-file-format-1.0.4.txt
		Ext:   fileExtensionXz,
		Magic: [][]byte{{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
		Open: func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		},
	},
	{
		Ext: fileExtensionBzip2,
		Magic: [][]byte{
			[]byte("BZh1"), []byte("BZh2"), []byte("BZh3"),
			[]byte("BZh4"), []byte("BZh5"), []byte("BZh6"),
			[]byte("BZh7"), []byte("BZh8"), []byte("BZh9"),
		},
		Open: func(r io.Reader) (io.Reader, error) {
			return bzip2.NewReader(r, &bzip2.ReaderConfig{})
		},
	},
	{
		Ext:   fileExtensionLZ4,
		Magic: [][]byte{{0x04, 0x22, 0x4d, 0x18}},
		Open: func(r io.Reader) (io.Reader, error) {
			return lz4.NewReader(r), nil
		},
	},
	{
		// https://www.rfc-editor.org/rfc/rfc8878.html
		Ext:   fileExtensionZstd,
		Magic: [][]byte{{0x28, 0xb5, 0x2f, 0xfd}},
		Open: func(r io.Reader) (io.Reader, error) {
			dec, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			// closing releases the decoder goroutines
			return dec.IOReadCloser(), nil
		},
	},
	{
		Ext:   fileExtensionGZip,
		Magic: [][]byte{{0x1f, 0x8b}},
		Open: func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		},
	},
	{
		// https://www.ietf.org/rfc/rfc1950.txt
		Ext: fileExtensionZlib,
		Magic: [][]byte{
			{0x78, 0x01}, {0x78, 0x5e}, {0x78, 0x9c}, {0x78, 0xda},
			{0x78, 0x20}, {0x78, 0x7d}, {0x78, 0xbb}, {0x78, 0xf9},
		},
		Open: func(r io.Reader) (io.Reader, error) {
			return zlib.NewReader(r)
		},
	},
	{
		// brotli streams carry no signature
		Ext: fileExtensionBrotli,
		Open: func(r io.Reader) (io.Reader, error) {
			return brotli.NewReader(r), nil
		},
	},
}

// maxHeaderLength is the number of bytes needed to check all magic bytes.
var maxHeaderLength = func() int {
	longest := 0
	for _, c := range codecs {
		for _, mb := range c.Magic {
			longest = max(longest, len(mb))
		}
	}
	return longest
}()

// codecByExt returns the codec for the file extension ext.
func codecByExt(ext string) (codec, bool) {
	for _, c := range codecs {
		if c.Ext == ext {
			return c, true
		}
	}
	return codec{}, false
}
