// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Image is a raw image file on disk. Compressed images are decompressed into a
// temporary file first, which is removed by [Image.Close].
type Image struct {
	// Path is the path of the raw, uncompressed image.
	Path string

	// Source is the path the image has been opened from.
	Source string

	// Compression is the file extension of the detected compression, or empty.
	Compression string

	// Size is the size of the raw image in bytes.
	Size int64

	f         *os.File
	temporary bool
}

// OpenImage opens the image at path for reading. If the file is compressed (gzip, bzip2, xz,
// zstd, lz4, snappy, zlib, brotli), it is decompressed into a temporary file limited by
// [Config.MaxInputSize].
func OpenImage(ctx context.Context, path string, cfg *Config) (*Image, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open image: %w", err)
	}

	stream, compression, err := decompressStream(ctx, src, path, cfg)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("cannot open image: %w", err)
	}

	// plain image, use it in place
	if len(compression) == 0 {
		stream.Close()
		stat, err := src.Stat()
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("cannot stat image: %w", err)
		}
		return &Image{Path: path, Source: path, Size: stat.Size(), f: src}, nil
	}
	defer src.Close()
	defer stream.Close()

	cfg.Logger().Info("decompress image", "path", path, "compression", compression)
	tmpFile, err := os.CreateTemp("", "hashextract-image-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temporary image: %w", err)
	}

	n, err := io.Copy(tmpFile, stream)
	if err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return nil, fmt.Errorf("cannot decompress image (%s): %w", compression, err)
	}

	cfg.Logger().Debug("decompressed image", "path", tmpFile.Name(), "size", n)
	return &Image{
		Path:        tmpFile.Name(),
		Source:      path,
		Compression: compression,
		Size:        n,
		f:           tmpFile,
		temporary:   true,
	}, nil
}

// ReadAt implements [io.ReaderAt] on the raw image.
func (i *Image) ReadAt(p []byte, off int64) (int, error) {
	return i.f.ReadAt(p, off)
}

// Close closes the image and removes a temporary decompressed copy.
func (i *Image) Close() error {
	err := i.f.Close()
	if i.temporary {
		err = errors.Join(err, os.Remove(i.Path))
	}
	return err
}
