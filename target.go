// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Target specifies all function that are needed to be implemented to write extracted files
type Target interface {
	// CreateFile creates a file at the specified path with src as content. The mode parameter is the file mode that
	// should be set on the file. If the file already exists and overwrite is false, an error should be returned. If the
	// file does not exist, it should be created. The size of the file should not exceed maxSize. If the file is created
	// successfully, the number of bytes written should be returned. If an error occurs, the number of bytes written
	// should be returned along with the error. If maxSize < 0, the file size is not limited.
	CreateFile(path string, src io.Reader, mode fs.FileMode, overwrite bool, maxSize int64) (int64, error)

	// CreateDir creates at the specified path with the specified mode. If the directory already exists, nothing is done.
	// The function returns an error if there's a problem creating the directory. If the function completes successfully,
	// it returns nil.
	CreateDir(path string, mode fs.FileMode) error

	// Lstat see docs for os.Lstat. Main purpose is to check if the output directory exists
	// and to detect symlinks in place of output files.
	Lstat(path string) (fs.FileInfo, error)

	// Chtimes see docs for os.Chtimes. Main purpose is to carry the modification time of the
	// source entry over to the extracted file.
	Chtimes(name string, atime, mtime time.Time) error
}

// spaceChecker is implemented by targets that can tell how many bytes are available
// below a path. A negative value means unknown.
type spaceChecker interface {
	AvailableSpace(path string) (int64, error)
}

// createDestination ensures that dst exists. If it does not exist and
// config.CreateDestination() returns true, it is created with config.CustomCreateDirMode().
func createDestination(t Target, dst string, cfg *Config) error {
	if len(dst) == 0 || dst == "." {
		return nil
	}

	stat, err := t.Lstat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		if !cfg.CreateDestination() {
			return fmt.Errorf("destination does not exist")
		}
		if err := t.CreateDir(dst, cfg.CustomCreateDirMode()); err != nil {
			return fmt.Errorf("failed to create destination directory: %w", err)
		}
		cfg.Logger().Info("created destination directory", "path", dst)
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid destination: %w", err)
	}

	// a symlink to a directory is fine, it has been chosen by the caller
	if !stat.IsDir() && stat.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("destination is not a directory")
	}
	return nil
}

// securityCheck checks that name is a single local path element and that the path
// in dst is not a symlink, so that an extracted file never leaves dst.
func securityCheck(t Target, dst string, name string) error {
	if !filepath.IsLocal(name) || filepath.Base(name) != name {
		return fmt.Errorf("invalid output name: %q", name)
	}

	stat, err := t.Lstat(filepath.Join(dst, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("invalid path: %w", err)
	}
	if stat.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("symlink in place of output file")
	}
	if stat.IsDir() {
		return fmt.Errorf("directory in place of output file")
	}
	return nil
}
