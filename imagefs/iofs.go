// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package imagefs

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	hashextract "github.com/hashicorp/go-hashextract"
)

// FS serves an [fs.FS] as [hashextract.Filesystem]. Logical paths map to names of the
// [fs.FS] without the leading slash.
type FS struct {
	fsys fs.FS
}

// NewFS returns a [hashextract.Filesystem] for fsys.
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// fsName converts a logical path to a name valid for [fs.FS].
func fsName(logicalPath string) string {
	name := strings.TrimPrefix(path.Join("/", logicalPath), "/")
	if name == "" {
		return "."
	}
	return name
}

// OpenRoot opens the root directory.
func (f *FS) OpenRoot() (hashextract.Directory, error) {
	if _, err := fs.Stat(f.fsys, "."); err != nil {
		return nil, fmt.Errorf("cannot open root directory: %w", err)
	}
	return dirHandle("/"), nil
}

// OpenDir opens the directory at the logical path.
func (f *FS) OpenDir(logicalPath string) (hashextract.Directory, error) {
	stat, err := fs.Stat(f.fsys, fsName(logicalPath))
	if err != nil {
		return nil, fmt.Errorf("cannot open directory: %w", err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", logicalPath)
	}
	return dirHandle(path.Join("/", logicalPath)), nil
}

// ReadDir lists the entries of dir. Entries whose metadata cannot be read are reported
// as [hashextract.KindOther].
func (f *FS) ReadDir(dir hashextract.Directory) ([]hashextract.FileEntry, error) {
	name := fsName(dir.Path())
	dirEntries, err := fs.ReadDir(f.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dir.Path(), err)
	}

	entries := make([]hashextract.FileEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		id := path.Join(name, de.Name())
		info, err := de.Info()
		if err != nil {
			entries = append(entries, hashextract.FileEntry{Name: de.Name(), Kind: hashextract.KindOther, ID: id})
			continue
		}
		entries = append(entries, fileInfoEntry(id, info))
	}
	return entries, nil
}

// OpenFile opens the file with the given ID for reading. Files that do not support
// [io.ReaderAt] are read through their cursor.
func (f *FS) OpenFile(id any) (hashextract.Readable, error) {
	name, ok := id.(string)
	if !ok {
		return nil, fmt.Errorf("invalid file id %v", id)
	}
	file, err := f.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("cannot open file: %w", err)
	}

	switch r := file.(type) {
	case interface {
		io.ReaderAt
		io.Closer
	}:
		return r, nil
	case io.ReadSeeker:
		return &seekReaderAt{mu: &sync.Mutex{}, rs: r}, nil
	default:
		file.Close()
		return nil, fmt.Errorf("file %s does not support random access", name)
	}
}
