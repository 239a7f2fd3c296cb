// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// TargetMemory is an in-memory output location. It is a map of slash separated paths to
// [MemoryEntry]. Paths must satisfy [fs.ValidPath]. Permissions on entries are
// recorded but not enforced. TargetMemory is used for dry runs and tests.
type TargetMemory struct {
	files sync.Map // map[string]*MemoryEntry
}

// NewTargetMemory creates a new in-memory output location.
func NewTargetMemory() *TargetMemory {
	return &TargetMemory{
		files: sync.Map{},
	}
}

// CreateFile creates a new file in memory. The file is created with the given mode.
// If the overwrite flag is set to false and the file already exists, an error is returned. If the overwrite
// flag is set to true, the file is overwritten. The maxSize parameter can be used to limit the size of the file.
// If the file exceeds the maxSize, an error is returned and the entry is not stored.
func (m *TargetMemory) CreateFile(path string, src io.Reader, mode fs.FileMode, overwrite bool, maxSize int64) (int64, error) {
	if !fs.ValidPath(path) {
		return 0, fmt.Errorf("%w: %s", fs.ErrInvalid, path)
	}
	if !overwrite {
		if _, ok := m.files.Load(path); ok {
			return 0, fmt.Errorf("%w: %s", fs.ErrExist, path)
		}
	}

	// create byte buffered writer
	var buf bytes.Buffer
	w := limitWriter(&buf, maxSize)

	// write to buffer
	n, err := io.Copy(w, src)
	if err != nil {
		return n, err
	}

	// create entry
	m.files.Store(path, &MemoryEntry{
		FileInfo: &MemoryFileInfo{name: filepath.Base(path), size: n, mode: mode.Perm(), modTime: now()},
		Data:     buf.Bytes(),
	})

	return n, nil
}

// CreateDir creates a new directory in memory. If the directory already exists, nothing is done.
func (m *TargetMemory) CreateDir(path string, mode fs.FileMode) error {
	if !fs.ValidPath(path) {
		return fmt.Errorf("%w: %s", fs.ErrInvalid, path)
	}

	// check if an entry already exists
	if _, ok := m.files.Load(path); ok {
		return nil
	}

	m.files.Store(path, &MemoryEntry{
		FileInfo: &MemoryFileInfo{name: filepath.Base(path), mode: mode.Perm() | fs.ModeDir, modTime: now()},
	})

	return nil
}

// Lstat returns the FileInfo for the given path. If the path does not exist, an error
// wrapping [fs.ErrNotExist] is returned.
func (m *TargetMemory) Lstat(path string) (fs.FileInfo, error) {
	if !fs.ValidPath(path) {
		return nil, fmt.Errorf("%w: %s", fs.ErrInvalid, path)
	}
	if e, ok := m.files.Load(path); ok {
		return e.(*MemoryEntry).FileInfo, nil
	}
	return nil, fmt.Errorf("%w: %s", fs.ErrNotExist, path)
}

// Chtimes changes the modification time of the entry at path. The access time is not recorded.
func (m *TargetMemory) Chtimes(path string, _ time.Time, mtime time.Time) error {
	if !fs.ValidPath(path) {
		return fmt.Errorf("%w: %s", fs.ErrInvalid, path)
	}
	e, ok := m.files.Load(path)
	if !ok {
		return fmt.Errorf("%w: %s", fs.ErrNotExist, path)
	}
	me := e.(*MemoryEntry)
	fi := *me.FileInfo.(*MemoryFileInfo)
	fi.modTime = mtime
	m.files.Store(path, &MemoryEntry{FileInfo: &fi, Data: me.Data})
	return nil
}

// ReadDir returns the entries of the directory at path, sorted by name.
func (m *TargetMemory) ReadDir(path string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(path) {
		return nil, fmt.Errorf("%w: %s", fs.ErrInvalid, path)
	}

	// get all entries in the directory
	var entries []fs.DirEntry
	m.files.Range(func(entryPath, me any) bool {
		p := entryPath.(string)
		if p != path && filepath.Dir(p) == path {
			entries = append(entries, me.(*MemoryEntry))
		}
		return true
	})

	// sort slice of entries based on name
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	return entries, nil
}

// ReadFile returns the content of the file at path.
func (m *TargetMemory) ReadFile(path string) ([]byte, error) {
	if !fs.ValidPath(path) {
		return nil, fmt.Errorf("%w: %s", fs.ErrInvalid, path)
	}
	if e, ok := m.files.Load(path); ok {
		me := e.(*MemoryEntry)
		if me.FileInfo.IsDir() {
			return nil, fmt.Errorf("cannot read directory")
		}
		return me.Data, nil
	}
	return nil, fmt.Errorf("%w: %s", fs.ErrNotExist, path)
}

// MemoryEntry is an entry of [TargetMemory].
type MemoryEntry struct {
	FileInfo fs.FileInfo
	Data     []byte
}

func (me *MemoryEntry) Name() string {
	return me.FileInfo.Name()
}

func (me *MemoryEntry) IsDir() bool {
	return me.FileInfo.IsDir()
}

func (me *MemoryEntry) Type() fs.FileMode {
	return me.FileInfo.Mode().Type()
}

func (me *MemoryEntry) Info() (fs.FileInfo, error) {
	return me.FileInfo, nil
}

// MemoryFileInfo is a FileInfo implementation for [TargetMemory].
type MemoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi *MemoryFileInfo) Name() string {
	return fi.name
}

func (fi *MemoryFileInfo) Size() int64 {
	return fi.size
}

func (fi *MemoryFileInfo) Mode() fs.FileMode {
	return fi.mode
}

func (fi *MemoryFileInfo) ModTime() time.Time {
	return fi.modTime
}

func (fi *MemoryFileInfo) IsDir() bool {
	return fi.mode.IsDir()
}

func (fi *MemoryFileInfo) Sys() any {
	return nil
}
