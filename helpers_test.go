// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract_test

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"
	"time"

	hashextract "github.com/hashicorp/go-hashextract"
)

// treeFS is a hashextract.Filesystem with explicit directory listings, keyed by logical path.
type treeFS struct {
	dirs      map[string][]hashextract.FileEntry
	files     map[string][]byte
	sizes     map[string]uint64 // declared sizes that differ from the content
	failDirs  map[string]error
	failFiles map[string]error

	// loopDir is listed for every directory named "loop"
	loopDir string

	mu     sync.Mutex
	opened int
	closed int
}

type treeDir string

func (d treeDir) Path() string { return string(d) }

func newTreeFS() *treeFS {
	return &treeFS{
		dirs:      map[string][]hashextract.FileEntry{"/": nil},
		files:     map[string][]byte{},
		sizes:     map[string]uint64{},
		failDirs:  map[string]error{},
		failFiles: map[string]error{},
	}
}

// addFile adds a regular file to the directory dir. The ID is dir/name.
func (f *treeFS) addFile(dir, name string, content []byte) {
	id := strings.TrimSuffix(dir, "/") + "/" + name
	f.files[id] = content
	size := uint64(len(content))
	if s, ok := f.sizes[id]; ok {
		size = s
	}
	f.dirs[dir] = append(f.dirs[dir], hashextract.FileEntry{
		Name:    name,
		Kind:    hashextract.KindRegular,
		ID:      id,
		Size:    size,
		ModTime: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
	})
}

// addDir adds a directory entry to dir and creates the listing of the new directory.
func (f *treeFS) addDir(dir, name string) string {
	p := strings.TrimSuffix(dir, "/") + "/" + name
	f.dirs[dir] = append(f.dirs[dir], hashextract.FileEntry{Name: name, Kind: hashextract.KindDirectory})
	if _, ok := f.dirs[p]; !ok {
		f.dirs[p] = nil
	}
	return p
}

// addEntry adds an arbitrary entry to dir.
func (f *treeFS) addEntry(dir string, e hashextract.FileEntry) {
	f.dirs[dir] = append(f.dirs[dir], e)
}

func (f *treeFS) listing(p string) ([]hashextract.FileEntry, bool) {
	if entries, ok := f.dirs[p]; ok {
		return entries, true
	}
	if f.loopDir != "" && strings.HasSuffix(p, "/loop") {
		return f.dirs[f.loopDir], true
	}
	return nil, false
}

func (f *treeFS) OpenRoot() (hashextract.Directory, error) {
	if err := f.failDirs["/"]; err != nil {
		return nil, err
	}
	return treeDir("/"), nil
}

func (f *treeFS) OpenDir(p string) (hashextract.Directory, error) {
	if err := f.failDirs[p]; err != nil {
		return nil, err
	}
	if _, ok := f.listing(p); !ok {
		return nil, fmt.Errorf("%s: %w", p, fs.ErrNotExist)
	}
	return treeDir(p), nil
}

func (f *treeFS) ReadDir(d hashextract.Directory) ([]hashextract.FileEntry, error) {
	entries, ok := f.listing(d.Path())
	if !ok {
		return nil, fmt.Errorf("%s: %w", d.Path(), fs.ErrNotExist)
	}
	return entries, nil
}

func (f *treeFS) OpenFile(id any) (hashextract.Readable, error) {
	name := id.(string)
	if err := f.failFiles[name]; err != nil {
		return nil, err
	}
	data, ok := f.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()
	return &trackedReadable{ReaderAt: bytes.NewReader(data), fs: f}, nil
}

// trackedReadable counts Close calls in its filesystem.
type trackedReadable struct {
	io.ReaderAt
	fs *treeFS
}

func (r *trackedReadable) Close() error {
	r.fs.mu.Lock()
	r.fs.closed++
	r.fs.mu.Unlock()
	return nil
}

// md5Hex returns the uppercase MD5 hex digest of data.
func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// eventRecorder collects events of a walk.
type eventRecorder struct {
	mu     sync.Mutex
	events []hashextract.Event
}

func (r *eventRecorder) hook() hashextract.EventHook {
	return func(_ context.Context, ev hashextract.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, ev)
	}
}

// count returns the number of recorded events of kind.
func (r *eventRecorder) count(kind hashextract.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// telemetryRecorder keeps the telemetry data of the last walk.
type telemetryRecorder struct {
	td *hashextract.TelemetryData
}

func (r *telemetryRecorder) hook() hashextract.TelemetryHook {
	return func(_ context.Context, td *hashextract.TelemetryData) {
		r.td = td
	}
}
