// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"io"
	"time"
)

// EntryKind classifies a directory entry. The kind is resolved once by the [Filesystem]
// implementation, the walker never probes entries for optional metadata.
type EntryKind int

const (
	// KindOther is everything that is neither a regular file nor a directory, e.g., symlinks,
	// device nodes, FIFOs, sockets or entries with missing metadata.
	KindOther EntryKind = iota

	// KindRegular is a regular file with content.
	KindRegular

	// KindDirectory is a directory that can be opened with [Filesystem.OpenDir].
	KindDirectory
)

// String returns a human readable representation of the kind.
func (k EntryKind) String() string {
	switch k {
	case KindRegular:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "other"
	}
}

// FileEntry is a single entry of a directory listing.
type FileEntry struct {
	// Name is the entry name as stored in the directory, without any path component.
	Name string

	// Kind is the resolved entry type.
	Kind EntryKind

	// ID is an opaque handle that is passed back to [Filesystem.OpenFile]. Its meaning is
	// defined by the filesystem implementation (inode number, path, cluster, ...).
	ID any

	// Size is the declared size of the entry in bytes.
	Size uint64

	// ModTime is the modification time of the entry, if known.
	ModTime time.Time
}

// Directory is an opened directory of a [Filesystem].
type Directory interface {
	// Path returns the logical path of the directory.
	Path() string
}

// Readable is an opened file of a [Filesystem]. ReadAt follows the [io.ReaderAt] contract: at the
// end of the data it returns fewer bytes than requested, possibly zero, together with [io.EOF].
//
// If a Readable also implements [io.Closer], it is closed after the file has been processed.
type Readable interface {
	io.ReaderAt
}

//go:generate mockgen -destination=internal/mocks/filesystem.go -package=mocks github.com/hashicorp/go-hashextract Filesystem

// Filesystem is the capability the walker needs from an image. Implementations decode the image;
// the walker only navigates.
type Filesystem interface {
	// OpenRoot opens the root directory of the filesystem.
	OpenRoot() (Directory, error)

	// ReadDir lists all entries of dir, including "." and ".." if the filesystem stores them.
	ReadDir(dir Directory) ([]FileEntry, error)

	// OpenDir opens the directory at the given logical path.
	OpenDir(logicalPath string) (Directory, error)

	// OpenFile opens the file identified by id, see [FileEntry.ID].
	OpenFile(id any) (Readable, error)
}
