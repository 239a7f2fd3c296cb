// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package imagefs

import (
	"fmt"
	"os"
	"path"
	"sync"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	hashextract "github.com/hashicorp/go-hashextract"
)

// Disk is a filesystem decoded from a raw disk image. Supported are the filesystems
// go-diskfs can read, e.g., FAT32, ISO9660 and squashfs.
//
// The decoders keep state in the image handle, so all operations are serialized.
type Disk struct {
	mu        sync.Mutex
	disk      *disk.Disk
	fs        filesystem.FileSystem
	partition int
}

// dirHandle is a directory of a [Disk] or an [FS].
type dirHandle string

// Path returns the logical path of the directory.
func (d dirHandle) Path() string {
	return string(d)
}

// OpenDisk opens the image at imagePath read-only and decodes the filesystem of the given
// partition. Partition 0 treats the whole image as one filesystem, partition N selects the Nth
// entry of the partition table.
func OpenDisk(imagePath string, partition int) (*Disk, error) {
	if partition < 0 {
		return nil, fmt.Errorf("invalid partition %d", partition)
	}
	d, err := diskfs.Open(imagePath, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		return nil, fmt.Errorf("cannot open disk image: %w", err)
	}
	fsys, err := d.GetFilesystem(partition)
	if err != nil {
		d.File.Close()
		return nil, fmt.Errorf("cannot read filesystem of partition %d: %w", partition, err)
	}
	return &Disk{disk: d, fs: fsys, partition: partition}, nil
}

// Type returns the filesystem type name.
func (d *Disk) Type() string {
	switch d.fs.Type() {
	case filesystem.TypeFat32:
		return "fat32"
	case filesystem.TypeISO9660:
		return "iso9660"
	case filesystem.TypeSquashfs:
		return "squashfs"
	default:
		return "unknown"
	}
}

// Partition returns the partition the filesystem has been read from.
func (d *Disk) Partition() int {
	return d.partition
}

// OpenRoot opens the root directory.
func (d *Disk) OpenRoot() (hashextract.Directory, error) {
	return dirHandle("/"), nil
}

// OpenDir opens the directory at the logical path.
func (d *Disk) OpenDir(logicalPath string) (hashextract.Directory, error) {
	p := path.Join("/", logicalPath)

	// a directory can only be opened if its parent lists it as one
	if p == "/" {
		return dirHandle(p), nil
	}
	d.mu.Lock()
	infos, err := d.fs.ReadDir(path.Dir(p))
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("cannot open directory %s: %w", p, err)
	}
	for _, fi := range infos {
		if fi.Name() == path.Base(p) {
			if !fi.IsDir() {
				return nil, fmt.Errorf("not a directory: %s", p)
			}
			return dirHandle(p), nil
		}
	}
	return nil, fmt.Errorf("cannot open directory %s: %w", p, os.ErrNotExist)
}

// ReadDir lists the entries of dir. The ID of an entry is its path in the filesystem.
func (d *Disk) ReadDir(dir hashextract.Directory) ([]hashextract.FileEntry, error) {
	d.mu.Lock()
	infos, err := d.fs.ReadDir(dir.Path())
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dir.Path(), err)
	}

	entries := make([]hashextract.FileEntry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, fileInfoEntry(path.Join(dir.Path(), fi.Name()), fi))
	}
	return entries, nil
}

// OpenFile opens the file with the given ID for reading.
func (d *Disk) OpenFile(id any) (hashextract.Readable, error) {
	p, ok := id.(string)
	if !ok {
		return nil, fmt.Errorf("invalid file id %v", id)
	}
	d.mu.Lock()
	f, err := d.fs.OpenFile(p, os.O_RDONLY)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("cannot open file %s: %w", p, err)
	}
	return &seekReaderAt{mu: &d.mu, rs: f}, nil
}

// Close closes the image.
func (d *Disk) Close() error {
	return d.disk.File.Close()
}

// fileInfoEntry classifies fi as a [hashextract.FileEntry] with the given ID.
func fileInfoEntry(id string, fi os.FileInfo) hashextract.FileEntry {
	entry := hashextract.FileEntry{
		Name:    fi.Name(),
		Kind:    hashextract.KindOther,
		ID:      id,
		ModTime: fi.ModTime(),
	}
	switch {
	case fi.IsDir():
		entry.Kind = hashextract.KindDirectory
	case fi.Mode().IsRegular():
		entry.Kind = hashextract.KindRegular
	}
	if fi.Size() > 0 {
		entry.Size = uint64(fi.Size())
	}
	return entry
}
