// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract_test

import (
	"bytes"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	hashextract "github.com/hashicorp/go-hashextract"
)

func TestCreateFile(t *testing.T) {
	// instantiate a new memory
	tm := hashextract.NewTargetMemory()

	// test data
	testPath := "test"
	testContent := "test"
	testPerm := 0644

	// create a file
	if _, err := tm.CreateFile(testPath, bytes.NewReader([]byte(testContent)), fs.FileMode(testPerm), false, -1); err != nil {
		t.Fatalf("CreateFile() failed: %s", err)
	}

	// create the same file, but fail bc it already exists
	if _, err := tm.CreateFile(testPath, bytes.NewReader([]byte(testContent)), fs.FileMode(testPerm), false, -1); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("CreateFile() failed: expected fs.ErrExist, got %v", err)
	}

	// create the same file, but overwrite
	if _, err := tm.CreateFile(testPath, bytes.NewReader([]byte(testContent+testContent)), fs.FileMode(testPerm), true, -1); err != nil {
		t.Fatalf("CreateFile() failed: %s", err)
	}

	// stat the file
	stat, err := tm.Lstat(testPath)
	if err != nil {
		t.Fatalf("Lstat() failed: %s", err)
	}

	// check name
	if stat.Name() != testPath {
		t.Fatalf("Name() returned unexpected value: expected %s, got %s", testPath, stat.Name())
	}

	// check mode
	if int(stat.Mode().Perm()&fs.ModePerm) != testPerm {
		t.Fatalf("Mode() returned unexpected value: expected %d, got %d", testPerm, stat.Mode().Perm())
	}

	// read the file
	data, err := tm.ReadFile(testPath)
	if err != nil {
		t.Fatalf("ReadFile() failed: %s", err)
	}
	if string(data) != testContent+testContent {
		t.Fatalf("unexpected file contents: expected %s, got %s", testContent+testContent, data)
	}
}

func TestCreateFileMaxSize(t *testing.T) {
	tm := hashextract.NewTargetMemory()

	n, err := tm.CreateFile("big", strings.NewReader("0123456789"), 0640, false, 4)
	if err == nil {
		t.Fatalf("CreateFile() succeeded, but the content exceeds the maximum size")
	}
	if n > 4 {
		t.Fatalf("CreateFile() wrote %d bytes, more than the maximum", n)
	}
	if _, err := tm.Lstat("big"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("oversized file has been stored: %v", err)
	}

	if _, err := tm.CreateFile("exact", strings.NewReader("0123"), 0640, false, 4); err != nil {
		t.Fatalf("CreateFile() failed at the maximum size: %s", err)
	}
}

func TestInvalidPath(t *testing.T) {
	tm := hashextract.NewTargetMemory()
	for _, p := range []string{"/abs", "../up", "a//b", ""} {
		if _, err := tm.CreateFile(p, strings.NewReader("x"), 0640, false, -1); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("CreateFile(%q): expected fs.ErrInvalid, got %v", p, err)
		}
		if err := tm.CreateDir(p, 0750); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("CreateDir(%q): expected fs.ErrInvalid, got %v", p, err)
		}
		if _, err := tm.Lstat(p); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("Lstat(%q): expected fs.ErrInvalid, got %v", p, err)
		}
	}
}

func TestMemoryReadDir(t *testing.T) {
	tm := hashextract.NewTargetMemory()
	if err := tm.CreateDir("out", 0750); err != nil {
		t.Fatalf("CreateDir() failed: %s", err)
	}
	if err := tm.CreateDir("out/sub", 0750); err != nil {
		t.Fatalf("CreateDir() failed: %s", err)
	}
	for _, name := range []string{"out/b", "out/a", "out/sub/c"} {
		if _, err := tm.CreateFile(name, strings.NewReader(name), 0640, false, -1); err != nil {
			t.Fatalf("CreateFile() failed: %s", err)
		}
	}

	entries, err := tm.ReadDir("out")
	if err != nil {
		t.Fatalf("ReadDir() failed: %s", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "a,b,sub" {
		t.Fatalf("unexpected entries: %v", names)
	}
	if !entries[2].IsDir() || entries[2].Type()&fs.ModeDir == 0 {
		t.Fatalf("sub is not a directory")
	}
	info, err := entries[0].Info()
	if err != nil || info.Size() != int64(len("out/a")) {
		t.Fatalf("unexpected info: %v %v", info, err)
	}

	// directories cannot be read as file
	if _, err := tm.ReadFile("out/sub"); err == nil {
		t.Fatalf("ReadFile() on a directory succeeded")
	}
	if _, err := tm.ReadFile("out/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestMemoryChtimes(t *testing.T) {
	tm := hashextract.NewTargetMemory()
	if _, err := tm.CreateFile("f", strings.NewReader("data"), 0640, false, -1); err != nil {
		t.Fatalf("CreateFile() failed: %s", err)
	}

	mtime := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	if err := tm.Chtimes("f", time.Now(), mtime); err != nil {
		t.Fatalf("Chtimes() failed: %s", err)
	}
	stat, err := tm.Lstat("f")
	if err != nil {
		t.Fatalf("Lstat() failed: %s", err)
	}
	if !stat.ModTime().Equal(mtime) {
		t.Fatalf("unexpected modification time: %v", stat.ModTime())
	}

	// content is kept
	data, _ := tm.ReadFile("f")
	if string(data) != "data" {
		t.Fatalf("content changed: %s", data)
	}

	if err := tm.Chtimes("missing", mtime, mtime); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestCreateDirExisting(t *testing.T) {
	tm := hashextract.NewTargetMemory()
	if err := tm.CreateDir("dir", 0750); err != nil {
		t.Fatalf("CreateDir() failed: %s", err)
	}
	if err := tm.CreateDir("dir", 0700); err != nil {
		t.Fatalf("CreateDir() on existing directory failed: %s", err)
	}
	stat, _ := tm.Lstat("dir")
	if stat.Mode().Perm() != 0750 || !stat.IsDir() {
		t.Fatalf("existing directory has been replaced: %v", stat.Mode())
	}
}
