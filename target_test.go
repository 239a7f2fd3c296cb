// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func testTargets(t *testing.T) []struct {
	name   string
	dir    string
	target Target
} {
	return []struct {
		name   string
		dir    string
		target Target
	}{
		{
			name:   "disk",
			dir:    filepath.Join(t.TempDir(), "out"),
			target: NewTargetDisk(),
		},
		{
			name:   "memory",
			dir:    "out",
			target: NewTargetMemory(),
		},
	}
}

func TestCreateDestination(t *testing.T) {
	for _, test := range testTargets(t) {
		t.Run(test.name, func(t *testing.T) {

			// missing destination is not created if disabled
			if err := createDestination(test.target, test.dir, NewConfig(WithCreateDestination(false))); err == nil {
				t.Fatalf("createDestination() succeeded, but the destination must not be created")
			}

			// missing destination is created
			if err := createDestination(test.target, test.dir, NewConfig()); err != nil {
				t.Fatalf("createDestination() failed: %s", err)
			}
			stat, err := test.target.Lstat(test.dir)
			if err != nil || !stat.IsDir() {
				t.Fatalf("destination is not a directory: %v %v", stat, err)
			}

			// existing destination is fine
			if err := createDestination(test.target, test.dir, NewConfig(WithCreateDestination(false))); err != nil {
				t.Fatalf("createDestination() failed on existing directory: %s", err)
			}

			// a file in place of the destination is rejected
			file := filepath.Join(test.dir, "file")
			if _, err := test.target.CreateFile(file, bytes.NewReader([]byte("x")), 0640, false, -1); err != nil {
				t.Fatalf("CreateFile() failed: %s", err)
			}
			if err := createDestination(test.target, file, NewConfig()); err == nil {
				t.Fatalf("createDestination() accepted a file as destination")
			}

			// working directory needs no check
			if err := createDestination(test.target, ".", NewConfig()); err != nil {
				t.Fatalf("createDestination(.) failed: %s", err)
			}
		})
	}
}

func TestSecurityCheck(t *testing.T) {
	for _, test := range testTargets(t) {
		t.Run(test.name, func(t *testing.T) {
			if err := test.target.CreateDir(test.dir, 0750); err != nil {
				t.Fatalf("CreateDir() failed: %s", err)
			}
			if err := test.target.CreateDir(filepath.Join(test.dir, "sub"), 0750); err != nil {
				t.Fatalf("CreateDir() failed: %s", err)
			}
			if _, err := test.target.CreateFile(filepath.Join(test.dir, "existing"), bytes.NewReader(nil), 0640, false, -1); err != nil {
				t.Fatalf("CreateFile() failed: %s", err)
			}

			cases := []struct {
				name    string
				file    string
				wantErr bool
			}{
				{name: "new file", file: "ABC.txt", wantErr: false},
				{name: "existing file", file: "existing", wantErr: false},
				{name: "directory in place", file: "sub", wantErr: true},
				{name: "traversal", file: "../ABC.txt", wantErr: true},
				{name: "nested", file: "sub/ABC.txt", wantErr: true},
				{name: "absolute", file: "/ABC.txt", wantErr: true},
			}
			for _, tc := range cases {
				err := securityCheck(test.target, test.dir, tc.file)
				if (err != nil) != tc.wantErr {
					t.Errorf("%s: securityCheck(%q) = %v, want error %v", tc.name, tc.file, err, tc.wantErr)
				}
			}
		})
	}
}

func TestSecurityCheckSymlink(t *testing.T) {
	dir := t.TempDir()
	if err := os.Symlink(t.TempDir(), filepath.Join(dir, "link")); err != nil {
		t.Skipf("cannot create symlink: %s", err)
	}
	if err := securityCheck(NewTargetDisk(), dir, "link"); err == nil {
		t.Fatalf("securityCheck() accepted a symlink in place of the output file")
	}
}
