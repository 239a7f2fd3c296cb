// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSplitExt(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{name: "file.txt", want: ".txt"},
		{name: "archive.tar.gz", want: ".gz"},
		{name: "Makefile", want: ""},
		{name: ".bashrc", want: ""},
		{name: "..hidden", want: ""},
		{name: "..hidden.conf", want: ".conf"},
		{name: "file.", want: "."},
		{name: "", want: ""},
		{name: "UPPER.JPG", want: ".JPG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := splitExt(tc.name); got != tc.want {
				t.Errorf("splitExt(%q) = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}

func TestCheckOutputName(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{name: "D41D8CD98F00B204E9800998ECF8427E.txt", wantErr: false},
		{name: "", wantErr: true},
		{name: strings.Repeat("a", 256), wantErr: true},
		{name: strings.Repeat("a", 255), wantErr: false},
		{name: "a\nb", wantErr: true},
		{name: "a\tb", wantErr: true},
		{name: "a/b", wantErr: true},
		{name: "a\\b", wantErr: true},
		{name: "a\x00b", wantErr: true},
		{name: "snow☃man", wantErr: false},
		{name: "D41D8CD98F00B204E9800998ECF8427E.докум", wantErr: false},
		{name: "D41D8CD98F00B204E9800998ECF8427E.文書", wantErr: false},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("tc %d", i), func(t *testing.T) {
			err := checkOutputName(tc.name)
			if (err != nil) != tc.wantErr {
				t.Errorf("checkOutputName(%q) = %v, want error %v", tc.name, err, tc.wantErr)
			}
		})
	}
}

func TestOutputName(t *testing.T) {
	w := newExtractionWriter(NewTargetMemory(), "out", NewConfig(), &scanCounters{})
	digest := "D41D8CD98F00B204E9800998ECF8427E"

	name, ext := w.outputName(digest, "photo.jpg")
	if name != digest+".jpg" || ext != ".jpg" {
		t.Errorf("unexpected name %q, ext %q", name, ext)
	}

	// an extension that makes the name invalid is dropped
	name, ext = w.outputName(digest, "x."+strings.Repeat("e", 250))
	if name != digest || ext != "" {
		t.Errorf("unexpected name %q, ext %q", name, ext)
	}
	if runtime.GOOS != "windows" {
		name, _ = w.outputName(digest, "x.a\\b")
		if name != digest {
			t.Errorf("unexpected name %q", name)
		}
	}
}

func TestWriterConcurrentSameName(t *testing.T) {
	target := NewTargetMemory()
	if err := target.CreateDir("out", 0750); err != nil {
		t.Fatalf("CreateDir() failed: %s", err)
	}
	counters := &scanCounters{}
	w := newExtractionWriter(target, "out", NewConfig(WithSkipDuplicateExtraction(true)), counters)

	content := []byte("same content")
	digest := "ABC"
	entry := FileEntry{Name: "f.bin", Kind: KindRegular, Size: uint64(len(content)), ModTime: time.Unix(1000, 0)}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := w.write(bytes.NewReader(content), entry, fmt.Sprintf("/%d/f.bin", i), digest); err != nil {
				t.Errorf("write() failed: %s", err)
			}
		}(i)
	}
	wg.Wait()

	if got := counters.extracted.Load(); got != 1 {
		t.Errorf("extracted %d times, want 1", got)
	}
	if got := counters.deduplicated.Load(); got != 15 {
		t.Errorf("deduplicated %d times, want 15", got)
	}
	data, err := target.ReadFile("out/ABC.bin")
	if err != nil || !bytes.Equal(data, content) {
		t.Fatalf("unexpected content %q: %v", data, err)
	}
	stat, _ := target.Lstat("out/ABC.bin")
	if !stat.ModTime().Equal(time.Unix(1000, 0)) {
		t.Errorf("modification time not applied: %v", stat.ModTime())
	}
}

func TestWriterDropFileAttributes(t *testing.T) {
	target := NewTargetMemory()
	if err := target.CreateDir("out", 0750); err != nil {
		t.Fatalf("CreateDir() failed: %s", err)
	}
	w := newExtractionWriter(target, "out", NewConfig(WithDropFileAttributes(true)), &scanCounters{})

	mtime := time.Unix(1000, 0)
	entry := FileEntry{Name: "f", Kind: KindRegular, Size: 1, ModTime: mtime}
	rec, err := w.write(bytes.NewReader([]byte("x")), entry, "/f", "ABC")
	if err != nil {
		t.Fatalf("write() failed: %s", err)
	}
	if rec.Written != 1 || rec.OutputPath != "out/ABC" || rec.SourcePath != "/f" {
		t.Errorf("unexpected record: %+v", rec)
	}
	stat, _ := target.Lstat("out/ABC")
	if stat.ModTime().Equal(mtime) {
		t.Errorf("modification time applied although attributes are dropped")
	}
}

// fullTarget reports no free space.
type fullTarget struct {
	*TargetMemory
}

func (fullTarget) AvailableSpace(string) (int64, error) { return 10, nil }

func TestWriterInsufficientSpace(t *testing.T) {
	target := fullTarget{NewTargetMemory()}
	if err := target.CreateDir("out", 0750); err != nil {
		t.Fatalf("CreateDir() failed: %s", err)
	}
	w := newExtractionWriter(target, "out", NewConfig(), &scanCounters{})

	content := bytes.Repeat([]byte("x"), 11)
	entry := FileEntry{Name: "big", Kind: KindRegular, Size: uint64(len(content))}
	if _, err := w.write(bytes.NewReader(content), entry, "/big", "ABC"); !errors.Is(err, ErrInsufficientSpace) {
		t.Fatalf("expected ErrInsufficientSpace, got %v", err)
	}

	entry = FileEntry{Name: "small", Kind: KindRegular, Size: 10}
	if _, err := w.write(bytes.NewReader(content[:10]), entry, "/small", "DEF"); err != nil {
		t.Fatalf("write() failed: %s", err)
	}
}
