// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
)

// nameRestriction is a struct that holds the name of the restriction and the regex
type nameRestriction struct {
	name  string
	regex *regexp.Regexp
}

// namingRestrictions holds all restrictions for the name of an extracted file
var namingRestrictions []nameRestriction

// init prepares the output name restriction regex
func init() {
	namingRestrictions = []nameRestriction{
		{"empty name", regexp.MustCompile(`^$`)},
		{"maximum length 255", regexp.MustCompile(`^.{256,}$`)},
		{"exclude line break, feed and tab", regexp.MustCompile(`[\x0a\x0d\x09]`)},
	}

	if runtime.GOOS != "windows" {

		// invalid unix filesystem characters: null byte, slash and backslash; any other unicode is allowed
		namingRestrictions = append(namingRestrictions,
			nameRestriction{"invalid character in filename (unix): null byte, slash, backslash", regexp.MustCompile(`[\x00/\\]`)},
		)
	}

	if runtime.GOOS == "windows" {

		// invalid windows filesystem characters: control characters and <>:"/\\|?*
		// https://docs.microsoft.com/en-us/windows/win32/fileio/naming-a-file
		namingRestrictions = append(namingRestrictions,
			nameRestriction{"invalid characters (windows)", regexp.MustCompile(`[\x00-\x1f<>:"/\\|?*]`)},
			nameRestriction{"trailing dot or space (windows)", regexp.MustCompile(`[. ]$`)},
		)
	}
}

// checkOutputName returns an error naming the first restriction name violates.
func checkOutputName(name string) error {
	for _, r := range namingRestrictions {
		if r.regex.MatchString(name) {
			return fmt.Errorf("invalid output name %q: %s", name, r.name)
		}
	}
	return nil
}

// splitExt returns the extension of name including the leading dot. Leading dots of a
// name do not start an extension, so ".bashrc" has none while "file." has ".".
func splitExt(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	if strings.TrimLeft(name[:i], ".") == "" {
		return ""
	}
	return name[i:]
}

// extractionWriter persists matching files as <digest><extension> below dst.
type extractionWriter struct {
	t        Target
	dst      string
	cfg      *Config
	counters *scanCounters

	mu      sync.Mutex
	locks   map[string]*sync.Mutex // per output name, serializes writes of equal digests
	written map[string]struct{}    // output names written during this walk
}

// newExtractionWriter returns a writer for the output directory dst.
func newExtractionWriter(t Target, dst string, cfg *Config, counters *scanCounters) *extractionWriter {
	return &extractionWriter{
		t:        t,
		dst:      dst,
		cfg:      cfg,
		counters: counters,
		locks:    make(map[string]*sync.Mutex),
		written:  make(map[string]struct{}),
	}
}

// lock locks the output name and returns the unlock function.
func (w *extractionWriter) lock(name string) func() {
	w.mu.Lock()
	l, ok := w.locks[name]
	if !ok {
		l = &sync.Mutex{}
		w.locks[name] = l
	}
	w.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// outputName returns the name of the extracted file for digest and the source entry
// name. An extension that would produce an invalid file name is dropped.
func (w *extractionWriter) outputName(digest, entryName string) (string, string) {
	ext := splitExt(entryName)
	name := digest + ext
	if err := checkOutputName(name); err != nil {
		w.cfg.Logger().Warn("drop extension of extracted file", "source", entryName, "error", err)
		return digest, ""
	}
	return name, ext
}

// write streams the content of r into <dst>/<digest><extension>. An existing file with that
// name is overwritten, unless it has been written before during this walk and duplicate
// extraction is skipped.
func (w *extractionWriter) write(r Readable, entry FileEntry, logicalPath, digest string) (*ExtractedFile, error) {
	name, ext := w.outputName(digest, entry.Name)
	outPath := filepath.Join(w.dst, name)
	rec := &ExtractedFile{
		Digest:     digest,
		Extension:  ext,
		SourcePath: logicalPath,
		SourceSize: entry.Size,
		OutputPath: outPath,
	}

	unlock := w.lock(name)
	defer unlock()

	if w.cfg.SkipDuplicateExtraction() {
		w.mu.Lock()
		_, seen := w.written[name]
		w.mu.Unlock()
		if seen {
			w.counters.deduplicated.Add(1)
			rec.Deduplicated = true
			return rec, nil
		}
	}

	// never write through a symlink or onto a directory
	if err := securityCheck(w.t, w.dst, name); err != nil {
		return nil, fmt.Errorf("security check failed: %w", err)
	}

	// check the limit over all extracted files
	current := w.counters.extractionSize.Load()
	if err := w.cfg.CheckExtractionSize(current + int64(entry.Size)); err != nil {
		return nil, err
	}
	maxSize := int64(-1)
	if w.cfg.MaxExtractionSize() >= 0 {
		maxSize = w.cfg.MaxExtractionSize() - current
	}

	if sc, ok := w.t.(spaceChecker); ok {
		avail, err := sc.AvailableSpace(w.dst)
		if err != nil {
			w.cfg.Logger().Debug("cannot check available space", "path", w.dst, "error", err)
		} else if avail >= 0 && uint64(avail) < entry.Size {
			return nil, fmt.Errorf("%w: need %d bytes, %d available", ErrInsufficientSpace, entry.Size, avail)
		}
	}

	cr := newChunkReader(r, entry.Size, w.cfg.ChunkSize())
	n, err := w.t.CreateFile(outPath, cr, w.cfg.CustomFileMode(), true, maxSize)
	w.counters.extractionSize.Add(n)
	if err != nil {
		return nil, fmt.Errorf("cannot write %s: %w", outPath, err)
	}
	rec.Written = n

	if stats := cr.stats(); stats.Short {
		w.cfg.Logger().Warn("extracted truncated file", "path", logicalPath, "size", entry.Size, "written", n, "error", stats.Err)
	}

	// carry over the modification time
	if !w.cfg.DropFileAttributes() && !entry.ModTime.IsZero() {
		if err := w.t.Chtimes(outPath, entry.ModTime, entry.ModTime); err != nil {
			w.cfg.Logger().Warn("cannot set modification time", "path", outPath, "error", err)
		}
	}

	w.mu.Lock()
	w.written[name] = struct{}{}
	w.mu.Unlock()
	w.counters.extracted.Add(1)

	return rec, nil
}
