// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Walk walks the directory tree of fsys depth-first, hashes every regular file and writes
// the files whose digest is in hs to the directory dst on disk. It returns the number of
// matching files that have been extracted.
//
// The walk fails if dst cannot be created or the root directory of fsys cannot be opened or
// listed. Directories below the root that cannot be opened are skipped. Files that cannot be
// opened or written end the walk only if [WithContinueOnError] is set to false.
func Walk(ctx context.Context, fsys Filesystem, hs *HashSet, dst string, cfg *Config) (int64, error) {
	return WalkTo(ctx, NewTargetDisk(), fsys, hs, dst, cfg)
}

// WalkTo is like [Walk], but writes the extracted files to the [Target] t.
func WalkTo(ctx context.Context, t Target, fsys Filesystem, hs *HashSet, dst string, cfg *Config) (int64, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	// collect telemetry data and hand it over when the walk is finished
	td := &TelemetryData{
		Algorithm:   cfg.Algorithm().String(),
		HashSetSize: int64(hs.Len()),
	}
	counters := &scanCounters{}
	defer cfg.TelemetryHook()(ctx, td)
	defer captureScanDuration(td, now())
	defer counters.snapshot(td)

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("walk cancelled: %w", err)
	}

	if err := createDestination(t, dst, cfg); err != nil {
		counters.recordError(err)
		return 0, err
	}

	root, err := fsys.OpenRoot()
	if err != nil {
		err = fmt.Errorf("cannot open root directory: %w", err)
		counters.recordError(err)
		return 0, err
	}

	w := &walker{
		fsys:     fsys,
		hs:       hs,
		cfg:      cfg,
		counters: counters,
		visited:  newVisitedSet(),
		writer:   newExtractionWriter(t, dst, cfg, counters),
	}
	return w.run(ctx, root)
}

// walker holds the state of one walk.
type walker struct {
	fsys     Filesystem
	hs       *HashSet
	cfg      *Config
	counters *scanCounters
	visited  *visitedSet
	writer   *extractionWriter

	// group runs subtrees in parallel, nil for a single worker
	group *errgroup.Group

	// spawned sums the extracted files of subtrees walked by group
	spawned atomic.Int64
}

// run lists the root directory and walks it.
func (w *walker) run(ctx context.Context, root Directory) (int64, error) {
	rootPath := normalizePath(root.Path())
	w.visited.add(rootPath)

	entries, err := w.fsys.ReadDir(root)
	if err != nil {
		err = fmt.Errorf("cannot list root directory: %w", err)
		w.counters.recordError(err)
		return 0, err
	}
	w.counters.visitedDirs.Add(1)
	w.cfg.Logger().Debug("walk root directory", "path", rootPath, "entries", len(entries), "workers", w.cfg.Workers())

	if w.cfg.Workers() <= 1 {
		return w.walkEntries(ctx, rootPath, entries, 0)
	}

	// the calling goroutine counts as one worker
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Workers() - 1)
	w.group = g

	n, err := w.walkEntries(gctx, rootPath, entries, 0)
	if err != nil {
		cancel()
	}
	if werr := g.Wait(); err == nil {
		err = werr
	}
	return n + w.spawned.Load(), err
}

// walkEntries processes the entries of the directory at dirPath and returns the number of
// extracted files in the subtree.
func (w *walker) walkEntries(ctx context.Context, dirPath string, entries []FileEntry, depth int) (int64, error) {
	var extracted int64
	for _, entry := range entries {

		// stop between entries if the walk has been cancelled
		if err := ctx.Err(); err != nil {
			return extracted, fmt.Errorf("walk cancelled: %w", err)
		}

		if entry.Name == "." || entry.Name == ".." {
			continue
		}

		p := joinPath(dirPath, entry.Name)
		if !w.visited.add(p) {
			w.counters.revisits.Add(1)
			w.cfg.Logger().Debug("skip visited path", "path", p)
			w.emit(ctx, Event{Kind: EventRevisit, Path: p, EntryKind: entry.Kind, Size: entry.Size})
			continue
		}

		// check if maximum of entries is exceeded
		visited := w.counters.visited.Add(1)
		if err := w.cfg.CheckMaxFiles(visited); err != nil {
			w.counters.recordError(err)
			return extracted, err
		}

		switch entry.Kind {
		case KindRegular:
			n, err := w.processFile(ctx, p, entry)
			extracted += n
			if err != nil {
				return extracted, err
			}

		case KindDirectory:
			n, err := w.descend(ctx, p, entry, depth+1)
			extracted += n
			if err != nil {
				return extracted, err
			}

		default:
			w.counters.unsupported.Add(1)
			w.cfg.Logger().Info("skip unsupported entry", "path", p)
			w.emit(ctx, Event{Kind: EventUnsupported, Path: p, EntryKind: entry.Kind, Size: entry.Size})
		}
	}
	return extracted, nil
}

// descend opens the directory at p and walks it. Directories that cannot be opened or are
// nested too deep are skipped. With more than one worker the subtree is handed to an idle
// worker if there is one, its count is then added to w.spawned.
func (w *walker) descend(ctx context.Context, p string, entry FileEntry, depth int) (int64, error) {
	if err := w.cfg.CheckMaxDepth(depth); err != nil {
		w.counters.recordSkippedDir(p)
		w.cfg.Logger().Warn("skip directory", "path", p, "depth", depth, "error", err)
		w.emit(ctx, Event{Kind: EventMaxDepth, Path: p, EntryKind: entry.Kind, Err: err})
		return 0, nil
	}

	entries, err := w.listDir(p)
	if err != nil {
		w.counters.recordSkippedDir(p)
		w.cfg.Logger().Warn("skip directory", "path", p, "error", err)
		w.emit(ctx, Event{Kind: EventDirFailed, Path: p, EntryKind: entry.Kind, Err: err})
		return 0, nil
	}
	w.counters.visitedDirs.Add(1)

	if w.group != nil {
		started := w.group.TryGo(func() error {
			n, err := w.walkEntries(ctx, p, entries, depth)
			w.spawned.Add(n)
			return err
		})
		if started {
			return 0, nil
		}
	}

	// all workers are busy, walk inline
	return w.walkEntries(ctx, p, entries, depth)
}

// listDir opens and lists the directory at the logical path p.
func (w *walker) listDir(p string) ([]FileEntry, error) {
	dir, err := w.fsys.OpenDir(p)
	if err != nil {
		return nil, fmt.Errorf("cannot open directory: %w", err)
	}
	entries, err := w.fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list directory: %w", err)
	}
	return entries, nil
}

// processFile hashes the regular file entry at p and extracts it if its digest is in the hash
// set. It returns 1 if the file has been extracted.
func (w *walker) processFile(ctx context.Context, p string, entry FileEntry) (int64, error) {

	// check if file needs to match patterns
	match, err := checkPatterns(w.cfg.Patterns(), entry.Name)
	if err != nil {
		return 0, handleError(w.cfg, w.counters, "cannot check pattern", err)
	}
	if !match {
		w.counters.mismatches.Add(1)
		w.cfg.Logger().Debug("skip file not matching patterns", "path", p)
		w.emit(ctx, Event{Kind: EventPatternMismatch, Path: p, EntryKind: entry.Kind, Size: entry.Size})
		return 0, nil
	}

	r, err := w.fsys.OpenFile(entry.ID)
	if err != nil {
		w.emit(ctx, Event{Kind: EventError, Path: p, EntryKind: entry.Kind, Size: entry.Size, Err: err})
		return 0, handleError(w.cfg, w.counters, "cannot open file", err)
	}
	if closer, ok := r.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				w.cfg.Logger().Debug("cannot close file", "path", p, "error", err)
			}
		}()
	}

	digest, stats := Hash(r, entry.Size, w.cfg.Algorithm(), w.cfg.ChunkSize())
	w.counters.hashed.Add(1)
	w.counters.hashedBytes.Add(int64(stats.Read))
	if stats.Short {
		w.counters.shortReads.Add(1)
		w.cfg.Logger().Warn("short read", "path", p, "size", entry.Size, "read", stats.Read, "error", stats.Err)
	}

	if !w.hs.Contains(digest) {
		w.emit(ctx, Event{Kind: EventHashed, Path: p, EntryKind: entry.Kind, Size: entry.Size, Digest: digest, ShortRead: stats.Short})
		return 0, nil
	}
	w.counters.matched.Add(1)

	rec, err := w.writer.write(r, entry, p, digest)
	if err != nil {
		w.emit(ctx, Event{Kind: EventError, Path: p, EntryKind: entry.Kind, Size: entry.Size, Digest: digest, ShortRead: stats.Short, Err: err})

		// the extraction budget is exhausted for all remaining files
		if errors.Is(err, ErrMaxExtractionSizeExceeded) {
			w.counters.recordError(err)
			return 0, err
		}
		return 0, handleError(w.cfg, w.counters, "cannot extract file", err)
	}

	w.cfg.Logger().Info("extracted file", "path", p, "output", rec.OutputPath, "deduplicated", rec.Deduplicated)
	w.emit(ctx, Event{Kind: EventExtracted, Path: p, EntryKind: entry.Kind, Size: entry.Size, Digest: digest, ShortRead: stats.Short, Extracted: rec})
	return 1, nil
}

// emit hands ev to the configured event hook.
func (w *walker) emit(ctx context.Context, ev Event) {
	w.cfg.EventHook()(ctx, ev)
}

// checkPatterns checks if the given name matches any of the given patterns.
// If no patterns are given, the function returns true.
func checkPatterns(patterns []string, name string) (bool, error) {

	// no patterns given
	if len(patterns) == 0 {
		return true, nil
	}

	// check if name matches any pattern
	for _, pattern := range patterns {
		if match, err := filepath.Match(pattern, name); err != nil {
			return false, fmt.Errorf("failed to match pattern: %w", err)
		} else if match {
			return true, nil
		}
	}
	return false, nil
}
