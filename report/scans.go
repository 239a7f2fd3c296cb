// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	hashextract "github.com/hashicorp/go-hashextract"
)

// Scan is one recorded walk over an image.
type Scan struct {
	ID             string
	Image          string
	Algorithm      string
	HashSetSize    int
	StartedAt      time.Time
	FinishedAt     time.Time
	ExtractedFiles int64
	Errors         int64
	LastError      string
	TelemetryJSON  string
}

// Finished returns true if the scan has been finished with [Store.FinishScan].
func (s *Scan) Finished() bool {
	return !s.FinishedAt.IsZero()
}

// Entry is one recorded event of a scan.
type Entry struct {
	Event        string
	Path         string
	EntryKind    string
	Size         uint64
	Digest       string
	ShortRead    bool
	OutputPath   string
	Deduplicated bool
	Error        string
}

// BeginScan records the start of a walk over image and returns the new scan.
func (s *Store) BeginScan(ctx context.Context, image string, alg hashextract.Algorithm, hashSetSize int) (*Scan, error) {
	scan := &Scan{
		ID:          newScanID(),
		Image:       image,
		Algorithm:   alg.String(),
		HashSetSize: hashSetSize,
		StartedAt:   time.Now().UTC(),
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO scans (id, image, algorithm, hash_set_size, started_at) VALUES (?, ?, ?, ?, ?)`,
		scan.ID, scan.Image, scan.Algorithm, scan.HashSetSize, timestamp(scan.StartedAt),
	); err != nil {
		return nil, fmt.Errorf("insert scan: %w", err)
	}
	return scan, nil
}

// FinishScan stores the telemetry of the finished walk.
func (s *Store) FinishScan(ctx context.Context, scanID string, td *hashextract.TelemetryData) error {
	var lastError string
	if td.LastExtractionError != nil {
		lastError = td.LastExtractionError.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE scans SET finished_at = ?, extracted_files = ?, errors = ?, last_error = ?, telemetry_json = ? WHERE id = ?`,
		timestamp(time.Now()), td.ExtractedFiles+td.DeduplicatedFiles, td.ExtractionErrors,
		nullableString(lastError), td.String(), scanID,
	)
	if err != nil {
		return fmt.Errorf("finish scan: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish scan: unknown scan %s", scanID)
	}
	return nil
}

// GetScan returns the scan with the given ID, or nil if there is none.
func (s *Store) GetScan(ctx context.Context, scanID string) (*Scan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, image, algorithm, hash_set_size, started_at, finished_at, extracted_files, errors, last_error, telemetry_json
         FROM scans WHERE id = ?`, scanID)

	var (
		scan      Scan
		started   sql.NullString
		finished  sql.NullString
		lastError sql.NullString
		telemetry sql.NullString
	)
	err := row.Scan(&scan.ID, &scan.Image, &scan.Algorithm, &scan.HashSetSize, &started, &finished,
		&scan.ExtractedFiles, &scan.Errors, &lastError, &telemetry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scan: %w", err)
	}
	scan.StartedAt = parseTimestamp(started)
	scan.FinishedAt = parseTimestamp(finished)
	scan.LastError = lastError.String
	scan.TelemetryJSON = telemetry.String
	return &scan, nil
}

// Scans returns all recorded scans, oldest first.
func (s *Store) Scans(ctx context.Context) ([]Scan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM scans ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	rows.Close()

	// the single connection is free again
	scans := make([]Scan, 0, len(ids))
	for _, id := range ids {
		scan, err := s.GetScan(ctx, id)
		if err != nil {
			return nil, err
		}
		if scan != nil {
			scans = append(scans, *scan)
		}
	}
	return scans, nil
}

// AddEntry records ev for the scan.
func (s *Store) AddEntry(ctx context.Context, scanID string, ev hashextract.Event) error {
	var (
		outputPath   string
		deduplicated bool
		errText      string
	)
	if ev.Extracted != nil {
		outputPath = ev.Extracted.OutputPath
		deduplicated = ev.Extracted.Deduplicated
	}
	if ev.Err != nil {
		errText = ev.Err.Error()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO entries (
            scan_id, event, path, entry_kind, size, digest, short_read, output_path, deduplicated, error, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scanID, ev.Kind.String(), ev.Path, ev.EntryKind.String(), int64(ev.Size), nullableString(ev.Digest),
		boolInt(ev.ShortRead), nullableString(outputPath), boolInt(deduplicated), nullableString(errText),
		timestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// Entries returns the recorded entries of the scan with the given event kind, ordered by path.
func (s *Store) Entries(ctx context.Context, scanID string, kind hashextract.EventKind) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event, path, entry_kind, size, digest, short_read, output_path, deduplicated, error
         FROM entries WHERE scan_id = ? AND event = ? ORDER BY path, id`, scanID, kind.String())
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e            Entry
			size         int64
			digest       sql.NullString
			shortRead    int
			outputPath   sql.NullString
			deduplicated int
			errText      sql.NullString
		)
		if err := rows.Scan(&e.Event, &e.Path, &e.EntryKind, &size, &digest, &shortRead, &outputPath, &deduplicated, &errText); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Size = uint64(size)
		e.Digest = digest.String
		e.ShortRead = shortRead != 0
		e.OutputPath = outputPath.String
		e.Deduplicated = deduplicated != 0
		e.Error = errText.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Extracted returns the extracted files of the scan, ordered by source path.
func (s *Store) Extracted(ctx context.Context, scanID string) ([]Entry, error) {
	return s.Entries(ctx, scanID, hashextract.EventExtracted)
}
