// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package report

import (
	"context"
	"log/slog"

	hashextract "github.com/hashicorp/go-hashextract"
)

// EventHook returns a [hashextract.EventHook] that records every event of a walk for the
// scan. Failing inserts are logged, they never stop the walk.
func (s *Store) EventHook(scanID string, logger *slog.Logger) hashextract.EventHook {
	return func(ctx context.Context, ev hashextract.Event) {
		if err := s.AddEntry(context.WithoutCancel(ctx), scanID, ev); err != nil {
			logger.Warn("cannot record entry", "path", ev.Path, "error", err)
		}
	}
}

// TelemetryHook returns a [hashextract.TelemetryHook] that finishes the scan.
func (s *Store) TelemetryHook(scanID string, logger *slog.Logger) hashextract.TelemetryHook {
	return func(ctx context.Context, td *hashextract.TelemetryData) {
		if err := s.FinishScan(context.WithoutCancel(ctx), scanID, td); err != nil {
			logger.Warn("cannot finish scan", "scan", scanID, "error", err)
		}
	}
}
