// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	hashextract "github.com/hashicorp/go-hashextract"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// printSummary prints the summary line of a scan with the number of distinct loaded hashes.
// On terminals a table with the telemetry data follows.
func printSummary(w io.Writer, hashes int, extracted int64, td *hashextract.TelemetryData) {
	fmt.Fprintf(w, "Input hash lines: %d, Extracted files: %d\n", hashes, extracted)
	if td == nil || !isTerminal(w) {
		return
	}
	fmt.Fprintln(w, renderTelemetry(td))
}

// renderTelemetry renders td as a two column table.
func renderTelemetry(td *hashextract.TelemetryData) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})

	count := func(n int64) string { return strconv.FormatInt(n, 10) }
	tw.AppendRows([]table.Row{
		{"Algorithm", td.Algorithm},
		{"Hash set entries", count(td.HashSetSize)},
		{"Visited directories", count(td.VisitedDirs)},
		{"Visited entries", count(td.VisitedEntries)},
		{"Hashed files", count(td.HashedFiles)},
		{"Hashed data", humanize.IBytes(uint64(td.HashedBytes))},
		{"Matched files", count(td.MatchedFiles)},
		{"Extracted files", count(td.ExtractedFiles)},
		{"Deduplicated files", count(td.DeduplicatedFiles)},
		{"Extracted data", humanize.IBytes(uint64(td.ExtractionSize))},
		{"Revisits", count(td.Revisits)},
		{"Skipped directories", count(td.SkippedDirs)},
		{"Unsupported entries", count(td.UnsupportedEntries)},
		{"Short reads", count(td.ShortReads)},
		{"Errors", count(td.ExtractionErrors)},
		{"Duration", td.ScanDuration.Round(time.Millisecond).String()},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	return tw.Render()
}
