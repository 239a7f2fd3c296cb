// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package metrics exposes the progress and the outcome of walks as Prometheus metrics.
package metrics

import (
	"context"
	"fmt"

	hashextract "github.com/hashicorp/go-hashextract"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the metrics of one process. Its hooks are safe for concurrent use.
type Collector struct {
	reg *prometheus.Registry

	entriesTotal      *prometheus.CounterVec
	hashedBytes       prometheus.Counter
	extractedBytes    prometheus.Counter
	scansTotal        prometheus.Counter
	scanDuration      prometheus.Histogram
	lastExtracted     prometheus.Gauge
	lastErrors        prometheus.Gauge
	lastHashSetSize   prometheus.Gauge
	lastScanTimestamp prometheus.Gauge
}

// New creates a [Collector] with its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		reg: reg,
		entriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hashextract_entries_total",
				Help: "Total entries processed, by outcome",
			},
			[]string{"event"},
		),
		hashedBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hashextract_hashed_bytes_total",
				Help: "Total bytes read while hashing files",
			},
		),
		extractedBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hashextract_extracted_bytes_total",
				Help: "Total bytes written to extracted files",
			},
		),
		scansTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hashextract_scans_total",
				Help: "Total finished scans",
			},
		),
		scanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hashextract_scan_duration_seconds",
				Help:    "Scan duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 4, 10),
			},
		),
		lastExtracted: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hashextract_last_scan_extracted_files",
				Help: "Extracted files of the last finished scan",
			},
		),
		lastErrors: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hashextract_last_scan_errors",
				Help: "Errors of the last finished scan",
			},
		),
		lastHashSetSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hashextract_last_scan_hash_set_size",
				Help: "Hash set entries of the last finished scan",
			},
		),
		lastScanTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hashextract_last_scan_timestamp_seconds",
				Help: "Unix time the last scan finished",
			},
		),
	}
}

// Registry returns the registry holding all metrics of c.
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

// EventHook returns a [hashextract.EventHook] that counts entries by outcome.
func (c *Collector) EventHook() hashextract.EventHook {
	return func(_ context.Context, ev hashextract.Event) {
		c.entriesTotal.WithLabelValues(ev.Kind.String()).Inc()
		if ev.Kind == hashextract.EventExtracted && ev.Extracted != nil {
			c.extractedBytes.Add(float64(ev.Extracted.Written))
		}
	}
}

// TelemetryHook returns a [hashextract.TelemetryHook] that records the outcome of a scan.
func (c *Collector) TelemetryHook() hashextract.TelemetryHook {
	return func(_ context.Context, td *hashextract.TelemetryData) {
		c.scansTotal.Inc()
		c.hashedBytes.Add(float64(td.HashedBytes))
		c.scanDuration.Observe(td.ScanDuration.Seconds())
		c.lastExtracted.Set(float64(td.ExtractedFiles + td.DeduplicatedFiles))
		c.lastErrors.Set(float64(td.ExtractionErrors))
		c.lastHashSetSize.Set(float64(td.HashSetSize))
		c.lastScanTimestamp.SetToCurrentTime()
	}
}

// WriteTextfile writes all metrics to path in the text format read by the node_exporter
// textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.reg); err != nil {
		return fmt.Errorf("cannot write metrics: %w", err)
	}
	return nil
}
