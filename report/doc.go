// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package report records scans in a SQLite database: one row per scan and one row per
// hashed, extracted or skipped entry. The database is written through the
// [hashextract.EventHook] and [hashextract.TelemetryHook] of a walk.
package report
