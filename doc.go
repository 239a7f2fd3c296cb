// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package hashextract walks the filesystem of a raw disk image, hashes every regular file and
// extracts the files whose digest is part of a known-hash set.
//
// The image is consumed through the [Filesystem] interface, so the walker does not care how the
// directory tree is decoded. Ready-made adapters for disk images and io/fs trees live in the
// imagefs package.
//
// Configuration is done using the [Config], which is a configuration struct that can be used to
// set the digest algorithm, the logger, the telemetry hook, the worker count and the extraction limits.
// Telemetry data is captured during the walk and delivered as [TelemetryData] to the configured hook.
package hashextract
