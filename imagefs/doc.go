// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package imagefs provides [hashextract.Filesystem] implementations: [Disk] decodes the
// filesystem of a raw disk image with github.com/diskfs/go-diskfs, [FS] serves any [io/fs.FS],
// e.g., a mounted image or an [os.DirFS].
package imagefs
