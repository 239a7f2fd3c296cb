// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import "path"

// normalizePath returns p as an absolute, slash separated path with "." and ".."
// segments resolved and repeated separators collapsed.
func normalizePath(p string) string {
	return path.Join("/", p)
}

// joinPath returns the normalized logical path of the entry name in the directory parent.
// A name that contains ".." segments can resolve to a path outside of parent.
func joinPath(parent, name string) string {
	return path.Join("/", parent, name)
}
