// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build unix

package hashextract

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// availableSpace returns the number of bytes available to unprivileged users on the
// filesystem that holds path.
func availableSpace(path string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return -1, fmt.Errorf("statfs failed: %w", err)
	}
	return int64(st.Bavail) * int64(st.Bsize), nil
}
