// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

// Command hashextract extracts the files of a raw disk image whose digest is listed in a
// known-hash set.
package main

import (
	"runtime/debug"

	"github.com/hashicorp/go-hashextract/cmd"
)

// set by the release build via -ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// fall back to the module version for `go install` builds
	if info, ok := debug.ReadBuildInfo(); ok && version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	cmd.Run(version, commit, date)
}
