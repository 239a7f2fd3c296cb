// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hashextract

import "sync"

// visitedSet is the set of logical paths seen during one walk. It only grows and is safe
// for concurrent use, since sibling directories can alias the same logical path.
type visitedSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func newVisitedSet() *visitedSet {
	return &visitedSet{paths: make(map[string]struct{})}
}

// add marks p as visited. It returns false if p has been visited before.
func (v *visitedSet) add(p string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.paths[p]; ok {
		return false
	}
	v.paths[p] = struct{}{}
	return true
}
