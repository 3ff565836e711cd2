// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: buffer/dirty.go
// Summary: Per-row dirty state shared by the grid and history buffers.

package buffer

import "slices"

// DirtyTracker manages per-row dirty state for incremental re-render.
// Extracted as a separate component for clean separation and testability.
type DirtyTracker struct {
	dirty map[int]bool
}

// NewDirtyTracker creates a new dirty tracker.
func NewDirtyTracker() *DirtyTracker {
	return &DirtyTracker{
		dirty: make(map[int]bool),
	}
}

// MarkDirty marks a row as dirty.
func (dt *DirtyTracker) MarkDirty(row int) {
	dt.dirty[row] = true
}

// ClearDirty removes the dirty flag for a row.
func (dt *DirtyTracker) ClearDirty(row int) {
	delete(dt.dirty, row)
}

// ClearAll removes all dirty flags.
func (dt *DirtyTracker) ClearAll() {
	dt.dirty = make(map[int]bool)
}

// MarkAll marks rows [0, n) dirty.
func (dt *DirtyTracker) MarkAll(n int) {
	for i := 0; i < n; i++ {
		dt.dirty[i] = true
	}
}

// IsDirty returns whether a row is marked as dirty.
func (dt *DirtyTracker) IsDirty(row int) bool {
	return dt.dirty[row]
}

// Dirty returns a sorted slice of all dirty row indices.
// Sorted order is deterministic and helps with testing.
func (dt *DirtyTracker) Dirty() []int {
	result := make([]int, 0, len(dt.dirty))
	for row := range dt.dirty {
		result = append(result, row)
	}
	slices.Sort(result)
	return result
}

// Count returns the number of dirty rows.
func (dt *DirtyTracker) Count() int {
	return len(dt.dirty)
}

// RemoveOutside drops dirty entries not in [0, n), used after a resize
// shrinks the row range.
func (dt *DirtyTracker) RemoveOutside(n int) {
	for row := range dt.dirty {
		if row < 0 || row >= n {
			delete(dt.dirty, row)
		}
	}
}
