// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: buffer/textcache.go
// Summary: Content-addressed interning of multi-codepoint grapheme clusters.
//
// Cells store single codepoints inline; anything longer (a base codepoint
// plus combining marks) is interned here and referenced by a RefID. The
// cache is shared between a grid and its paired history buffer and outlives
// both.

package buffer

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// RefID references an interned grapheme cluster. Zero means "no reference":
// the cell's content is the inline Rune.
type RefID uint32

// MaxClusterLen bounds the codepoints kept per cluster: one base codepoint
// plus up to 24 combining marks. Longer sequences are truncated on intern.
const MaxClusterLen = 25

// TextCache interns variable-length codepoint sequences into compact,
// reusable indices. Identical sequences map to the same RefID for the
// cache's lifetime; an issued RefID denotes an immutable sequence.
type TextCache struct {
	clusters [][]rune
	index    map[string]RefID
}

// NewTextCache creates an empty text cache.
func NewTextCache() *TextCache {
	return &TextCache{
		index: make(map[string]RefID),
	}
}

// Intern stores a grapheme cluster and returns its reference. Inserting the
// same sequence twice returns the same RefID. Callers should bypass the
// cache for single-codepoint sequences and store the codepoint inline; a
// single-codepoint intern still works but wastes an index.
func (tc *TextCache) Intern(cluster []rune) RefID {
	if len(cluster) == 0 {
		return 0
	}
	if len(cluster) > MaxClusterLen {
		cluster = cluster[:MaxClusterLen]
	}
	key := string(cluster)
	if id, ok := tc.index[key]; ok {
		return id
	}
	stored := make([]rune, len(cluster))
	copy(stored, cluster)
	tc.clusters = append(tc.clusters, stored)
	id := RefID(len(tc.clusters)) // ids start at 1, 0 means no reference
	tc.index[key] = id
	return id
}

// ClusterAt returns the interned sequence for id. The returned slice is
// owned by the cache and must not be mutated. Returns nil for the zero id
// or an id never issued.
func (tc *TextCache) ClusterAt(id RefID) []rune {
	if id == 0 || int(id) > len(tc.clusters) {
		return nil
	}
	return tc.clusters[id-1]
}

// FirstRune returns the base codepoint of the interned sequence, or zero
// for an invalid id.
func (tc *TextCache) FirstRune(id RefID) rune {
	cluster := tc.ClusterAt(id)
	if len(cluster) == 0 {
		return 0
	}
	return cluster[0]
}

// Len returns the number of distinct interned sequences.
func (tc *TextCache) Len() int {
	return len(tc.clusters)
}

// SetCluster stores a grapheme cluster into a cell, using the inline rune
// for single codepoints and the cache for anything longer.
func (tc *TextCache) SetCluster(c *Cell, cluster []rune) {
	if len(cluster) == 0 {
		c.Rune = 0
		c.Ref = 0
		return
	}
	c.Rune = cluster[0]
	if len(cluster) == 1 {
		c.Ref = 0
		return
	}
	c.Ref = tc.Intern(cluster)
}

// CellCluster returns the full codepoint sequence of a cell, resolving the
// cache reference when present.
func (tc *TextCache) CellCluster(c Cell) []rune {
	if c.Ref != 0 {
		return tc.ClusterAt(c.Ref)
	}
	if c.Rune == 0 {
		return nil
	}
	return []rune{c.Rune}
}

// Clusters splits a string into grapheme clusters using Unicode text
// segmentation. This is the boundary where raw decoded text becomes cells.
func Clusters(s string) [][]rune {
	var result [][]rune
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		result = append(result, []rune(cluster))
	}
	return result
}

// ClusterWidth returns the number of terminal columns a grapheme cluster
// occupies (1 for narrow, 2 for wide CJK and emoji).
func ClusterWidth(cluster []rune) int {
	if len(cluster) == 0 {
		return 0
	}
	w := runewidth.StringWidth(string(cluster))
	if w < 1 {
		w = 1
	}
	if w > 2 {
		w = 2
	}
	return w
}
