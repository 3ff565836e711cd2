// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: buffer/harness_test.go
// Summary: Shared helpers for buffer tests.

package buffer

import "testing"

// putRow writes s into logical row y, one cell per rune.
func putRow(g *Grid, y int, s string) {
	x := 0
	for _, r := range s {
		g.SetCell(x, y, Cell{Rune: r})
		x++
	}
}

// makeLine builds a width-column row from s, placing wide clusters as
// anchor plus placeholders the way the writer does.
func makeLine(tc *TextCache, width int, s string) Line {
	cells := make([]Cell, width)
	styles := make([]Style, width)
	x := 0
	for _, cluster := range Clusters(s) {
		w := ClusterWidth(cluster)
		if x+w > width {
			break
		}
		var c Cell
		tc.SetCluster(&c, cluster)
		if w > 1 {
			c.Multicell = true
			c.Scale = 1
			c.Width = uint8(w)
		}
		cells[x] = c
		for i := 1; i < w; i++ {
			p := c
			p.OffX = uint8(i)
			cells[x+i] = p
		}
		x += w
	}
	return Line{Cells: cells, Styles: styles}
}

// gridText collects the plain text of every grid row, top to bottom.
func gridText(g *Grid) []string {
	var out []string
	g.FullText(func(s string) { out = append(out, s) })
	return out
}

// ringText collects the plain text of every history ring row, oldest
// first. The text log is not included.
func ringText(h *History) []string {
	out := make([]string, 0, h.Count())
	for i := 0; i < h.Count(); i++ {
		out = append(out, h.RowAt(i).Text(h.Cache()))
	}
	return out
}

// fullText collects log plus ring text, oldest first.
func fullText(h *History) []string {
	var out []string
	h.FullText(func(s string) { out = append(out, s) })
	return out
}

func wantStrings(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d lines %q, want %d lines %q", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
