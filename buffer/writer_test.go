// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: buffer/writer_test.go

package buffer

import "testing"

func TestWriterSoftWrap(t *testing.T) {
	tc := NewTextCache()
	g := NewGrid(5, 3, tc)
	w := NewWriter(g, nil)

	w.WriteString("ABCDEFG")

	wantStrings(t, gridText(g), []string{"ABCDE", "FG", ""})
	if !g.Line(0).WrapsToNext() {
		t.Error("row 0 should carry the soft-break flag")
	}
	if !g.Line(1).Continued() {
		t.Error("row 1 should carry the continuation flag")
	}
	if x, y := w.Cursor(); x != 2 || y != 1 {
		t.Errorf("cursor = (%d,%d), want (2,1)", x, y)
	}
}

func TestWriterExactFillDefersWrap(t *testing.T) {
	tc := NewTextCache()
	g := NewGrid(5, 3, tc)
	w := NewWriter(g, nil)

	w.WriteString("ABCDE")
	w.LineFeed()
	w.WriteString("next")

	// A line that exactly fills the row must not leave a stale soft
	// break behind when a hard newline follows.
	if g.Line(0).WrapsToNext() {
		t.Error("hard newline left a soft-break flag on the filled row")
	}
	wantStrings(t, gridText(g), []string{"ABCDE", "next", ""})
}

func TestWriterExactFillThenMoreContentWraps(t *testing.T) {
	tc := NewTextCache()
	g := NewGrid(5, 3, tc)
	w := NewWriter(g, nil)

	w.WriteString("ABCDE")
	w.WriteString("F")

	if !g.Line(0).WrapsToNext() {
		t.Error("continued content should set the soft-break flag")
	}
	wantStrings(t, gridText(g), []string{"ABCDE", "F", ""})
}

func TestWriterCRLF(t *testing.T) {
	tc := NewTextCache()
	g := NewGrid(8, 3, tc)
	w := NewWriter(g, nil)

	w.WriteString("one\r\ntwo")

	wantStrings(t, gridText(g), []string{"one", "two", ""})
}

func TestWriterCarriageReturn(t *testing.T) {
	tc := NewTextCache()
	g := NewGrid(8, 2, tc)
	w := NewWriter(g, nil)

	w.WriteString("ABC\rX")

	wantStrings(t, gridText(g), []string{"XBC", ""})
}

func TestWriterTabStops(t *testing.T) {
	tc := NewTextCache()
	g := NewGrid(20, 2, tc)
	w := NewWriter(g, nil)

	w.WriteString("A\tB")

	if got := g.CellAt(8, 0).Rune; got != 'B' {
		t.Errorf("cell at column 8 = %q, want 'B'", got)
	}
}

func TestWriterWideClusterPlacement(t *testing.T) {
	tc := NewTextCache()
	g := NewGrid(4, 2, tc)
	w := NewWriter(g, nil)

	w.WriteString("你好")

	anchor := g.CellAt(0, 0)
	if !anchor.Multicell || anchor.Width != 2 || !anchor.IsAnchor() {
		t.Fatalf("anchor cell = %+v", anchor)
	}
	ph := g.CellAt(1, 0)
	if !ph.IsPlaceholder() || ph.OffX != 1 || ph.Rune != anchor.Rune {
		t.Fatalf("placeholder cell = %+v", ph)
	}
	if got := g.Line(0).Text(tc); got != "你好" {
		t.Errorf("row text = %q, want %q", got, "你好")
	}
}

func TestWriterWideClusterWrapsWhole(t *testing.T) {
	tc := NewTextCache()
	g := NewGrid(3, 2, tc)
	w := NewWriter(g, nil)

	w.WriteString("ab你")

	if !g.Line(0).WrapsToNext() {
		t.Error("wide glyph should wrap the row")
	}
	wantStrings(t, gridText(g), []string{"ab", "你"})
	if !g.CellAt(0, 1).Multicell {
		t.Error("wrapped glyph lost its multicell flag")
	}
}

func TestWriterOversizedClusterDropped(t *testing.T) {
	tc := NewTextCache()
	g := NewGrid(1, 3, tc)
	w := NewWriter(g, nil)

	// A wide glyph can never fit a 1-column grid; it must be dropped,
	// not written past the row end.
	w.WriteString("你a")

	wantStrings(t, gridText(g), []string{"a", "", ""})
}

func TestWriterWrapAtBottomSetsContinuation(t *testing.T) {
	tc := NewTextCache()
	g := NewGrid(5, 2, tc)
	w := NewWriter(g, nil)

	w.WriteString("1234567890A")

	wantStrings(t, gridText(g), []string{"67890", "A"})
	if !g.Line(0).WrapsToNext() {
		t.Error("row 0 should soft-break into row 1")
	}
	// The soft break happened while its row was still the bottom row;
	// the row scrolled in below it must still be flagged a continuation.
	if !g.Line(1).Continued() {
		t.Error("row 1 lost the continuation flag across the scroll")
	}
}

func TestWriterScrollsIntoHistory(t *testing.T) {
	tc := NewTextCache()
	h := NewHistory(HistoryConfig{Width: 5, MaxRows: 10, Cache: tc})
	g := NewGrid(5, 2, tc)
	w := NewWriter(g, h)

	w.WriteString("one")
	w.LineFeed()
	w.WriteString("two")
	w.LineFeed()
	w.WriteString("three")

	wantStrings(t, gridText(g), []string{"two", "three"})
	wantStrings(t, ringText(h), []string{"one"})
}

func TestWriterSetCursorClamps(t *testing.T) {
	tc := NewTextCache()
	g := NewGrid(5, 3, tc)
	w := NewWriter(g, nil)

	w.SetCursor(99, -2)
	if x, y := w.Cursor(); x != 4 || y != 0 {
		t.Errorf("cursor = (%d,%d), want (4,0)", x, y)
	}
}
