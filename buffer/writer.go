// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: buffer/writer.go
// Summary: Cursor-carrying writer feeding decoded text into a grid.
//
// This is the boundary the escape-code layer writes through: it segments
// incoming text into grapheme clusters, places them at the cursor with the
// correct column width, wraps with the continuation flag when a row fills,
// and moves scrolled-off rows into the companion history.

package buffer

// Writer tracks a write position on a grid and appends text at it.
type Writer struct {
	grid    *Grid
	history *History
	style   Style
	x, y    int

	// pendingWrap defers the soft wrap until more content arrives, so a
	// line that exactly fills the row is not followed by a spurious blank
	// continuation row.
	pendingWrap bool
}

// NewWriter creates a writer at the grid origin. history may be nil when
// scrolled-off rows should simply be discarded.
func NewWriter(g *Grid, h *History) *Writer {
	return &Writer{grid: g, history: h}
}

// Grid returns the grid being written to.
func (w *Writer) Grid() *Grid { return w.grid }

// SetGrid swaps the target grid after a resize, keeping the cursor in
// bounds.
func (w *Writer) SetGrid(g *Grid) {
	w.grid = g
	if w.x >= g.Width() {
		w.x = g.Width() - 1
	}
	if w.y >= g.Height() {
		w.y = g.Height() - 1
	}
}

// SetHistory swaps the companion history after a rewrap.
func (w *Writer) SetHistory(h *History) { w.history = h }

// SetStyle sets the render style applied to subsequently written cells.
func (w *Writer) SetStyle(st Style) { w.style = st }

// Cursor returns the current write position.
func (w *Writer) Cursor() (x, y int) { return w.x, w.y }

// SetCursor moves the write position, clamped to the grid.
func (w *Writer) SetCursor(x, y int) {
	if x < 0 {
		x = 0
	}
	if x >= w.grid.Width() {
		x = w.grid.Width() - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= w.grid.Height() {
		y = w.grid.Height() - 1
	}
	w.x, w.y = x, y
	w.pendingWrap = false
}

// WriteString segments s into grapheme clusters and writes them at the
// cursor. Newlines produce hard breaks; carriage returns rewind the
// column.
func (w *Writer) WriteString(s string) {
	for _, cluster := range Clusters(s) {
		// CRLF segments as one grapheme cluster.
		if len(cluster) == 2 && cluster[0] == '\r' && cluster[1] == '\n' {
			w.LineFeed()
			continue
		}
		if len(cluster) == 1 {
			switch cluster[0] {
			case '\n':
				w.LineFeed()
				continue
			case '\r':
				w.x = 0
				w.pendingWrap = false
				continue
			case '\t':
				w.tab()
				continue
			}
		}
		w.WriteCluster(cluster)
	}
}

// WriteCluster writes one grapheme cluster at the cursor and advances it,
// soft-wrapping to the next row when the cluster does not fit. A cluster
// wider than the grid itself is dropped; no row could ever hold it.
func (w *Writer) WriteCluster(cluster []rune) {
	width := ClusterWidth(cluster)
	if width > w.grid.Width() {
		return
	}
	if w.pendingWrap || w.x+width > w.grid.Width() {
		w.grid.SetWrapped(w.y, true)
		w.advanceRow()
		w.pendingWrap = false
	}
	var c Cell
	w.grid.Cache().SetCluster(&c, cluster)
	if width > 1 {
		c.Multicell = true
		c.Scale = 1
		c.Width = uint8(width)
	}
	w.grid.SetCell(w.x, w.y, c)
	w.grid.SetStyle(w.x, w.y, w.style)
	for i := 1; i < width; i++ {
		p := c
		p.OffX = uint8(i)
		w.grid.SetCell(w.x+i, w.y, p)
		w.grid.SetStyle(w.x+i, w.y, w.style)
	}
	w.x += width
	if w.x >= w.grid.Width() {
		w.x = w.grid.Width() - 1
		w.pendingWrap = true
	}
}

// LineFeed ends the current logical line with a hard break and moves to
// the next row, scrolling when at the bottom.
func (w *Writer) LineFeed() {
	w.grid.SetWrapped(w.y, false)
	w.pendingWrap = false
	w.advanceRow()
	w.x = 0
}

// advanceRow moves to the next row; at the bottom the grid scrolls and the
// top row is pushed into the history.
func (w *Writer) advanceRow() {
	if w.y == w.grid.Height()-1 {
		if w.history != nil {
			w.history.Push(w.grid.Line(0))
		}
		h := w.grid.Height()
		w.grid.Scroll(0, h-1)
		// A soft break set while the wrapped row was still the bottom row
		// could not flag its successor; re-sync now that the fresh row
		// exists below it.
		if h >= 2 && w.grid.Line(h-2).WrapsToNext() {
			w.grid.SetWrapped(h-2, true)
		}
	} else {
		w.y++
	}
	w.x = 0
}

// tab advances to the next 8-column stop without writing cells.
func (w *Writer) tab() {
	next := (w.x/8 + 1) * 8
	if next >= w.grid.Width() {
		next = w.grid.Width() - 1
	}
	w.x = next
}
