// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: buffer/reflow.go
// Summary: Re-lays logical lines across a buffer of a different size.
//
// Architecture:
//
//	A logical line is a maximal run of source rows chained by the
//	wrap-continuation flag. The engine walks every logical line of the
//	source, copies its cells left to right into destination rows of the
//	new width, and re-establishes the wrap flags. Multicell glyphs are
//	never split by a destination row boundary: they move whole to the next
//	row, or are dropped when wider than the destination itself. Tracked
//	cursors are remapped in place so a cursor or selection anchor stays on
//	the same logical character across the resize.
//
//	Plain single-width runs take a bulk range-copy path; rows containing
//	multicell content fall back to cell-by-cell placement.

package buffer

// TrackedCursor is an ephemeral (column, row) pair remapped in place by
// Reflow. Row coordinates are logical grid rows for a grid buffer and
// oldest-first indices for a history buffer, in both source and
// destination space.
type TrackedCursor struct {
	X int
	Y int
}

// Source is a buffer the reflow engine reads rows from, oldest first.
type Source interface {
	Width() int
	NumRows() int
	Row(i int) Line
}

// Destination is a buffer the reflow engine writes rows into. FirstLine
// resets the destination and returns the first writable row; NextLine
// completes the current row, recording whether it soft-breaks into the
// next, and returns the next writable row. Finish completes the final
// row: open reports whether any source row was emitted at all, wrapped
// whether the final row carries a dangling soft break. RowOffset reports
// how many completed rows scrolled or were evicted off the top while
// writing.
type Destination interface {
	Width() int
	FirstLine() Line
	NextLine(wrapped bool) Line
	Finish(open, wrapped bool)
	RowOffset() int
}

// --- Sources ---

type gridSource struct{ g *Grid }

// NewGridSource adapts a grid for reading by the reflow engine.
func NewGridSource(g *Grid) Source { return gridSource{g} }

func (s gridSource) Width() int { return s.g.Width() }

// NumRows excludes trailing blank rows: unused screen area below the
// content is not a run of empty logical lines and must not push content
// off a shorter destination.
func (s gridSource) NumRows() int {
	n := s.g.Height()
	for n > 0 {
		row := s.g.Line(n - 1)
		if row.ContentWidth() > 0 || row.Continued() {
			break
		}
		n--
	}
	return n
}

func (s gridSource) Row(i int) Line { return s.g.Line(i) }

type historySource struct{ h *History }

// NewHistorySource adapts a history buffer for reading by the reflow
// engine.
func NewHistorySource(h *History) Source { return historySource{h} }

func (s historySource) Width() int     { return s.h.Width() }
func (s historySource) NumRows() int   { return s.h.Count() }
func (s historySource) Row(i int) Line { return s.h.RowAt(i) }

// --- Destinations ---

// GridDestination writes reflowed rows into a grid. When a row completes
// past the bottom, the oldest grid row is pushed into the companion
// history (when supplied) before being overwritten, mirroring normal
// scroll-off.
type GridDestination struct {
	g         *Grid
	companion *History
	y         int
	offset    int
}

// NewGridDestination wraps a freshly created grid as a reflow destination.
// companion may be nil.
func NewGridDestination(g *Grid, companion *History) *GridDestination {
	return &GridDestination{g: g, companion: companion}
}

func (d *GridDestination) Width() int { return d.g.Width() }

func (d *GridDestination) FirstLine() Line {
	for y := 0; y < d.g.Height(); y++ {
		d.g.ClearLine(y, Style{})
	}
	d.y = 0
	d.offset = 0
	return d.g.Line(0)
}

func (d *GridDestination) NextLine(wrapped bool) Line {
	d.g.SetWrapped(d.y, wrapped)
	if d.y == d.g.Height()-1 {
		if d.companion != nil {
			d.companion.Push(d.g.Line(0))
		}
		h := d.g.Height()
		d.g.Scroll(0, h-1)
		// The wrap flag above was set while the row was still the bottom
		// row; the fresh row below it needs the continuation bit.
		if wrapped && h >= 2 {
			d.g.SetWrapped(h-2, true)
		}
		d.offset++
		return d.g.Line(d.y)
	}
	d.y++
	return d.g.Line(d.y)
}

func (d *GridDestination) Finish(open, wrapped bool) {
	if open && wrapped {
		// The final row ends in a dangling soft break: the logical line
		// stays continuable by the next write.
		d.g.SetWrapped(d.y, true)
	}
	d.g.MarkAllDirty()
}

func (d *GridDestination) RowOffset() int { return d.offset }

// HistoryDestination writes reflowed rows into a history buffer. Completed
// rows are pushed through the normal path, so a full ring evicts its
// oldest row into the text log exactly as a regular Push would.
type HistoryDestination struct {
	h         *History
	cells     []Cell
	styles    []Style
	nextFlags LineFlag
	baseEvict int64
}

// NewHistoryDestination wraps a history buffer as a reflow destination.
func NewHistoryDestination(h *History) *HistoryDestination {
	return &HistoryDestination{h: h}
}

func (d *HistoryDestination) Width() int { return d.h.Width() }

func (d *HistoryDestination) FirstLine() Line {
	d.cells = make([]Cell, d.h.Width())
	d.styles = make([]Style, d.h.Width())
	d.nextFlags = 0
	d.baseEvict = d.h.evictSeq
	return Line{Cells: d.cells, Styles: d.styles}
}

func (d *HistoryDestination) NextLine(wrapped bool) Line {
	if wrapped {
		d.cells[len(d.cells)-1].Wrapped = true
	}
	d.h.pushRow(d.cells, d.styles, rowMeta{flags: d.nextFlags})
	for i := range d.cells {
		d.cells[i] = Cell{}
		d.styles[i] = Style{}
	}
	d.nextFlags = 0
	if wrapped {
		d.nextFlags = LineContinuation
	}
	return Line{Cells: d.cells, Styles: d.styles}
}

// Finish flushes the final scratch row; rows reach the ring only on
// completion, so without this the last logical line would be lost.
func (d *HistoryDestination) Finish(open, wrapped bool) {
	if !open {
		return
	}
	if wrapped {
		d.cells[len(d.cells)-1].Wrapped = true
	}
	d.h.pushRow(d.cells, d.styles, rowMeta{flags: d.nextFlags})
}

func (d *HistoryDestination) RowOffset() int {
	return int(d.h.evictSeq - d.baseEvict)
}

// --- Engine ---

// cursorState tracks one cursor's remapping progress.
type cursorState struct {
	c       *TrackedCursor
	dy      int
	dx      int
	matched bool
}

// Reflow re-lays every logical line of src across dst and remaps the
// tracked cursors in place. It never fails: out-of-range cursors and
// oversized glyphs are clamped or dropped with best effort.
//
// A resize that exactly preserves the buffer shape takes a verbatim
// bulk-copy fast path and skips the algorithm entirely.
func Reflow(src Source, dst Destination, cursors []*TrackedCursor) {
	if hs, ok := src.(historySource); ok {
		if hd, ok := dst.(*HistoryDestination); ok {
			hd.h.InheritLog(hs.h)
			if hd.h.CopyFrom(hs.h) {
				return
			}
		}
	}
	if gs, ok := src.(gridSource); ok {
		if gd, ok := dst.(*GridDestination); ok {
			if copyGridVerbatim(gs.g, gd.g) {
				return
			}
		}
	}

	e := &reflower{
		src:     src,
		dst:     dst,
		dstW:    dst.Width(),
		pending: make(map[int]int),
	}
	for _, c := range cursors {
		e.cursors = append(e.cursors, &cursorState{c: c})
	}
	e.run()
}

// copyGridVerbatim bulk-copies rows when the grids have identical shape.
func copyGridVerbatim(src, dst *Grid) bool {
	if src.Width() != dst.Width() || src.Height() != dst.Height() {
		return false
	}
	for y := 0; y < src.Height(); y++ {
		from := src.Line(y)
		p := dst.rowMap[y]
		copy(dst.cells[p], from.Cells)
		copy(dst.styles[p], from.Styles)
		dst.meta[p] = rowMeta{flags: from.Flags, prompt: from.Prompt}
	}
	dst.MarkAllDirty()
	return true
}

type reflower struct {
	src  Source
	dst  Destination
	dstW int

	line Line // current destination row
	dx   int  // write position within line
	dy   int  // monotonic count of completed destination rows

	// pending maps a source anchor column to the destination column its
	// continuation sub-rows must land on, keeping vertical multicell
	// glyphs in lockstep with their anchor row.
	pending map[int]int

	cursors []*cursorState
}

func (e *reflower) run() {
	e.line = e.dst.FirstLine()
	e.dx = 0
	e.dy = 0

	rows := e.src.NumRows()
	i := 0
	// Hard breaks are emitted lazily, when the next logical line starts,
	// so a trailing newline never scrolls content off the destination. A
	// dangling wrap on the buffer's final row leaves the row open: the
	// break was not a hard newline (step 2 of the algorithm).
	pendingBreak := false
	for i < rows {
		// Gather the logical line: rows chained by the wrap flag.
		last := i
		for last+1 < rows && e.src.Row(last).WrapsToNext() {
			last++
		}
		if pendingBreak {
			e.newline(false)
		}
		for sy := i; sy <= last; sy++ {
			e.copyRow(sy)
		}
		pendingBreak = !e.src.Row(last).WrapsToNext()
		i = last + 1
	}
	open := rows > 0
	wrapped := open && e.src.Row(rows-1).WrapsToNext()
	e.finishCursors()
	e.dst.Finish(open, wrapped)
}

// copyRow copies one source row's content into the destination, wrapping
// to new destination rows as they fill.
func (e *reflower) copyRow(sy int) {
	row := e.src.Row(sy)
	cw := row.ContentWidth()
	x := 0
	for x < cw {
		c := row.Cells[x]
		switch {
		case c.Multicell && c.OffY > 0 && c.OffX == 0:
			x = e.placeSubRow(row, sy, x)
		case c.Multicell && c.OffY == 0 && c.OffX == 0:
			x = e.placeAnchor(row, sy, x)
		case c.IsPlaceholder():
			// Orphaned placeholder without its anchor on this row:
			// drop it, the glyph's anchor path owns placement.
			x++
		default:
			x = e.copyPlainRun(row, sy, x, cw)
		}
	}
	// A cursor sitting past the content (trailing blanks of a hard-broken
	// row) keeps its distance from the line start.
	for _, cs := range e.cursors {
		if !cs.matched && cs.c.Y == sy && cs.c.X >= cw {
			cs.dx = e.dx + (cs.c.X - cw)
			cs.dy = e.dy
			cs.matched = true
		}
	}
}

// copyPlainRun bulk-copies a run of ordinary single-width cells starting
// at x, stopping at the next multicell cell, the content end, or a full
// destination row. Returns the next source column.
func (e *reflower) copyPlainRun(row Line, sy, x, cw int) int {
	if e.dx >= e.dstW {
		e.newline(true)
	}
	n := 0
	for x+n < cw && !row.Cells[x+n].Multicell && e.dx+n < e.dstW {
		n++
	}
	if n == 0 {
		return x
	}
	copy(e.line.Cells[e.dx:e.dx+n], row.Cells[x:x+n])
	if len(row.Styles) >= x+n {
		copy(e.line.Styles[e.dx:e.dx+n], row.Styles[x:x+n])
	}
	// Wrap flags are re-derived for the destination width.
	for i := e.dx; i < e.dx+n; i++ {
		e.line.Cells[i].Wrapped = false
	}
	e.remapSpan(sy, x, n, e.dx)
	e.dx += n
	return x + n
}

// placeAnchor places a multicell glyph's anchor row: the anchor cell plus
// its horizontal placeholders, moved whole to the next destination row if
// it would straddle the boundary, or dropped when wider than the
// destination itself.
func (e *reflower) placeAnchor(row Line, sy, x int) int {
	c := row.Cells[x]
	w := c.GlyphWidth()
	if x+w > len(row.Cells) {
		w = len(row.Cells) - x
	}
	if w > e.dstW {
		// Wider than the destination: drop the glyph but keep any cursor
		// inside its span attached to a clamped boundary position.
		boundary := e.dx
		if boundary >= e.dstW {
			boundary = e.dstW - 1
		}
		for _, cs := range e.cursors {
			if !cs.matched && cs.c.Y == sy && cs.c.X >= x && cs.c.X <= x+w {
				cs.dx = boundary
				cs.dy = e.dy
				cs.matched = true
			}
		}
		return x + w
	}
	if e.dx+w > e.dstW {
		e.newline(true)
	}
	copy(e.line.Cells[e.dx:e.dx+w], row.Cells[x:x+w])
	if len(row.Styles) >= x+w {
		copy(e.line.Styles[e.dx:e.dx+w], row.Styles[x:x+w])
	}
	for i := e.dx; i < e.dx+w; i++ {
		e.line.Cells[i].Wrapped = false
	}
	if c.GlyphRows() > 1 {
		e.pending[x] = e.dx
	}
	e.remapSpan(sy, x, w, e.dx)
	e.dx += w
	return x + w
}

// placeSubRow places the continuation sub-row of a vertical multicell
// glyph at the column recorded for its anchor, padding with blanks to keep
// the sub-cells in lockstep.
func (e *reflower) placeSubRow(row Line, sy, x int) int {
	c := row.Cells[x]
	w := c.GlyphWidth()
	if x+w > len(row.Cells) {
		w = len(row.Cells) - x
	}
	if w > e.dstW {
		return x + w // anchor was dropped, drop the sub-row too
	}
	target, ok := e.pending[x]
	if !ok || target < e.dx {
		target = e.dx
	}
	if target+w > e.dstW {
		e.newline(true)
		target = 0
	}
	// Pad up to the anchor's column.
	for e.dx < target {
		e.line.Cells[e.dx] = Cell{}
		e.dx++
	}
	copy(e.line.Cells[e.dx:e.dx+w], row.Cells[x:x+w])
	if len(row.Styles) >= x+w {
		copy(e.line.Styles[e.dx:e.dx+w], row.Styles[x:x+w])
	}
	if c.Scale > 0 && int(c.OffY) == int(c.Scale)-1 {
		delete(e.pending, x) // last sub-row landed, release the anchor column
	}
	e.remapSpan(sy, x, w, e.dx)
	e.dx += w
	return x + w
}

// newline completes the current destination row and starts the next.
func (e *reflower) newline(wrapped bool) {
	e.line = e.dst.NextLine(wrapped)
	e.dy++
	e.dx = 0
}

// remapSpan attaches every unmatched cursor inside the copied span
// [sx, sx+n) on source row sy to its new destination position: the span's
// destination start plus the cursor's offset into the span, so the cursor
// lands on the same logical character it sat on before.
func (e *reflower) remapSpan(sy, sx, n, dx int) {
	for _, cs := range e.cursors {
		if cs.matched || cs.c.Y != sy {
			continue
		}
		if cs.c.X >= sx && cs.c.X < sx+n {
			cs.dx = dx + (cs.c.X - sx)
			cs.dy = e.dy
			cs.matched = true
		}
	}
}

// finishCursors writes the destination coordinates back, compensating for
// rows that scrolled or were evicted off the top, and clamping best-effort
// for cursors that never matched any copied span.
func (e *reflower) finishCursors() {
	offset := e.dst.RowOffset()
	for _, cs := range e.cursors {
		if !cs.matched {
			// Out-of-range source position: clamp to the last written
			// position.
			cs.dx = e.dx
			cs.dy = e.dy
		}
		y := cs.dy - offset
		if y < 0 {
			y = 0
			cs.dx = 0
		}
		x := cs.dx
		if x >= e.dstW {
			x = e.dstW - 1
		}
		cs.c.X = x
		cs.c.Y = y
	}
}

// --- Convenience wrappers ---

// ResizeGrid reflows a grid into a new grid of the given dimensions,
// pushing scrolled-off rows into companion (when non-nil) and remapping
// the cursors. Returns the new grid.
func ResizeGrid(src *Grid, width, height int, companion *History, cursors ...*TrackedCursor) *Grid {
	dst := NewGrid(width, height, src.Cache())
	Reflow(NewGridSource(src), NewGridDestination(dst, companion), cursors)
	if companion != nil && companion.log != nil && width != src.Width() {
		companion.log.SetNeedsRelayout()
	}
	return dst
}

// ResizeHistory reflows a history buffer into a new one with the given
// configuration, carrying the text log over. Returns the new buffer.
func ResizeHistory(src *History, cfg HistoryConfig, cursors ...*TrackedCursor) *History {
	if cfg.Cache == nil {
		cfg.Cache = src.Cache()
	}
	dst := NewHistory(cfg)
	dst.onEvict = src.onEvict
	dst.evictSeq = src.evictSeq
	Reflow(NewHistorySource(src), NewHistoryDestination(dst), cursors)
	if dst.log == nil {
		dst.InheritLog(src)
	}
	return dst
}
