// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: buffer/grid.go
// Summary: Grid is the live screen: a fixed WxH cell array with an
// indirection table for O(1) scrolling.
//
// Architecture:
//
//	Logical row y is resolved through rowMap to a physical storage row.
//	Scroll, insert and delete rotate the mapping, never the cell data, so
//	every mutation is O(1) or O(width). Full reallocation only happens at
//	resize, which is the reflow engine's job, not this component's.

package buffer

// rowMeta carries the per-row attribute byte alongside physical storage.
type rowMeta struct {
	flags  LineFlag
	prompt PromptKind
}

// Grid is the currently visible screen buffer.
type Grid struct {
	width  int
	height int

	// cells/styles/meta are indexed by physical row; rowMap maps logical
	// row -> physical row.
	cells  [][]Cell
	styles [][]Style
	meta   []rowMeta
	rowMap []int

	dirty *DirtyTracker
	cache *TextCache

	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
}

// NewGrid creates a grid of the given dimensions sharing the supplied text
// cache. Non-positive dimensions fall back to the defaults so the W>0, H>0
// invariant holds from construction on.
func NewGrid(width, height int, cache *TextCache) *Grid {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	g := &Grid{
		width:  width,
		height: height,
		cells:  make([][]Cell, height),
		styles: make([][]Style, height),
		meta:   make([]rowMeta, height),
		rowMap: make([]int, height),
		dirty:  NewDirtyTracker(),
		cache:  cache,
	}
	for i := 0; i < height; i++ {
		g.cells[i] = make([]Cell, width)
		g.styles[i] = make([]Style, width)
		g.rowMap[i] = i
	}
	return g
}

// Width returns the grid width in columns.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in rows.
func (g *Grid) Height() int { return g.height }

// Cache returns the shared text cache.
func (g *Grid) Cache() *TextCache { return g.cache }

// Line returns a transient view of logical row y. The view is only valid
// until the next mutation.
func (g *Grid) Line(y int) Line {
	p := g.rowMap[y]
	return Line{
		Cells:  g.cells[p],
		Styles: g.styles[p],
		Flags:  g.meta[p].flags,
		Prompt: g.meta[p].prompt,
	}
}

// SetCell writes the text-facing record of a column and marks the row dirty.
func (g *Grid) SetCell(x, y int, c Cell) {
	p := g.rowMap[y]
	g.cells[p][x] = c
	g.dirty.MarkDirty(y)
}

// SetStyle writes the render-facing record of a column and marks the row
// dirty.
func (g *Grid) SetStyle(x, y int, s Style) {
	p := g.rowMap[y]
	g.styles[p][x] = s
	g.dirty.MarkDirty(y)
}

// CellAt returns the text-facing record of a column.
func (g *Grid) CellAt(x, y int) Cell {
	return g.cells[g.rowMap[y]][x]
}

// StyleAt returns the render-facing record of a column.
func (g *Grid) StyleAt(x, y int) Style {
	return g.styles[g.rowMap[y]][x]
}

// SetWrapped flags logical row y as soft-breaking into the row below. The
// flag lives on the row's last cell; the continuation bit on the next row's
// metadata is kept in sync.
func (g *Grid) SetWrapped(y int, wrapped bool) {
	p := g.rowMap[y]
	g.cells[p][g.width-1].Wrapped = wrapped
	if y+1 < g.height {
		np := g.rowMap[y+1]
		if wrapped {
			g.meta[np].flags |= LineContinuation
		} else {
			g.meta[np].flags &^= LineContinuation
		}
	}
}

// SetPrompt records the shell-integration kind of logical row y.
func (g *Grid) SetPrompt(y int, kind PromptKind) {
	g.meta[g.rowMap[y]].prompt = kind
}

// Scroll rotates the logical-to-physical mapping of rows [top, bottom] by
// one: the top row's storage becomes the new, cleared bottom row. This is
// the common case of appending a new line at the bottom and is O(height)
// pointer moves, never a cell copy. A single-row region degenerates to
// clearing that row.
func (g *Grid) Scroll(top, bottom int) {
	if top < 0 || bottom >= g.height || top > bottom {
		return
	}
	recycled := g.rowMap[top]
	copy(g.rowMap[top:bottom], g.rowMap[top+1:bottom+1])
	g.rowMap[bottom] = recycled
	g.clearPhysical(recycled, Style{})
	for y := top; y <= bottom; y++ {
		g.dirty.MarkDirty(y)
	}
}

// InsertLines shifts rows [at, bottom] down by count, recycling the rows
// pushed off the bottom of the range as cleared rows at the insertion
// point.
func (g *Grid) InsertLines(count, at, bottom int) {
	if at < 0 || bottom >= g.height || at > bottom || count <= 0 {
		return
	}
	if count > bottom-at+1 {
		count = bottom - at + 1
	}
	recycled := make([]int, count)
	copy(recycled, g.rowMap[bottom-count+1:bottom+1])
	copy(g.rowMap[at+count:bottom+1], g.rowMap[at:bottom+1-count])
	for i, p := range recycled {
		g.rowMap[at+i] = p
		g.clearPhysical(p, Style{})
	}
	for y := at; y <= bottom; y++ {
		g.dirty.MarkDirty(y)
	}
}

// DeleteLines removes count rows starting at row at, shifting the rows
// below up and recycling the removed storage as cleared rows at the bottom
// of the range.
func (g *Grid) DeleteLines(count, at, bottom int) {
	if at < 0 || bottom >= g.height || at > bottom || count <= 0 {
		return
	}
	if count > bottom-at+1 {
		count = bottom - at + 1
	}
	recycled := make([]int, count)
	copy(recycled, g.rowMap[at:at+count])
	copy(g.rowMap[at:bottom+1-count], g.rowMap[at+count:bottom+1])
	for i, p := range recycled {
		g.rowMap[bottom-count+1+i] = p
		g.clearPhysical(p, Style{})
	}
	for y := at; y <= bottom; y++ {
		g.dirty.MarkDirty(y)
	}
}

// ClearLine blanks logical row y. The supplied style becomes the erase
// style of every cleared cell (terminal erase ops fill with the current
// background, not the default).
func (g *Grid) ClearLine(y int, st Style) {
	g.clearPhysical(g.rowMap[y], st)
	g.dirty.MarkDirty(y)
}

// clearPhysical blanks a physical storage row in place.
func (g *Grid) clearPhysical(p int, st Style) {
	cells := g.cells[p]
	styles := g.styles[p]
	for x := range cells {
		cells[x] = Cell{}
		styles[x] = st
	}
	g.meta[p] = rowMeta{}
}

// MarkDirty flags logical row y for re-render.
func (g *Grid) MarkDirty(y int) {
	g.dirty.MarkDirty(y)
}

// MarkClean clears the re-render flag of logical row y.
func (g *Grid) MarkClean(y int) {
	g.dirty.ClearDirty(y)
}

// DirtyLines returns the sorted logical indices of rows needing re-render.
func (g *Grid) DirtyLines() []int {
	return g.dirty.Dirty()
}

// MarkAllDirty flags every row for re-render.
func (g *Grid) MarkAllDirty() {
	g.dirty.MarkAll(g.height)
}

// FullText invokes fn with the plain text of every row, top to bottom.
func (g *Grid) FullText(fn func(string)) {
	for y := 0; y < g.height; y++ {
		fn(g.Line(y).Text(g.cache))
	}
}

// FullTextFormatted invokes fn with the escape-formatted text of every row,
// top to bottom.
func (g *Grid) FullTextFormatted(fn func(string)) {
	for y := 0; y < g.height; y++ {
		line := g.Line(y)
		fn(formatCells(line.Cells, line.Styles, g.cache))
	}
}

// SetDebugLog sets the debug logging function.
func (g *Grid) SetDebugLog(fn func(format string, args ...interface{})) {
	g.debugLog = fn
}
