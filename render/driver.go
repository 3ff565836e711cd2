// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/driver.go
// Summary: Draws grid buffer content onto a tcell screen.
//
// The driver consumes the buffer core's dirty-row contract: it repaints
// only rows flagged dirty, marks them clean afterwards, and resolves
// cluster references through the shared text cache. It is the terminal
// (non-GPU) counterpart of an atlas-based render layer.

package render

import (
	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/gridcore/buffer"
)

// Driver paints a grid onto a tcell.Screen.
type Driver struct {
	screen  tcell.Screen
	palette [258]tcell.Color // xterm 256 palette plus default fg/bg
}

// NewDriver wraps the provided screen.
func NewDriver(screen tcell.Screen) *Driver {
	return &Driver{
		screen:  screen,
		palette: newDefaultPalette(),
	}
}

// Draw repaints every dirty row of the grid and marks it clean. Returns
// the number of rows repainted.
func (d *Driver) Draw(g *buffer.Grid) int {
	dirty := g.DirtyLines()
	for _, y := range dirty {
		d.drawRow(g, y)
		g.MarkClean(y)
	}
	if len(dirty) > 0 {
		d.screen.Show()
	}
	return len(dirty)
}

// DrawAll repaints the full grid regardless of dirty state.
func (d *Driver) DrawAll(g *buffer.Grid) {
	g.MarkAllDirty()
	d.Draw(g)
}

// drawRow paints one grid row.
func (d *Driver) drawRow(g *buffer.Grid, y int) {
	tc := g.Cache()
	line := g.Line(y)
	for x := 0; x < g.Width(); x++ {
		cell := line.Cells[x]
		if cell.IsPlaceholder() {
			// Covered by the anchor's wide draw; tcell tracks the
			// occupied column itself.
			continue
		}
		cluster := tc.CellCluster(cell)
		mainc := ' '
		var combc []rune
		if len(cluster) > 0 {
			mainc = cluster[0]
			if len(cluster) > 1 {
				combc = cluster[1:]
			}
		}
		d.screen.SetContent(x, y, mainc, combc, d.styleFor(line.Styles[x]))
	}
}

// styleFor translates a buffer style to a tcell style.
func (d *Driver) styleFor(st buffer.Style) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(d.mapColor(st.FG, 256)).
		Background(d.mapColor(st.BG, 257))
	if st.Attr&buffer.AttrBold != 0 {
		style = style.Bold(true)
	}
	if st.Attr&buffer.AttrItalic != 0 {
		style = style.Italic(true)
	}
	if st.Attr&buffer.AttrDim != 0 {
		style = style.Dim(true)
	}
	if st.Attr&buffer.AttrReverse != 0 {
		style = style.Reverse(true)
	}
	if st.Attr&buffer.AttrStrike != 0 {
		style = style.StrikeThrough(true)
	}
	if st.Decor != buffer.DecorNone {
		style = style.Underline(true)
	}
	return style
}

// mapColor translates an internal color to a true RGB tcell color using
// the local palette. defaultIdx selects the palette's default fg or bg.
func (d *Driver) mapColor(c buffer.Color, defaultIdx int) tcell.Color {
	switch c.Mode {
	case buffer.ColorModeStandard, buffer.ColorMode256:
		return d.palette[c.Value]
	case buffer.ColorModeRGB:
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	default:
		return d.palette[defaultIdx]
	}
}

// newDefaultPalette builds the standard xterm 256 color palette, with the
// default foreground and background appended at 256 and 257.
func newDefaultPalette() [258]tcell.Color {
	var p [258]tcell.Color
	// First 16 ANSI colors
	base := [][3]int32{
		{0, 0, 0}, {128, 0, 0}, {0, 128, 0}, {128, 128, 0},
		{0, 0, 128}, {128, 0, 128}, {0, 128, 128}, {192, 192, 192},
		{128, 128, 128}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{0, 0, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	for i, c := range base {
		p[i] = tcell.NewRGBColor(c[0], c[1], c[2])
	}

	// 6x6x6 color cube
	levels := []int32{0, 95, 135, 175, 215, 255}
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p[i] = tcell.NewRGBColor(levels[r], levels[g], levels[b])
				i++
			}
		}
	}

	// Grayscale ramp
	for j := 0; j < 24; j++ {
		gray := int32(8 + j*10)
		p[i] = tcell.NewRGBColor(gray, gray, gray)
		i++
	}

	// Default foreground (white) and background (black)
	p[256] = p[15]
	p[257] = p[0]

	return p
}
