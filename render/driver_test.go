// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/driver_test.go

package render

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/gridcore/buffer"
)

func newTestScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	screen.SetSize(w, h)
	t.Cleanup(screen.Fini)
	return screen
}

func TestDrawRepaintsOnlyDirtyRows(t *testing.T) {
	screen := newTestScreen(t, 10, 3)
	tc := buffer.NewTextCache()
	g := buffer.NewGrid(10, 3, tc)
	d := NewDriver(screen)

	g.SetCell(0, 1, buffer.Cell{Rune: 'h'})
	g.SetCell(1, 1, buffer.Cell{Rune: 'i'})

	if n := d.Draw(g); n != 1 {
		t.Errorf("first draw repainted %d rows, want 1", n)
	}
	if mainc, _, _, _ := screen.GetContent(0, 1); mainc != 'h' {
		t.Errorf("screen cell (0,1) = %q, want 'h'", mainc)
	}
	if mainc, _, _, _ := screen.GetContent(1, 1); mainc != 'i' {
		t.Errorf("screen cell (1,1) = %q, want 'i'", mainc)
	}

	if n := d.Draw(g); n != 0 {
		t.Errorf("clean grid repainted %d rows, want 0", n)
	}

	g.MarkAllDirty()
	if n := d.Draw(g); n != 3 {
		t.Errorf("full repaint covered %d rows, want 3", n)
	}
}

func TestDrawResolvesClusterReferences(t *testing.T) {
	screen := newTestScreen(t, 10, 2)
	tc := buffer.NewTextCache()
	g := buffer.NewGrid(10, 2, tc)
	d := NewDriver(screen)

	var c buffer.Cell
	tc.SetCluster(&c, []rune{'e', 0x0301})
	g.SetCell(0, 0, c)
	d.Draw(g)

	mainc, combc, _, _ := screen.GetContent(0, 0)
	if mainc != 'e' {
		t.Errorf("base codepoint = %q, want 'e'", mainc)
	}
	if len(combc) != 1 || combc[0] != 0x0301 {
		t.Errorf("combining runes = %v, want [U+0301]", combc)
	}
}

func TestDrawSkipsPlaceholders(t *testing.T) {
	screen := newTestScreen(t, 10, 2)
	tc := buffer.NewTextCache()
	g := buffer.NewGrid(10, 2, tc)
	d := NewDriver(screen)

	anchor := buffer.Cell{Rune: '你', Multicell: true, Scale: 1, Width: 2}
	g.SetCell(0, 0, anchor)
	ph := anchor
	ph.OffX = 1
	g.SetCell(1, 0, ph)
	d.Draw(g)

	mainc, _, _, width := screen.GetContent(0, 0)
	if mainc != '你' {
		t.Errorf("anchor drew %q, want wide glyph", mainc)
	}
	if width != 2 {
		t.Errorf("glyph occupies %d columns on screen, want 2", width)
	}
}

func TestStyleMapping(t *testing.T) {
	screen := newTestScreen(t, 10, 2)
	tc := buffer.NewTextCache()
	g := buffer.NewGrid(10, 2, tc)
	d := NewDriver(screen)

	g.SetCell(0, 0, buffer.Cell{Rune: 'x'})
	g.SetStyle(0, 0, buffer.Style{
		Attr: buffer.AttrBold | buffer.AttrReverse,
		FG:   buffer.Color{Mode: buffer.ColorModeRGB, R: 10, G: 20, B: 30},
	})
	d.Draw(g)

	_, _, style, _ := screen.GetContent(0, 0)
	fg, _, attr := style.Decompose()
	if attr&tcell.AttrBold == 0 {
		t.Error("bold attribute not mapped")
	}
	if attr&tcell.AttrReverse == 0 {
		t.Error("reverse attribute not mapped")
	}
	if fg != tcell.NewRGBColor(10, 20, 30) {
		t.Errorf("fg = %v, want RGB(10,20,30)", fg)
	}
}

func TestPaletteMapping(t *testing.T) {
	screen := newTestScreen(t, 4, 1)
	d := NewDriver(screen)

	// Palette index 196 is pure red in the 6x6x6 cube.
	red := d.mapColor(buffer.Color{Mode: buffer.ColorMode256, Value: 196}, 256)
	if red != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("palette 196 = %v, want red", red)
	}
	def := d.mapColor(buffer.Color{}, 257)
	if def != tcell.NewRGBColor(0, 0, 0) {
		t.Errorf("default bg = %v, want black", def)
	}
}
