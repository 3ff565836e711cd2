// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: buffer/cell.go
// Summary: Per-column cell records shared by the grid and history buffers.
//
// Every column of every row is described by two parallel records with the
// same index: a text-facing Cell and a render-facing Style. Keeping them
// separate lets the reflow engine move text without touching attributes and
// lets the render layer scan styles without decoding cluster references.

package buffer

// Attr holds the boolean render attribute bits of a cell.
type Attr uint16

const (
	AttrBold Attr = 1 << iota
	AttrItalic
	AttrDim
	AttrReverse
	AttrStrike
)

// String returns a human-readable representation of the attribute flags.
func (a Attr) String() string {
	if a == 0 {
		return "none"
	}
	names := []struct {
		bit  Attr
		name string
	}{
		{AttrBold, "bold"},
		{AttrItalic, "italic"},
		{AttrDim, "dim"},
		{AttrReverse, "reverse"},
		{AttrStrike, "strike"},
	}
	var result string
	for _, n := range names {
		if a&n.bit == 0 {
			continue
		}
		if result != "" {
			result += "|"
		}
		result += n.name
	}
	if result == "" {
		return "unknown"
	}
	return result
}

// DecorStyle selects the decoration (underline) rendering style.
type DecorStyle uint8

const (
	DecorNone DecorStyle = iota
	DecorSingle
	DecorDouble
	DecorCurly
	DecorDotted
	DecorDashed
)

// ColorMode defines the type of color stored.
type ColorMode int

const (
	ColorModeDefault  ColorMode = iota // Default terminal color
	ColorModeStandard                  // The basic 8 ANSI colors
	ColorMode256                       // 256-color palette
	ColorModeRGB                       // 24-bit "true" color
)

// Color represents a color in potentially different modes.
type Color struct {
	Mode    ColorMode
	Value   uint8 // Holds the color code for Standard (0-7) and 256-mode (0-255)
	R, G, B uint8 // Holds the values for RGB mode
}

// Predefined default colors for convenience.
var (
	DefaultFG = Color{Mode: ColorModeDefault}
	DefaultBG = Color{Mode: ColorModeDefault}
)

// Cell is the text-facing record of a column.
//
// Single-codepoint content is stored inline in Rune and Ref is zero.
// Multi-codepoint grapheme clusters store a TextCache reference in Ref and
// Rune holds the cluster's base codepoint for cheap inspection.
//
// For a multicell glyph (Scale and/or Width greater than one) only the
// sub-cell at offset (0,0) carries the text reference. The other occupied
// sub-cells are placeholders implied by Scale times Width; they carry the
// same Ref/Rune for reverse lookup but must never be mutated independently.
type Cell struct {
	Rune rune
	Ref  RefID

	Multicell bool
	Scale     uint8 // rows occupied by the glyph
	Width     uint8 // columns occupied per row
	OffX      uint8 // horizontal sub-position within the glyph
	OffY      uint8 // vertical sub-position within the glyph

	// ScaleNum/ScaleDen apply a rational repeat factor to the glyph's row
	// span at placement time. Zero denominator means no fractional scaling.
	ScaleNum uint8
	ScaleDen uint8

	// Wrapped marks the last cell of a row whose logical line continues on
	// the next row (soft break, not a hard newline).
	Wrapped bool

	// Hyperlink is an id into an external hyperlink table, 0 = none.
	Hyperlink uint16
}

// Style is the render-facing record of a column.
type Style struct {
	FG         Color
	BG         Color
	Decoration Color
	Attr       Attr
	Decor      DecorStyle
	SelectMark uint8

	// Sprite is an opaque reference into the sprite position cache,
	// 0 = not yet assigned.
	Sprite uint32
}

// IsAnchor reports whether the cell is the text-carrying sub-cell of a
// multicell glyph (or any ordinary single-cell glyph).
func (c Cell) IsAnchor() bool {
	return !c.Multicell || (c.OffX == 0 && c.OffY == 0)
}

// IsPlaceholder reports whether the cell is an occupied sub-position of a
// multicell glyph other than the anchor.
func (c Cell) IsPlaceholder() bool {
	return c.Multicell && (c.OffX != 0 || c.OffY != 0)
}

// Blank reports whether the cell holds no visible content.
func (c Cell) Blank() bool {
	return !c.Multicell && c.Ref == 0 && (c.Rune == 0 || c.Rune == ' ')
}

// GlyphWidth returns the number of columns the cell's glyph occupies on one
// row. Ordinary cells are one column wide.
func (c Cell) GlyphWidth() int {
	if c.Multicell && c.Width > 0 {
		return int(c.Width)
	}
	return 1
}

// GlyphRows returns the number of rows the cell's glyph spans, after the
// rational repeat factor is applied. A glyph with Scale 2 and repeat 1/2
// collapses back to a single row.
func (c Cell) GlyphRows() int {
	rows := 1
	if c.Multicell && c.Scale > 0 {
		rows = int(c.Scale)
	}
	if c.ScaleDen > 0 {
		rows = rows * int(c.ScaleNum) / int(c.ScaleDen)
		if rows < 1 {
			rows = 1
		}
	}
	return rows
}
