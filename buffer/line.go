// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: buffer/line.go
// Summary: Transient row views shared by the grid and history buffers.

package buffer

import (
	"strings"
	"unicode"
)

// LineFlag holds the per-row attribute bits.
type LineFlag uint8

const (
	// LineDirty marks the row's text as changed since the last render.
	LineDirty LineFlag = 1 << iota
	// LineHasPlaceholder marks a row containing an image placeholder cell.
	LineHasPlaceholder
	// LineContinuation marks a row that continues the previous row's
	// logical line (the previous row ended with a soft break).
	LineContinuation
)

// PromptKind classifies a row for shell-integration purposes.
type PromptKind uint8

const (
	PromptNone PromptKind = iota
	PromptPrompt
	PromptInput
	PromptOutput
)

// Line is a non-owning view over one row of a buffer: pointers into the
// buffer's cell and style storage plus the row's attribute byte. A Line is
// re-pointed by whichever buffer is iterating and is only valid until the
// next mutation of that buffer.
type Line struct {
	Cells  []Cell
	Styles []Style
	Flags  LineFlag
	Prompt PromptKind
}

// Width returns the number of columns in the row.
func (l Line) Width() int {
	return len(l.Cells)
}

// Continued reports whether this row continues the previous row's logical
// line.
func (l Line) Continued() bool {
	return l.Flags&LineContinuation != 0
}

// WrapsToNext reports whether the row's logical line continues on the next
// row, i.e. the last cell carries the wrap-continuation flag.
func (l Line) WrapsToNext() bool {
	if len(l.Cells) == 0 {
		return false
	}
	return l.Cells[len(l.Cells)-1].Wrapped
}

// ContentWidth returns the row width with trailing blank cells trimmed.
// Rows that wrap into the next row keep their full width: the break is not
// a hard newline, so the blanks are real content.
func (l Line) ContentWidth() int {
	if l.WrapsToNext() {
		return len(l.Cells)
	}
	w := len(l.Cells)
	for w > 0 && l.Cells[w-1].Blank() {
		w--
	}
	return w
}

// Text extracts the row's plain text, resolving cluster references through
// the cache, skipping multicell placeholders and control runes, and
// trimming trailing whitespace.
func (l Line) Text(tc *TextCache) string {
	var sb strings.Builder
	sb.Grow(len(l.Cells))
	for _, cell := range l.Cells {
		if cell.IsPlaceholder() {
			continue
		}
		cluster := tc.CellCluster(cell)
		if len(cluster) == 0 {
			sb.WriteRune(' ')
			continue
		}
		if unicode.IsControl(cluster[0]) && cluster[0] != '\t' {
			continue
		}
		for _, r := range cluster {
			sb.WriteRune(r)
		}
	}
	return strings.TrimRight(sb.String(), " \t")
}

// ExtractText converts a slice of cells to plain text for search indexing.
// It strips placeholders and control characters and trims trailing
// whitespace.
func ExtractText(cells []Cell, tc *TextCache) string {
	return Line{Cells: cells}.Text(tc)
}
