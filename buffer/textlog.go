// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: buffer/textlog.go
// Summary: Flat append-only log of serialized scrollback text.
//
// The history ring keeps structured cells for at most its capacity in rows.
// Rows evicted from the ring are serialized once, as escape-formatted line
// text, into this log so the full scrollback text can still be exported.
// The serialization format is private to the history buffer and is not a
// public contract.

package buffer

import (
	"fmt"
	"strings"
)

// TextLog is a byte ring of newline-terminated serialized lines with a
// wraparound cursor. Appends never block and never touch the filesystem.
type TextLog struct {
	buf   []byte
	start int // wraparound cursor: offset of the oldest byte
	size  int // occupied bytes

	// needsRelayout is set when the owning grid's width changes; the
	// expensive re-formatting of logged text is deferred until the text is
	// actually requested.
	needsRelayout bool
}

// NewTextLog creates a text log holding at most capacity bytes.
func NewTextLog(capacity int) *TextLog {
	if capacity <= 0 {
		capacity = DefaultTextLogBytes
	}
	return &TextLog{
		buf: make([]byte, capacity),
	}
}

// Append adds one serialized line to the log, evicting the oldest whole
// lines when space runs out. Lines longer than the log itself are truncated
// to fit.
func (tl *TextLog) Append(line string) {
	data := []byte(line)
	data = append(data, '\n')
	if len(data) > len(tl.buf) {
		data = data[len(data)-len(tl.buf):]
	}
	for tl.size+len(data) > len(tl.buf) {
		tl.evictOldest()
	}
	end := (tl.start + tl.size) % len(tl.buf)
	n := copy(tl.buf[end:], data)
	if n < len(data) {
		copy(tl.buf, data[n:])
	}
	tl.size += len(data)
}

// evictOldest drops the oldest line (up to and including its newline).
func (tl *TextLog) evictOldest() {
	for tl.size > 0 {
		b := tl.buf[tl.start]
		tl.start = (tl.start + 1) % len(tl.buf)
		tl.size--
		if b == '\n' {
			return
		}
	}
}

// Lines invokes fn once per retained line, oldest first, without the
// trailing newline.
func (tl *TextLog) Lines(fn func(string)) {
	var sb strings.Builder
	pos := tl.start
	for i := 0; i < tl.size; i++ {
		b := tl.buf[pos]
		pos = (pos + 1) % len(tl.buf)
		if b == '\n' {
			fn(sb.String())
			sb.Reset()
			continue
		}
		sb.WriteByte(b)
	}
	if sb.Len() > 0 {
		fn(sb.String())
	}
}

// LineCount returns the number of complete lines retained.
func (tl *TextLog) LineCount() int {
	count := 0
	pos := tl.start
	for i := 0; i < tl.size; i++ {
		if tl.buf[pos] == '\n' {
			count++
		}
		pos = (pos + 1) % len(tl.buf)
	}
	return count
}

// SetNeedsRelayout flags the logged text as stale after a width change.
func (tl *TextLog) SetNeedsRelayout() {
	tl.needsRelayout = true
}

// NeedsRelayout reports whether logged text predates the current width.
func (tl *TextLog) NeedsRelayout() bool {
	return tl.needsRelayout
}

// ClearRelayout clears the stale flag once the text has been re-formatted.
func (tl *TextLog) ClearRelayout() {
	tl.needsRelayout = false
}

// --- Serialization ---

// formatCells serializes one row as escape-formatted text: plain cluster
// text interleaved with SGR sequences wherever the style changes, with a
// reset at the end when any attribute was emitted.
func formatCells(cells []Cell, styles []Style, tc *TextCache) string {
	var sb strings.Builder
	sb.Grow(len(cells) + 16)

	w := Line{Cells: cells}.ContentWidth()
	var cur Style
	styled := false
	for x := 0; x < w; x++ {
		if x < len(styles) && styles[x] != cur {
			cur = styles[x]
			sb.WriteString(sgrFor(cur))
			styled = true
		}
		cell := cells[x]
		if cell.IsPlaceholder() {
			continue
		}
		cluster := tc.CellCluster(cell)
		if len(cluster) == 0 {
			sb.WriteRune(' ')
			continue
		}
		for _, r := range cluster {
			sb.WriteRune(r)
		}
	}
	if styled {
		sb.WriteString("\x1b[0m")
	}
	return sb.String()
}

// sgrFor builds the SGR sequence selecting the given style from a reset
// state.
func sgrFor(st Style) string {
	params := []string{"0"}
	if st.Attr&AttrBold != 0 {
		params = append(params, "1")
	}
	if st.Attr&AttrDim != 0 {
		params = append(params, "2")
	}
	if st.Attr&AttrItalic != 0 {
		params = append(params, "3")
	}
	if st.Attr&AttrReverse != 0 {
		params = append(params, "7")
	}
	if st.Attr&AttrStrike != 0 {
		params = append(params, "9")
	}
	if st.Decor != DecorNone {
		params = append(params, "4")
	}
	params = append(params, colorParams(st.FG, 30)...)
	params = append(params, colorParams(st.BG, 40)...)
	return "\x1b[" + strings.Join(params, ";") + "m"
}

// colorParams returns the SGR parameters selecting a color, with base 30
// for foreground and 40 for background.
func colorParams(c Color, base int) []string {
	switch c.Mode {
	case ColorModeStandard:
		return []string{fmt.Sprintf("%d", base+int(c.Value&7))}
	case ColorMode256:
		return []string{fmt.Sprintf("%d;5;%d", base+8, c.Value)}
	case ColorModeRGB:
		return []string{fmt.Sprintf("%d;2;%d;%d;%d", base+8, c.R, c.G, c.B)}
	default:
		return nil
	}
}
