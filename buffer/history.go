// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: buffer/history.go
// Summary: History is the scrollback: a segmented ring of completed rows.
//
// Architecture:
//
//	Storage is a growable list of fixed-capacity segments, each holding a
//	constant number of rows' worth of cells. Logically the store is a ring
//	over at most MaxRows rows, addressed by a start-of-data offset and an
//	occupied-row count. Segments are allocated lazily as the ring fills and
//	never freed before the buffer is destroyed: growth is monotonic and
//	bounded by MaxRows.
//
//	Rows evicted from the ring are serialized exactly once into the
//	optional flat text log (textlog.go) so full-history text export reaches
//	beyond what the structured ring retains.

package buffer

import "errors"

// Default values for buffer configuration.
const (
	// DefaultWidth is the fallback terminal width when none is specified.
	DefaultWidth = 80

	// DefaultHeight is the fallback terminal height when none is specified.
	DefaultHeight = 24

	// DefaultMaxRows is the default scrollback capacity in rows.
	DefaultMaxRows = 10000

	// DefaultSegmentRows is how many rows each ring segment holds.
	DefaultSegmentRows = 128

	// DefaultTextLogBytes is the default capacity of the serialized text
	// log.
	DefaultTextLogBytes = 1 << 16
)

// ErrLineOutOfRange is returned when a requested line index is outside
// [0, Count).
var ErrLineOutOfRange = errors.New("buffer: line index out of range")

// HistoryConfig holds configuration for creating a History.
type HistoryConfig struct {
	// Width is the column count of every stored row.
	Width int

	// MaxRows is the ring capacity; pushing past it evicts the oldest row.
	MaxRows int

	// SegmentRows is the rows per storage segment. Default 128.
	SegmentRows int

	// TextLogBytes enables the serialized text log when positive.
	TextLogBytes int

	// Cache is the shared text cache. Required.
	Cache *TextCache
}

// segment is one fixed-capacity chunk of row storage. Cells and styles are
// stored flat, SegmentRows*Width records per segment, so the same-size
// rewrap fast path can bulk-copy them.
type segment struct {
	cells  []Cell
	styles []Style
	meta   []rowMeta
}

// History is the scrollback buffer.
type History struct {
	width   int
	maxRows int
	segRows int

	segments []*segment
	start    int // ring offset of the oldest row
	count    int // occupied rows, count <= maxRows

	dirty *DirtyTracker
	log   *TextLog
	cache *TextCache

	// evictSeq counts evictions for the external index observer.
	evictSeq int64
	onEvict  func(seq int64, text string)
}

// NewHistory creates a scrollback buffer. Segments are not allocated up
// front; they appear as the ring fills.
func NewHistory(cfg HistoryConfig) *History {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = DefaultMaxRows
	}
	if cfg.SegmentRows <= 0 {
		cfg.SegmentRows = DefaultSegmentRows
	}
	if cfg.SegmentRows > cfg.MaxRows {
		cfg.SegmentRows = cfg.MaxRows
	}
	h := &History{
		width:   cfg.Width,
		maxRows: cfg.MaxRows,
		segRows: cfg.SegmentRows,
		dirty:   NewDirtyTracker(),
		cache:   cfg.Cache,
	}
	if cfg.TextLogBytes > 0 {
		h.log = NewTextLog(cfg.TextLogBytes)
	}
	return h
}

// Width returns the column count of stored rows.
func (h *History) Width() int { return h.width }

// MaxRows returns the ring capacity.
func (h *History) MaxRows() int { return h.maxRows }

// Count returns the number of occupied rows.
func (h *History) Count() int { return h.count }

// Segments returns how many storage segments have been allocated.
func (h *History) Segments() int { return len(h.segments) }

// Cache returns the shared text cache.
func (h *History) Cache() *TextCache { return h.cache }

// Log returns the serialized text log, or nil when disabled.
func (h *History) Log() *TextLog { return h.log }

// SetEvictObserver registers a callback invoked once per evicted row with
// the eviction sequence number and the row's plain text. Used to feed the
// external search index.
func (h *History) SetEvictObserver(fn func(seq int64, text string)) {
	h.onEvict = fn
}

// slot returns the ring slot of oldest-first row i.
func (h *History) slot(i int) int {
	return (h.start + i) % h.maxRows
}

// rowAtSlot resolves a ring slot to its segment storage, allocating the
// segment lazily. Allocation failure is fatal by runtime semantics; there
// is no degraded mode for a terminal that cannot hold its own buffer.
func (h *History) rowAtSlot(slot int) ([]Cell, []Style, *rowMeta) {
	segIdx := slot / h.segRows
	for len(h.segments) <= segIdx {
		h.addSegment()
	}
	seg := h.segments[segIdx]
	off := (slot % h.segRows) * h.width
	metaIdx := slot % h.segRows
	return seg.cells[off : off+h.width], seg.styles[off : off+h.width], &seg.meta[metaIdx]
}

// addSegment grows segment storage by one segment, bounded by MaxRows.
func (h *History) addSegment() {
	maxSegments := (h.maxRows + h.segRows - 1) / h.segRows
	if len(h.segments) >= maxSegments {
		return
	}
	h.segments = append(h.segments, &segment{
		cells:  make([]Cell, h.segRows*h.width),
		styles: make([]Style, h.segRows*h.width),
		meta:   make([]rowMeta, h.segRows),
	})
}

// Push appends a completed line to the logical ring. When the ring is full
// the oldest row is evicted first; if the text log is enabled the evicted
// row is serialized and appended there exactly once.
func (h *History) Push(line Line) {
	h.pushRow(line.Cells, line.Styles, rowMeta{flags: line.Flags, prompt: line.Prompt})
}

// pushRow is the allocation-free push used by Push and the reflow engine.
func (h *History) pushRow(cells []Cell, styles []Style, meta rowMeta) {
	if h.count == h.maxRows {
		h.evictOldest()
	}
	slot := h.slot(h.count)
	dstCells, dstStyles, dstMeta := h.rowAtSlot(slot)
	n := copy(dstCells, cells)
	for x := n; x < h.width; x++ {
		dstCells[x] = Cell{}
	}
	n = copy(dstStyles, styles)
	for x := n; x < h.width; x++ {
		dstStyles[x] = Style{}
	}
	*dstMeta = meta
	h.count++
	h.dirty.MarkDirty(slot)
}

// evictOldest drops the oldest row, serializing it into the text log and
// notifying the eviction observer.
func (h *History) evictOldest() {
	if h.count == 0 {
		return
	}
	slot := h.start
	cells, styles, _ := h.rowAtSlot(slot)
	if h.log != nil {
		h.log.Append(formatCells(cells, styles, h.cache))
	}
	if h.onEvict != nil {
		h.onEvict(h.evictSeq, ExtractText(cells, h.cache))
	}
	h.evictSeq++
	h.dirty.ClearDirty(slot)
	h.start = (h.start + 1) % h.maxRows
	h.count--
}

// IndexOf converts lnum (0 = most recent) to the oldest-first row index.
// The mapping is a bijection onto [0, Count) and stable between pushes.
// Returns -1 when lnum is out of range.
func (h *History) IndexOf(lnum int) int {
	if lnum < 0 || lnum >= h.count {
		return -1
	}
	return h.count - 1 - lnum
}

// LineAt returns a transient view of the row lnum steps back from the most
// recent row. The view is only valid until the next mutation.
func (h *History) LineAt(lnum int) (Line, error) {
	idx := h.IndexOf(lnum)
	if idx < 0 {
		return Line{}, ErrLineOutOfRange
	}
	return h.rowView(idx), nil
}

// RowAt returns a transient view of oldest-first row i. Callers must keep i
// within [0, Count).
func (h *History) RowAt(i int) Line {
	return h.rowView(i)
}

func (h *History) rowView(i int) Line {
	cells, styles, meta := h.rowAtSlot(h.slot(i))
	return Line{
		Cells:  cells,
		Styles: styles,
		Flags:  meta.flags,
		Prompt: meta.prompt,
	}
}

// DirtyLines returns the lnums (0 = most recent) of rows flagged for
// re-render, in ascending order of age.
func (h *History) DirtyLines() []int {
	slots := h.dirty.Dirty()
	dirty := make(map[int]bool, len(slots))
	for _, s := range slots {
		dirty[s] = true
	}
	result := make([]int, 0, len(slots))
	for lnum := 0; lnum < h.count; lnum++ {
		if dirty[h.slot(h.count-1-lnum)] {
			result = append(result, lnum)
		}
	}
	return result
}

// MarkClean clears the re-render flag of the row lnum steps back.
func (h *History) MarkClean(lnum int) {
	idx := h.IndexOf(lnum)
	if idx < 0 {
		return
	}
	h.dirty.ClearDirty(h.slot(idx))
}

// FullText invokes fn with the plain text of the entire retained
// scrollback, oldest first: text-log lines (escape codes stripped), then
// the structured ring.
func (h *History) FullText(fn func(string)) {
	if h.log != nil {
		h.log.Lines(func(s string) {
			fn(stripEscapes(s))
		})
	}
	for i := 0; i < h.count; i++ {
		fn(h.rowView(i).Text(h.cache))
	}
}

// FullTextFormatted invokes fn with the escape-formatted text of the entire
// retained scrollback, oldest first.
func (h *History) FullTextFormatted(fn func(string)) {
	if h.log != nil {
		h.log.Lines(fn)
	}
	for i := 0; i < h.count; i++ {
		line := h.rowView(i)
		fn(formatCells(line.Cells, line.Styles, h.cache))
	}
}

// InheritLog adopts the text log of a predecessor buffer after a rewrap.
// Logged text is never re-serialized eagerly; when the width changed the
// log is flagged for deferred re-layout instead.
func (h *History) InheritLog(from *History) {
	if from == nil || from.log == nil {
		return
	}
	h.log = from.log
	if from.width != h.width {
		h.log.SetNeedsRelayout()
	}
}

// CopyFrom takes the verbatim bulk-copy fast path: when both buffers have
// identical width and capacity, segments are copied raw instead of being
// re-laid out cell by cell. Returns false when the shapes differ.
func (h *History) CopyFrom(src *History) bool {
	if src.width != h.width || src.maxRows != h.maxRows || src.segRows != h.segRows {
		return false
	}
	for len(h.segments) < len(src.segments) {
		h.addSegment()
	}
	for i, seg := range src.segments {
		copy(h.segments[i].cells, seg.cells)
		copy(h.segments[i].styles, seg.styles)
		copy(h.segments[i].meta, seg.meta)
	}
	h.start = src.start
	h.count = src.count
	h.evictSeq = src.evictSeq
	h.dirty.ClearAll()
	for i := 0; i < h.count; i++ {
		h.dirty.MarkDirty(h.slot(i))
	}
	return true
}

// stripEscapes removes CSI sequences from serialized log text for plain
// export.
func stripEscapes(s string) string {
	out := make([]rune, 0, len(s))
	inCSI := false
	for _, r := range s {
		switch {
		case inCSI:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inCSI = false
			}
		case r == '\x1b':
			inCSI = true
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
