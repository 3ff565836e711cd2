// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: sprite/cache.go
// Summary: Maps (glyph identity, style bits) to sprite atlas coordinates.
//
// The cache hands out (x, y, z) positions in the render layer's glyph
// atlas by monotonic raster-scan bump allocation: x advances first, then
// y, then the layer z. Nothing is ever evicted individually; a metrics
// change invalidates the whole cache at once via Layout. The cache is an
// explicit object owned by the rendering context, not a package singleton.

package sprite

import (
	"errors"

	"github.com/framegrace/gridcore/buffer"
)

// ErrAtlasExhausted is returned when allocation would exceed the
// configured layer bound.
var ErrAtlasExhausted = errors.New("sprite: atlas exhausted")

// Default cache geometry.
const (
	DefaultBuckets      = 1024
	DefaultCellsPerRow  = 32
	DefaultRowsPerLayer = 32
	DefaultMaxLayers    = 64
)

// Key identifies one distinct rendered glyph variant.
type Key struct {
	// Rune is the glyph's inline codepoint; Ref its text-cache reference
	// for multi-codepoint clusters. Together they are the text identity.
	Rune rune
	Ref  buffer.RefID

	Bold   bool
	Italic bool

	// SecondHalf selects the right half of a wide character, which gets
	// its own atlas slot.
	SecondHalf bool
}

// KeyFor derives the cache key for a cell and its style.
func KeyFor(c buffer.Cell, st buffer.Style) Key {
	return Key{
		Rune:       c.Rune,
		Ref:        c.Ref,
		Bold:       st.Attr&buffer.AttrBold != 0,
		Italic:     st.Attr&buffer.AttrItalic != 0,
		SecondHalf: c.Multicell && c.OffX == 1 && c.OffY == 0,
	}
}

// Position is a sprite's coordinate in the atlas.
type Position struct {
	X, Y, Z int
}

// entry is one cached glyph slot. Buckets hold dynamic arrays of entries
// rather than linked overflow chains.
type entry struct {
	key      Key
	pos      Position
	rendered bool
}

// Config holds the cache geometry.
type Config struct {
	// Buckets is the hash bucket count. Default 1024.
	Buckets int
	// CellsPerRow is the x extent of one atlas row. Default 32.
	CellsPerRow int
	// RowsPerLayer is the y extent of one atlas layer. Default 32.
	RowsPerLayer int
	// MaxLayers bounds z; allocation past it fails. Default 64.
	MaxLayers int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Buckets:      DefaultBuckets,
		CellsPerRow:  DefaultCellsPerRow,
		RowsPerLayer: DefaultRowsPerLayer,
		MaxLayers:    DefaultMaxLayers,
	}
}

// Cache is the sprite position cache.
type Cache struct {
	cfg     Config
	buckets [][]entry
	next    Position
	dirty   bool

	cellWidth  int
	cellHeight int
}

// New creates a sprite position cache.
func New(cfg Config) *Cache {
	if cfg.Buckets <= 0 {
		cfg.Buckets = DefaultBuckets
	}
	if cfg.CellsPerRow <= 0 {
		cfg.CellsPerRow = DefaultCellsPerRow
	}
	if cfg.RowsPerLayer <= 0 {
		cfg.RowsPerLayer = DefaultRowsPerLayer
	}
	if cfg.MaxLayers <= 0 {
		cfg.MaxLayers = DefaultMaxLayers
	}
	return &Cache{
		cfg:     cfg,
		buckets: make([][]entry, cfg.Buckets),
	}
}

// bucketFor hashes a key to its bucket index (FNV-1a over the key fields).
func (c *Cache) bucketFor(k Key) int {
	h := uint32(2166136261)
	mix := func(v uint32) {
		h ^= v
		h *= 16777619
	}
	mix(uint32(k.Rune))
	mix(uint32(k.Ref))
	var bits uint32
	if k.Bold {
		bits |= 1
	}
	if k.Italic {
		bits |= 2
	}
	if k.SecondHalf {
		bits |= 4
	}
	mix(bits)
	return int(h % uint32(len(c.buckets)))
}

// PositionFor returns the atlas position for a key, allocating the next
// free slot on first sight. Returns ErrAtlasExhausted once z would exceed
// the configured bound.
func (c *Cache) PositionFor(k Key) (Position, error) {
	b := c.bucketFor(k)
	for i := range c.buckets[b] {
		if c.buckets[b][i].key == k {
			return c.buckets[b][i].pos, nil
		}
	}
	if c.next.Z >= c.cfg.MaxLayers {
		return Position{}, ErrAtlasExhausted
	}
	pos := c.next
	c.buckets[b] = append(c.buckets[b], entry{key: k, pos: pos})
	c.advance()
	c.dirty = true
	return pos, nil
}

// advance moves the allocation cursor one slot in raster-scan order.
func (c *Cache) advance() {
	c.next.X++
	if c.next.X < c.cfg.CellsPerRow {
		return
	}
	c.next.X = 0
	c.next.Y++
	if c.next.Y < c.cfg.RowsPerLayer {
		return
	}
	c.next.Y = 0
	c.next.Z++
}

// Layout invalidates every entry and resets the allocation cursor to the
// origin. Called whenever the glyph metrics change, since every rendered
// sprite is sized by the cell box. A call with unchanged metrics is a
// no-op: the cached sprites are still sized correctly.
func (c *Cache) Layout(cellWidth, cellHeight int) {
	if cellWidth == c.cellWidth && cellHeight == c.cellHeight {
		return
	}
	c.cellWidth = cellWidth
	c.cellHeight = cellHeight
	for i := range c.buckets {
		c.buckets[i] = c.buckets[i][:0]
	}
	c.next = Position{}
	c.dirty = false
}

// CellSize returns the glyph metrics set by the last Layout.
func (c *Cache) CellSize() (width, height int) {
	return c.cellWidth, c.cellHeight
}

// Dirty reports whether any allocated slot has not been rendered yet.
func (c *Cache) Dirty() bool {
	return c.dirty
}

// Render walks all buckets, invokes fn for every filled-but-not-yet-
// rendered entry, marks them rendered and clears the dirty flag.
func (c *Cache) Render(fn func(Key, Position)) {
	if !c.dirty {
		return
	}
	for b := range c.buckets {
		for i := range c.buckets[b] {
			e := &c.buckets[b][i]
			if e.rendered {
				continue
			}
			fn(e.key, e.pos)
			e.rendered = true
		}
	}
	c.dirty = false
}

// Len returns the number of allocated slots.
func (c *Cache) Len() int {
	n := 0
	for _, b := range c.buckets {
		n += len(b)
	}
	return n
}
