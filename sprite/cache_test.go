// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: sprite/cache_test.go

package sprite

import (
	"errors"
	"testing"

	"github.com/framegrace/gridcore/buffer"
)

func smallConfig() Config {
	return Config{
		Buckets:      8,
		CellsPerRow:  2,
		RowsPerLayer: 2,
		MaxLayers:    2,
	}
}

func TestPositionForBumpAllocationOrder(t *testing.T) {
	c := New(smallConfig())

	want := []Position{
		{0, 0, 0}, {1, 0, 0},
		{0, 1, 0}, {1, 1, 0},
		{0, 0, 1}, {1, 0, 1},
		{0, 1, 1}, {1, 1, 1},
	}
	for i, w := range want {
		pos, err := c.PositionFor(Key{Rune: rune('a' + i)})
		if err != nil {
			t.Fatalf("slot %d: %v", i, err)
		}
		if pos != w {
			t.Errorf("slot %d at %+v, want %+v", i, pos, w)
		}
	}
	if c.Len() != len(want) {
		t.Errorf("Len = %d, want %d", c.Len(), len(want))
	}

	if _, err := c.PositionFor(Key{Rune: 'z'}); !errors.Is(err, ErrAtlasExhausted) {
		t.Errorf("allocation past the layer bound returned %v, want ErrAtlasExhausted", err)
	}
}

func TestPositionForHitIsStable(t *testing.T) {
	c := New(smallConfig())

	k := Key{Rune: 'q', Bold: true}
	first, err := c.PositionFor(k)
	if err != nil {
		t.Fatal(err)
	}
	c.PositionFor(Key{Rune: 'r'})
	again, err := c.PositionFor(k)
	if err != nil {
		t.Fatal(err)
	}
	if again != first {
		t.Errorf("repeat lookup moved the sprite from %+v to %+v", first, again)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d after one repeat lookup, want 2", c.Len())
	}
}

func TestStyleVariantsGetDistinctSlots(t *testing.T) {
	c := New(smallConfig())

	plain, _ := c.PositionFor(Key{Rune: 'a'})
	bold, _ := c.PositionFor(Key{Rune: 'a', Bold: true})
	italic, _ := c.PositionFor(Key{Rune: 'a', Italic: true})
	if plain == bold || plain == italic || bold == italic {
		t.Errorf("style variants share slots: plain %+v bold %+v italic %+v",
			plain, bold, italic)
	}
}

func TestLayoutInvalidatesWholesale(t *testing.T) {
	c := New(smallConfig())
	c.Layout(9, 18)

	c.PositionFor(Key{Rune: 'a'})
	c.PositionFor(Key{Rune: 'b'})
	if c.Len() != 2 {
		t.Fatalf("Len = %d", c.Len())
	}

	// Same metrics: no-op.
	c.Layout(9, 18)
	if c.Len() != 2 {
		t.Error("Layout with unchanged metrics invalidated the cache")
	}

	// Changed metrics: everything out, cursor back at the origin.
	c.Layout(10, 20)
	if c.Len() != 0 {
		t.Errorf("Len = %d after metrics change, want 0", c.Len())
	}
	if c.Dirty() {
		t.Error("empty cache reported dirty")
	}
	pos, err := c.PositionFor(Key{Rune: 'a'})
	if err != nil {
		t.Fatal(err)
	}
	if (pos != Position{}) {
		t.Errorf("first slot after invalidation at %+v, want origin", pos)
	}
	if w, h := c.CellSize(); w != 10 || h != 20 {
		t.Errorf("CellSize = %dx%d, want 10x20", w, h)
	}
}

func TestRenderWalksUnrenderedOnce(t *testing.T) {
	c := New(smallConfig())
	c.PositionFor(Key{Rune: 'a'})
	c.PositionFor(Key{Rune: 'b'})
	c.PositionFor(Key{Rune: 'c'})

	if !c.Dirty() {
		t.Fatal("cache with unrendered slots should be dirty")
	}
	n := 0
	c.Render(func(Key, Position) { n++ })
	if n != 3 {
		t.Errorf("first render visited %d slots, want 3", n)
	}
	if c.Dirty() {
		t.Error("cache still dirty after render")
	}

	n = 0
	c.Render(func(Key, Position) { n++ })
	if n != 0 {
		t.Errorf("second render visited %d slots, want 0", n)
	}

	c.PositionFor(Key{Rune: 'd'})
	n = 0
	c.Render(func(Key, Position) { n++ })
	if n != 1 {
		t.Errorf("incremental render visited %d slots, want 1", n)
	}
}

func TestKeyForWideCellHalves(t *testing.T) {
	anchor := buffer.Cell{Rune: '你', Multicell: true, Width: 2}
	second := anchor
	second.OffX = 1

	st := buffer.Style{Attr: buffer.AttrBold}
	ka := KeyFor(anchor, st)
	ks := KeyFor(second, st)

	if ka.SecondHalf {
		t.Error("anchor keyed as second half")
	}
	if !ks.SecondHalf {
		t.Error("right half not keyed as second half")
	}
	if !ka.Bold || !ks.Bold {
		t.Error("bold attribute lost in key derivation")
	}
	if ka == ks {
		t.Error("halves must occupy distinct atlas slots")
	}
}
