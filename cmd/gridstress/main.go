// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/gridstress/main.go
// Summary: Stress tool for the buffer core and sprite cache.
//
// Fills a grid/history pair with generated text (including wide glyphs
// and combining marks), runs randomized resize reflows, touches the
// sprite cache for every visible cell, and optionally feeds evicted lines
// through the SQLite search index. Reports timings.

package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/framegrace/gridcore/buffer"
	"github.com/framegrace/gridcore/search"
	"github.com/framegrace/gridcore/sprite"
)

var samples = []string{
	"drwxr-xr-x 12 build build  4096 sample directory listing entry",
	"compiling module cache entry 0x7f3a with flags -O2 -g -Wall",
	"café naïve résumé — combining marks: é à ô",
	"wide glyphs: 你好世界 こんにちは 터미널 테스트",
	"mixed: ascii 漢字 more ascii tail content for wrapping checks",
}

func main() {
	width := flag.Int("width", 120, "initial grid width")
	height := flag.Int("height", 40, "initial grid height")
	lines := flag.Int("lines", 50000, "lines to write")
	resizes := flag.Int("resizes", 20, "randomized resizes to run")
	scrollback := flag.Int("scrollback", 5000, "history capacity in rows")
	indexPath := flag.String("index", "", "optional search index db path")
	seed := flag.Int64("seed", 1, "rng seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	cache := buffer.NewTextCache()
	grid := buffer.NewGrid(*width, *height, cache)
	history := buffer.NewHistory(buffer.HistoryConfig{
		Width:        *width,
		MaxRows:      *scrollback,
		TextLogBytes: 1 << 20,
		Cache:        cache,
	})

	var idx *search.Index
	if *indexPath != "" {
		var err error
		idx, err = search.Open(search.DefaultConfig(*indexPath))
		if err != nil {
			log.Fatalf("gridstress: open index: %v", err)
		}
		defer idx.Close()
		history.SetEvictObserver(func(seq int64, text string) {
			idx.IndexLine(seq, time.Now(), text)
		})
	}

	writer := buffer.NewWriter(grid, history)

	start := time.Now()
	for i := 0; i < *lines; i++ {
		writer.WriteString(samples[rng.Intn(len(samples))])
		writer.LineFeed()
	}
	writeDur := time.Since(start)
	log.Printf("wrote %d lines in %v (%.0f lines/s)",
		*lines, writeDur, float64(*lines)/writeDur.Seconds())
	log.Printf("history: %d rows in %d segments, %d log lines, %d interned clusters",
		history.Count(), history.Segments(), logLines(history), cache.Len())

	start = time.Now()
	w, h := *width, *height
	for i := 0; i < *resizes; i++ {
		w = 20 + rng.Intn(180)
		h = 5 + rng.Intn(60)
		cursor := &buffer.TrackedCursor{X: 0, Y: 0}
		history = buffer.ResizeHistory(history, buffer.HistoryConfig{
			Width:   w,
			MaxRows: *scrollback,
			Cache:   cache,
		})
		grid = buffer.ResizeGrid(writer.Grid(), w, h, history, cursor)
		writer.SetGrid(grid)
		writer.SetHistory(history)
	}
	reflowDur := time.Since(start)
	log.Printf("ran %d reflows in %v (final %dx%d, history %d rows)",
		*resizes, reflowDur, w, h, history.Count())

	stressSprites(grid)

	if idx != nil {
		idx.Flush()
		n, err := idx.LineCount()
		if err != nil {
			log.Fatalf("gridstress: index count: %v", err)
		}
		log.Printf("search index holds %d lines", n)
	}

	fmt.Fprintln(os.Stdout, "ok")
}

// stressSprites queries the position cache for every visible cell and
// walks the render pass once.
func stressSprites(g *buffer.Grid) {
	cache := sprite.New(sprite.DefaultConfig())
	cache.Layout(9, 18)

	start := time.Now()
	misses := 0
	for y := 0; y < g.Height(); y++ {
		line := g.Line(y)
		for x := 0; x < g.Width(); x++ {
			if line.Cells[x].Blank() {
				continue
			}
			if _, err := cache.PositionFor(sprite.KeyFor(line.Cells[x], line.Styles[x])); err != nil {
				misses++
			}
		}
	}
	rendered := 0
	cache.Render(func(sprite.Key, sprite.Position) { rendered++ })
	log.Printf("sprite cache: %d slots, %d rendered, %d over bound in %v",
		cache.Len(), rendered, misses, time.Since(start))
}

func logLines(h *buffer.History) int {
	if h.Log() == nil {
		return 0
	}
	return h.Log().LineCount()
}
