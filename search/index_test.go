// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: search/index_test.go

package search

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "scrollback.db")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexAndSearch(t *testing.T) {
	idx := openTestIndex(t)

	now := time.Now()
	idx.IndexLine(0, now, "compiling module alpha")
	idx.IndexLine(1, now, "error: undefined symbol frobnicate")
	idx.IndexLine(2, now, "build finished in 2.3s")
	idx.Flush()

	n, err := idx.LineCount()
	if err != nil {
		t.Fatalf("LineCount: %v", err)
	}
	if n != 3 {
		t.Fatalf("LineCount = %d, want 3", n)
	}

	results, err := idx.Search("frobnicate", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Seq != 1 {
		t.Errorf("result seq = %d, want 1", results[0].Seq)
	}
	if results[0].Content != "error: undefined symbol frobnicate" {
		t.Errorf("result content = %q", results[0].Content)
	}
}

func TestSearchSubstring(t *testing.T) {
	idx := openTestIndex(t)

	idx.IndexLine(0, time.Now(), "/home/user/projects/gridcore/buffer/grid.go")
	idx.Flush()

	// The trigram tokenizer matches inside paths, not just on word
	// boundaries.
	results, err := idx.Search("core/buf", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("substring search got %d results, want 1", len(results))
	}
}

func TestSearchInRange(t *testing.T) {
	idx := openTestIndex(t)

	base := time.Now()
	idx.IndexLine(0, base.Add(-2*time.Hour), "session start banner")
	idx.IndexLine(1, base, "session resumed banner")
	idx.Flush()

	results, err := idx.SearchInRange("banner", base.Add(-time.Hour), base.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("SearchInRange: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results in range, want 1", len(results))
	}
	if results[0].Seq != 1 {
		t.Errorf("result seq = %d, want 1", results[0].Seq)
	}
}

func TestSearchNewestFirst(t *testing.T) {
	idx := openTestIndex(t)

	base := time.Now()
	idx.IndexLine(0, base.Add(-time.Minute), "marker older")
	idx.IndexLine(1, base, "marker newer")
	idx.Flush()

	results, err := idx.Search("marker", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Seq != 1 || results[1].Seq != 0 {
		t.Errorf("order = [%d %d], want newest first [1 0]", results[0].Seq, results[1].Seq)
	}
}

func TestEmptyLinesSkipped(t *testing.T) {
	idx := openTestIndex(t)

	idx.IndexLine(0, time.Now(), "")
	idx.IndexLine(1, time.Now(), "real content here")
	idx.Flush()

	n, err := idx.LineCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("LineCount = %d, want 1 (empty line skipped)", n)
	}
}

func TestQueryWithQuotes(t *testing.T) {
	idx := openTestIndex(t)

	idx.IndexLine(0, time.Now(), `printf("hello world")`)
	idx.Flush()

	// Quotes in the query are escaped, not treated as FTS syntax.
	results, err := idx.Search(`"hello`, 10)
	if err != nil {
		t.Fatalf("Search with quote: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestIndexReplaceBySeq(t *testing.T) {
	idx := openTestIndex(t)

	idx.IndexLine(7, time.Now(), "first version of the line")
	idx.Flush()
	idx.IndexLine(7, time.Now(), "second version of the line")
	idx.Flush()

	n, err := idx.LineCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("LineCount = %d, want 1 after replacing the same seq", n)
	}
	results, err := idx.Search("second version", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("replacement not searchable, got %d results", len(results))
	}
}
