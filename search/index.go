// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: search/index.go
// Summary: SQLite FTS5 search index over evicted scrollback text.
//
// The history ring keeps structured cells only up to its capacity; rows it
// evicts survive as serialized text. This index makes that text
// searchable: evicted lines are queued for async batch indexing and can be
// found again by substring (trigram tokenizer) or by time range.

package search

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Result is a single search match.
type Result struct {
	Seq       int64 // eviction sequence number of the line
	Timestamp time.Time
	Content   string
}

// Config holds configuration for the index.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BatchSize is the number of entries to accumulate before flushing.
	// Default: 100
	BatchSize int

	// BatchTimeout is how long to wait before flushing a partial batch.
	// Default: 2s
	BatchTimeout time.Duration

	// ChannelBuffer is the size of the async indexing channel.
	// Default: 1000
	ChannelBuffer int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:        dbPath,
		BatchSize:     100,
		BatchTimeout:  2 * time.Second,
		ChannelBuffer: 1000,
	}
}

type indexEntry struct {
	seq       int64
	timestamp time.Time
	text      string
}

// Index is the SQLite-backed scrollback text index.
type Index struct {
	config Config
	db     *sql.DB

	batchChan chan indexEntry
	stopCh    chan struct{}
	doneCh    chan struct{}
	flushCh   chan chan struct{}

	mu sync.RWMutex
}

const schema = `
CREATE TABLE IF NOT EXISTS lines (
    seq INTEGER PRIMARY KEY,          -- eviction sequence number
    timestamp INTEGER NOT NULL,       -- UnixNano
    content TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lines_timestamp ON lines(timestamp);

-- Trigram tokenizer enables substring matching (partial paths, flags).
CREATE VIRTUAL TABLE IF NOT EXISTS lines_fts USING fts5(
    content,
    content='lines',
    content_rowid='seq',
    tokenize='trigram'
);

CREATE TRIGGER IF NOT EXISTS lines_ai AFTER INSERT ON lines BEGIN
    INSERT INTO lines_fts(rowid, content) VALUES (new.seq, new.content);
END;

CREATE TRIGGER IF NOT EXISTS lines_ad AFTER DELETE ON lines BEGIN
    INSERT INTO lines_fts(lines_fts, rowid, content) VALUES ('delete', old.seq, old.content);
END;
`

// Open creates or opens a search index at the configured path and starts
// the background batch indexer.
func Open(config Config) (*Index, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = 2 * time.Second
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 1000
	}

	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := config.DBPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	idx := &Index{
		config:    config,
		db:        db,
		batchChan: make(chan indexEntry, config.ChannelBuffer),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		flushCh:   make(chan chan struct{}),
	}
	go idx.batchIndexer()
	return idx, nil
}

// IndexLine queues one evicted line for indexing. Empty lines are skipped.
// The call never blocks: when the queue is full the line is dropped, which
// loses searchability but never stalls an eviction.
func (idx *Index) IndexLine(seq int64, timestamp time.Time, text string) {
	if text == "" {
		return
	}
	select {
	case idx.batchChan <- indexEntry{seq: seq, timestamp: timestamp, text: text}:
	default:
	}
}

// batchIndexer runs in a background goroutine, batching entries and
// flushing periodically.
func (idx *Index) batchIndexer() {
	defer close(idx.doneCh)

	batch := make([]indexEntry, 0, idx.config.BatchSize)
	timer := time.NewTimer(idx.config.BatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		idx.flushBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-idx.batchChan:
			batch = append(batch, entry)
			if len(batch) >= idx.config.BatchSize {
				flush()
				timer.Reset(idx.config.BatchTimeout)
			}

		case <-timer.C:
			flush()
			timer.Reset(idx.config.BatchTimeout)

		case done := <-idx.flushCh:
			// Drain anything already queued before acknowledging.
			draining := true
			for draining {
				select {
				case entry := <-idx.batchChan:
					batch = append(batch, entry)
				default:
					draining = false
				}
			}
			flush()
			close(done)

		case <-idx.stopCh:
			draining := true
			for draining {
				select {
				case entry := <-idx.batchChan:
					batch = append(batch, entry)
				default:
					draining = false
				}
			}
			flush()
			return
		}
	}
}

// flushBatch writes one batch inside a transaction.
func (idx *Index) flushBatch(batch []indexEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO lines (seq, timestamp, content) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return
	}
	for _, e := range batch {
		if _, err := stmt.Exec(e.seq, e.timestamp.UnixNano(), e.text); err != nil {
			stmt.Close()
			tx.Rollback()
			return
		}
	}
	stmt.Close()
	tx.Commit()
}

// Flush blocks until all queued entries are indexed.
func (idx *Index) Flush() {
	done := make(chan struct{})
	select {
	case idx.flushCh <- done:
		<-done
	case <-idx.doneCh:
	}
}

// Search returns up to limit lines matching the query by substring,
// newest first.
func (idx *Index) Search(query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`
		SELECT l.seq, l.timestamp, l.content
		FROM lines_fts f JOIN lines l ON l.seq = f.rowid
		WHERE lines_fts MATCH ?
		ORDER BY l.timestamp DESC
		LIMIT ?`, ftsQuote(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

// SearchInRange searches within a time range, newest first.
func (idx *Index) SearchInRange(query string, start, end time.Time, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`
		SELECT l.seq, l.timestamp, l.content
		FROM lines_fts f JOIN lines l ON l.seq = f.rowid
		WHERE lines_fts MATCH ? AND l.timestamp >= ? AND l.timestamp <= ?
		ORDER BY l.timestamp DESC
		LIMIT ?`, ftsQuote(query), start.UnixNano(), end.UnixNano(), limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

// LineCount returns the number of indexed lines.
func (idx *Index) LineCount() (int64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var count int64
	err := idx.db.QueryRow("SELECT COUNT(*) FROM lines").Scan(&count)
	return count, err
}

// Close flushes pending writes and closes the database.
func (idx *Index) Close() error {
	close(idx.stopCh)
	<-idx.doneCh
	return idx.db.Close()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		var ts int64
		if err := rows.Scan(&r.Seq, &ts, &r.Content); err != nil {
			return nil, err
		}
		r.Timestamp = time.Unix(0, ts)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ftsQuote wraps the query in double quotes so FTS treats it as a literal
// string rather than query syntax.
func ftsQuote(q string) string {
	escaped := ""
	for _, r := range q {
		if r == '"' {
			escaped += `""`
			continue
		}
		escaped += string(r)
	}
	return `"` + escaped + `"`
}
