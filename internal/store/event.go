package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

const tableSequence = "global_sequence"

// sequenceCounter orders rows across every event table. Violations, signals,
// summaries and LLM requests share one sequence, so a session's records can
// be merged back in write order.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + tableSequence + ` (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			next_val INTEGER NOT NULL
		)`,
		`INSERT OR IGNORE INTO ` + tableSequence + ` (id, next_val) VALUES (1, 1)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("init sequence: %w", err)
		}
	}
	return &sequenceCounter{db: db}, nil
}

// Reserve claims n consecutive sequence numbers and returns the first.
// Another process sharing the database never receives an overlapping block.
func (sc *sequenceCounter) Reserve(ctx context.Context, n int) (int64, error) {
	if n < 1 {
		return 0, fmt.Errorf("reserve %d sequence numbers", n)
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var first int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE `+tableSequence+` SET next_val = next_val + ? WHERE id = 1 RETURNING next_val - ?`, n, n,
	).Scan(&first)
	if err != nil {
		return 0, fmt.Errorf("reserve sequence: %w", err)
	}
	return first, nil
}

// Next claims a single sequence number.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	return sc.Reserve(ctx, 1)
}
