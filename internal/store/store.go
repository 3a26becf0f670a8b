package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store is the SQLite record store behind the engine's persistence.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
	seq *sequenceCounter

	events    *eventRepo
	summaries *summaryRepo
	progress  *progressRepo
}

// Open connects to dsn and brings the schema up to date.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	drv := entsql.OpenDB(dialect.SQLite, db)

	s, err := setup(drv)
	if err != nil {
		drv.Close()
		return nil, err
	}
	return s, nil
}

func setup(drv *entsql.Driver) (*Store, error) {
	db := drv.DB()
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}
	if err := migrate(context.Background(), drv); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	seq, err := newSequenceCounter(db)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:        db,
		drv:       drv,
		seq:       seq,
		events:    &eventRepo{db: db, seq: seq},
		summaries: &summaryRepo{db: db, seq: seq},
		progress:  &progressRepo{db: db},
	}, nil
}

// WAL lets the CLI read while a lesson is writing.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
	"PRAGMA synchronous = NORMAL",
}

// DB is the raw handle, for tests and ad hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.drv.Close() }

func (s *Store) EventRepo() EventRepo { return s.events }

func (s *Store) SummaryRepo() SummaryRepo { return s.summaries }

func (s *Store) ProgressRepo() ProgressRepo { return s.progress }

// Reset deletes every record of a learner. An empty learnerID wipes all
// learner data; LLM request events are kept.
func (s *Store) Reset(ctx context.Context, learnerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	var sessions []string
	if learnerID != "" {
		sessions, err = learnerSessions(ctx, tx, learnerID)
		if err != nil {
			return err
		}
	}

	for _, table := range []string{tableViolations, tableSignals} {
		b := builder().Delete(table)
		if learnerID != "" {
			b = b.Where(entsql.In(colSessionID, anySlice(sessions)...))
		}
		if err := execBuilder(ctx, tx, b); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	for _, table := range []string{tableSummaries, tableProgress} {
		b := builder().Delete(table)
		if learnerID != "" {
			b = b.Where(entsql.EQ(colLearnerID, learnerID))
		}
		if err := execBuilder(ctx, tx, b); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// DefaultDBPath is $PHASEGATE_DB if set, otherwise phasegate/phasegate.db
// under $XDG_DATA_HOME (~/.local/share when unset). The parent directory is
// created.
func DefaultDBPath() (string, error) {
	p := os.Getenv("PHASEGATE_DB")
	if p == "" {
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve home dir: %w", err)
			}
			base = filepath.Join(home, ".local", "share")
		}
		p = filepath.Join(base, "phasegate", "phasegate.db")
	}
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
