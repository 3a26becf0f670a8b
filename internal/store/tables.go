package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/abhisek/phasegate/ent/schema"
)

const (
	tableLLMEvents  = "llm_request_events"
	tableViolations = "violation_events"
	tableSignals    = "signal_events"
	tableSummaries  = "lesson_summaries"
	tableProgress   = "progresses"

	colID        = "id"
	colSequence  = "sequence"
	colTimestamp = "timestamp"
	colSessionID = "session_id"
	colLearnerID = "learner_id"
	colLessonID  = "lesson_id"
)

// Tables returns the SQL tables derived from the ent schema definitions.
func Tables() []*schema.Table {
	return []*schema.Table{
		tableFor(tableLLMEvents, entschema.LLMRequestEvent{}),
		tableFor(tableViolations, entschema.ViolationEvent{}),
		tableFor(tableSignals, entschema.SignalEvent{}),
		tableFor(tableSummaries, entschema.LessonSummary{}),
		tableFor(tableProgress, entschema.Progress{}),
	}
}

// tableFor builds a table from a schema's mixin and own fields and indexes,
// with an auto-increment integer id as primary key.
func tableFor(name string, s ent.Interface) *schema.Table {
	id := &schema.Column{Name: colID, Type: field.TypeInt, Increment: true}
	t := schema.NewTable(name).AddPrimary(id)

	var fields []ent.Field
	var indexes []ent.Index
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, s.Fields()...)
	indexes = append(indexes, s.Indexes()...)

	for _, f := range fields {
		t.AddColumn(columnFor(f.Descriptor()))
	}
	for _, idx := range indexes {
		d := idx.Descriptor()
		cols := make([]*schema.Column, 0, len(d.Fields))
		for _, f := range d.Fields {
			if c, ok := t.Column(f); ok {
				cols = append(cols, c)
			}
		}
		t.Indexes = append(t.Indexes, &schema.Index{
			Name:    name + "_" + strings.Join(d.Fields, "_"),
			Unique:  d.Unique,
			Columns: cols,
		})
	}
	return t
}

func columnFor(d *field.Descriptor) *schema.Column {
	name := d.Name
	if d.StorageKey != "" {
		name = d.StorageKey
	}
	c := &schema.Column{
		Name:     name,
		Type:     d.Info.Type,
		Unique:   d.Unique,
		Nullable: d.Optional,
		Comment:  d.Comment,
	}
	// Function defaults (time.Now) are applied by the repositories.
	switch v := d.Default.(type) {
	case string, bool, int, int64, float64:
		c.Default = v
	}
	return c
}

// migrate creates or updates the tables.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv, schema.WithDropIndex(true))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	return m.Create(ctx, Tables()...)
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func execBuilder(ctx context.Context, ex execer, b entsql.Querier) error {
	query, args := b.Query()
	_, err := ex.ExecContext(ctx, query, args...)
	return err
}

func queryBuilder(ctx context.Context, q querier, b entsql.Querier) (*sql.Rows, error) {
	query, args := b.Query()
	return q.QueryContext(ctx, query, args...)
}

// learnerSessions lists the session ids a learner has summaries or saved
// progress for.
func learnerSessions(ctx context.Context, q querier, learnerID string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, table := range []string{tableSummaries, tableProgress} {
		rows, err := queryBuilder(ctx, q, builder().
			Select(colSessionID).
			From(builder().Table(table)).
			Where(entsql.EQ(colLearnerID, learnerID)))
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
