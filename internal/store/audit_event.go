package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/phasegate/internal/audit"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/signal"
)

func (r *eventRepo) AppendViolations(ctx context.Context, sessionID string, vs []audit.Violation) error {
	if len(vs) == 0 {
		return nil
	}
	ins := builder().Insert(tableViolations).
		Columns(colSequence, colTimestamp, colSessionID, "kind", "phase", "detail", "occurred_at")
	first, err := r.seq.Reserve(ctx, len(vs))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i, v := range vs {
		ins = ins.Values(first+int64(i), now, sessionID, string(v.Kind), v.Phase.String(), v.Detail, v.At.UTC())
	}
	if err := execBuilder(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save violation events: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryViolations(ctx context.Context, opts QueryOpts) ([]ViolationRecord, error) {
	sel := builder().Select(colSequence, colSessionID, "kind", "phase", "detail", "occurred_at").
		From(builder().Table(tableViolations))
	sel = applyOpts(sel, opts)

	rows, err := queryBuilder(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query violations: %w", err)
	}
	defer rows.Close()

	var out []ViolationRecord
	for rows.Next() {
		var (
			rec      ViolationRecord
			kind, ph string
		)
		if err := rows.Scan(&rec.Sequence, &rec.SessionID, &kind, &ph, &rec.Detail, &rec.At); err != nil {
			return nil, fmt.Errorf("scan violation: %w", err)
		}
		rec.Kind = audit.Kind(kind)
		rec.Phase, _ = phase.Parse(ph)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) AppendSignals(ctx context.Context, sessionID string, sigs []signal.Signal) error {
	if len(sigs) == 0 {
		return nil
	}
	ins := builder().Insert(tableSignals).
		Columns(colSequence, colTimestamp, colSessionID, "dimension", "raw", "magnitude", "action", "captured_at")
	first, err := r.seq.Reserve(ctx, len(sigs))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i, s := range sigs {
		ins = ins.Values(first+int64(i), now, sessionID, string(s.Dimension), s.Raw, s.Magnitude, s.Action, s.At.UTC())
	}
	if err := execBuilder(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save signal events: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySignals(ctx context.Context, opts QueryOpts) ([]SignalRecord, error) {
	sel := builder().Select(colSequence, colSessionID, "dimension", "raw", "magnitude", "action", "captured_at").
		From(builder().Table(tableSignals))
	sel = applyOpts(sel, opts)

	rows, err := queryBuilder(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var (
			rec SignalRecord
			dim string
		)
		if err := rows.Scan(&rec.Sequence, &rec.SessionID, &dim, &rec.Raw, &rec.Magnitude, &rec.Action, &rec.At); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		rec.Dimension = signal.Dimension(dim)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// applyOpts adds the session filter, cursor and limit, ordered by sequence.
func applyOpts(sel *entsql.Selector, opts QueryOpts) *entsql.Selector {
	var preds []*entsql.Predicate
	if opts.SessionID != "" {
		preds = append(preds, entsql.EQ(colSessionID, opts.SessionID))
	}
	if opts.After > 0 {
		preds = append(preds, entsql.GT(colSequence, opts.After))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	sel = sel.OrderBy(colSequence)
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	return sel
}
