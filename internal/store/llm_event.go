package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo backed by the event tables and the global
// sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var llmEventColumns = []string{
	colID, colSequence, colTimestamp, "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success",
	"error_kind", "error_message", "request_body", "response_body",
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	err = execBuilder(ctx, r.db, builder().Insert(tableLLMEvents).
		Columns(llmEventColumns[1:]...).
		Values(
			seqNum, time.Now().UTC(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorKind, data.ErrorMessage, data.RequestBody, data.ResponseBody,
		))
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error) {
	sel := builder().Select(llmEventColumns...).
		From(builder().Table(tableLLMEvents)).
		OrderBy(entsql.Desc(colSequence))
	if opts.After > 0 {
		sel = sel.Where(entsql.GT(colSequence, opts.After))
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	rows, err := queryBuilder(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEventRecord
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error) {
	rows, err := queryBuilder(ctx, r.db, builder().Select(llmEventColumns...).
		From(builder().Table(tableLLMEvents)).
		Where(entsql.EQ(colID, id)))
	if err != nil {
		return nil, fmt.Errorf("get LLM event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanLLMEvent(rows)
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStat, error) {
	return r.llmUsage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsageStat, error) {
	return r.llmUsage(ctx, "model")
}

func (r *eventRepo) llmUsage(ctx context.Context, key string) ([]LLMUsageStat, error) {
	t := builder().Table(tableLLMEvents)
	sel := builder().Select(
		t.C(key),
		entsql.Count("*"),
		entsql.Sum(t.C("success")),
		entsql.Sum(t.C("input_tokens")),
		entsql.Sum(t.C("output_tokens")),
		entsql.Avg(t.C("latency_ms")),
	).From(t).GroupBy(t.C(key)).OrderBy(t.C(key))

	rows, err := queryBuilder(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage by %s: %w", key, err)
	}
	defer rows.Close()

	var out []LLMUsageStat
	for rows.Next() {
		var (
			st        LLMUsageStat
			label     string
			successes int
			avg       float64
		)
		if err := rows.Scan(&label, &st.Calls, &successes, &st.InputTokens, &st.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		if key == "model" {
			st.Model = label
		} else {
			st.Purpose = label
		}
		st.Failures = st.Calls - successes
		st.AvgLatencyMs = int64(avg)
		out = append(out, st)
	}
	return out, rows.Err()
}

func scanLLMEvent(rows *sql.Rows) (*LLMEventRecord, error) {
	var e LLMEventRecord
	err := rows.Scan(
		&e.ID, &e.Sequence, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
		&e.ErrorKind, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody,
	)
	if err != nil {
		return nil, fmt.Errorf("scan LLM event: %w", err)
	}
	return &e, nil
}
