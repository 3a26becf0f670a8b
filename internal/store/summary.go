package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/signal"
)

type summaryRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var summaryColumns = []string{
	colSessionID, colLearnerID, colLessonID, "completed", "final_phase",
	"pre_score", "post_score", "delta", "elapsed_ms", "tier",
	"rewind_attempts", "violations", "violation_list", "suspicious_replay", "profile", "finished_at",
}

func (r *summaryRepo) Save(ctx context.Context, sum engine.Summary) error {
	profile, err := json.Marshal(sum.Profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	violations, err := json.Marshal(sum.Violations)
	if err != nil {
		return fmt.Errorf("marshal violations: %w", err)
	}
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	del := builder().Delete(tableSummaries).Where(entsql.EQ(colSessionID, sum.SessionID))
	if err := execBuilder(ctx, tx, del); err != nil {
		return fmt.Errorf("replace summary: %w", err)
	}

	cols := append([]string{colSequence, colTimestamp}, summaryColumns...)
	ins := builder().Insert(tableSummaries).Columns(cols...).Values(
		seqNum, time.Now().UTC(),
		sum.SessionID, sum.LearnerID, sum.LessonID, sum.Completed, sum.FinalPhase.String(),
		sum.Pre, sum.Post, sum.Delta, sum.Elapsed.Milliseconds(), string(sum.Tier),
		sum.RewindAttempts, sum.ViolationCount, string(violations), sum.SuspiciousReplay, string(profile), sum.FinishedAt.UTC(),
	)
	if err := execBuilder(ctx, tx, ins); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return tx.Commit()
}

func (r *summaryRepo) List(ctx context.Context, learnerID string, limit int) ([]engine.Summary, error) {
	sel := builder().Select(summaryColumns...).
		From(builder().Table(tableSummaries)).
		Where(entsql.EQ(colLearnerID, learnerID)).
		OrderBy(entsql.Desc(colSequence))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	return r.query(ctx, sel)
}

func (r *summaryRepo) Profiles(ctx context.Context, learnerID string) ([]signal.Profile, error) {
	sel := builder().Select(summaryColumns...).
		From(builder().Table(tableSummaries)).
		Where(entsql.And(
			entsql.EQ(colLearnerID, learnerID),
			entsql.EQ("completed", true),
		)).
		OrderBy(colSequence)
	sums, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	out := make([]signal.Profile, 0, len(sums))
	for _, s := range sums {
		out = append(out, s.Profile)
	}
	return out, nil
}

func (r *summaryRepo) query(ctx context.Context, sel *entsql.Selector) ([]engine.Summary, error) {
	rows, err := queryBuilder(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []engine.Summary
	for rows.Next() {
		var (
			s                engine.Summary
			finalPhase, tier string
			elapsedMs        int64
			profile          string
			violations       sql.NullString
		)
		err := rows.Scan(
			&s.SessionID, &s.LearnerID, &s.LessonID, &s.Completed, &finalPhase,
			&s.Pre, &s.Post, &s.Delta, &elapsedMs, &tier,
			&s.RewindAttempts, &s.ViolationCount, &violations, &s.SuspiciousReplay, &profile, &s.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if s.FinalPhase, err = phase.Parse(finalPhase); err != nil {
			return nil, fmt.Errorf("decode final phase of %s: %w", s.SessionID, err)
		}
		s.Tier = engine.Tier(tier)
		s.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		if err := json.Unmarshal([]byte(profile), &s.Profile); err != nil {
			return nil, fmt.Errorf("decode profile of %s: %w", s.SessionID, err)
		}
		// Rows written before the list was stored have none.
		if violations.Valid && violations.String != "" {
			if err := json.Unmarshal([]byte(violations.String), &s.Violations); err != nil {
				return nil, fmt.Errorf("decode violations of %s: %w", s.SessionID, err)
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
