package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/phasegate/internal/engine"
)

type progressRepo struct {
	db *sql.DB
}

func (r *progressRepo) Save(ctx context.Context, s *engine.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ins := builder().Insert(tableProgress).
		Columns(colSessionID, colLearnerID, colLessonID, "phase", "data", "updated_at").
		Values(s.ID, s.LearnerID, s.LessonID, s.Phase.String(), string(data), time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns(colSessionID),
			entsql.ResolveWithNewValues(),
		)
	if err := execBuilder(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (r *progressRepo) Latest(ctx context.Context, learnerID, lessonID string) (*engine.Session, error) {
	rows, err := queryBuilder(ctx, r.db, builder().Select("data").
		From(builder().Table(tableProgress)).
		Where(entsql.And(
			entsql.EQ(colLearnerID, learnerID),
			entsql.EQ(colLessonID, lessonID),
		)).
		OrderBy(entsql.Desc("updated_at"), entsql.Desc(colID)).
		Limit(1))
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var data string
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("scan progress: %w", err)
	}
	return engine.RestoreSession([]byte(data))
}

func (r *progressRepo) Delete(ctx context.Context, sessionID string) error {
	del := builder().Delete(tableProgress).Where(entsql.EQ(colSessionID, sessionID))
	if err := execBuilder(ctx, r.db, del); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}
