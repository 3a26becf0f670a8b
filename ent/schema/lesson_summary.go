package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LessonSummary is the end-of-lesson record, written once per session when
// the lesson completes or the learner exits.
type LessonSummary struct {
	ent.Schema
}

func (LessonSummary) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (LessonSummary) Fields() []ent.Field {
	return []ent.Field{
		field.String("learner_id").
			NotEmpty(),
		field.String("lesson_id").
			NotEmpty(),
		field.Bool("completed").
			Default(false),
		field.String("final_phase"),
		field.Float("pre_score").
			Default(0),
		field.Float("post_score").
			Default(0),
		field.Float("delta").
			Default(0),
		field.Int64("elapsed_ms").
			Default(0),
		field.String("tier").
			Default(""),
		field.Int("rewind_attempts").
			Default(0),
		field.Int("violations").
			Default(0).
			Comment("Number of violations recorded in the session"),
		field.JSON("violation_list", []map[string]any{}).
			Optional().
			Comment("The violations themselves, as recorded in the session"),
		field.Bool("suspicious_replay").
			Default(false),
		field.JSON("profile", map[string]int{}).
			Comment("Six-dimension profile computed at the end of the lesson"),
		field.Time("finished_at"),
	}
}

func (LessonSummary) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("learner_id", "lesson_id"),
	}
}
