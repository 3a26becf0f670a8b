package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Progress holds the latest saved state of an unfinished lesson session so
// it can be resumed. One row per session, overwritten on every save.
type Progress struct {
	ent.Schema
}

func (Progress) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			Unique().
			NotEmpty(),
		field.String("learner_id").
			NotEmpty(),
		field.String("lesson_id").
			NotEmpty(),
		field.String("phase"),
		field.Text("data").
			Comment("Serialized session"),
		field.Time("updated_at").
			Default(time.Now),
	}
}

func (Progress) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("learner_id", "lesson_id"),
	}
}
