package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"entgo.io/ent/schema/mixin"
)

// EventMixin is shared by the append-only tables. sequence is drawn from one
// counter across all of them.
type EventMixin struct {
	mixin.Schema
}

func (EventMixin) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("sequence").Unique().Immutable(),
		field.Time("timestamp").
			Default(time.Now).
			Immutable().
			Comment("Write time in UTC; domain times have their own columns"),
		// Empty for rows written outside a lesson, e.g. LLM calls from the CLI.
		field.String("session_id").Default(""),
	}
}

func (EventMixin) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id", "sequence"),
		index.Fields("timestamp"),
	}
}
