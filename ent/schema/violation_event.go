package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ViolationEvent records one integrity violation raised during a lesson.
type ViolationEvent struct {
	ent.Schema
}

func (ViolationEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (ViolationEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("kind").
			NotEmpty().
			Comment("rushed-answer, insufficient-dwell, incomplete-watch, suspicious-replay, focus-loss, guessing-pattern"),
		field.String("phase").
			NotEmpty(),
		field.String("detail").
			Default(""),
		field.Time("occurred_at").
			Comment("Engine time of the violation"),
	}
}

func (ViolationEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("kind"),
	}
}
