package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SignalEvent records one stored behavioral signal.
type SignalEvent struct {
	ent.Schema
}

func (SignalEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (SignalEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("dimension").
			NotEmpty(),
		field.Int("raw").
			Comment("Clamped magnitude before decay"),
		field.Int("magnitude").
			Comment("Decayed magnitude as stored in the buffer"),
		field.String("action").
			NotEmpty(),
		field.Time("captured_at"),
	}
}

func (SignalEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("dimension"),
	}
}
