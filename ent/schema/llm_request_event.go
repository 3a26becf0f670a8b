package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LLMRequestEvent is one provider call made while grading. Retries are
// separate rows.
type LLMRequestEvent struct {
	ent.Schema
}

func (LLMRequestEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (LLMRequestEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("provider"),
		field.String("model").
			Comment("Model reported by the vendor, which may be a dated snapshot"),
		field.String("purpose"),
		field.Int("input_tokens").Default(0),
		field.Int("output_tokens").Default(0),
		field.Int64("latency_ms").Default(0),
		field.Bool("success"),
		field.String("error_kind").
			Default("").
			Comment("unavailable, rate_limited, invalid, truncated or rejected"),
		field.String("error_message").Default(""),
		field.Text("request_body").
			Default("").
			Comment("System prompt, user prompt and output schema"),
		field.Text("response_body").Default(""),
	}
}

func (LLMRequestEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("purpose"),
		index.Fields("model"),
		index.Fields("error_kind"),
	}
}
