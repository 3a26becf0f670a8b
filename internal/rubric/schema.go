package rubric

import "github.com/abhisek/phasegate/internal/llm"

// GradeSchema defines the JSON schema for LLM reflection grades.
var GradeSchema = &llm.Schema{
	Name:        "reflection-grade",
	Description: "Score of a learner's written reflection against a rubric",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     100,
				"description": "How well the reflection demonstrates understanding, 0 to 100",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "One sentence of feedback for the learner",
			},
		},
		"required":             []any{"score", "feedback"},
		"additionalProperties": false,
	},
}
