package content

// catalogSchema is the JSON Schema every catalog file must satisfy.
var catalogSchema = map[string]any{
	"type":     "object",
	"required": []any{"format_version", "lessons"},
	"properties": map[string]any{
		"format_version": map[string]any{
			"type":    "string",
			"pattern": `^v?\d+\.\d+(\.\d+)?$`,
		},
		"lessons": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    lessonSchema,
		},
	},
}

var quizItemSchema = map[string]any{
	"type":     "object",
	"required": []any{"prompt", "options", "correct"},
	"properties": map[string]any{
		"prompt": map[string]any{"type": "string", "minLength": 1},
		"options": map[string]any{
			"type":     "array",
			"minItems": 2,
			"items":    map[string]any{"type": "string"},
		},
		"correct": map[string]any{"type": "integer", "minimum": 0},
		"dimension": map[string]any{
			"type": "string",
			"enum": []any{"cognitive", "procedural", "affective", "focus", "effort", "discipline"},
		},
		"kind": map[string]any{
			"type": "string",
			"enum": []any{"short-choice", "long-choice", "matching", "fill-in"},
		},
	},
}

var lessonSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "title", "pre", "video", "matching", "reflection", "mastery"},
	"properties": map[string]any{
		"id":      map[string]any{"type": "string", "pattern": `^[a-z0-9][a-z0-9-]*$`},
		"title":   map[string]any{"type": "string", "minLength": 1},
		"summary": map[string]any{"type": "string"},
		"thresholds": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "number", "minimum": 0},
		},
		"pre":  map[string]any{"type": "array", "minItems": 1, "items": quizItemSchema},
		"post": map[string]any{"type": "array", "items": quizItemSchema},
		"mastery": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    quizItemSchema,
		},
		"video": map[string]any{
			"type":     "object",
			"required": []any{"duration_seconds"},
			"properties": map[string]any{
				"url":              map[string]any{"type": "string"},
				"duration_seconds": map[string]any{"type": "integer", "minimum": 1},
			},
		},
		"matching": map[string]any{
			"type":     "array",
			"minItems": 2,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"left", "right"},
				"properties": map[string]any{
					"left":  map[string]any{"type": "string"},
					"right": map[string]any{"type": "string"},
				},
			},
		},
		"reflection": map[string]any{
			"type":     "object",
			"required": []any{"prompt", "keywords"},
			"properties": map[string]any{
				"prompt":     map[string]any{"type": "string", "minLength": 1},
				"keywords":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"min_length": map[string]any{"type": "integer", "minimum": 0},
			},
		},
	},
}
