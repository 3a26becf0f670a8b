package llm

import (
	"regexp"
	"strings"
)

// Price is USD per million tokens.
type Price struct {
	Input  float64
	Output float64
}

// Cost returns the USD cost of the given token counts.
func (p Price) Cost(in, out int) float64 {
	return (float64(in)*p.Input + float64(out)*p.Output) / 1e6
}

// prices covers the models reflection grading is realistically run on.
// Snapshot-dated IDs resolve to their family through normalizeModel.
var prices = map[string]Price{
	"claude-haiku-4-5":  {1, 5},
	"claude-3-5-haiku":  {0.8, 4},
	"claude-sonnet-4-5": {3, 15},
	"claude-sonnet-4":   {3, 15},

	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4o":       {2.5, 10},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-4.1-nano": {0.1, 0.4},
	"gpt-5-mini":   {0.25, 2},
	"gpt-5-nano":   {0.05, 0.4},

	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.5-flash":      {0.3, 2.5},
	"gemini-2.5-flash-lite": {0.1, 0.4},
	"gemini-2.5-pro":        {1.25, 10},
}

var snapshotSuffix = regexp.MustCompile(`-(\d{8}|\d{4}-\d{2}-\d{2}|latest|preview(-[\w-]+)?)$`)

// normalizeModel strips vendor prefixes ("openai/") and snapshot
// suffixes ("-20251001", "-2024-07-18", "-latest").
func normalizeModel(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return snapshotSuffix.ReplaceAllString(id, "")
}

// LookupPrice returns the price for a model ID.
func LookupPrice(model string) (Price, bool) {
	if p, ok := prices[model]; ok {
		return p, true
	}
	p, ok := prices[normalizeModel(model)]
	return p, ok
}
