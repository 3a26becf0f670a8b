package signal

import "fmt"

// Dimension is one axis of the learner profile.
type Dimension string

const (
	Cognitive  Dimension = "cognitive"
	Procedural Dimension = "procedural"
	Affective  Dimension = "affective"
	Focus      Dimension = "focus"
	Effort     Dimension = "effort"
	Discipline Dimension = "discipline"
)

// AllDimensions returns every dimension in display order.
func AllDimensions() []Dimension {
	return []Dimension{Cognitive, Procedural, Affective, Focus, Effort, Discipline}
}

// ParseDimension validates a dimension tag. The empty string maps to Cognitive.
func ParseDimension(s string) (Dimension, error) {
	if s == "" {
		return Cognitive, nil
	}
	for _, d := range AllDimensions() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// Label returns a display label.
func (d Dimension) Label() string {
	switch d {
	case Cognitive:
		return "Cognitive"
	case Procedural:
		return "Procedural"
	case Affective:
		return "Affective"
	case Focus:
		return "Focus"
	case Effort:
		return "Effort"
	case Discipline:
		return "Discipline"
	default:
		return string(d)
	}
}
