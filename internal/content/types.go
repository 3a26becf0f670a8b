package content

import (
	"github.com/abhisek/phasegate/internal/guard"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/signal"
)

// QuizItem is one multiple-choice, matching or fill-in question.
type QuizItem struct {
	Prompt    string   `json:"prompt"`
	Options   []string `json:"options"`
	Correct   int      `json:"correct"`
	Dimension string   `json:"dimension,omitempty"`
	Kind      string   `json:"kind,omitempty"`
}

// QuestionKind returns the parsed kind, defaulting to short choice.
func (q QuizItem) QuestionKind() guard.QuestionKind {
	k, err := guard.ParseKind(q.Kind)
	if err != nil {
		return guard.KindShortChoice
	}
	return k
}

// SignalDimension returns the parsed dimension tag, defaulting to cognitive.
func (q QuizItem) SignalDimension() signal.Dimension {
	d, err := signal.ParseDimension(q.Dimension)
	if err != nil {
		return signal.Cognitive
	}
	return d
}

// MatchPair is one left/right pair of the SYNC matching exercise.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Rubric describes a free-response question and how it is scored.
type Rubric struct {
	Prompt    string   `json:"prompt"`
	Keywords  []string `json:"keywords"`
	MinLength int      `json:"min_length"`
}

// Video references the content-review media. Only its duration matters to
// the engine; progress is reported by the player.
type Video struct {
	URL             string `json:"url"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Lesson is the per-lesson record supplied to the engine.
type Lesson struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`

	// Thresholds overrides phase pass thresholds, keyed by phase identifier
	// (e.g. "PROVE"). LINK values are seconds.
	Thresholds map[string]float64 `json:"thresholds,omitempty"`

	Pre        []QuizItem  `json:"pre"`
	Video      Video       `json:"video"`
	Matching   []MatchPair `json:"matching"`
	Reflection Rubric      `json:"reflection"`
	Post       []QuizItem  `json:"post,omitempty"`
	Mastery    []QuizItem  `json:"mastery"`
}

// PostItems returns the post-assessment items. Lessons without a separate
// post set reuse the pre-assessment.
func (l *Lesson) PostItems() []QuizItem {
	if len(l.Post) > 0 {
		return l.Post
	}
	return l.Pre
}

// Items returns the quiz items answered in an assessment phase.
func (l *Lesson) Items(id phase.ID) []QuizItem {
	switch id {
	case phase.Know:
		return l.Pre
	case phase.Prove:
		return l.PostItems()
	case phase.Master:
		return l.Mastery
	default:
		return nil
	}
}

// PhaseTable applies the lesson's threshold overrides to base.
func (l *Lesson) PhaseTable(base *phase.Table) (*phase.Table, error) {
	t := base
	for name, v := range l.Thresholds {
		id, err := phase.Parse(name)
		if err != nil {
			return nil, err
		}
		t = t.WithOverride(id, v)
	}
	return t, nil
}

// File is the on-disk catalog document.
type File struct {
	FormatVersion string   `json:"format_version"`
	Lessons       []Lesson `json:"lessons"`
}
