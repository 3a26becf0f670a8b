package phase

import (
	"fmt"
	"strings"
	"time"
)

// ID identifies one of the seven ordered learning gates.
type ID int

const (
	Know    ID = iota + 1 // Pre-assessment quiz
	Link                  // Orientation, acknowledged after a minimum dwell
	Do                    // Content consumption (video)
	Sync                  // Matching exercise checkpoint
	Reflect               // Free-response checkpoint
	Prove                 // Post-assessment checkpoint
	Master                // Final mastery challenge
)

// First and Last bound the ordered phase range.
const (
	First = Know
	Last  = Master
)

// All returns every phase in order.
func All() []ID {
	return []ID{Know, Link, Do, Sync, Reflect, Prove, Master}
}

// String returns the upper-case phase identifier.
func (p ID) String() string {
	switch p {
	case Know:
		return "KNOW"
	case Link:
		return "LINK"
	case Do:
		return "DO"
	case Sync:
		return "SYNC"
	case Reflect:
		return "REFLECT"
	case Prove:
		return "PROVE"
	case Master:
		return "MASTER"
	default:
		return fmt.Sprintf("PHASE(%d)", int(p))
	}
}

// Valid reports whether p is one of the seven phases.
func (p ID) Valid() bool {
	return p >= First && p <= Last
}

// Next returns the phase after p. Last has no successor and returns itself.
func (p ID) Next() ID {
	if p >= Last {
		return Last
	}
	return p + 1
}

// IsCheckpoint reports whether the phase is passed by a measured score.
func (p ID) IsCheckpoint() bool {
	switch p {
	case Sync, Reflect, Prove, Master:
		return true
	default:
		return false
	}
}

// IsAssessment reports whether the phase collects quiz answers.
func (p ID) IsAssessment() bool {
	switch p {
	case Know, Prove, Master:
		return true
	default:
		return false
	}
}

// Parse resolves a phase from its identifier (case-insensitive) or index.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	for _, p := range All() {
		if p.String() == s || fmt.Sprint(int(p)) == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// ConditionKind is the shape of a phase's pass condition.
type ConditionKind string

const (
	CompleteAllItems ConditionKind = "complete-all-items"
	AcknowledgeDwell ConditionKind = "acknowledge-after-minimum-dwell"
	WatchFraction    ConditionKind = "video-watch-fraction"
	ScoreFraction    ConditionKind = "score-fraction"
)

// Condition describes what must hold before a phase may be exited.
type Condition struct {
	Kind ConditionKind

	// Threshold is a percentage (0-100) for WatchFraction and ScoreFraction.
	Threshold float64

	// MinDwell applies to AcknowledgeDwell.
	MinDwell time.Duration
}

func (c Condition) String() string {
	switch c.Kind {
	case WatchFraction, ScoreFraction:
		return fmt.Sprintf("%s >= %.0f", c.Kind, c.Threshold)
	case AcknowledgeDwell:
		return fmt.Sprintf("%s (%s)", c.Kind, c.MinDwell)
	default:
		return string(c.Kind)
	}
}

// Phase is the immutable reference record for one gate.
type Phase struct {
	ID        ID
	Name      string
	Condition Condition
}

// Table is the ordered phase reference set, indexed by ID.
type Table struct {
	phases [Last + 1]Phase
}

// Defaults holds the thresholds used to build the default table.
type Defaults struct {
	LinkDwell     time.Duration
	WatchFraction float64
	SyncAccuracy  float64
	ReflectScore  float64
	ProveScore    float64
	MasterScore   float64
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Defaults {
	return Defaults{
		LinkDwell:     20 * time.Second,
		WatchFraction: 50,
		SyncAccuracy:  80,
		ReflectScore:  60,
		ProveScore:    80,
		MasterScore:   80,
	}
}

// NewTable builds the phase table from thresholds.
func NewTable(d Defaults) *Table {
	t := &Table{}
	set := func(id ID, name string, c Condition) {
		t.phases[id] = Phase{ID: id, Name: name, Condition: c}
	}
	set(Know, "Pre-assessment", Condition{Kind: CompleteAllItems})
	set(Link, "Orientation", Condition{Kind: AcknowledgeDwell, MinDwell: d.LinkDwell})
	set(Do, "Watch", Condition{Kind: WatchFraction, Threshold: d.WatchFraction})
	set(Sync, "Match", Condition{Kind: ScoreFraction, Threshold: d.SyncAccuracy})
	set(Reflect, "Reflect", Condition{Kind: ScoreFraction, Threshold: d.ReflectScore})
	set(Prove, "Post-assessment", Condition{Kind: ScoreFraction, Threshold: d.ProveScore})
	set(Master, "Mastery challenge", Condition{Kind: ScoreFraction, Threshold: d.MasterScore})
	return t
}

// DefaultTable returns a table built from DefaultThresholds.
func DefaultTable() *Table {
	return NewTable(DefaultThresholds())
}

// Get returns the reference record for id. Unknown ids yield a zero Phase.
func (t *Table) Get(id ID) Phase {
	if !id.Valid() {
		return Phase{}
	}
	return t.phases[id]
}

// WithOverride returns a copy of the table with one phase's threshold replaced.
// Conditions whose kind carries no threshold are left unchanged.
func (t *Table) WithOverride(id ID, threshold float64) *Table {
	cp := *t
	if !id.Valid() {
		return &cp
	}
	c := cp.phases[id].Condition
	switch c.Kind {
	case WatchFraction, ScoreFraction:
		c.Threshold = threshold
	case AcknowledgeDwell:
		c.MinDwell = time.Duration(threshold * float64(time.Second))
	}
	cp.phases[id].Condition = c
	return &cp
}
