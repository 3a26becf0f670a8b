package signal

import (
	"math"
	"sort"
	"time"
)

const (
	// DecayFloor is the smallest decay factor applied to a repeated action.
	DecayFloor = 0.1

	// DefaultMateriality is the stored magnitude at or above which a signal
	// is surfaced to the learner.
	DefaultMateriality = 5

	// DefaultWindow is the number of recent signals per dimension that make
	// up the live average.
	DefaultWindow = 20
)

// Signal is one harvested behavioral observation.
type Signal struct {
	Dimension Dimension `json:"dimension"`
	Raw       int       `json:"raw"`
	Magnitude int       `json:"magnitude"`
	Action    string    `json:"action"`
	At        time.Time `json:"at"`
}

// Buffer is the per-session signal store. Signals are appended per
// dimension and never removed.
type Buffer struct {
	Signals     map[Dimension][]Signal `json:"signals,omitempty"`
	Materiality int                    `json:"materiality"`
	Window      int                    `json:"window"`
}

// NewBuffer returns an empty buffer. Non-positive arguments select the
// defaults.
func NewBuffer(materiality, window int) *Buffer {
	if materiality <= 0 {
		materiality = DefaultMateriality
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Buffer{
		Signals:     make(map[Dimension][]Signal),
		Materiality: materiality,
		Window:      window,
	}
}

// DecayFactor returns 0.5^prior floored at DecayFloor.
func DecayFactor(prior int) float64 {
	return math.Max(DecayFloor, math.Pow(0.5, float64(prior)))
}

// Prior counts stored signals with the same dimension and action.
func (b *Buffer) Prior(dim Dimension, action string) int {
	n := 0
	for _, s := range b.Signals[dim] {
		if s.Action == action {
			n++
		}
	}
	return n
}

// Capture decays magnitude by the number of prior identical observations
// and stores the result. A nonzero magnitude that decays to zero is not
// stored and stored is false.
func (b *Buffer) Capture(dim Dimension, magnitude int, action string, now time.Time) (sig Signal, stored bool) {
	if b.Signals == nil {
		b.Signals = make(map[Dimension][]Signal)
	}
	raw := clampInt(magnitude, 0, 100)
	decayed := int(math.Round(float64(raw) * DecayFactor(b.Prior(dim, action))))

	sig = Signal{
		Dimension: dim,
		Raw:       raw,
		Magnitude: decayed,
		Action:    action,
		At:        now,
	}
	if raw != 0 && decayed == 0 {
		return sig, false
	}
	b.Signals[dim] = append(b.Signals[dim], sig)
	return sig, true
}

// Material reports whether a stored signal should be surfaced.
func (b *Buffer) Material(s Signal) bool {
	threshold := b.Materiality
	if threshold <= 0 {
		threshold = DefaultMateriality
	}
	return s.Magnitude >= threshold
}

// LiveAverage averages the most recent Window signals of dim. ok is false
// when the dimension has no signals.
func (b *Buffer) LiveAverage(dim Dimension) (avg float64, ok bool) {
	sigs := b.Signals[dim]
	if len(sigs) == 0 {
		return 0, false
	}
	window := b.Window
	if window <= 0 {
		window = DefaultWindow
	}
	if len(sigs) > window {
		sigs = sigs[len(sigs)-window:]
	}
	sum := 0
	for _, s := range sigs {
		sum += s.Magnitude
	}
	return float64(sum) / float64(len(sigs)), true
}

// All returns every stored signal ordered by capture time.
func (b *Buffer) All() []Signal {
	var out []Signal
	for _, sigs := range b.Signals {
		out = append(out, sigs...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.Before(out[j].At)
	})
	return out
}

// Len returns the number of stored signals.
func (b *Buffer) Len() int {
	n := 0
	for _, sigs := range b.Signals {
		n += len(sigs)
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
