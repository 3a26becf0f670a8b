package signal

import "math"

const (
	// Baseline is the historical score assumed for a dimension with no
	// lesson history.
	Baseline = 55

	// HistoricalWeight is the share of the blended score taken from history.
	HistoricalWeight = 0.7
)

// Profile maps each dimension to a score in 0..100.
type Profile map[Dimension]int

// Get returns the score for dim, or Baseline if absent.
func (p Profile) Get(dim Dimension) int {
	if v, ok := p[dim]; ok {
		return v
	}
	return Baseline
}

// HistoricalAverage averages dim over earlier per-lesson profiles that
// carry it. ok is false when none do.
func HistoricalAverage(history []Profile, dim Dimension) (avg float64, ok bool) {
	sum, n := 0, 0
	for _, p := range history {
		v, has := p[dim]
		if !has {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// ComputeProfile blends the historical average (or Baseline) with the
// buffer's live average at 70/30 for every dimension. A dimension with no
// live signals takes the historical value unchanged.
func ComputeProfile(history []Profile, b *Buffer) Profile {
	out := make(Profile, len(AllDimensions()))
	for _, dim := range AllDimensions() {
		hist, ok := HistoricalAverage(history, dim)
		if !ok {
			hist = Baseline
		}
		score := hist
		if b != nil {
			if live, ok := b.LiveAverage(dim); ok {
				score = HistoricalWeight*hist + (1-HistoricalWeight)*live
			}
		}
		out[dim] = clampInt(int(math.Round(score)), 0, 100)
	}
	return out
}
