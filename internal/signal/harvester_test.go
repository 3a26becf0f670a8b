package signal

import (
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestDecayFactor(t *testing.T) {
	tests := []struct {
		prior int
		want  float64
	}{
		{0, 1},
		{1, 0.5},
		{2, 0.25},
		{3, 0.125},
		{4, 0.1},
		{10, 0.1},
	}
	for _, tt := range tests {
		if got := DecayFactor(tt.prior); got != tt.want {
			t.Errorf("DecayFactor(%d) = %v, want %v", tt.prior, got, tt.want)
		}
	}
}

func TestCapture_KthMagnitude(t *testing.T) {
	for _, m := range []int{100, 80, 37, 12} {
		b := NewBuffer(0, 0)
		for k := 1; k <= 8; k++ {
			want := int(math.Round(float64(m) * math.Max(0.1, math.Pow(0.5, float64(k-1)))))
			sig, stored := b.Capture(Effort, m, "answer-correct", t0.Add(time.Duration(k)*time.Second))
			if !stored {
				t.Fatalf("m=%d k=%d: not stored", m, k)
			}
			if sig.Magnitude != want {
				t.Errorf("m=%d k=%d: magnitude = %d, want %d", m, k, sig.Magnitude, want)
			}
		}
	}
}

func TestCapture_DropsDecayedZero(t *testing.T) {
	b := NewBuffer(0, 0)
	var mags []int
	for k := 0; k < 6; k++ {
		sig, stored := b.Capture(Focus, 3, "tab-return", t0)
		if stored {
			mags = append(mags, sig.Magnitude)
		} else if sig.Magnitude != 0 {
			t.Errorf("dropped signal had magnitude %d", sig.Magnitude)
		}
	}
	// 3, round(1.5)=2, round(0.75)=1, round(0.375)=0 dropped, then stays dropped.
	want := []int{3, 2, 1}
	if len(mags) != len(want) {
		t.Fatalf("stored %v, want %v", mags, want)
	}
	for i := range want {
		if mags[i] != want[i] {
			t.Errorf("stored[%d] = %d, want %d", i, mags[i], want[i])
		}
	}
	for _, s := range b.All() {
		if s.Magnitude == 0 {
			t.Error("zero magnitude from nonzero input was stored")
		}
	}
}

func TestCapture_ZeroInputStored(t *testing.T) {
	b := NewBuffer(0, 0)
	_, stored := b.Capture(Discipline, 0, "phase-exit", t0)
	if !stored {
		t.Error("zero input should be stored")
	}
}

func TestCapture_DecayIsPerDimensionAndAction(t *testing.T) {
	b := NewBuffer(0, 0)
	b.Capture(Cognitive, 80, "answer-correct", t0)
	sig, _ := b.Capture(Cognitive, 80, "match-correct", t0)
	if sig.Magnitude != 80 {
		t.Errorf("different action decayed: %d", sig.Magnitude)
	}
	sig, _ = b.Capture(Procedural, 80, "answer-correct", t0)
	if sig.Magnitude != 80 {
		t.Errorf("different dimension decayed: %d", sig.Magnitude)
	}
	sig, _ = b.Capture(Cognitive, 80, "answer-correct", t0)
	if sig.Magnitude != 40 {
		t.Errorf("repeat magnitude = %d, want 40", sig.Magnitude)
	}
}

func TestCapture_ClampsRaw(t *testing.T) {
	b := NewBuffer(0, 0)
	sig, _ := b.Capture(Effort, 140, "x", t0)
	if sig.Raw != 100 || sig.Magnitude != 100 {
		t.Errorf("got raw=%d magnitude=%d, want 100", sig.Raw, sig.Magnitude)
	}
}

func TestMaterial(t *testing.T) {
	b := NewBuffer(0, 0)
	if b.Material(Signal{Magnitude: 4}) {
		t.Error("4 should be below materiality")
	}
	if !b.Material(Signal{Magnitude: 5}) {
		t.Error("5 should be material")
	}
}

func TestLiveAverage_Window(t *testing.T) {
	b := NewBuffer(0, 3)
	if _, ok := b.LiveAverage(Focus); ok {
		t.Fatal("empty dimension should report no average")
	}
	for i, m := range []int{10, 20, 30, 60} {
		b.Capture(Focus, m, "tick-"+string(rune('a'+i)), t0)
	}
	avg, ok := b.LiveAverage(Focus)
	if !ok || avg != 110.0/3 {
		t.Errorf("LiveAverage = %v, %v; want %v", avg, ok, 110.0/3)
	}
}

func TestAll_OrderedByTime(t *testing.T) {
	b := NewBuffer(0, 0)
	b.Capture(Focus, 10, "a", t0.Add(2*time.Second))
	b.Capture(Cognitive, 10, "b", t0)
	b.Capture(Effort, 10, "c", t0.Add(time.Second))
	all := b.All()
	if len(all) != 3 || b.Len() != 3 {
		t.Fatalf("len = %d", len(all))
	}
	if all[0].Action != "b" || all[1].Action != "c" || all[2].Action != "a" {
		t.Errorf("order = %s %s %s", all[0].Action, all[1].Action, all[2].Action)
	}
}
