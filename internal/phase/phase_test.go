package phase

import (
	"testing"
	"time"
)

func TestOrderAndNames(t *testing.T) {
	want := []string{"KNOW", "LINK", "DO", "SYNC", "REFLECT", "PROVE", "MASTER"}
	all := All()
	if len(all) != len(want) {
		t.Fatalf("len(All()) = %d, want %d", len(all), len(want))
	}
	for i, p := range all {
		if int(p) != i+1 {
			t.Errorf("phase %s index = %d, want %d", p, int(p), i+1)
		}
		if p.String() != want[i] {
			t.Errorf("String() = %q, want %q", p.String(), want[i])
		}
	}
}

func TestNext(t *testing.T) {
	if Know.Next() != Link {
		t.Errorf("Know.Next() = %s, want LINK", Know.Next())
	}
	if Master.Next() != Master {
		t.Errorf("Master.Next() = %s, want MASTER", Master.Next())
	}
}

func TestCheckpoints(t *testing.T) {
	tests := []struct {
		id   ID
		want bool
	}{
		{Know, false},
		{Link, false},
		{Do, false},
		{Sync, true},
		{Reflect, true},
		{Prove, true},
		{Master, true},
	}
	for _, tt := range tests {
		if got := tt.id.IsCheckpoint(); got != tt.want {
			t.Errorf("%s.IsCheckpoint() = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	for _, in := range []string{"prove", "PROVE", " 6 "} {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != Prove {
			t.Errorf("Parse(%q) = %s, want PROVE", in, got)
		}
	}
	if _, err := Parse("nope"); err == nil {
		t.Error("expected error for unknown phase")
	}
}

func TestDefaultTable(t *testing.T) {
	tbl := DefaultTable()

	if c := tbl.Get(Link).Condition; c.Kind != AcknowledgeDwell || c.MinDwell != 20*time.Second {
		t.Errorf("LINK condition = %v, want 20s dwell", c)
	}
	if c := tbl.Get(Do).Condition; c.Kind != WatchFraction || c.Threshold != 50 {
		t.Errorf("DO condition = %v, want watch >= 50", c)
	}
	if c := tbl.Get(Prove).Condition; c.Kind != ScoreFraction || c.Threshold != 80 {
		t.Errorf("PROVE condition = %v, want score >= 80", c)
	}
	if got := tbl.Get(ID(42)); got.ID != 0 {
		t.Errorf("Get(42) = %+v, want zero", got)
	}
}

func TestWithOverride(t *testing.T) {
	base := DefaultTable()
	over := base.WithOverride(Prove, 90)

	if got := over.Get(Prove).Condition.Threshold; got != 90 {
		t.Errorf("override threshold = %v, want 90", got)
	}
	if got := base.Get(Prove).Condition.Threshold; got != 80 {
		t.Errorf("base table mutated: threshold = %v, want 80", got)
	}

	over = base.WithOverride(Link, 30)
	if got := over.Get(Link).Condition.MinDwell; got != 30*time.Second {
		t.Errorf("LINK override = %v, want 30s", got)
	}
}
