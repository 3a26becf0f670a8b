package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/phasegate/internal/audit"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/signal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testSession(learner, lesson string) *engine.Session {
	return engine.NewSession(learner, lesson, engine.DefaultRules(), t0)
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{tableLLMEvents, tableViolations, tableSignals, tableSummaries, tableProgress} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.seq.Next(ctx)
	require.NoError(t, err)
	block, err := s.seq.Reserve(ctx, 3)
	require.NoError(t, err)
	b, err := s.seq.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, a+1, block)
	assert.Equal(t, block+3, b, "next number follows the reserved block")

	_, err = s.seq.Reserve(ctx, 0)
	assert.Error(t, err)
}

func TestSequenceOrdersBatches(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	vs := []audit.Violation{
		{Kind: audit.FocusLoss, Phase: phase.Do, At: t0},
		{Kind: audit.FocusLoss, Phase: phase.Do, At: t0.Add(time.Second)},
	}
	require.NoError(t, repo.AppendViolations(ctx, "s-1", vs))
	require.NoError(t, repo.AppendViolations(ctx, "s-1", vs[:1]))

	got, err := repo.QueryViolations(ctx, QueryOpts{SessionID: "s-1"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[i-1].Sequence+1, got[i].Sequence)
	}
}

func TestViolationsAndSignals(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	vs := []audit.Violation{
		{Kind: audit.InsufficientDwell, Phase: phase.Link, At: t0, Detail: "dwell 5s of 20s"},
		{Kind: audit.FocusLoss, Phase: phase.Do, At: t0.Add(time.Minute), Detail: "tab switch 1"},
	}
	if err := repo.AppendViolations(ctx, "s-1", vs); err != nil {
		t.Fatalf("append violations: %v", err)
	}
	if err := repo.AppendViolations(ctx, "s-2", vs[:1]); err != nil {
		t.Fatalf("append violations: %v", err)
	}
	if err := repo.AppendViolations(ctx, "s-1", nil); err != nil {
		t.Fatalf("append no violations: %v", err)
	}

	got, err := repo.QueryViolations(ctx, QueryOpts{SessionID: "s-1"})
	if err != nil {
		t.Fatalf("query violations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("violations = %d, want 2", len(got))
	}
	if got[0].Kind != audit.InsufficientDwell || got[0].Phase != phase.Link || got[1].Phase != phase.Do {
		t.Errorf("violations = %+v", got)
	}
	if !got[1].At.Equal(t0.Add(time.Minute)) {
		t.Errorf("At = %v", got[1].At)
	}
	if got[0].Sequence >= got[1].Sequence {
		t.Error("violations not in sequence order")
	}

	sigs := []signal.Signal{
		{Dimension: signal.Focus, Raw: 10, Magnitude: 10, Action: "focus-loss", At: t0},
		{Dimension: signal.Affective, Raw: 35, Magnitude: 35, Action: "focus-loss", At: t0},
	}
	if err := repo.AppendSignals(ctx, "s-1", sigs); err != nil {
		t.Fatalf("append signals: %v", err)
	}
	gotSigs, err := repo.QuerySignals(ctx, QueryOpts{SessionID: "s-1", Limit: 1})
	if err != nil {
		t.Fatalf("query signals: %v", err)
	}
	if len(gotSigs) != 1 || gotSigs[0].Dimension != signal.Focus || gotSigs[0].Magnitude != 10 {
		t.Errorf("signals = %+v", gotSigs)
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i, purpose := range []string{"reflection-audit", "reflection-audit", "catalog-lint"} {
		var kind string
		if i == 2 {
			kind = "rate_limited"
		}
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:     "mock",
			Model:        "mock",
			Purpose:      purpose,
			InputTokens:  100 * (i + 1),
			OutputTokens: 10,
			LatencyMs:    40,
			Success:      i != 2,
			ErrorKind:    kind,
			RequestBody:  "[user]\nexplain",
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 || events[0].Purpose != "catalog-lint" || events[0].Success || events[0].ErrorKind != "rate_limited" {
		t.Fatalf("events = %+v", events)
	}

	e, err := repo.GetLLMEvent(ctx, events[1].ID)
	if err != nil || e == nil {
		t.Fatalf("get: %v %v", e, err)
	}
	if e.RequestBody != "[user]\nexplain" || e.InputTokens != 200 {
		t.Errorf("event = %+v", e)
	}
	if missing, err := repo.GetLLMEvent(ctx, 999); err != nil || missing != nil {
		t.Errorf("missing event = %v, %v", missing, err)
	}

	usage, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(usage) != 2 || usage[1].Purpose != "reflection-audit" || usage[1].Calls != 2 || usage[1].InputTokens != 300 {
		t.Fatalf("usage = %+v", usage)
	}
	if usage[0].Failures != 1 || usage[1].Failures != 0 {
		t.Errorf("failures = %d, %d", usage[0].Failures, usage[1].Failures)
	}
}

func TestProgressSaveAndResume(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	got, err := repo.Latest(ctx, "ana", "fractions-101")
	if err != nil || got != nil {
		t.Fatalf("latest (empty) = %v, %v", got, err)
	}

	sess := testSession("ana", "fractions-101")
	if err := repo.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	sess.Phase = phase.Link
	sess.TabSwitches = 2
	if err := repo.Save(ctx, sess); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err = repo.Latest(ctx, "ana", "fractions-101")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got == nil || got.ID != sess.ID || got.Phase != phase.Link || got.TabSwitches != 2 {
		t.Fatalf("resumed = %+v", got)
	}

	var rows int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM " + tableProgress).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("progress rows = %d, want 1", rows)
	}

	if err := repo.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := repo.Latest(ctx, "ana", "fractions-101"); got != nil {
		t.Error("progress still present after delete")
	}
}

func TestSummaryProfiles(t *testing.T) {
	s := openTestStore(t)
	repo := s.SummaryRepo()
	ctx := context.Background()

	save := func(id string, completed bool, cognitive int) {
		t.Helper()
		err := repo.Save(ctx, engine.Summary{
			SessionID:  id,
			LearnerID:  "ana",
			LessonID:   "fractions-101",
			Completed:  completed,
			FinalPhase: phase.Master,
			Pre:        40,
			Post:       100,
			Delta:      60,
			Elapsed:    12 * time.Minute,
			Tier:       engine.TierGold,
			Profile:    signal.Profile{signal.Cognitive: cognitive},
			FinishedAt: t0,
		})
		if err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	save("s-1", true, 70)
	save("s-2", false, 20)
	save("s-3", true, 90)
	save("s-3", true, 95)

	list, err := repo.List(ctx, "ana", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].SessionID != "s-3" {
		t.Fatalf("list = %+v", list)
	}
	if list[0].Elapsed != 12*time.Minute || list[0].Tier != engine.TierGold || list[0].FinalPhase != phase.Master {
		t.Errorf("summary = %+v", list[0])
	}

	profiles, err := repo.Profiles(ctx, "ana")
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	if len(profiles) != 2 || profiles[0].Get(signal.Cognitive) != 70 || profiles[1].Get(signal.Cognitive) != 95 {
		t.Errorf("profiles = %v", profiles)
	}
}

func TestSummaryViolationsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.SummaryRepo()
	ctx := context.Background()

	vs := []audit.Violation{
		{Kind: audit.RushedAnswer, Phase: phase.Know, At: t0, Detail: "2 of 5 answers below minimum think time"},
		{Kind: audit.GuessingPattern, Phase: phase.Prove, At: t0.Add(9 * time.Minute), Detail: "same_answer"},
	}
	require.NoError(t, repo.Save(ctx, engine.Summary{
		SessionID:      "s-1",
		LearnerID:      "ana",
		LessonID:       "fractions-101",
		FinalPhase:     phase.Prove,
		ViolationCount: len(vs),
		Violations:     vs,
		FinishedAt:     t0,
	}))

	list, err := repo.List(ctx, "ana", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ViolationCount)
	require.Len(t, list[0].Violations, 2)
	for i, v := range list[0].Violations {
		assert.Equal(t, vs[i].Kind, v.Kind)
		assert.Equal(t, vs[i].Phase, v.Phase)
		assert.Equal(t, vs[i].Detail, v.Detail)
		assert.True(t, vs[i].At.Equal(v.At))
	}
}

func TestSummaryRejectsUnknownPhase(t *testing.T) {
	s := openTestStore(t)
	repo := s.SummaryRepo()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, engine.Summary{SessionID: "s-1", LearnerID: "ana", LessonID: "x", FinalPhase: phase.Know, FinishedAt: t0}))
	_, err := s.DB().Exec(`UPDATE lesson_summaries SET final_phase = 'RECESS' WHERE session_id = 's-1'`)
	require.NoError(t, err)

	_, err = repo.List(ctx, "ana", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "final phase")
}

func TestRecorderAndReset(t *testing.T) {
	s := openTestStore(t)
	rec := s.Recorder()
	ctx := context.Background()

	ana := testSession("ana", "fractions-101")
	ben := testSession("ben", "fractions-101")
	for _, sess := range []*engine.Session{ana, ben} {
		if err := rec.SaveProgress(ctx, sess); err != nil {
			t.Fatal(err)
		}
		if err := rec.AppendViolations(ctx, sess.ID, []audit.Violation{{Kind: audit.FocusLoss, Phase: phase.Do, At: t0}}); err != nil {
			t.Fatal(err)
		}
	}

	if err := rec.SaveSummary(ctx, engine.Summary{
		SessionID: ana.ID, LearnerID: "ana", LessonID: "fractions-101", Completed: true,
		FinalPhase: phase.Master, FinishedAt: t0,
	}); err != nil {
		t.Fatalf("save summary: %v", err)
	}
	if got, _ := s.ProgressRepo().Latest(ctx, "ana", "fractions-101"); got != nil {
		t.Error("completed session progress not cleared")
	}

	if err := s.Reset(ctx, "ana"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if list, _ := s.SummaryRepo().List(ctx, "ana", 0); len(list) != 0 {
		t.Errorf("ana summaries after reset = %d", len(list))
	}
	if vs, _ := s.EventRepo().QueryViolations(ctx, QueryOpts{SessionID: ana.ID}); len(vs) != 0 {
		t.Errorf("ana violations after reset = %d", len(vs))
	}
	if vs, _ := s.EventRepo().QueryViolations(ctx, QueryOpts{SessionID: ben.ID}); len(vs) != 1 {
		t.Errorf("ben violations after reset = %d, want 1", len(vs))
	}
	if got, _ := s.ProgressRepo().Latest(ctx, "ben", "fractions-101"); got == nil {
		t.Error("ben progress removed by ana reset")
	}
}
