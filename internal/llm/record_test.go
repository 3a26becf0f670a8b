package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/phasegate/internal/store"
)

type memRecorder struct {
	rows []store.LLMRequestEventData
	err  error
}

func (m *memRecorder) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	m.rows = append(m.rows, data)
	return m.err
}

func steppingClock(step time.Duration) func() time.Time {
	t := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestRecording_Success(t *testing.T) {
	rec := &memRecorder{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"score":64}`),
		Usage:   Usage{InputTokens: 90, OutputTokens: 14},
	})
	p := WithRecording(mock, rec, nil).(*recording)
	p.now = steppingClock(250 * time.Millisecond)

	req := gradeRequest()
	req.Purpose = "reflection-audit"
	if _, err := p.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(rec.rows) != 1 {
		t.Fatalf("rows = %d", len(rec.rows))
	}
	row := rec.rows[0]
	if row.Provider != "mock" || row.Purpose != "reflection-audit" || !row.Success {
		t.Errorf("row = %+v", row)
	}
	if row.InputTokens != 90 || row.OutputTokens != 14 || row.LatencyMs != 250 {
		t.Errorf("usage/latency = %d/%d/%d", row.InputTokens, row.OutputTokens, row.LatencyMs)
	}
	if row.ResponseBody != `{"score":64}` {
		t.Errorf("response = %q", row.ResponseBody)
	}
	for _, want := range []string{"[system]", "Grade the reflection.", "[user]", "[schema score]"} {
		if !strings.Contains(row.RequestBody, want) {
			t.Errorf("request body missing %q:\n%s", want, row.RequestBody)
		}
	}
}

func TestRecording_Failure(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	p := WithRecording(NewMockProvider(), rec, nil)

	_, err := p.Generate(context.Background(), Request{Prompt: "x"})
	if !IsKind(err, KindUnavailable) {
		t.Fatalf("err = %v, want provider error", err)
	}
	if len(rec.rows) != 1 {
		t.Fatalf("rows = %d", len(rec.rows))
	}
	row := rec.rows[0]
	if row.Success || row.ErrorKind != "unavailable" || row.ErrorMessage == "" || row.Purpose != "unknown" {
		t.Errorf("row = %+v", row)
	}
}
