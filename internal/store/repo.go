package store

import (
	"context"
	"time"

	"github.com/abhisek/phasegate/internal/audit"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/signal"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int    // max results (0 = unlimited)
	After     int64  // sequence > After
	SessionID string // restrict to one session
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorKind    string
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStat aggregates LLM usage by one key (purpose or model).
type LLMUsageStat struct {
	Purpose      string
	Model        string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ViolationRecord is a stored violation.
type ViolationRecord struct {
	Sequence  int64
	SessionID string
	audit.Violation
}

// SignalRecord is a stored signal.
type SignalRecord struct {
	Sequence  int64
	SessionID string
	signal.Signal
}

// EventRepo provides append and query access to the event tables.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)

	// GetLLMEvent returns nil when the event does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStat, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsageStat, error)

	AppendViolations(ctx context.Context, sessionID string, vs []audit.Violation) error
	QueryViolations(ctx context.Context, opts QueryOpts) ([]ViolationRecord, error)

	AppendSignals(ctx context.Context, sessionID string, sigs []signal.Signal) error
	QuerySignals(ctx context.Context, opts QueryOpts) ([]SignalRecord, error)
}

// SummaryRepo stores end-of-lesson records.
type SummaryRepo interface {
	// Save writes the summary of a session. A session has at most one
	// summary; saving again replaces it.
	Save(ctx context.Context, sum engine.Summary) error

	// List returns a learner's summaries, newest first.
	List(ctx context.Context, learnerID string, limit int) ([]engine.Summary, error)

	// Profiles returns the per-lesson profiles of a learner's completed
	// lessons, oldest first. This is the history the profile blend uses.
	Profiles(ctx context.Context, learnerID string) ([]signal.Profile, error)
}

// ProgressRepo stores resumable progress of unfinished sessions.
type ProgressRepo interface {
	Save(ctx context.Context, s *engine.Session) error

	// Latest returns the most recently saved unfinished session of a learner
	// for a lesson, or nil.
	Latest(ctx context.Context, learnerID, lessonID string) (*engine.Session, error)
	Delete(ctx context.Context, sessionID string) error
}
