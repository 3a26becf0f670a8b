package server

import (
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/signal"
)

// CreateSessionRequest starts or resumes a lesson.
type CreateSessionRequest struct {
	LearnerID string `json:"learner_id" binding:"required"`
	LessonID  string `json:"lesson_id" binding:"required"`

	// Fresh discards saved progress instead of resuming it.
	Fresh bool `json:"fresh"`
}

// AnswerRequest answers the pending quiz item.
type AnswerRequest struct {
	Option *int `json:"option" binding:"required,gte=0"`

	// LatencyMs is the think time measured by the client, if any.
	LatencyMs int64 `json:"latency_ms" binding:"gte=0"`
}

// MatchRequest submits the matching exercise.
type MatchRequest struct {
	Matches []int `json:"matches" binding:"required,dive,gte=0"`
}

// ReflectionRequest submits the free-text reflection.
type ReflectionRequest struct {
	Text string `json:"text" binding:"required"`
}

// WatchRequest reports video progress as a percentage.
type WatchRequest struct {
	Watched *float64 `json:"watched" binding:"required,gte=0,lte=100"`
}

// VisibilityRequest reports the lesson being hidden or shown.
type VisibilityRequest struct {
	Hidden bool `json:"hidden"`
}

// ErrorResponse is returned for infrastructure and request errors.
// Learner-facing refusals are OutcomeResponse values instead.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SessionResponse describes a session and what the learner sees next.
type SessionResponse struct {
	SessionID string           `json:"session_id"`
	LearnerID string           `json:"learner_id"`
	LessonID  string           `json:"lesson_id"`
	Resumed   bool             `json:"resumed,omitempty"`
	Status    StatusResponse   `json:"status"`
	Item      *ItemView        `json:"item,omitempty"`
	Matching  *MatchingView    `json:"matching,omitempty"`
	Prompt    string           `json:"reflection_prompt,omitempty"`
	Video     *VideoView       `json:"video,omitempty"`
	Outcome   *OutcomeResponse `json:"outcome,omitempty"`
}

// StatusResponse mirrors engine.Status with phase names.
type StatusResponse struct {
	Phase                  string  `json:"phase"`
	PhaseName              string  `json:"phase_name"`
	Locked                 bool    `json:"locked"`
	LockSecondsRemaining   int     `json:"lock_seconds_remaining"`
	RewindActive           bool    `json:"rewind_active"`
	RewindSecondsRemaining int     `json:"rewind_seconds_remaining"`
	Remediating            bool    `json:"remediating"`
	ReturnPhase            string  `json:"return_phase,omitempty"`
	RequiredWatchFraction  float64 `json:"required_watch_fraction"`
	Watched                float64 `json:"watched"`
	RetrySecondsRemaining  int     `json:"retry_seconds_remaining"`
	RewindAttempts         int     `json:"rewind_attempts"`
	HintDisclosed          bool    `json:"hint_disclosed"`
	SuggestReview          bool    `json:"suggest_review"`
	Answered               int     `json:"answered"`
	Items                  int     `json:"items"`
	Completed              bool    `json:"completed"`
}

// ItemView is the pending quiz item.
type ItemView struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// MatchingView lists the left items and the shuffled right-hand choices.
// A submission names, for each left item, the Index of the chosen choice.
type MatchingView struct {
	Left    []string      `json:"left"`
	Choices []MatchChoice `json:"choices"`
}

// MatchChoice is one right-hand item.
type MatchChoice struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// VideoView is the content-review media.
type VideoView struct {
	URL             string `json:"url"`
	DurationSeconds int    `json:"duration_seconds"`
}

// OutcomeResponse is the result of one learner action.
type OutcomeResponse struct {
	Granted       bool               `json:"granted"`
	Accepted      bool               `json:"accepted"`
	Reason        string             `json:"reason,omitempty"`
	Message       string             `json:"message,omitempty"`
	WaitSeconds   int                `json:"wait_seconds,omitempty"`
	Phase         string             `json:"phase"`
	From          string             `json:"from,omitempty"`
	Correct       *bool              `json:"correct,omitempty"`
	LockSeconds   int                `json:"lock_seconds,omitempty"`
	Warning       bool               `json:"warning,omitempty"`
	Hint          bool               `json:"hint,omitempty"`
	SuggestReview bool               `json:"suggest_review,omitempty"`
	Patterns      []string           `json:"patterns,omitempty"`
	Score         *float64           `json:"score,omitempty"`
	Rewind        *RewindView        `json:"rewind,omitempty"`
	Remediation   bool               `json:"remediation,omitempty"`
	Returned      bool               `json:"returned,omitempty"`
	Violations    []string           `json:"violations,omitempty"`
	Notices       []engine.Notice    `json:"notices,omitempty"`
	Completion    *engine.Completion `json:"completion,omitempty"`
}

// RewindView describes a rewind opened by a failed checkpoint.
type RewindView struct {
	FailedPhase     string  `json:"failed_phase"`
	Attempt         int     `json:"attempt"`
	Score           float64 `json:"score"`
	Required        float64 `json:"required"`
	CooldownSeconds int     `json:"cooldown_seconds"`
	RequiredWatch   float64 `json:"required_watch"`
}

// ProfileResponse is the blended learner profile.
type ProfileResponse struct {
	SessionID string         `json:"session_id"`
	Profile   signal.Profile `json:"profile"`
}

// LessonView is a catalog entry.
type LessonView struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

func phaseName(id phase.ID) string {
	if !id.Valid() {
		return ""
	}
	return id.String()
}

func newStatusResponse(st engine.Status) StatusResponse {
	return StatusResponse{
		Phase:                  phaseName(st.Phase),
		PhaseName:              st.PhaseName,
		Locked:                 st.Locked,
		LockSecondsRemaining:   st.LockSecondsRemaining,
		RewindActive:           st.RewindActive,
		RewindSecondsRemaining: st.RewindSecondsRemaining,
		Remediating:            st.Remediating,
		ReturnPhase:            phaseName(st.ReturnPhase),
		RequiredWatchFraction:  st.RequiredWatchFraction,
		Watched:                st.Watched,
		RetrySecondsRemaining:  st.RetrySecondsRemaining,
		RewindAttempts:         st.RewindAttempts,
		HintDisclosed:          st.HintDisclosed,
		SuggestReview:          st.SuggestReview,
		Answered:               st.Answered,
		Items:                  st.Items,
		Completed:              st.Completed,
	}
}

func newOutcomeResponse(o engine.Outcome) *OutcomeResponse {
	r := &OutcomeResponse{
		Granted:       o.Granted,
		Accepted:      o.Accepted,
		Reason:        string(o.Reason),
		Message:       o.Reason.Message(),
		WaitSeconds:   o.WaitSeconds(),
		Phase:         phaseName(o.Phase),
		From:          phaseName(o.From),
		Correct:       o.Correct,
		LockSeconds:   int(o.LockFor.Seconds()),
		Warning:       o.Warning,
		Hint:          o.Hint,
		SuggestReview: o.SuggestReview,
		Score:         o.Score,
		Remediation:   o.Remediation,
		Returned:      o.Returned,
		Notices:       o.Notices,
		Completion:    o.Completion,
	}
	for _, p := range o.Patterns {
		r.Patterns = append(r.Patterns, string(p))
	}
	for _, v := range o.Violations {
		r.Violations = append(r.Violations, v.String())
	}
	if rw := o.Rewind; rw != nil {
		r.Rewind = &RewindView{
			FailedPhase:     phaseName(rw.FailedPhase),
			Attempt:         rw.Attempt,
			Score:           rw.Score,
			Required:        rw.Required,
			CooldownSeconds: o.WaitSeconds(),
			RequiredWatch:   rw.RequiredWatch,
		}
	}
	return r
}
