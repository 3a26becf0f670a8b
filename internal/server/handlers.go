package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/phasegate/internal/content"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/session"
)

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: code})
}

// HandleHealth handles GET /healthz.
func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.len()})
}

// HandleLessons handles GET /v1/lessons.
func (s *Server) HandleLessons(c *gin.Context) {
	lessons := s.deps.Catalog.Lessons()
	out := make([]LessonView, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, LessonView{ID: l.ID, Title: l.Title, Summary: l.Summary})
	}
	c.JSON(http.StatusOK, out)
}

// HandleCreateSession handles POST /v1/sessions. Saved progress for the
// learner and lesson is resumed unless the request asks for a fresh start.
func (s *Server) HandleCreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	opened, err := s.opener.Open(c.Request.Context(), session.Request{
		LearnerID: req.LearnerID,
		LessonID:  req.LessonID,
		Fresh:     req.Fresh,
		Live: func(id string) bool {
			_, live := s.sessions.get(id)
			return live
		},
	})
	if err != nil {
		var (
			unknown *content.ErrUnknownLesson
			invalid *session.InvalidLessonError
			active  *session.ActiveError
		)
		switch {
		case errors.As(err, &unknown):
			abort(c, http.StatusNotFound, "UNKNOWN_LESSON", err.Error())
		case errors.As(err, &invalid):
			abort(c, http.StatusInternalServerError, "LESSON_INVALID", err.Error())
		case errors.As(err, &active):
			abort(c, http.StatusConflict, "SESSION_ACTIVE", err.Error())
		default:
			abort(c, http.StatusInternalServerError, "CATALOG_ERROR", err.Error())
		}
		return
	}
	ctrl, resumed := opened.Controller, opened.Resumed
	s.sessions.add(ctrl)
	if s.deps.Metrics != nil {
		s.deps.Metrics.SessionOpened()
	}

	resp := s.view(ctrl, nil)
	resp.Resumed = resumed
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) observer() engine.Observer {
	if s.deps.Metrics == nil {
		return nil
	}
	return s.deps.Metrics
}

// controller resolves :id or aborts with 404.
func (s *Server) controller(c *gin.Context) (*engine.Controller, bool) {
	ctrl, ok := s.sessions.get(c.Param("id"))
	if !ok {
		abort(c, http.StatusNotFound, "UNKNOWN_SESSION", "no active session "+c.Param("id"))
		return nil, false
	}
	return ctrl, true
}

// HandleStatus handles GET /v1/sessions/:id.
func (s *Server) HandleStatus(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.view(ctrl, nil))
}

// HandleAdvance handles POST /v1/sessions/:id/advance.
func (s *Server) HandleAdvance(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	o := ctrl.AttemptAdvance(c.Request.Context())
	c.JSON(http.StatusOK, s.view(ctrl, &o))
}

// HandleAnswer handles POST /v1/sessions/:id/answer.
func (s *Server) HandleAnswer(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	latency := time.Duration(req.LatencyMs) * time.Millisecond
	o := ctrl.SubmitAnswer(c.Request.Context(), *req.Option, latency)
	c.JSON(http.StatusOK, s.view(ctrl, &o))
}

// HandleMatch handles POST /v1/sessions/:id/match.
func (s *Server) HandleMatch(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	o := ctrl.SubmitMatch(c.Request.Context(), req.Matches)
	c.JSON(http.StatusOK, s.view(ctrl, &o))
}

// HandleReflection handles POST /v1/sessions/:id/reflection.
func (s *Server) HandleReflection(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var req ReflectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	o, err := ctrl.SubmitReflection(c.Request.Context(), req.Text)
	if err != nil {
		s.logger.Error("reflection grading failed", "session", ctrl.SessionID(), "err", err)
		abort(c, http.StatusBadGateway, "GRADING_FAILED", err.Error())
		return
	}
	c.JSON(http.StatusOK, s.view(ctrl, &o))
}

// HandleWatch handles POST /v1/sessions/:id/watch.
func (s *Server) HandleWatch(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var req WatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	o := ctrl.ReportWatchProgress(c.Request.Context(), *req.Watched)
	c.JSON(http.StatusOK, s.view(ctrl, &o))
}

// HandleVisibility handles POST /v1/sessions/:id/visibility.
func (s *Server) HandleVisibility(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	o := ctrl.ReportVisibilityChange(c.Request.Context(), req.Hidden)
	c.JSON(http.StatusOK, s.view(ctrl, &o))
}

// HandleProfile handles GET /v1/sessions/:id/profile.
func (s *Server) HandleProfile(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{SessionID: ctrl.SessionID(), Profile: ctrl.ComputeProfile()})
}

// HandleExit handles DELETE /v1/sessions/:id. The session is discarded
// from memory after its progress is handed to the recorder.
func (s *Server) HandleExit(c *gin.Context) {
	ctrl, ok := s.sessions.remove(c.Param("id"))
	if !ok {
		abort(c, http.StatusNotFound, "UNKNOWN_SESSION", "no active session "+c.Param("id"))
		return
	}
	sum, err := ctrl.Exit(c.Request.Context())
	if err != nil {
		s.logger.Warn("failed to save progress on exit", "session", ctrl.SessionID(), "err", err)
	}
	c.JSON(http.StatusOK, sum)
}

// HandleSummaries handles GET /v1/learners/:id/summaries.
func (s *Server) HandleSummaries(c *gin.Context) {
	if s.deps.Summaries == nil {
		c.JSON(http.StatusOK, []engine.Summary{})
		return
	}
	sums, err := s.deps.Summaries.List(c.Request.Context(), c.Param("id"), 50)
	if err != nil {
		abort(c, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	if sums == nil {
		sums = []engine.Summary{}
	}
	c.JSON(http.StatusOK, sums)
}

// view renders the session with the work pending in its phase.
func (s *Server) view(ctrl *engine.Controller, o *engine.Outcome) SessionResponse {
	sum := ctrl.Summary()
	st := ctrl.Status()

	resp := SessionResponse{
		SessionID: sum.SessionID,
		LearnerID: sum.LearnerID,
		LessonID:  sum.LessonID,
		Status:    newStatusResponse(st),
	}
	if o != nil {
		resp.Outcome = newOutcomeResponse(*o)
	}
	if st.Completed {
		return resp
	}

	p := session.PendingFor(ctrl)
	switch {
	case p.Item != nil:
		resp.Item = &ItemView{Index: p.Index, Prompt: p.Item.Prompt, Options: p.Item.Options}
	case p.Video != nil:
		resp.Video = &VideoView{URL: p.Video.URL, DurationSeconds: p.Video.DurationSeconds}
	case p.Matching != nil:
		resp.Matching = matchingView(p.Matching)
	case p.Reflection != nil:
		resp.Prompt = p.Reflection.Prompt
	}
	return resp
}

// matchingView lists the shuffled choices with their pair indexes, which
// is what the match endpoint expects back.
func matchingView(m *session.Matching) *MatchingView {
	v := &MatchingView{Left: m.Left}
	for k, idx := range m.Order {
		v.Choices = append(v.Choices, MatchChoice{Index: idx, Text: m.Right[k]})
	}
	return v
}
