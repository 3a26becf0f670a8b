// Package server exposes lesson sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/phasegate/internal/content"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/logging"
	"github.com/abhisek/phasegate/internal/metrics"
	"github.com/abhisek/phasegate/internal/session"
	"github.com/abhisek/phasegate/internal/store"
)

// Deps carries the collaborators of a Server. Catalog is required; the
// rest are optional.
type Deps struct {
	Catalog content.Catalog
	Rules   engine.Rules
	Grader  engine.Grader

	Recorder  engine.Recorder
	Progress  store.ProgressRepo
	Summaries store.SummaryRepo

	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
	Clock  func() time.Time

	// SessionTTL evicts idle sessions. Zero keeps them until exit.
	SessionTTL time.Duration
}

// Server routes learner actions to session controllers.
type Server struct {
	deps     Deps
	sessions *registry
	opener   *session.Opener
	logger   *slog.Logger
}

// New creates a Server.
func New(deps Deps) (*Server, error) {
	if deps.Catalog == nil {
		return nil, errors.New("server: catalog is required")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Rules.Phases == nil {
		deps.Rules = engine.DefaultRules()
	}
	s := &Server{deps: deps, logger: deps.Logger}

	var onClose func()
	if deps.Metrics != nil {
		onClose = deps.Metrics.SessionClosed
	}
	s.sessions = newRegistry(deps.Clock, onClose)
	s.opener = &session.Opener{
		Catalog:   deps.Catalog,
		Rules:     deps.Rules,
		Grader:    deps.Grader,
		Recorder:  deps.Recorder,
		Progress:  deps.Progress,
		Summaries: deps.Summaries,
		Observer:  s.observer(),
		Logger:    deps.Logger,
		Clock:     deps.Clock,
	}
	return s, nil
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.HandleHealth)
	if s.deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	RegisterRoutes(v1, s)
	return router
}

// RegisterRoutes registers the /v1 endpoints.
//
//	GET    /v1/lessons                      - List the catalog
//	POST   /v1/sessions                     - Start or resume a lesson
//	GET    /v1/sessions/:id                 - Session status and pending work
//	POST   /v1/sessions/:id/advance         - Attempt to leave the phase
//	POST   /v1/sessions/:id/answer          - Answer the pending item
//	POST   /v1/sessions/:id/match           - Submit the matching exercise
//	POST   /v1/sessions/:id/reflection      - Submit the reflection
//	POST   /v1/sessions/:id/watch           - Report video progress
//	POST   /v1/sessions/:id/visibility      - Report focus changes
//	GET    /v1/sessions/:id/profile         - Blended learner profile
//	DELETE /v1/sessions/:id                 - Exit and hand off the session
//	GET    /v1/learners/:id/summaries       - Past lesson summaries
func RegisterRoutes(rg *gin.RouterGroup, s *Server) {
	rg.GET("/lessons", s.HandleLessons)

	sessions := rg.Group("/sessions")
	{
		sessions.POST("", s.HandleCreateSession)
		sessions.GET("/:id", s.HandleStatus)
		sessions.POST("/:id/advance", s.HandleAdvance)
		sessions.POST("/:id/answer", s.HandleAnswer)
		sessions.POST("/:id/match", s.HandleMatch)
		sessions.POST("/:id/reflection", s.HandleReflection)
		sessions.POST("/:id/watch", s.HandleWatch)
		sessions.POST("/:id/visibility", s.HandleVisibility)
		sessions.GET("/:id/profile", s.HandleProfile)
		sessions.DELETE("/:id", s.HandleExit)
	}

	rg.GET("/learners/:id/summaries", s.HandleSummaries)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Run serves on addr until ctx is cancelled, sweeping idle sessions, then
// exits every remaining session so its progress is saved.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var sweep <-chan time.Time
	if s.deps.SessionTTL > 0 {
		ticker := time.NewTicker(min(s.deps.SessionTTL, time.Minute))
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-sweep:
			if n := s.sessions.sweep(ctx, s.deps.SessionTTL, s.logger); n > 0 {
				s.logger.Info("evicted idle sessions", "count", n)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			s.sessions.sweep(shutdownCtx, -time.Hour, s.logger)
			return nil
		}
	}
}
