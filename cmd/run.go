package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/abhisek/phasegate/internal/app"
	"github.com/abhisek/phasegate/internal/config"
	"github.com/abhisek/phasegate/internal/content"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/llm"
	"github.com/abhisek/phasegate/internal/logging"
	"github.com/abhisek/phasegate/internal/rubric"
	"github.com/abhisek/phasegate/internal/session"
	"github.com/abhisek/phasegate/internal/store"
)

// env is the process-wide state shared by the commands.
type env struct {
	cfg     config.Config
	store   *store.Store
	catalog *content.MemCatalog
	rules   engine.Rules
	logger  *slog.Logger
	logFile io.Closer
}

// openEnv loads config, logging, the catalog and the store. quiet keeps
// logs off the console, for commands that own the terminal.
func openEnv(cmd *cobra.Command, quiet bool) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logCfg, err := cfg.Logging(quiet)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logger, logFile, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger, logFile: logFile}

	e.rules, err = cfg.EngineRules()
	if err != nil {
		e.Close()
		return nil, err
	}
	e.catalog, err = loadCatalog(cfg.Catalog.Path)
	if err != nil {
		e.Close()
		return nil, err
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	e.store, err = store.Open(dbPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store opened", "path", dbPath)
	return e, nil
}

func (e *env) Close() {
	if e.store != nil {
		e.store.Close()
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
}

// grader returns the LLM grader when a provider is configured, otherwise
// the keyword grader.
func (e *env) grader(ctx context.Context) engine.Grader {
	provider, err := llm.NewProvider(ctx, e.cfg.LLM, e.store.EventRepo(), e.logger)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			e.logger.Warn("LLM grader unavailable, using keyword grading", "error", err)
		}
		return rubric.KeywordGrader{}
	}
	e.logger.Info("LLM grading enabled", "provider", e.cfg.LLM.Provider)
	return rubric.NewLLMGrader(provider, rubric.DefaultLLMConfig(), e.logger)
}

func (e *env) opener(ctx context.Context, observer engine.Observer) *session.Opener {
	return &session.Opener{
		Catalog:   e.catalog,
		Rules:     e.rules,
		Grader:    e.grader(ctx),
		Recorder:  e.store.Recorder(),
		Progress:  e.store.ProgressRepo(),
		Summaries: e.store.SummaryRepo(),
		Observer:  observer,
		Logger:    e.logger,
	}
}

func loadCatalog(path string) (*content.MemCatalog, error) {
	if path == "" {
		return content.Builtin()
	}
	c, err := content.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

func learnerFlag(cmd *cobra.Command) string {
	l, _ := cmd.Flags().GetString("learner")
	return l
}

// defaultLearner is PHASEGATE_LEARNER, then the login name.
func defaultLearner() string {
	if l := os.Getenv("PHASEGATE_LEARNER"); l != "" {
		return l
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "learner"
}

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	return app.Run(app.Deps{
		Opener:    e.opener(cmd.Context(), nil),
		Summaries: e.store.SummaryRepo(),
		LearnerID: learnerFlag(cmd),
	})
}
