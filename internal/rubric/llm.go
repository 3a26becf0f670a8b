package rubric

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/abhisek/phasegate/internal/content"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/llm"
	"github.com/abhisek/phasegate/internal/logging"
)

// Purpose labels reflection grading requests in the LLM event log.
const Purpose = "reflection-audit"

// LLMConfig holds configuration for the LLM grader.
type LLMConfig struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DefaultLLMConfig returns sensible defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		MaxTokens:   256,
		Temperature: 0.2,
		Timeout:     30 * time.Second,
	}
}

// LLMGrader asks a language model to score a reflection. Any provider or
// decoding failure falls back to the keyword score, so grading never fails.
type LLMGrader struct {
	provider llm.Provider
	cfg      LLMConfig
	logger   *slog.Logger
}

var _ engine.Grader = (*LLMGrader)(nil)

// NewLLMGrader creates an LLM-backed grader.
func NewLLMGrader(provider llm.Provider, cfg LLMConfig, logger *slog.Logger) *LLMGrader {
	if logger == nil {
		logger = logging.Nop()
	}
	return &LLMGrader{provider: provider, cfg: cfg, logger: logger}
}

type gradeOutput struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

func (g *LLMGrader) Grade(ctx context.Context, r content.Rubric, text string) (float64, error) {
	out, err := g.ask(ctx, r, text)
	if err != nil {
		fallback := KeywordScore(r, text)
		g.logger.Warn("llm grading failed, using keyword score", "err", err, "score", fallback)
		return fallback, nil
	}
	return max(0, min(100, out.Score)), nil
}

func (g *LLMGrader) ask(ctx context.Context, r content.Rubric, text string) (*gradeOutput, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	userMsg, err := buildGradeMessage(r, text)
	if err != nil {
		return nil, fmt.Errorf("build grading prompt: %w", err)
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		Purpose:     Purpose,
		System:      gradeSystemPrompt,
		Prompt:      userMsg,
		Schema:      GradeSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM grading failed: %w", err)
	}

	var out gradeOutput
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse grading response: %w", err)
	}
	return &out, nil
}

const gradeSystemPrompt = `You grade short written reflections from learners who just finished a lesson.

Instructions:
- Score 0 to 100 for how clearly the reflection explains the lesson's key ideas in the learner's own words.
- The listed key ideas are a guide, not a checklist. Credit equivalent wording.
- Copied prompt text or filler earns no credit.
- Keep feedback to one sentence addressed to the learner.`

var gradeUserTemplate = template.Must(template.New("grade").Parse(`Reflection prompt: {{.Prompt}}
Key ideas:
{{range .Keywords}}- {{.}}
{{end}}Minimum length: {{.MinLength}} characters

Learner's reflection:
{{.Text}}`))

func buildGradeMessage(r content.Rubric, text string) (string, error) {
	var buf bytes.Buffer
	err := gradeUserTemplate.Execute(&buf, struct {
		content.Rubric
		Text string
	}{r, text})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
