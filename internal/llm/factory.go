package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// NewProvider builds the configured provider wrapped as
// caller → timeout → retry → recording → vendor. A nil rec skips
// recording.
func NewProvider(ctx context.Context, cfg Config, rec RequestRecorder, logger *slog.Logger) (Provider, error) {
	cfg = cfg.Resolved()

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "":
		return nil, ErrNotConfigured
	case "mock":
		base = NewMockProvider()
	case "anthropic":
		base, err = newAnthropic(cfg)
	case "openai", "openrouter":
		base, err = newOpenAI(cfg.Provider, cfg)
	case "gemini":
		base, err = newGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%s provider: %w", cfg.Provider, err)
	}

	if rec != nil {
		base = WithRecording(base, rec, logger)
	}
	return WithTimeout(WithRetry(base, cfg.Retry), cfg.Timeout), nil
}
