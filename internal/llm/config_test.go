package llm

import (
	"math"
	"strings"
	"testing"
)

func TestConfig_ResolvedAndValidate(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gk")

	tests := []struct {
		name      string
		cfg       Config
		wantModel string
		wantURL   string
		wantErr   string
	}{
		{"disabled", Config{}, "", "", ""},
		{"mock", Config{Provider: "mock"}, "", "", ""},
		{"gemini key from vendor env", Config{Provider: "gemini"}, "gemini-2.5-flash", "", ""},
		{"openrouter defaults", Config{Provider: "openrouter", APIKey: "k"}, "openai/gpt-4o-mini", "https://openrouter.ai/api/v1", ""},
		{"explicit model wins", Config{Provider: "anthropic", APIKey: "k", Model: "claude-sonnet-4-5"}, "claude-sonnet-4-5", "", ""},
		{"anthropic without key", Config{Provider: "anthropic"}, "claude-haiku-4-5", "", "ANTHROPIC_API_KEY"},
		{"unknown", Config{Provider: "llama"}, "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.cfg.Resolved()
			if r.Model != tt.wantModel || r.BaseURL != tt.wantURL {
				t.Errorf("resolved = %q %q", r.Model, r.BaseURL)
			}
			err := tt.cfg.Validate()
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("Validate: %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("Validate = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PHASEGATE_LLM_PROVIDER", "openai")
	t.Setenv("PHASEGATE_LLM_MODEL", "gpt-4.1-mini")
	t.Setenv("PHASEGATE_LLM_BASE_URL", "http://localhost:4000/v1")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	if cfg.Provider != "openai" || cfg.Model != "gpt-4.1-mini" || cfg.BaseURL != "http://localhost:4000/v1" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Enabled() {
		t.Error("expected enabled")
	}
}

func TestLookupPrice(t *testing.T) {
	tests := []struct {
		model string
		want  float64 // cost of 1M in + 1M out
		found bool
	}{
		{"gpt-4o-mini", 0.75, true},
		{"gpt-4o-mini-2024-07-18", 0.75, true},
		{"openai/gpt-4o-mini", 0.75, true},
		{"claude-haiku-4-5-20251001", 6, true},
		{"gemini-2.5-flash-preview-09-2025", 2.8, true},
		{"mock", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p, found := LookupPrice(tt.model)
			if found != tt.found {
				t.Fatalf("found = %v", found)
			}
			if got := p.Cost(1_000_000, 1_000_000); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cost = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchema_Validate(t *testing.T) {
	if err := scoreSchema.validate([]byte(`{"score":10}`)); err != nil {
		t.Errorf("valid output rejected: %v", err)
	}
	if err := scoreSchema.validate([]byte(`{"score":10,"extra":1}`)); err == nil {
		t.Error("additional property accepted")
	}
	if !strings.Contains(string(scoreSchema.JSON()), `"required":["score"]`) {
		t.Errorf("JSON = %s", scoreSchema.JSON())
	}
}
