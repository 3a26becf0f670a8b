package llm

import (
	"fmt"
	"os"
	"time"
)

// Vendor describes a supported provider's defaults.
type Vendor struct {
	Name    string
	Model   string
	BaseURL string
	// KeyEnv is the vendor's conventional API key variable, used when no
	// key is configured explicitly.
	KeyEnv string
}

// Vendors lists the providers NewProvider can build, in discovery order.
var Vendors = []Vendor{
	{Name: "anthropic", Model: "claude-haiku-4-5", KeyEnv: "ANTHROPIC_API_KEY"},
	{Name: "openai", Model: "gpt-4o-mini", KeyEnv: "OPENAI_API_KEY"},
	{Name: "gemini", Model: "gemini-2.5-flash", KeyEnv: "GEMINI_API_KEY"},
	{Name: "openrouter", Model: "openai/gpt-4o-mini", BaseURL: "https://openrouter.ai/api/v1", KeyEnv: "OPENROUTER_API_KEY"},
}

func vendor(name string) (Vendor, bool) {
	for _, v := range Vendors {
		if v.Name == name {
			return v, true
		}
	}
	return Vendor{}, false
}

// Config selects and tunes the grading model.
type Config struct {
	// Provider is empty to grade by keywords only.
	Provider string `yaml:"provider" json:"provider" validate:"omitempty,oneof=anthropic openai gemini openrouter mock"`
	// Model overrides the vendor default.
	Model string `yaml:"model" json:"model"`
	// APIKey falls back to the vendor's conventional variable.
	APIKey string `yaml:"api_key" json:"-"`
	// BaseURL overrides the vendor endpoint, e.g. for a proxy.
	BaseURL string `yaml:"base_url" json:"base_url"`

	Retry RetryConfig `yaml:"retry" json:"retry"`
	// Timeout bounds one Generate call including retries.
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gte=0"`
}

// RetryConfig shapes the backoff between attempts.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts" validate:"gte=1,lte=10"`
	InitialWait time.Duration `yaml:"initial_wait" json:"initial_wait" validate:"gte=0"`
	MaxWait     time.Duration `yaml:"max_wait" json:"max_wait" validate:"gte=0"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier" validate:"gte=1"`
}

func DefaultConfig() Config {
	return Config{
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     8 * time.Second,
			Multiplier:  2,
		},
		Timeout: 20 * time.Second,
	}
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool { return c.Provider != "" }

// ApplyEnv overlays PHASEGATE_LLM_* variables onto cfg.
func ApplyEnv(cfg *Config) {
	for env, dst := range map[string]*string{
		"PHASEGATE_LLM_PROVIDER": &cfg.Provider,
		"PHASEGATE_LLM_MODEL":    &cfg.Model,
		"PHASEGATE_LLM_API_KEY":  &cfg.APIKey,
		"PHASEGATE_LLM_BASE_URL": &cfg.BaseURL,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}

// Resolved fills the model, base URL and key from the vendor table.
func (c Config) Resolved() Config {
	v, ok := vendor(c.Provider)
	if !ok {
		return c
	}
	if c.Model == "" {
		c.Model = v.Model
	}
	if c.BaseURL == "" {
		c.BaseURL = v.BaseURL
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv(v.KeyEnv)
	}
	return c
}

// Validate checks that the selected provider can authenticate.
func (c Config) Validate() error {
	switch c.Provider {
	case "", "mock":
		return nil
	}
	v, ok := vendor(c.Provider)
	if !ok {
		return fmt.Errorf("unknown LLM provider %q", c.Provider)
	}
	if c.Resolved().APIKey == "" {
		return fmt.Errorf("%s needs an API key: set PHASEGATE_LLM_API_KEY or %s", v.Name, v.KeyEnv)
	}
	return nil
}
