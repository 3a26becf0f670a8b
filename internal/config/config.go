// Package config loads phasegate settings from defaults, an optional YAML
// file and PHASEGATE_* environment variables, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/llm"
	"github.com/abhisek/phasegate/internal/logging"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/rewind"
	"github.com/abhisek/phasegate/internal/signal"
)

// Config is the full application configuration.
type Config struct {
	Rules   RulesConfig   `yaml:"rules" json:"rules"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Log     LogConfig     `yaml:"log" json:"log"`
	LLM     llm.Config    `yaml:"llm" json:"llm"`
}

// RulesConfig holds the tunable engine thresholds. Percentages are 0-100.
type RulesConfig struct {
	LinkDwell     time.Duration `yaml:"link_dwell" json:"link_dwell" validate:"gte=0"`
	WatchFraction float64       `yaml:"watch_fraction" json:"watch_fraction" validate:"gte=0,lte=100"`
	SyncAccuracy  float64       `yaml:"sync_accuracy" json:"sync_accuracy" validate:"gte=0,lte=100"`
	ReflectScore  float64       `yaml:"reflect_score" json:"reflect_score" validate:"gte=0,lte=100"`
	ProveScore    float64       `yaml:"prove_score" json:"prove_score" validate:"gte=0,lte=100"`
	MasterScore   float64       `yaml:"master_score" json:"master_score" validate:"gte=0,lte=100"`

	// Cooldowns maps a checkpoint name (sync, reflect, prove, master) to its
	// rewind cooldown.
	Cooldowns map[string]time.Duration `yaml:"cooldowns" json:"cooldowns" validate:"dive,keys,checkpoint,endkeys,gte=0"`

	Materiality   int `yaml:"materiality" json:"materiality" validate:"gte=0,lte=100"`
	ProfileWindow int `yaml:"profile_window" json:"profile_window" validate:"gte=1"`
}

// StoreConfig locates the SQLite database. An empty path uses the default
// location.
type StoreConfig struct {
	Path string `yaml:"path" json:"path"`
}

// CatalogConfig locates the lesson catalog. An empty path uses the
// built-in lessons.
type CatalogConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr" validate:"required,hostname_port"`

	// SessionTTL evicts sessions idle for longer than this.
	SessionTTL time.Duration `yaml:"session_ttl" json:"session_ttl" validate:"gte=0"`
	Metrics    bool          `yaml:"metrics" json:"metrics"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=text json"`
	File   string `yaml:"file" json:"file"`
}

// Default returns the stock configuration.
func Default() Config {
	th := phase.DefaultThresholds()
	cooldowns := make(map[string]time.Duration)
	for id, d := range rewind.DefaultCooldowns() {
		cooldowns[strings.ToLower(id.String())] = d
	}
	return Config{
		Rules: RulesConfig{
			LinkDwell:     th.LinkDwell,
			WatchFraction: th.WatchFraction,
			SyncAccuracy:  th.SyncAccuracy,
			ReflectScore:  th.ReflectScore,
			ProveScore:    th.ProveScore,
			MasterScore:   th.MasterScore,
			Cooldowns:     cooldowns,
			Materiality:   signal.DefaultMateriality,
			ProfileWindow: signal.DefaultWindow,
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:8080",
			SessionTTL: 2 * time.Hour,
			Metrics:    true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		LLM: llm.DefaultConfig(),
	}
}

// Load builds the configuration. A missing file at path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("PHASEGATE_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("PHASEGATE_CATALOG"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("PHASEGATE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PHASEGATE_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.SessionTTL = d
		}
	}
	if v := os.Getenv("PHASEGATE_METRICS"); v != "" {
		cfg.Server.Metrics = v == "true" || v == "1"
	}

	if v := os.Getenv("PHASEGATE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PHASEGATE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PHASEGATE_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	if v := os.Getenv("PHASEGATE_LINK_DWELL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Rules.LinkDwell = d
		}
	}
	if v := os.Getenv("PHASEGATE_WATCH_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Rules.WatchFraction = f
		}
	}
	if v := os.Getenv("PHASEGATE_MATERIALITY"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Rules.Materiality = i
		}
	}
	if v := os.Getenv("PHASEGATE_PROFILE_WINDOW"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Rules.ProfileWindow = i
		}
	}

	llm.ApplyEnv(&cfg.LLM)
}

// EngineRules converts the rule settings into engine rules.
func (c Config) EngineRules() (engine.Rules, error) {
	r := c.Rules
	cooldowns := rewind.DefaultCooldowns()
	for name, d := range r.Cooldowns {
		id, err := phase.Parse(name)
		if err != nil {
			return engine.Rules{}, fmt.Errorf("cooldown %q: %w", name, err)
		}
		cooldowns[id] = d
	}
	return engine.Rules{
		Phases: phase.NewTable(phase.Defaults{
			LinkDwell:     r.LinkDwell,
			WatchFraction: r.WatchFraction,
			SyncAccuracy:  r.SyncAccuracy,
			ReflectScore:  r.ReflectScore,
			ProveScore:    r.ProveScore,
			MasterScore:   r.MasterScore,
		}),
		Cooldowns:     cooldowns,
		Materiality:   r.Materiality,
		ProfileWindow: r.ProfileWindow,
	}, nil
}

// Logging converts the log settings. quiet suppresses console output.
func (c Config) Logging(quiet bool) (logging.Config, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return logging.Config{}, err
	}
	return logging.Config{
		Level: level,
		JSON:  c.Log.Format == "json",
		Quiet: quiet,
		File:  c.Log.File,
	}, nil
}
