// Package config loads process configuration from the environment and game
// tuning from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration.
type Config struct {
	Addr     string `env:"TRANSITION_ADDR" envDefault:":8080"`
	Language string `env:"TRANSITION_LANGUAGE" envDefault:"zh"`

	LLMProvider      string  `env:"TRANSITION_LLM_PROVIDER" envDefault:"gemini"`
	LLMModel         string  `env:"TRANSITION_LLM_MODEL"`
	GeminiAPIKey     string  `env:"GEMINI_API_KEY"`
	OpenAIAPIKey     string  `env:"OPENAI_API_KEY"`
	AnthropicAPIKey  string  `env:"ANTHROPIC_API_KEY"`
	DailyBudgetUSD   float64 `env:"TRANSITION_DAILY_BUDGET_USD" envDefault:"5"`
	MonthlyBudgetUSD float64 `env:"TRANSITION_MONTHLY_BUDGET_USD" envDefault:"25"`

	TuningPath  string `env:"TRANSITION_TUNING"`
	ChronicleDB string `env:"TRANSITION_CHRONICLE_DB"`
	JournalDir  string `env:"TRANSITION_JOURNAL_DIR"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the environment configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	switch cfg.LLMProvider {
	case "gemini", "openai", "anthropic", "none":
	default:
		return Config{}, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
	if cfg.DailyBudgetUSD < 0 || cfg.MonthlyBudgetUSD < 0 {
		return Config{}, errors.New("llm budgets must be non-negative")
	}
	return cfg, nil
}

// Tuning holds timing constants of a session.
type Tuning struct {
	TickIntervalMs  int       `yaml:"tick_interval_ms"`
	DampedTimeSpeed float64   `yaml:"damped_time_speed"`
	EraDampSeconds  float64   `yaml:"era_damp_seconds"`
	NoticeSeconds   float64   `yaml:"notice_seconds"`
	TimeSpeeds      []float64 `yaml:"time_speeds"`
}

// DefaultTuning matches the reference game feel.
func DefaultTuning() Tuning {
	return Tuning{
		TickIntervalMs:  100,
		DampedTimeSpeed: 0.1,
		EraDampSeconds:  5,
		NoticeSeconds:   2,
		TimeSpeeds:      []float64{0.5, 1, 5, 10},
	}
}

// TickInterval is the fixed wall-clock tick period.
func (t Tuning) TickInterval() time.Duration {
	return time.Duration(t.TickIntervalMs) * time.Millisecond
}

// EraDamp is the length of the slowdown after an era transition.
func (t Tuning) EraDamp() time.Duration {
	return time.Duration(t.EraDampSeconds * float64(time.Second))
}

// Notice is how long an intervention banner stays up.
func (t Tuning) Notice() time.Duration {
	return time.Duration(t.NoticeSeconds * float64(time.Second))
}

// AllowsSpeed reports whether v is a selectable time speed.
func (t Tuning) AllowsSpeed(v float64) bool {
	for _, s := range t.TimeSpeeds {
		if s == v {
			return true
		}
	}
	return false
}

// Validate checks tuning bounds.
func (t Tuning) Validate() error {
	if t.TickIntervalMs <= 0 {
		return fmt.Errorf("tick_interval_ms must be positive, got %d", t.TickIntervalMs)
	}
	if t.DampedTimeSpeed <= 0 {
		return fmt.Errorf("damped_time_speed must be positive, got %v", t.DampedTimeSpeed)
	}
	if t.EraDampSeconds < 0 || t.NoticeSeconds < 0 {
		return errors.New("era_damp_seconds and notice_seconds must be non-negative")
	}
	if len(t.TimeSpeeds) == 0 {
		return errors.New("time_speeds must not be empty")
	}
	for _, s := range t.TimeSpeeds {
		if s <= 0 {
			return fmt.Errorf("time_speeds entries must be positive, got %v", s)
		}
	}
	return nil
}

// LoadTuning reads a YAML tuning file over the defaults. An empty path or a
// missing file yields the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return t, nil
		}
		return Tuning{}, fmt.Errorf("read tuning %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}
