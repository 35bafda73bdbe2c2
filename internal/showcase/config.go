package showcase

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the showcase timings. Zero or negative values fall back to defaults.
type Config struct {
	// Slots is the number of visible cards.
	Slots          int           `yaml:"slots"`
	RotateInterval time.Duration `yaml:"rotate_interval"`
	FadeDuration   time.Duration `yaml:"fade_duration"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	// MaxRetries bounds the redraws made when a selection repeats the current one.
	MaxRetries int `yaml:"max_retries"`

	MinStep     time.Duration `yaml:"min_step"`
	CycleGrace  time.Duration `yaml:"cycle_grace"`
	ResumeDelay time.Duration `yaml:"resume_delay"`
	// ClickDelay separates a single click (spotlight) from a double click (lightbox).
	ClickDelay time.Duration `yaml:"click_delay"`
}

const (
	DefaultSlots          = 3
	DefaultRotateInterval = 10 * time.Second
	DefaultFadeDuration   = 350 * time.Millisecond
	DefaultSettleDelay    = 50 * time.Millisecond
	DefaultMaxRetries     = 5
	DefaultMinStep        = 400 * time.Millisecond
	DefaultCycleGrace     = 50 * time.Millisecond
	DefaultResumeDelay    = 600 * time.Millisecond
	DefaultClickDelay     = 220 * time.Millisecond
)

// DefaultConfig returns the stock timings.
func DefaultConfig() Config {
	var c Config
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.Slots <= 0 {
		c.Slots = DefaultSlots
	}
	if c.RotateInterval <= 0 {
		c.RotateInterval = DefaultRotateInterval
	}
	if c.FadeDuration <= 0 {
		c.FadeDuration = DefaultFadeDuration
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MinStep <= 0 {
		c.MinStep = DefaultMinStep
	}
	if c.CycleGrace <= 0 {
		c.CycleGrace = DefaultCycleGrace
	}
	if c.ResumeDelay <= 0 {
		c.ResumeDelay = DefaultResumeDelay
	}
	if c.ClickDelay <= 0 {
		c.ClickDelay = DefaultClickDelay
	}
}

// Validate applies defaults and rejects timings where a transition could
// outlast the rotation period.
func (c *Config) Validate() error {
	c.defaults()
	if c.FadeDuration+c.SettleDelay >= c.RotateInterval {
		return fmt.Errorf("rotate_interval %s must exceed fade_duration+settle_delay (%s)",
			c.RotateInterval, c.FadeDuration+c.SettleDelay)
	}
	if c.Slots > 64 {
		return errors.New("slots must be at most 64")
	}
	return nil
}

// LoadConfigFile reads a YAML config file and validates it.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read showcase config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse showcase config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid showcase config: %w", err)
	}
	return cfg, nil
}
