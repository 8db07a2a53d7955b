// Package config holds fpsmon runtime configuration. Values come from a JSON
// file, then FPSMON_* environment variables, then command-line flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danpilch/fpsmon/pkg/fps"
	"github.com/danpilch/fpsmon/pkg/profile"
	"github.com/danpilch/fpsmon/pkg/session"
	"github.com/danpilch/fpsmon/pkg/strategy"
)

// HookConfig describes one simulated frame hook offered to the selector.
type HookConfig struct {
	ID                    string  `json:"id"`
	Family                string  `json:"family"`
	StealthNeed           int     `json:"stealth_need"`
	Reliability           string  `json:"reliability"`
	TargetFPS             float64 `json:"target_fps"`
	JitterMillis          float64 `json:"jitter_ms"`
	FailActivate          bool    `json:"fail_activate"`
	FaultAfterFrames      uint64  `json:"fault_after_frames"`
	UnhealthyAfterSeconds float64 `json:"unhealthy_after_seconds"`
}

// Config holds runtime configuration for a monitoring run.
type Config struct {
	AppID        string `json:"app_id"`
	StealthLevel int    `json:"stealth_level"`
	Mode         string `json:"mode"`
	LowPower     bool   `json:"low_power"`

	// Calculator tuning
	StallThresholdSeconds float64 `json:"stall_threshold_seconds"`
	AverageWindow         int     `json:"average_window"`

	// Display
	HistorySize    int     `json:"history_size"`
	RefreshSeconds float64 `json:"refresh_seconds"`
	TargetFPS      float64 `json:"target_fps"`
	TextFormat     string  `json:"text_format"`

	LogLevel    string `json:"log_level"`
	MetricsAddr string `json:"metrics_addr"`
	BaselineDir string `json:"baseline_dir"`

	Hooks []HookConfig `json:"hooks"`
}

// MaxTargetFPS caps configured frame rates; no display presents faster.
const MaxTargetFPS = 1000.0

// DefaultTextFormat renders CurrentFPS in the text output format.
const DefaultTextFormat = "FPS: %.1f"

// DefaultHooks is the simulated hook set used when none is configured.
func DefaultHooks() []HookConfig {
	return []HookConfig{
		{ID: "display-link", Family: "display-link", StealthNeed: 0, Reliability: "high", TargetFPS: 60},
		{ID: "compositor-debug", Family: "compositor-debug", StealthNeed: 2, Reliability: "high", TargetFPS: 120},
		{ID: "metal-present", Family: "metal", StealthNeed: 1, Reliability: "medium", TargetFPS: 60, JitterMillis: 1},
		{ID: "gl-swap", Family: "opengl", StealthNeed: 1, Reliability: "low", TargetFPS: 60, JitterMillis: 2},
	}
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		AppID:                 "",
		StealthLevel:          int(strategy.StealthCautious),
		Mode:                  fps.ModeAverage.String(),
		LowPower:              false,
		StallThresholdSeconds: fps.DefaultStallThreshold.Seconds(),
		AverageWindow:         fps.DefaultAverageWindow,
		HistorySize:           40,
		RefreshSeconds:        1,
		TargetFPS:             60,
		TextFormat:            DefaultTextFormat,
		LogLevel:              "warn",
		MetricsAddr:           "",
		BaselineDir:           ".fpsmon/baselines",
		Hooks:                 DefaultHooks(),
	}
}

// Validate clamps values to safe ranges and rejects values that cannot be
// clamped meaningfully.
func (c *Config) Validate() error {
	if c.StealthLevel < int(strategy.StealthCautious) {
		c.StealthLevel = int(strategy.StealthCautious)
	}
	if c.StealthLevel > int(strategy.StealthPermissive) {
		c.StealthLevel = int(strategy.StealthPermissive)
	}
	if _, err := fps.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.StallThresholdSeconds <= 0 {
		c.StallThresholdSeconds = fps.DefaultStallThreshold.Seconds()
	}
	if c.AverageWindow <= 0 {
		c.AverageWindow = fps.DefaultAverageWindow
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 40
	}
	if c.RefreshSeconds < 0.1 {
		c.RefreshSeconds = 0.1
	}
	if c.TargetFPS <= 0 {
		c.TargetFPS = 60
	}
	c.TargetFPS = min(c.TargetFPS, MaxTargetFPS)
	if c.TextFormat == "" {
		c.TextFormat = DefaultTextFormat
	}
	for i, h := range c.Hooks {
		if h.TargetFPS > MaxTargetFPS {
			c.Hooks[i].TargetFPS = MaxTargetFPS
		}
		if h.ID == "" {
			return fmt.Errorf("hook %d: missing id", i)
		}
		if _, err := profile.ParseHookFamily(h.Family); err != nil {
			return fmt.Errorf("hook %s: %w", h.ID, err)
		}
		if _, err := strategy.ParseReliability(h.Reliability); err != nil {
			return fmt.Errorf("hook %s: %w", h.ID, err)
		}
		if !strategy.StealthLevel(h.StealthNeed).Valid() {
			return fmt.Errorf("hook %s: stealth need %d out of range", h.ID, h.StealthNeed)
		}
	}
	return nil
}

// Load reads configuration from a JSON file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path as indented JSON.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// FPSMode returns the parsed calculator mode.
func (c *Config) FPSMode() fps.Mode {
	m, err := fps.ParseMode(c.Mode)
	if err != nil {
		return fps.ModeAverage
	}
	return m
}

// Refresh returns the display refresh period.
func (c *Config) Refresh() time.Duration {
	return time.Duration(c.RefreshSeconds * float64(time.Second))
}

// SessionOptions converts the configuration into session options.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		AppID:   c.AppID,
		Stealth: strategy.StealthLevel(c.StealthLevel),
		FPS: fps.Options{
			Mode:           c.FPSMode(),
			LowPower:       c.LowPower,
			AverageWindow:  c.AverageWindow,
			StallThreshold: time.Duration(c.StallThresholdSeconds * float64(time.Second)),
		},
	}
}

// Strategies builds a synthetic strategy for every configured hook.
// Call Validate first; invalid entries are skipped.
func (c *Config) Strategies() []strategy.Strategy {
	out := make([]strategy.Strategy, 0, len(c.Hooks))
	for _, h := range c.Hooks {
		fam, err := profile.ParseHookFamily(h.Family)
		if err != nil {
			continue
		}
		rel, err := strategy.ParseReliability(h.Reliability)
		if err != nil {
			continue
		}
		out = append(out, strategy.NewSynthetic(strategy.SyntheticConfig{
			Descriptor: strategy.Descriptor{
				ID:          h.ID,
				Family:      fam,
				StealthNeed: strategy.StealthLevel(h.StealthNeed),
				Reliability: rel,
			},
			TargetFPS:        h.TargetFPS,
			Jitter:           time.Duration(h.JitterMillis * float64(time.Millisecond)),
			FailActivate:     h.FailActivate,
			FaultAfterFrames: h.FaultAfterFrames,
			UnhealthyAfter:   time.Duration(h.UnhealthyAfterSeconds * float64(time.Second)),
		}))
	}
	return out
}
