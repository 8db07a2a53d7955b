// Package profile classifies host applications by engine and recommends
// sampling parameters for frame instrumentation.
package profile

import (
	"fmt"
	"strings"
	"time"
)

// Engine is the detected engine family of a host application.
type Engine int

const (
	EngineUnknown Engine = iota
	EngineUnity
	EngineUnreal
	EngineTargetGame
	EngineCustom
)

func (e Engine) String() string {
	switch e {
	case EngineUnity:
		return "unity"
	case EngineUnreal:
		return "unreal"
	case EngineTargetGame:
		return "target-game"
	case EngineCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseEngine parses the names produced by Engine.String.
func ParseEngine(s string) (Engine, error) {
	for e := EngineUnknown; e <= EngineCustom; e++ {
		if strings.EqualFold(strings.TrimSpace(s), e.String()) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown engine %q", s)
}

func (e Engine) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Engine) UnmarshalText(b []byte) error {
	v, err := ParseEngine(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// HookFamily is the kind of frame hook a profile prefers.
type HookFamily int

const (
	HookDisplayLink HookFamily = iota
	HookCompositorDebug
	HookMetal
	HookOpenGL
	HookTimer
)

func (h HookFamily) String() string {
	switch h {
	case HookDisplayLink:
		return "display-link"
	case HookCompositorDebug:
		return "compositor-debug"
	case HookMetal:
		return "metal"
	case HookOpenGL:
		return "opengl"
	case HookTimer:
		return "timer"
	default:
		return fmt.Sprintf("hook(%d)", int(h))
	}
}

// ParseHookFamily parses the names produced by HookFamily.String.
func ParseHookFamily(s string) (HookFamily, error) {
	for h := HookDisplayLink; h <= HookTimer; h++ {
		if strings.EqualFold(strings.TrimSpace(s), h.String()) {
			return h, nil
		}
	}
	return 0, fmt.Errorf("unknown hook family %q", s)
}

func (h HookFamily) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *HookFamily) UnmarshalText(b []byte) error {
	v, err := ParseHookFamily(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

const (
	healthCheckFrames = 60
	minHealthInterval = 250 * time.Millisecond
	maxHealthInterval = 5 * time.Second
)

// Profile is the immutable classification of an application.
type Profile struct {
	Name          string     `json:"name"`
	Engine        Engine     `json:"engine"`
	SampleRateHz  float64    `json:"sample_rate_hz"`
	Priority      int        `json:"priority"`
	PreferredHook HookFamily `json:"preferred_hook"`
}

// Unknown returns the conservative profile used when nothing matches: low
// sampling rate, no display priority, plain display-link hooks.
func Unknown() Profile {
	return Profile{
		Name:          "default",
		Engine:        EngineUnknown,
		SampleRateHz:  30,
		Priority:      0,
		PreferredHook: HookDisplayLink,
	}
}

// FrameInterval is the period of the recommended sampling rate.
func (p Profile) FrameInterval() time.Duration {
	rate := p.SampleRateHz
	if rate <= 0 {
		rate = Unknown().SampleRateHz
	}
	if d := time.Duration(float64(time.Second) / rate); d > 0 {
		return d
	}
	return time.Nanosecond
}

// HealthInterval is how often the active strategy should be health checked:
// once every healthCheckFrames frames at the recommended rate, clamped.
func (p Profile) HealthInterval() time.Duration {
	d := p.FrameInterval() * healthCheckFrames
	if d < minHealthInterval {
		return minHealthInterval
	}
	if d > maxHealthInterval {
		return maxHealthInterval
	}
	return d
}
