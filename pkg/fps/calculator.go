// Package fps turns a stream of frame-boundary timestamps into frame rate metrics.
package fps

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Mode selects which derived value CurrentFPS reports.
type Mode int

const (
	ModeAverage   Mode = 1 // running average, smoother
	ModePerSecond Mode = 2 // rate over the last closed window, more responsive
)

func (m Mode) String() string {
	switch m {
	case ModeAverage:
		return "average"
	case ModePerSecond:
		return "per-second"
	default:
		return "unknown"
	}
}

// ParseMode accepts "average" or "per-second" (also "persecond", "second").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "average", "avg", "":
		return ModeAverage, nil
	case "per-second", "persecond", "second":
		return ModePerSecond, nil
	}
	return 0, fmt.Errorf("unknown fps mode %q", s)
}

// ErrNonMonotonicSample is returned when a tick is not after the previous one.
// The tick is discarded.
var ErrNonMonotonicSample = errors.New("non-monotonic frame timestamp")

// ErrStallGap is returned when a tick arrives after more than the stall threshold.
// The tick is recorded but the per-second window restarts at it and the gap is
// kept out of the average.
var ErrStallGap = errors.New("frame stall gap")

const (
	DefaultUpdateInterval = time.Second
	DefaultAverageWindow  = 60
	DefaultStallThreshold = 2 * time.Second

	lowPowerFactor = 2
)

// Options configures a Calculator.
type Options struct {
	Mode           Mode
	LowPower       bool
	AverageWindow  int           // intervals in the averaging window (normal power)
	StallThreshold time.Duration // gaps above this restart the per-second window
}

// DefaultOptions returns the standard calculator configuration.
func DefaultOptions() Options {
	return Options{
		Mode:           ModeAverage,
		AverageWindow:  DefaultAverageWindow,
		StallThreshold: DefaultStallThreshold,
	}
}

// Stats is a consistent snapshot of the calculator state.
type Stats struct {
	Mode            Mode
	LowPower        bool
	AverageFPS      float64
	PerSecondFPS    float64
	SampleCount     int64
	AccumulatedTime time.Duration
	UpdateInterval  time.Duration
	AverageWindow   int
	LastInterval    time.Duration
	Discarded       uint64
	Stalls          uint64

	// Totals count since construction and are never cleared by Reset.
	TotalFrames    uint64
	TotalDiscarded uint64
	TotalStalls    uint64
}

// Calculator maintains a running average and a per-second frame rate.
// All methods are safe for concurrent use; RecordFrameTick is expected to be
// called from a frame producer while CurrentFPS is polled elsewhere.
type Calculator struct {
	mu sync.Mutex

	mode           Mode
	lowPower       bool
	baseWindow     int
	stallThreshold time.Duration

	sampleCount  int64
	accumulated  time.Duration
	intervals    int64
	meanInterval float64 // seconds
	lastTick     time.Duration
	lastInterval time.Duration
	windowStart  time.Duration
	windowFrames int

	averageFPS   float64
	perSecondFPS float64

	discarded uint64
	stalls    uint64

	// Lifetime totals survive Reset.
	totalFrames    uint64
	totalDiscarded uint64
	totalStalls    uint64
}

// NewCalculator creates a calculator. Zero option fields fall back to defaults.
func NewCalculator(opts Options) *Calculator {
	def := DefaultOptions()
	if opts.Mode != ModeAverage && opts.Mode != ModePerSecond {
		opts.Mode = def.Mode
	}
	if opts.AverageWindow <= 0 {
		opts.AverageWindow = def.AverageWindow
	}
	if opts.StallThreshold <= 0 {
		opts.StallThreshold = def.StallThreshold
	}
	return &Calculator{
		mode:           opts.Mode,
		lowPower:       opts.LowPower,
		baseWindow:     opts.AverageWindow,
		stallThreshold: opts.StallThreshold,
	}
}

// RecordFrameTick records one frame boundary at monotonic time ts.
// Both metrics are updated whatever the mode. It returns ErrNonMonotonicSample
// for a discarded tick and ErrStallGap for a tick that restarted the window.
func (c *Calculator) RecordFrameTick(ts time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sampleCount == 0 {
		c.totalFrames++
		c.sampleCount = 1
		c.lastTick = ts
		c.windowStart = ts
		c.windowFrames = 0
		return nil
	}
	if ts <= c.lastTick {
		c.discarded++
		c.totalDiscarded++
		return ErrNonMonotonicSample
	}

	interval := ts - c.lastTick
	c.lastTick = ts
	c.sampleCount++
	c.totalFrames++

	// A stall keeps the previous interval; the gap is not a frame time.
	if interval > c.stallThreshold {
		c.stalls++
		c.totalStalls++
		c.windowStart = ts
		c.windowFrames = 0
		return ErrStallGap
	}
	c.lastInterval = interval

	// Cumulative mean until the window fills, exponential afterwards.
	c.accumulated += interval
	c.intervals++
	n := c.intervals
	if w := int64(c.window()); n > w {
		n = w
	}
	c.meanInterval += (interval.Seconds() - c.meanInterval) / float64(n)
	if c.meanInterval > 0 {
		c.averageFPS = 1 / c.meanInterval
	}

	c.windowFrames++
	if elapsed := ts - c.windowStart; elapsed >= c.updateInterval() {
		c.perSecondFPS = float64(c.windowFrames) / elapsed.Seconds()
		c.windowStart = ts
		c.windowFrames = 0
	}
	return nil
}

// CurrentFPS returns the metric selected by the mode. It is 0 before any
// interval has been observed and never negative.
func (c *Calculator) CurrentFPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModePerSecond {
		return c.perSecondFPS
	}
	return c.averageFPS
}

// AverageFPS returns the running average regardless of mode.
func (c *Calculator) AverageFPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.averageFPS
}

// PerSecondFPS returns the last finalized per-second rate regardless of mode.
func (c *Calculator) PerSecondFPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.perSecondFPS
}

// LastInterval returns the most recent accepted inter-frame interval.
func (c *Calculator) LastInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastInterval
}

// Mode returns the reporting mode.
func (c *Calculator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode changes which metric CurrentFPS reports. Accumulated state is kept.
func (c *Calculator) SetMode(m Mode) {
	if m != ModeAverage && m != ModePerSecond {
		return
	}
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

// UpdatePowerMode widens the update interval and averaging window in low-power
// mode. Accumulated state is kept so the transition is continuous.
func (c *Calculator) UpdatePowerMode(lowPower bool) {
	c.mu.Lock()
	c.lowPower = lowPower
	c.mu.Unlock()
}

// UpdateInterval returns the current per-second window length.
func (c *Calculator) UpdateInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateInterval()
}

// Reset clears both metrics. Mode and power mode are unchanged.
func (c *Calculator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sampleCount = 0
	c.accumulated = 0
	c.intervals = 0
	c.meanInterval = 0
	c.lastTick = 0
	c.lastInterval = 0
	c.windowStart = 0
	c.windowFrames = 0
	c.averageFPS = 0
	c.perSecondFPS = 0
	c.discarded = 0
	c.stalls = 0
}

// Stats returns a snapshot of the metric state.
func (c *Calculator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Mode:            c.mode,
		LowPower:        c.lowPower,
		AverageFPS:      c.averageFPS,
		PerSecondFPS:    c.perSecondFPS,
		SampleCount:     c.sampleCount,
		AccumulatedTime: c.accumulated,
		UpdateInterval:  c.updateInterval(),
		AverageWindow:   c.window(),
		LastInterval:    c.lastInterval,
		Discarded:       c.discarded,
		Stalls:          c.stalls,
		TotalFrames:     c.totalFrames,
		TotalDiscarded:  c.totalDiscarded,
		TotalStalls:     c.totalStalls,
	}
}

func (c *Calculator) updateInterval() time.Duration {
	if c.lowPower {
		return DefaultUpdateInterval * lowPowerFactor
	}
	return DefaultUpdateInterval
}

func (c *Calculator) window() int {
	if c.lowPower {
		return c.baseWindow * lowPowerFactor
	}
	return c.baseWindow
}
