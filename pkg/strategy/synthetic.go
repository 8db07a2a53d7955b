package strategy

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/danpilch/fpsmon/pkg/profile"
)

// SyntheticConfig describes a simulated refresh-synchronised frame source.
type SyntheticConfig struct {
	Descriptor

	TargetFPS float64
	// Jitter delays each frame by a random amount in [0, Jitter).
	Jitter time.Duration

	// Failure injection.
	FailActivate     bool
	FaultAfterFrames uint64        // report a hook fault after this many frames (0 = never)
	UnhealthyAfter   time.Duration // report unhealthy once active this long (0 = never)

	Clock Clock
}

// Synthetic emits frames at a target rate and can be told to fail in the ways
// real hooks do. The CLI uses it to model display-link and compositor hooks.
type Synthetic struct {
	cfg      SyntheticConfig
	interval time.Duration
}

type syntheticHandle struct {
	*emitter
	faulted atomic.Bool
}

// NewSynthetic creates a synthetic strategy.
func NewSynthetic(cfg SyntheticConfig) *Synthetic {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 60
	}
	if cfg.Clock == nil {
		cfg.Clock = Monotonic
	}
	if cfg.ID == "" {
		cfg.ID = "synthetic-" + cfg.Family.String()
	}
	return &Synthetic{
		cfg:      cfg,
		interval: profile.Profile{SampleRateHz: cfg.TargetFPS}.FrameInterval(),
	}
}

// Describe returns the configured descriptor.
func (s *Synthetic) Describe() Descriptor {
	return s.cfg.Descriptor
}

// Activate starts emitting, or fails with ErrUnavailable when configured to.
func (s *Synthetic) Activate(ctx context.Context, sink Sink) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.cfg.FailActivate {
		return nil, fmt.Errorf("%s: %w", s.cfg.ID, ErrUnavailable)
	}
	if sink == nil {
		return nil, fmt.Errorf("%s: nil sink: %w", s.cfg.ID, ErrUnavailable)
	}

	h := &syntheticHandle{}
	var count uint64
	h.emitter = startEmitter(s.interval, func() {
		if s.cfg.Jitter > 0 {
			time.Sleep(time.Duration(rand.Int63n(int64(s.cfg.Jitter))))
		}
		sink.OnFrame(s.cfg.Clock())
		count++
		if s.cfg.FaultAfterFrames > 0 && count >= s.cfg.FaultAfterFrames && h.faulted.CompareAndSwap(false, true) {
			sink.Fault(fmt.Errorf("%s after %d frames: %w", s.cfg.ID, count, ErrHookFault))
		}
	})
	return h, nil
}

// Deactivate stops emitting.
func (s *Synthetic) Deactivate(h Handle) error {
	sh, ok := h.(*syntheticHandle)
	if !ok {
		return fmt.Errorf("%s: foreign handle %T", s.cfg.ID, h)
	}
	sh.stop()
	return nil
}

// Healthy is false once the emitter died or UnhealthyAfter has elapsed.
func (s *Synthetic) Healthy(h Handle) bool {
	sh, ok := h.(*syntheticHandle)
	if !ok || !sh.running() {
		return false
	}
	if s.cfg.UnhealthyAfter > 0 && time.Since(sh.started) >= s.cfg.UnhealthyAfter {
		return false
	}
	return true
}
