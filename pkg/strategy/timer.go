package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/danpilch/fpsmon/pkg/profile"
)

// TimerID is the identifier of the last-resort timer strategy.
const TimerID = "timer"

// Timer is the last-resort strategy: a plain ticker at the profile's sampling
// rate. It needs no privileges and never touches the render pipeline, so its
// readings approximate the sampling rate rather than true frame delivery.
type Timer struct {
	interval time.Duration
	clock    Clock
}

// NewTimer creates a timer strategy ticking at rateHz.
func NewTimer(rateHz float64) *Timer {
	return NewTimerWithClock(rateHz, Monotonic)
}

// NewTimerWithClock is NewTimer with an injectable clock.
func NewTimerWithClock(rateHz float64, clock Clock) *Timer {
	p := profile.Profile{SampleRateHz: rateHz}
	if clock == nil {
		clock = Monotonic
	}
	return &Timer{
		interval: p.FrameInterval(),
		clock:    clock,
	}
}

// Describe returns the timer descriptor.
func (t *Timer) Describe() Descriptor {
	return Descriptor{
		ID:          TimerID,
		Family:      profile.HookTimer,
		StealthNeed: StealthCautious,
		Reliability: ReliabilityLowest,
	}
}

// Activate starts the ticker.
func (t *Timer) Activate(ctx context.Context, sink Sink) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("timer: nil sink: %w", ErrUnavailable)
	}
	return startEmitter(t.interval, func() { sink.OnFrame(t.clock()) }), nil
}

// Deactivate stops the ticker.
func (t *Timer) Deactivate(h Handle) error {
	e, ok := h.(*emitter)
	if !ok {
		return fmt.Errorf("timer: foreign handle %T", h)
	}
	e.stop()
	return nil
}

// Healthy reports whether the ticker goroutine is still running.
func (t *Timer) Healthy(h Handle) bool {
	e, ok := h.(*emitter)
	return ok && e.running()
}
