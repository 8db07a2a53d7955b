package fps

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type recordingRecorder struct {
	ticks []time.Duration
}

func (r *recordingRecorder) RecordFrameTick(ts time.Duration) error {
	r.ticks = append(r.ticks, ts)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSamplerForwardsTimestamps(t *testing.T) {
	rec := &recordingRecorder{}
	s := NewSampler(rec, quietLogger())
	for _, ts := range []time.Duration{10, 20, 30} {
		s.OnFrame(ts)
	}
	if len(rec.ticks) != 3 || rec.ticks[2] != 30 {
		t.Fatalf("unexpected forwarded ticks %v", rec.ticks)
	}
	if s.LastTimestamp() != 30 {
		t.Fatalf("expected last timestamp 30, got %v", s.LastTimestamp())
	}
}

func TestSamplerFeedsCalculator(t *testing.T) {
	c := NewCalculator(DefaultOptions())
	s := NewSampler(c, nil)
	for i := 0; i <= 100; i++ {
		s.OnFrame(time.Duration(i) * 10 * time.Millisecond)
	}
	// Out of order ticks are swallowed by the relay.
	s.OnFrame(0)
	if got := c.Stats().SampleCount; got != 101 {
		t.Fatalf("expected 101 samples, got %d", got)
	}
	if got := c.CurrentFPS(); got < 99 || got > 101 {
		t.Fatalf("expected ~100 fps, got %v", got)
	}
}
