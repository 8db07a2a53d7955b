package fps

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Recorder consumes frame timestamps.
type Recorder interface {
	RecordFrameTick(ts time.Duration) error
}

// Sampler relays frame-boundary events from whichever strategy is active to a
// Recorder. It keeps only the last timestamp it saw.
type Sampler struct {
	rec    Recorder
	logger *logrus.Logger
	last   atomic.Int64
}

// NewSampler creates a sampler forwarding to rec.
func NewSampler(rec Recorder, logger *logrus.Logger) *Sampler {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Sampler{
		rec:    rec,
		logger: logger,
	}
}

// OnFrame forwards one frame boundary.
func (s *Sampler) OnFrame(ts time.Duration) {
	s.last.Store(int64(ts))

	err := s.rec.RecordFrameTick(ts)
	switch {
	case err == nil:
	case errors.Is(err, ErrNonMonotonicSample):
		s.logger.WithField("timestamp", ts).Debug("Discarded non-monotonic frame")
	case errors.Is(err, ErrStallGap):
		s.logger.WithField("timestamp", ts).Debug("Frame stall, window restarted")
	default:
		s.logger.WithError(err).Warn("Frame record failed")
	}
}

// LastTimestamp returns the timestamp of the last forwarded frame.
func (s *Sampler) LastTimestamp() time.Duration {
	return time.Duration(s.last.Load())
}
