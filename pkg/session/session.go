// Package session composes the profile registry, selector and calculator into
// a single monitoring session for one application.
package session

import (
	"sync"
	"time"

	"github.com/danpilch/fpsmon/pkg/fps"
	"github.com/danpilch/fpsmon/pkg/profile"
	"github.com/danpilch/fpsmon/pkg/selector"
	"github.com/danpilch/fpsmon/pkg/strategy"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Options configures a Session.
type Options struct {
	AppID    string
	Stealth  strategy.StealthLevel
	FPS      fps.Options
	Selector selector.Options
}

// Session monitors the frame rate of one application.
type Session struct {
	id         string
	opts       Options
	registry   *profile.Registry
	strategies []strategy.Strategy
	logger     *logrus.Logger

	calc    *fps.Calculator
	sampler *fps.Sampler
	sel     *selector.Selector

	mu        sync.Mutex
	prof      profile.Profile
	startedAt time.Time
	stoppedAt time.Time
}

// New creates a session. A nil registry uses the built-in rules.
func New(opts Options, registry *profile.Registry, strategies []strategy.Strategy, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	if registry == nil {
		registry = profile.NewRegistry()
	}
	calc := fps.NewCalculator(opts.FPS)
	sampler := fps.NewSampler(calc, logger)
	return &Session{
		id:         uuid.NewString(),
		opts:       opts,
		registry:   registry,
		strategies: strategies,
		logger:     logger,
		calc:       calc,
		sampler:    sampler,
		sel:        selector.New(sampler, logger, opts.Selector),
		prof:       profile.Unknown(),
	}
}

// Start classifies the application and activates the best permitted frame
// source. An error wrapping selector.ErrExhausted means no source could be
// started; CurrentFPS keeps returning the last value in that case.
func (s *Session) Start() error {
	p := s.registry.Classify(s.opts.AppID)
	log := s.logger.WithFields(logrus.Fields{
		"session": s.id,
		"app_id":  s.opts.AppID,
		"engine":  p.Engine.String(),
	})

	if err := s.sel.Initialize(p, s.opts.Stealth, s.strategies); err != nil {
		return err
	}
	s.mu.Lock()
	s.prof = p
	s.startedAt = time.Now()
	s.mu.Unlock()
	log.WithField("candidates", len(s.sel.Candidates())).Info("starting monitoring session")
	if err := s.sel.Start(); err != nil {
		log.WithError(err).Error("monitoring session failed to start")
		return err
	}
	return nil
}

// Stop releases the active frame source. It is idempotent.
func (s *Session) Stop() error {
	err := s.sel.Stop()
	s.mu.Lock()
	if s.stoppedAt.IsZero() {
		s.stoppedAt = time.Now()
	}
	s.mu.Unlock()
	return err
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// AppID returns the monitored application identifier.
func (s *Session) AppID() string { return s.opts.AppID }

// CurrentFPS returns the frame rate in the current mode.
func (s *Session) CurrentFPS() float64 { return s.calc.CurrentFPS() }

// LastInterval returns the most recent frame interval.
func (s *Session) LastInterval() time.Duration { return s.calc.LastInterval() }

// Stats returns the calculator snapshot.
func (s *Session) Stats() fps.Stats { return s.calc.Stats() }

// SetMode switches the reported metric; samples are kept.
func (s *Session) SetMode(m fps.Mode) { s.calc.SetMode(m) }

// UpdatePowerMode widens or restores the measurement windows.
func (s *Session) UpdatePowerMode(lowPower bool) { s.calc.UpdatePowerMode(lowPower) }

// Reset zeroes both metrics.
func (s *Session) Reset() { s.calc.Reset() }

// State returns the selector state.
func (s *Session) State() selector.State { return s.sel.State() }

// Status returns the selector status.
func (s *Session) Status() selector.Status { return s.sel.Status() }

// Candidates returns the ordered candidate descriptors.
func (s *Session) Candidates() []strategy.Descriptor { return s.sel.Candidates() }

// AddListener forwards to the selector.
func (s *Session) AddListener(l selector.Listener) { s.sel.AddListener(l) }

// Profile returns the classification used by the last Start, or the default
// profile before Start.
func (s *Session) Profile() profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prof
}

// Uptime is the time since Start, frozen at Stop.
func (s *Session) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.startedAt.IsZero():
		return 0
	case !s.stoppedAt.IsZero():
		return s.stoppedAt.Sub(s.startedAt)
	default:
		return time.Since(s.startedAt)
	}
}
