// Package selector chooses, activates and supervises the frame source used
// for a monitored application, falling back through an ordered candidate list
// when a strategy cannot start or stops producing usable data.
package selector

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danpilch/fpsmon/pkg/profile"
	"github.com/danpilch/fpsmon/pkg/strategy"
	"github.com/sirupsen/logrus"
)

const (
	DefaultActivateTimeout   = 2 * time.Second
	DefaultDeactivateTimeout = 2 * time.Second
)

// FrameSink receives frames from whichever strategy is active.
type FrameSink interface {
	OnFrame(ts time.Duration)
}

// Tracer receives step-by-step selector events. debug.TraceLogger satisfies it.
type Tracer interface {
	Log(component, step, detail string)
}

// Options tunes a Selector. Zero values select the defaults.
type Options struct {
	ActivateTimeout   time.Duration
	DeactivateTimeout time.Duration
	// HealthInterval overrides the profile-derived health check period.
	HealthInterval time.Duration
	// LastResort replaces the timer strategy appended after all candidates.
	LastResort strategy.Strategy
	Tracer     Tracer
}

// Status is a point-in-time snapshot of the selector.
type Status struct {
	State              State
	ActiveID           string
	Attempts           int
	Fallbacks          int
	ActivationFailures int
	LastError          error
}

type transition struct {
	prev, next State
}

type faultRecord struct {
	gen uint64
	err error
}

// Selector owns the lifecycle of at most one active strategy.
type Selector struct {
	sink   FrameSink
	logger *logrus.Logger
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	initialized bool
	prof        profile.Profile
	candidates  []strategy.Strategy
	next        int
	active      strategy.Strategy
	handle      strategy.Handle
	activeGen   uint64
	genSeq      uint64
	attempts    int
	fallbacks   int
	failures    int
	lastErr     error
	listeners   []Listener
	pending     []transition

	// gateGen is the generation allowed to forward frames; 0 means closed.
	gateMu  sync.RWMutex
	gateGen uint64

	fault    atomic.Pointer[faultRecord]
	nudge    chan struct{}
	done     chan struct{}
	doneOnce sync.Once
}

// New creates an idle selector forwarding frames into sink.
func New(sink FrameSink, logger *logrus.Logger, opts Options) *Selector {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	if opts.ActivateTimeout <= 0 {
		opts.ActivateTimeout = DefaultActivateTimeout
	}
	if opts.DeactivateTimeout <= 0 {
		opts.DeactivateTimeout = DefaultDeactivateTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Selector{
		sink:   sink,
		logger: logger,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		state:  StateIdle,
		nudge:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// AddListener registers a callback for state transitions.
func (s *Selector) AddListener(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Initialize builds the ordered candidate list for a profile and stealth
// level. The last-resort strategy is always appended.
func (s *Selector) Initialize(p profile.Profile, stealth strategy.StealthLevel, candidates []strategy.Strategy) error {
	if !stealth.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStealth, int(stealth))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return fmt.Errorf("initialize in state %s: %w", s.state, ErrNotIdle)
	}

	ordered := Order(candidates, stealth, p.PreferredHook)
	last := s.opts.LastResort
	if last == nil {
		last = strategy.NewTimer(p.SampleRateHz)
	}
	s.candidates = append(ordered, last)
	s.prof = p
	s.next = 0
	s.initialized = true

	s.logger.WithFields(logrus.Fields{
		"profile":    p.Name,
		"stealth":    stealth.String(),
		"candidates": len(s.candidates),
		"filtered":   len(candidates) - len(ordered),
	}).Debug("selector initialized")
	return nil
}

// Start activates candidates in order until one succeeds. It returns an error
// wrapping ErrExhausted when none does, leaving the selector Failed.
func (s *Selector) Start() error {
	s.mu.Lock()
	if !s.initialized || s.state != StateIdle {
		st := s.state
		s.mu.Unlock()
		if st == StateIdle {
			return fmt.Errorf("start before initialize: %w", ErrNotIdle)
		}
		return fmt.Errorf("start in state %s: %w", st, ErrNotIdle)
	}
	s.setState(StateProbing)
	interval := s.opts.HealthInterval
	if interval <= 0 {
		interval = s.prof.HealthInterval()
	}
	s.unlockAndNotify()

	if err := s.probe(); err != nil {
		return err
	}
	go s.monitor(interval)
	return nil
}

// Stop deactivates the active strategy and moves to Stopped. It is safe to
// call from any state and more than once. No frame is forwarded after it
// returns.
func (s *Selector) Stop() error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	cand, h := s.active, s.handle
	s.active, s.handle = nil, nil
	s.closeGate()
	s.setState(StateStopped)
	s.doneOnce.Do(func() {
		close(s.done)
		s.cancel()
	})
	s.unlockAndNotify()

	if cand == nil {
		return nil
	}
	return s.deactivate(cand, h)
}

// State returns the current state.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a snapshot of the selector.
func (s *Selector) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:              s.state,
		Attempts:           s.attempts,
		Fallbacks:          s.fallbacks,
		ActivationFailures: s.failures,
		LastError:          s.lastErr,
	}
	if s.active != nil {
		st.ActiveID = s.active.Describe().ID
	}
	return st
}

// Candidates returns the descriptors of the ordered candidate list.
func (s *Selector) Candidates() []strategy.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]strategy.Descriptor, len(s.candidates))
	for i, c := range s.candidates {
		out[i] = c.Describe()
	}
	return out
}

// probe activates candidates from the current position onwards. It returns
// nil once one is active or the selector was stopped meanwhile.
func (s *Selector) probe() error {
	for {
		s.mu.Lock()
		if s.state == StateStopped {
			s.unlockAndNotify()
			return nil
		}
		if s.next >= len(s.candidates) {
			err := fmt.Errorf("%w after %d attempts: last error: %v", ErrExhausted, s.attempts, s.lastErr)
			s.lastErr = err
			s.setState(StateFailed)
			s.unlockAndNotify()
			s.logger.WithError(err).Error("no usable frame source")
			s.trace("exhausted", err.Error())
			return err
		}
		cand := s.candidates[s.next]
		s.next++
		s.attempts++
		s.genSeq++
		gen := s.genSeq
		s.mu.Unlock()

		id := cand.Describe().ID
		s.logger.WithField("strategy", id).Debug("activating candidate")
		s.trace("activate", id)

		h, err := s.activate(cand, gen)
		if err != nil {
			s.mu.Lock()
			s.failures++
			s.lastErr = err
			s.mu.Unlock()
			s.logger.WithField("strategy", id).WithError(err).Warn("candidate failed to activate")
			s.trace("activate-failed", err.Error())
			continue
		}

		s.mu.Lock()
		if s.state == StateStopped {
			s.mu.Unlock()
			_ = s.deactivate(cand, h)
			return nil
		}
		s.active, s.handle, s.activeGen = cand, h, gen
		s.openGate(gen)
		s.setState(StateActive)
		s.unlockAndNotify()
		s.trace("active", id)
		// Faults raised during Activate were ignored by the monitor.
		if f := s.fault.Load(); f != nil && f.gen == gen {
			s.poke()
		}
		return nil
	}
}

type activation struct {
	h   strategy.Handle
	err error
}

// activate runs Activate with a deadline and converts panics into errors.
// A strategy that returns after the deadline is deactivated in the background.
func (s *Selector) activate(cand strategy.Strategy, gen uint64) (strategy.Handle, error) {
	id := cand.Describe().ID
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.ActivateTimeout)
	defer cancel()

	ch := make(chan activation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.WithFields(logrus.Fields{"strategy": id, "panic": r}).Error("recovered panic in activate")
				ch <- activation{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		h, err := cand.Activate(ctx, gatedSink{s: s, gen: gen})
		ch <- activation{h: h, err: err}
	}()

	select {
	case a := <-ch:
		if a.err != nil {
			return nil, fmt.Errorf("%s: %w: %w", id, ErrActivationFailed, a.err)
		}
		return a.h, nil
	case <-ctx.Done():
		go func() {
			if a := <-ch; a.err == nil {
				_ = s.deactivate(cand, a.h)
			}
		}()
		return nil, fmt.Errorf("%s: %w: %w", id, ErrActivationFailed, ctx.Err())
	}
}

// deactivate runs Deactivate with a deadline and converts panics into errors.
func (s *Selector) deactivate(cand strategy.Strategy, h strategy.Handle) error {
	id := cand.Describe().ID
	ch := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.WithFields(logrus.Fields{"strategy": id, "panic": r}).Error("recovered panic in deactivate")
				ch <- fmt.Errorf("%s: deactivate panic: %v", id, r)
			}
		}()
		ch <- cand.Deactivate(h)
	}()

	timer := time.NewTimer(s.opts.DeactivateTimeout)
	defer timer.Stop()
	select {
	case err := <-ch:
		if err != nil {
			s.logger.WithField("strategy", id).WithError(err).Warn("deactivate failed")
			return fmt.Errorf("%s: deactivate: %w", id, err)
		}
		s.trace("deactivated", id)
		return nil
	case <-timer.C:
		err := fmt.Errorf("%s: deactivate timed out after %v", id, s.opts.DeactivateTimeout)
		s.logger.WithError(err).Error("deactivate did not return")
		return err
	}
}

func (s *Selector) healthy(cand strategy.Strategy, h strategy.Handle) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logrus.Fields{"strategy": cand.Describe().ID, "panic": r}).Error("recovered panic in health check")
			ok = false
		}
	}()
	return cand.Healthy(h)
}

// monitor is the only goroutine that swaps strategies after Start.
func (s *Selector) monitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		case <-s.nudge:
		}
		if !s.checkHealth() {
			return
		}
	}
}

// checkHealth falls back when the active strategy faulted or reports
// unhealthy. It returns false once there is nothing left to supervise.
func (s *Selector) checkHealth() bool {
	s.mu.Lock()
	if s.state != StateActive {
		st := s.state
		s.mu.Unlock()
		return st != StateFailed && st != StateStopped
	}
	cand, h, gen := s.active, s.handle, s.activeGen
	s.mu.Unlock()

	id := cand.Describe().ID
	var reason error
	if f := s.fault.Load(); f != nil && f.gen == gen {
		reason = fmt.Errorf("%s: %w: %w", id, ErrUnhealthy, f.err)
	} else if !s.healthy(cand, h) {
		reason = fmt.Errorf("%s: %w", id, ErrUnhealthy)
	}
	if reason == nil {
		return true
	}
	return s.fallback(gen, reason)
}

func (s *Selector) fallback(gen uint64, reason error) bool {
	s.mu.Lock()
	if s.state != StateActive || s.activeGen != gen {
		s.mu.Unlock()
		return true
	}
	cand, h := s.active, s.handle
	s.active, s.handle = nil, nil
	s.closeGate()
	s.fallbacks++
	s.lastErr = reason
	s.setState(StateDegraded)
	s.unlockAndNotify()

	s.logger.WithError(reason).Warn("active strategy unhealthy, falling back")
	s.trace("fallback", reason.Error())
	_ = s.deactivate(cand, h)
	return s.probe() == nil
}

func (s *Selector) recordFault(gen uint64, err error) {
	rec := &faultRecord{gen: gen, err: err}
	for {
		cur := s.fault.Load()
		if cur != nil && cur.gen > gen {
			return
		}
		if s.fault.CompareAndSwap(cur, rec) {
			break
		}
	}
	s.poke()
}

func (s *Selector) poke() {
	select {
	case s.nudge <- struct{}{}:
	default:
	}
}

func (s *Selector) openGate(gen uint64) {
	s.gateMu.Lock()
	s.gateGen = gen
	s.gateMu.Unlock()
}

func (s *Selector) closeGate() {
	s.gateMu.Lock()
	s.gateGen = 0
	s.gateMu.Unlock()
}

// setState must be called with s.mu held.
func (s *Selector) setState(next State) {
	prev := s.state
	if prev == next {
		return
	}
	s.state = next
	s.pending = append(s.pending, transition{prev: prev, next: next})
	s.logger.WithFields(logrus.Fields{"from": prev.String(), "to": next.String()}).Info("selector state transition")
	s.trace("transition", prev.String()+" -> "+next.String())
}

// unlockAndNotify releases s.mu and then delivers pending transitions.
func (s *Selector) unlockAndNotify() {
	pending := s.pending
	s.pending = nil
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()
	for _, t := range pending {
		for _, l := range listeners {
			l(t.prev, t.next)
		}
	}
}

func (s *Selector) trace(step, detail string) {
	if s.opts.Tracer != nil {
		s.opts.Tracer.Log("selector", step, detail)
	}
}

// gatedSink tags a strategy's output with its activation generation so that
// frames from anything but the current activation are dropped.
type gatedSink struct {
	s   *Selector
	gen uint64
}

func (g gatedSink) OnFrame(ts time.Duration) {
	g.s.gateMu.RLock()
	defer g.s.gateMu.RUnlock()
	if g.s.gateGen == g.gen && g.s.sink != nil {
		g.s.sink.OnFrame(ts)
	}
}

func (g gatedSink) Fault(err error) {
	g.s.recordFault(g.gen, err)
}
