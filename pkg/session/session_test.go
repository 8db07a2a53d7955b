package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/danpilch/fpsmon/pkg/fps"
	"github.com/danpilch/fpsmon/pkg/profile"
	"github.com/danpilch/fpsmon/pkg/selector"
	"github.com/danpilch/fpsmon/pkg/strategy"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// manualStrategy hands its sink to the test so frames can be fed with exact
// timestamps.
type manualStrategy struct {
	desc    strategy.Descriptor
	healthy func() bool

	mu   sync.Mutex
	sink strategy.Sink
}

func (m *manualStrategy) Describe() strategy.Descriptor { return m.desc }

func (m *manualStrategy) Activate(_ context.Context, sink strategy.Sink) (strategy.Handle, error) {
	m.mu.Lock()
	m.sink = sink
	m.mu.Unlock()
	return m, nil
}

func (m *manualStrategy) Deactivate(strategy.Handle) error { return nil }

func (m *manualStrategy) Healthy(strategy.Handle) bool {
	if m.healthy == nil {
		return true
	}
	return m.healthy()
}

func (m *manualStrategy) feed(n int, interval time.Duration) {
	m.mu.Lock()
	sink := m.sink
	m.mu.Unlock()
	for i := 0; i < n; i++ {
		sink.OnFrame(time.Duration(i) * interval)
	}
}

func failing(id string) *strategy.Func {
	return &strategy.Func{
		Desc: strategy.Descriptor{ID: id},
		ActivateFunc: func(context.Context, strategy.Sink) (strategy.Handle, error) {
			return nil, strategy.ErrUnavailable
		},
	}
}

func waitForState(t *testing.T, s *Session, want selector.State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", s.State(), want)
}

func TestSessionMeasuresFrames(t *testing.T) {
	m := &manualStrategy{desc: strategy.Descriptor{ID: "manual", Reliability: strategy.ReliabilityHigh}}
	s := New(Options{AppID: "com.tencent.ig"}, nil, []strategy.Strategy{m}, quietLogger())
	if s.CurrentFPS() != 0 {
		t.Fatal("expected 0 before start")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if s.Profile().Engine != profile.EngineTargetGame {
		t.Errorf("profile = %+v", s.Profile())
	}
	m.feed(61, time.Second/60)
	if got := s.CurrentFPS(); math.Abs(got-60) > 0.5 {
		t.Errorf("CurrentFPS = %.3f, want ~60", got)
	}
	if got := s.LastInterval(); got != time.Second/60 {
		t.Errorf("LastInterval = %v", got)
	}

	s.Reset()
	if s.CurrentFPS() != 0 {
		t.Error("Reset should zero the metric")
	}
}

func TestSessionExhaustedStartKeepsZero(t *testing.T) {
	s := New(Options{
		AppID:    "com.unknown.app",
		Selector: selector.Options{LastResort: failing("last")},
	}, nil, []strategy.Strategy{failing("a")}, quietLogger())

	err := s.Start()
	if !errors.Is(err, selector.ErrExhausted) {
		t.Fatalf("Start err = %v, want ErrExhausted", err)
	}
	if s.State() != selector.StateFailed {
		t.Errorf("state = %s", s.State())
	}
	if s.CurrentFPS() != 0 {
		t.Errorf("CurrentFPS = %v, want 0", s.CurrentFPS())
	}
	if s.Profile() != profile.Unknown() {
		t.Errorf("profile = %+v, want default", s.Profile())
	}
}

func TestSessionFailedRetainsLastValue(t *testing.T) {
	var mu sync.Mutex
	healthy := true
	m := &manualStrategy{
		desc: strategy.Descriptor{ID: "manual"},
		healthy: func() bool {
			mu.Lock()
			defer mu.Unlock()
			return healthy
		},
	}
	s := New(Options{
		AppID: "com.unity3d.demo",
		Selector: selector.Options{
			HealthInterval: 10 * time.Millisecond,
			LastResort:     failing("last"),
		},
	}, nil, []strategy.Strategy{m}, quietLogger())
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	m.feed(61, time.Second/60)
	before := s.CurrentFPS()

	mu.Lock()
	healthy = false
	mu.Unlock()
	waitForState(t, s, selector.StateFailed, 2*time.Second)

	if got := s.CurrentFPS(); got != before || got == 0 {
		t.Errorf("CurrentFPS after failure = %v, want %v", got, before)
	}
}

func TestSessionModeAndPower(t *testing.T) {
	m := &manualStrategy{desc: strategy.Descriptor{ID: "manual"}}
	s := New(Options{FPS: fps.Options{Mode: fps.ModePerSecond}}, nil, []strategy.Strategy{m}, quietLogger())
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	m.feed(62, time.Second/60)
	if got := s.CurrentFPS(); math.Abs(got-60) > 0.5 {
		t.Errorf("per-second FPS = %.3f", got)
	}
	s.SetMode(fps.ModeAverage)
	if got := s.CurrentFPS(); math.Abs(got-60) > 0.5 {
		t.Errorf("average FPS = %.3f", got)
	}
	s.UpdatePowerMode(true)
	if st := s.Stats(); !st.LowPower || st.UpdateInterval != 2*time.Second {
		t.Errorf("stats = %+v", st)
	}
}

func TestSessionStopIsIdempotent(t *testing.T) {
	s := New(Options{}, nil, nil, quietLogger())
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if s.Status().ActiveID != strategy.TimerID {
		t.Errorf("active = %q, want timer", s.Status().ActiveID)
	}
	for i := 0; i < 2; i++ {
		if err := s.Stop(); err != nil {
			t.Fatalf("Stop #%d: %v", i, err)
		}
	}
	if s.State() != selector.StateStopped {
		t.Errorf("state = %s", s.State())
	}
	up := s.Uptime()
	time.Sleep(10 * time.Millisecond)
	if s.Uptime() != up {
		t.Error("uptime should freeze after Stop")
	}
}

func TestSessionRepeatStartKeepsUptime(t *testing.T) {
	s := New(Options{AppID: "com.tencent.ig"}, nil, nil, quietLogger())
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	time.Sleep(20 * time.Millisecond)

	if err := s.Start(); !errors.Is(err, selector.ErrNotIdle) {
		t.Fatalf("second Start = %v, want ErrNotIdle", err)
	}
	if up := s.Uptime(); up < 20*time.Millisecond {
		t.Errorf("uptime reset by rejected Start: %v", up)
	}
	if s.Profile().Engine != profile.EngineTargetGame {
		t.Errorf("profile = %+v", s.Profile())
	}
}

func TestSessionReport(t *testing.T) {
	m := &manualStrategy{desc: strategy.Descriptor{ID: "manual", Reliability: strategy.ReliabilityHigh}}
	s := New(Options{AppID: "com.epicgames.fortnite", Stealth: strategy.StealthBalanced}, nil,
		[]strategy.Strategy{failing("broken"), m}, quietLogger())
	if _, err := uuid.Parse(s.ID()); err != nil {
		t.Errorf("session ID %q is not a UUID: %v", s.ID(), err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	m.feed(31, time.Second/30)

	r := s.Report()
	if r.ActiveStrategy != "manual" || r.State != "active" || r.Stealth != "balanced" {
		t.Errorf("report = %+v", r)
	}
	if r.Profile.Engine != profile.EngineUnreal || r.SampleCount != 31 {
		t.Errorf("report = %+v", r)
	}
	if math.Abs(r.CurrentFPS-30) > 0.5 || r.CurrentFPS != r.AverageFPS {
		t.Errorf("current = %v average = %v", r.CurrentFPS, r.AverageFPS)
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back["session_id"] != s.ID() {
		t.Errorf("session_id = %v", back["session_id"])
	}
}
