package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danpilch/fpsmon/pkg/fps"
	"github.com/danpilch/fpsmon/pkg/selector"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	mu        sync.Mutex
	id        string
	stats     fps.Stats
	status    selector.Status
	listeners []selector.Listener
}

func (f *fakeSource) ID() string    { return f.id }
func (f *fakeSource) AppID() string { return "com.tencent.ig" }

func (f *fakeSource) Stats() fps.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *fakeSource) CurrentFPS() float64 { return f.Stats().AverageFPS }

func (f *fakeSource) Status() selector.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSource) AddListener(l selector.Listener) {
	f.mu.Lock()
	f.listeners = append(f.listeners, l)
	f.mu.Unlock()
}

func (f *fakeSource) transition(next selector.State) {
	f.mu.Lock()
	prev := f.status.State
	f.status.State = next
	ls := append([]selector.Listener(nil), f.listeners...)
	f.mu.Unlock()
	for _, l := range ls {
		l(prev, next)
	}
}

func TestExporterGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	src := &fakeSource{
		id:     "s1",
		stats:  fps.Stats{AverageFPS: 59.5, PerSecondFPS: 60, SampleCount: 120, Stalls: 1},
		status: selector.Status{State: selector.StateActive, Attempts: 3, Fallbacks: 1, ActivationFailures: 2},
	}
	e, err := NewExporter(src, reg)
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}

	if got := testutil.ToFloat64(e.collectors[0]); got != 59.5 {
		t.Errorf("current_fps = %v", got)
	}
	if got := testutil.ToFloat64(e.state.WithLabelValues("s1", "active")); got != 1 {
		t.Errorf("active state gauge = %v", got)
	}

	expected := `
# HELP fpsmon_strategy_fallbacks_total Runtime fallbacks after a strategy became unhealthy
# TYPE fpsmon_strategy_fallbacks_total counter
fpsmon_strategy_fallbacks_total{app="com.tencent.ig",session="s1"} 1
# HELP fpsmon_strategy_activation_failures_total Strategy activations that failed
# TYPE fpsmon_strategy_activation_failures_total counter
fpsmon_strategy_activation_failures_total{app="com.tencent.ig",session="s1"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"fpsmon_strategy_fallbacks_total", "fpsmon_strategy_activation_failures_total"); err != nil {
		t.Error(err)
	}
}

func TestExporterTracksTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	src := &fakeSource{id: "s2", status: selector.Status{State: selector.StateActive}}
	e, err := NewExporter(src, reg)
	if err != nil {
		t.Fatal(err)
	}

	src.transition(selector.StateDegraded)
	src.transition(selector.StateActive)
	src.transition(selector.StateDegraded)

	if got := testutil.ToFloat64(e.transitions.WithLabelValues("s2", "active", "degraded")); got != 2 {
		t.Errorf("active->degraded = %v, want 2", got)
	}
	if got := testutil.ToFloat64(e.state.WithLabelValues("s2", "degraded")); got != 1 {
		t.Errorf("degraded gauge = %v", got)
	}
	if got := testutil.ToFloat64(e.state.WithLabelValues("s2", "active")); got != 0 {
		t.Errorf("active gauge = %v", got)
	}
}

func TestExporterSharesVectorsAcrossSessions(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewExporter(&fakeSource{id: "a"}, reg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewExporter(&fakeSource{id: "b"}, reg)
	if err != nil {
		t.Fatalf("second exporter: %v", err)
	}
	if a.state != b.state || a.transitions != b.transitions {
		t.Error("expected shared vectors")
	}

	a.ObserveInterval(16 * time.Millisecond)
	b.ObserveInterval(0)
	if n := testutil.CollectAndCount(a.frameInterval); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}

	a.Unregister(reg)
	if n := testutil.CollectAndCount(b.state); n != len(allStates) {
		t.Errorf("state series after unregister = %d, want %d", n, len(allStates))
	}
}

func TestExporterCountersUseLifetimeTotals(t *testing.T) {
	reg := prometheus.NewRegistry()
	calc := fps.NewCalculator(fps.Options{})
	src := &fakeSource{id: "s4", status: selector.Status{State: selector.StateActive}}
	if _, err := NewExporter(src, reg); err != nil {
		t.Fatal(err)
	}
	frames := func() float64 {
		t.Helper()
		mfs, err := reg.Gather()
		if err != nil {
			t.Fatal(err)
		}
		for _, mf := range mfs {
			if mf.GetName() == "fpsmon_frames_total" {
				return mf.GetMetric()[0].GetCounter().GetValue()
			}
		}
		t.Fatal("fpsmon_frames_total not gathered")
		return 0
	}
	publish := func() {
		src.mu.Lock()
		src.stats = calc.Stats()
		src.mu.Unlock()
	}

	for i := 0; i < 10; i++ {
		_ = calc.RecordFrameTick(time.Duration(i) * 10 * time.Millisecond)
	}
	publish()
	before := frames()

	calc.Reset()
	_ = calc.RecordFrameTick(time.Second)
	publish()
	if after := frames(); after < before {
		t.Errorf("frames_total went backwards after reset: %v -> %v", before, after)
	}
	if got := frames(); got != 11 {
		t.Errorf("frames_total = %v, want 11", got)
	}
}

func TestExporterStateFollowsSourceWhenDeliveredLate(t *testing.T) {
	reg := prometheus.NewRegistry()
	src := &fakeSource{id: "s5", status: selector.Status{State: selector.StateActive}}
	e, err := NewExporter(src, reg)
	if err != nil {
		t.Fatal(err)
	}

	// Stop's notification lands before the monitor's earlier one.
	src.mu.Lock()
	src.status.State = selector.StateStopped
	ls := append([]selector.Listener(nil), src.listeners...)
	src.mu.Unlock()
	for _, l := range ls {
		l(selector.StateDegraded, selector.StateStopped)
	}
	for _, l := range ls {
		l(selector.StateActive, selector.StateDegraded)
	}

	if got := testutil.ToFloat64(e.state.WithLabelValues("s5", "stopped")); got != 1 {
		t.Errorf("stopped gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.state.WithLabelValues("s5", "degraded")); got != 0 {
		t.Errorf("degraded gauge = %v, want 0", got)
	}
}
