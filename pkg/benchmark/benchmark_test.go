package benchmark

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/danpilch/fpsmon/pkg/strategy"
)

func TestPercentile(t *testing.T) {
	d := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0.50, 5},
		{0.95, 10},
		{0.99, 10},
		{0.01, 1},
	}
	for _, tt := range tests {
		if got := percentile(d, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if percentile(nil, 0.5) != 0 {
		t.Error("empty percentile should be 0")
	}
}

func TestStddev(t *testing.T) {
	if got := stddev([]float64{2, 4, 4, 4, 5, 5, 7, 9}); got != 2 {
		t.Errorf("stddev = %v, want 2", got)
	}
	if stddev([]float64{1}) != 0 {
		t.Error("single value stddev should be 0")
	}
}

func TestRunCountsFailures(t *testing.T) {
	calls := 0
	flaky := &strategy.Func{
		Desc: strategy.Descriptor{ID: "flaky"},
		ActivateFunc: func(context.Context, strategy.Sink) (strategy.Handle, error) {
			calls++
			if calls%2 == 0 {
				return nil, strategy.ErrUnavailable
			}
			return calls, nil
		},
	}
	res := Run([]strategy.Strategy{flaky}, Options{Iterations: 10})
	if len(res) != 1 {
		t.Fatalf("results = %d", len(res))
	}
	if res[0].Strategy != "flaky" || res[0].Failures != 5 || len(res[0].Latencies) != 5 {
		t.Errorf("result = %+v", res[0])
	}
}

func TestRunCountsPanicsAsFailures(t *testing.T) {
	activatePanics := &strategy.Func{
		Desc: strategy.Descriptor{ID: "activate-panics"},
		ActivateFunc: func(context.Context, strategy.Sink) (strategy.Handle, error) {
			panic("hook exploded")
		},
	}
	deactivatePanics := &strategy.Func{
		Desc: strategy.Descriptor{ID: "deactivate-panics"},
		ActivateFunc: func(context.Context, strategy.Sink) (strategy.Handle, error) {
			return 1, nil
		},
		DeactivateFunc: func(strategy.Handle) error {
			panic("release exploded")
		},
	}
	res := Run([]strategy.Strategy{activatePanics, deactivatePanics}, Options{Iterations: 3, Warmup: 1})
	if len(res) != 2 {
		t.Fatalf("results = %d", len(res))
	}
	for _, r := range res {
		if r.Failures != 3 || len(r.Latencies) != 0 {
			t.Errorf("%s: result = %+v", r.Strategy, r)
		}
	}
}

func TestRunSurvivesExtremeTargetFPS(t *testing.T) {
	fast := strategy.NewSynthetic(strategy.SyntheticConfig{TargetFPS: 2e9})
	res := Run([]strategy.Strategy{fast}, Options{Iterations: 1})
	if len(res) != 1 || res[0].Failures != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestRunTimerDeliversFrames(t *testing.T) {
	res := Run([]strategy.Strategy{strategy.NewTimer(1000)}, Options{Iterations: 3, Hold: 30 * time.Millisecond})
	if res[0].Failures != 0 || res[0].Frames < 1 {
		t.Errorf("result = %+v", res[0])
	}
}

func TestCalculatorThroughputAndRender(t *testing.T) {
	tp := CalculatorThroughput(10_000)
	if tp.Ticks != 10_000 || tp.Elapsed <= 0 {
		t.Errorf("throughput = %+v", tp)
	}

	var buf bytes.Buffer
	RenderResults(&buf, []Result{{Strategy: "timer", P50: time.Millisecond}}, tp, MeasureOverhead())
	out := buf.String()
	for _, want := range []string{"Self-Benchmark Results", "timer", "Calculator Throughput", "Tool Overhead"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	if got := formatBytes(512); got != "512 B" {
		t.Errorf("got %q", got)
	}
	if got := formatBytes(3 << 20); got != "3.0 MB" {
		t.Errorf("got %q", got)
	}
}
