package debug

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danpilch/fpsmon/pkg/profile"
	"github.com/danpilch/fpsmon/pkg/strategy"
	"github.com/prometheus/client_golang/prometheus"
)

func TestTraceLogger(t *testing.T) {
	var buf bytes.Buffer
	tl := NewTraceLogger(&buf)
	tl.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 6e6, time.UTC) }

	tl.Log("selector", "activate", "display-link")
	tl.LogValue("sampler", "timer", 59.5)
	tl.SetEnabled(false)
	tl.Log("selector", "ignored", "")

	want := "[TRACE 03:04:05.006] selector: activate - display-link\n" +
		"[TRACE 03:04:05.006] sampler: source=timer value=59.5000\n"
	if got := buf.String(); got != want {
		t.Errorf("trace output:\n%s\nwant:\n%s", got, want)
	}
}

func TestTimedStrategy(t *testing.T) {
	boom := errors.New("boom")
	slow := &strategy.Func{
		Desc: strategy.Descriptor{ID: "slow"},
		ActivateFunc: func(context.Context, strategy.Sink) (strategy.Handle, error) {
			time.Sleep(5 * time.Millisecond)
			return nil, boom
		},
	}
	wrapped, timed := WrapTimed([]strategy.Strategy{slow})
	if _, err := wrapped[0].Activate(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	tm := timed[0].Timing()
	if tm.ID != "slow" || tm.Duration < 5*time.Millisecond || !errors.Is(tm.Err, boom) {
		t.Errorf("timing = %+v", tm)
	}
	if wrapped[0].Describe().ID != "slow" {
		t.Error("descriptor not forwarded")
	}

	var buf bytes.Buffer
	TimingReport(&buf, []StrategyTiming{tm, {}})
	if out := buf.String(); !strings.Contains(out, "slow") || !strings.Contains(out, "failed") {
		t.Errorf("report:\n%s", out)
	}
}

func TestDumpCandidates(t *testing.T) {
	var buf bytes.Buffer
	DumpCandidates(&buf, []strategy.Descriptor{
		{ID: "display-link", Family: profile.HookDisplayLink, Reliability: strategy.ReliabilityHigh},
		{ID: strategy.TimerID, Family: profile.HookTimer},
	}, strategy.TimerID)
	out := buf.String()
	for _, want := range []string{"Candidate Strategies", "display-link", "high", "timer", "cautious"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestStartServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "fpsmon_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	addr, stop, err := StartServer("127.0.0.1:0", reg)
	if err != nil {
		t.Fatalf("StartServer: %v", err)
	}
	defer stop()

	for path, want := range map[string]string{
		"/metrics":      "fpsmon_test_total 1",
		"/debug/pprof/": "goroutine",
	} {
		resp, err := http.Get("http://" + addr + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), want) {
			t.Errorf("GET %s: status %d, body missing %q", path, resp.StatusCode, want)
		}
	}
}
