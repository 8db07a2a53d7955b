package debug

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/fpsmon/pkg/strategy"
)

var (
	debugTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	debugHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	debugDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// StrategyTiming records how long a strategy's last activation took.
type StrategyTiming struct {
	ID       string
	Duration time.Duration
	Err      error
}

// TimedStrategy wraps a strategy to record activation latency.
type TimedStrategy struct {
	strategy.Strategy

	mu     sync.Mutex
	timing StrategyTiming
}

// NewTimedStrategy wraps a strategy with timing instrumentation.
func NewTimedStrategy(s strategy.Strategy) *TimedStrategy {
	return &TimedStrategy{Strategy: s}
}

// Activate runs the wrapped activation and records its duration.
func (t *TimedStrategy) Activate(ctx context.Context, sink strategy.Sink) (strategy.Handle, error) {
	start := time.Now()
	h, err := t.Strategy.Activate(ctx, sink)
	t.mu.Lock()
	t.timing = StrategyTiming{
		ID:       t.Describe().ID,
		Duration: time.Since(start),
		Err:      err,
	}
	t.mu.Unlock()
	return h, err
}

// Timing returns the last recorded activation timing.
func (t *TimedStrategy) Timing() StrategyTiming {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timing
}

// WrapTimed wraps every strategy, returning the wrappers both as strategies
// for the selector and as TimedStrategy values for reporting.
func WrapTimed(ss []strategy.Strategy) ([]strategy.Strategy, []*TimedStrategy) {
	out := make([]strategy.Strategy, len(ss))
	timed := make([]*TimedStrategy, len(ss))
	for i, s := range ss {
		timed[i] = NewTimedStrategy(s)
		out[i] = timed[i]
	}
	return out, timed
}

// TimingReport prints a styled activation timing summary. Strategies that were
// never activated are skipped.
func TimingReport(w io.Writer, timings []StrategyTiming) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Activation Timing Report"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 50)))
	fmt.Fprintf(w, "  %s  %s  %s\n",
		debugHeader.Render("STRATEGY          "),
		debugHeader.Render("DURATION    "),
		debugHeader.Render("RESULT"))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 50)))

	var total time.Duration
	for _, t := range timings {
		if t.ID == "" {
			continue
		}
		result := "ok"
		if t.Err != nil {
			result = "failed"
		}
		fmt.Fprintf(w, "  %-20s %-14v %s\n", t.ID, t.Duration, result)
		total += t.Duration
	}
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 50)))
	fmt.Fprintf(w, "  %-20s %v\n",
		lipgloss.NewStyle().Bold(true).Render("TOTAL"), total)
}
