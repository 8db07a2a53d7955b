// Package benchmark measures strategy activation cost and calculator
// throughput, to validate the tool's own overhead.
package benchmark

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/fpsmon/pkg/fps"
	"github.com/danpilch/fpsmon/pkg/strategy"
)

// Options configures a benchmark run.
type Options struct {
	Iterations int
	Warmup     int
	// Hold is how long each activation is left running before deactivation.
	Hold    time.Duration
	Timeout time.Duration
}

// DefaultOptions returns sensible benchmark defaults.
func DefaultOptions() Options {
	return Options{
		Iterations: 20,
		Warmup:     3,
		Hold:       10 * time.Millisecond,
		Timeout:    2 * time.Second,
	}
}

// Result holds activation benchmark results for a single strategy.
type Result struct {
	Strategy      string
	Latencies     []time.Duration
	P50           time.Duration
	P95           time.Duration
	P99           time.Duration
	DeactivateP95 time.Duration
	Failures      int
	// Frames is the mean number of frames delivered per activation.
	Frames       float64
	FramesStdDev float64
}

// Throughput holds calculator ingestion results.
type Throughput struct {
	Ticks     int
	Elapsed   time.Duration
	PerTick   time.Duration
	TicksPerS float64
}

// Overhead holds the tool's own resource usage.
type Overhead struct {
	AllocBytes uint64
	AllocCount uint64
	GCPauses   uint32
}

var (
	bmTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bmHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	bmDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type countSink struct{ n atomic.Int64 }

func (c *countSink) OnFrame(time.Duration) { c.n.Add(1) }
func (c *countSink) Fault(error)           {}

// Run activates and deactivates each strategy repeatedly.
func Run(strategies []strategy.Strategy, opts Options) []Result {
	def := DefaultOptions()
	if opts.Iterations <= 0 {
		opts.Iterations = def.Iterations
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}

	var results []Result
	for _, s := range strategies {
		for i := 0; i < opts.Warmup; i++ {
			cycle(s, opts, &countSink{})
		}

		latencies := make([]time.Duration, 0, opts.Iterations)
		deactivations := make([]time.Duration, 0, opts.Iterations)
		var frames []float64
		failures := 0
		for i := 0; i < opts.Iterations; i++ {
			sink := &countSink{}
			act, deact, err := cycle(s, opts, sink)
			if err != nil {
				failures++
				continue
			}
			latencies = append(latencies, act)
			deactivations = append(deactivations, deact)
			frames = append(frames, float64(sink.n.Load()))
		}

		sortDurations(latencies)
		sortDurations(deactivations)
		results = append(results, Result{
			Strategy:      s.Describe().ID,
			Latencies:     latencies,
			P50:           percentile(latencies, 0.50),
			P95:           percentile(latencies, 0.95),
			P99:           percentile(latencies, 0.99),
			DeactivateP95: percentile(deactivations, 0.95),
			Failures:      failures,
			Frames:        mean(frames),
			FramesStdDev:  stddev(frames),
		})
	}
	return results
}

// cycle performs one activate, hold, deactivate round. A panic in either
// call is returned as an error.
func cycle(s strategy.Strategy, opts Options, sink *countSink) (act, deact time.Duration, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", s.Describe().ID, r)
		}
	}()

	start := time.Now()
	h, err := s.Activate(ctx, sink)
	act = time.Since(start)
	if err != nil {
		return act, 0, err
	}
	if opts.Hold > 0 {
		time.Sleep(opts.Hold)
	}
	start = time.Now()
	err = s.Deactivate(h)
	return act, time.Since(start), err
}

// CalculatorThroughput feeds n evenly spaced ticks into a fresh calculator.
func CalculatorThroughput(n int) Throughput {
	if n <= 0 {
		n = 1_000_000
	}
	calc := fps.NewCalculator(fps.DefaultOptions())
	step := time.Second / 120

	start := time.Now()
	for i := 0; i < n; i++ {
		_ = calc.RecordFrameTick(time.Duration(i) * step)
		if i%1024 == 0 {
			_ = calc.CurrentFPS()
		}
	}
	elapsed := time.Since(start)

	t := Throughput{Ticks: n, Elapsed: elapsed, PerTick: elapsed / time.Duration(n)}
	if elapsed > 0 {
		t.TicksPerS = float64(n) / elapsed.Seconds()
	}
	return t
}

// MeasureOverhead returns the tool's memory overhead.
func MeasureOverhead() Overhead {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Overhead{
		AllocBytes: m.TotalAlloc,
		AllocCount: m.Mallocs,
		GCPauses:   m.NumGC,
	}
}

// RenderResults outputs styled benchmark results.
func RenderResults(w io.Writer, results []Result, tp Throughput, overhead Overhead) {
	fmt.Fprintln(w, bmTitle.Render("Self-Benchmark Results"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("═", 86)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s %s %s %s %s %s\n",
		bmHeader.Render("STRATEGY           "),
		bmHeader.Render("P50        "),
		bmHeader.Render("P95        "),
		bmHeader.Render("P99        "),
		bmHeader.Render("STOP P95   "),
		bmHeader.Render("FAILS"),
		bmHeader.Render("FRAMES"))
	fmt.Fprintln(w, "  "+bmDim.Render(strings.Repeat("─", 86)))

	for _, r := range results {
		fmt.Fprintf(w, "  %-20s %-12v %-12v %-12v %-12v %-6d %.1f±%.1f\n",
			r.Strategy, r.P50, r.P95, r.P99, r.DeactivateP95, r.Failures, r.Frames, r.FramesStdDev)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bmTitle.Render("Calculator Throughput"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  Ticks:            %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", tp.Ticks)))
	fmt.Fprintf(w, "  Per tick:         %s\n", lipgloss.NewStyle().Bold(true).Render(tp.PerTick.String()))
	fmt.Fprintf(w, "  Ticks/s:          %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%.0f", tp.TicksPerS)))

	fmt.Fprintln(w)
	fmt.Fprintln(w, bmTitle.Render("Tool Overhead"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  Memory allocated: %s\n", lipgloss.NewStyle().Bold(true).Render(formatBytes(overhead.AllocBytes)))
	fmt.Fprintf(w, "  Allocations:      %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", overhead.AllocCount)))
	fmt.Fprintf(w, "  GC pauses:        %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", overhead.GCPauses)))
}

func sortDurations(d []time.Duration) {
	sort.Slice(d, func(i, j int) bool { return d[i] < d[j] })
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum, sumSq float64
	for _, v := range values {
		sum += v
		sumSq += v * v
	}
	n := float64(len(values))
	m := sum / n
	variance := (sumSq / n) - (m * m)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
