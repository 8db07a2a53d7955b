package baseline

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/fpsmon/pkg/session"
)

// Severity indicates the magnitude of a metric drift.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeverityRegress  Severity = "regression"
)

// Metric names compared between runs.
const (
	MetricAverageFPS   = "average_fps"
	MetricPerSecondFPS = "per_second_fps"
	MetricFrameMillis  = "frame_ms"
	MetricFallbacks    = "fallbacks"
)

type metric struct {
	name string
	// higherIsWorse marks metrics where an increase is a regression.
	higherIsWorse bool
	value         func(session.Report) float64
}

var metrics = []metric{
	{MetricAverageFPS, false, func(r session.Report) float64 { return r.AverageFPS }},
	{MetricPerSecondFPS, false, func(r session.Report) float64 { return r.PerSecondFPS }},
	{MetricFrameMillis, true, func(r session.Report) float64 { return float64(r.LastInterval.Microseconds()) / 1000 }},
	{MetricFallbacks, true, func(r session.Report) float64 { return float64(r.Fallbacks) }},
}

// Comparison holds the drift analysis for a single metric.
type Comparison struct {
	AppID       string
	Metric      string
	BaselineVal float64
	CurrentVal  float64
	DeltaPct    float64
	Severity    Severity
}

var (
	blTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	blHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	blDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	blOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	blWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	blErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	blMinor  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Compare matches reports by application and calculates drift per metric.
// Applications missing from either side are skipped.
func Compare(baseline *Baseline, current []session.Report) []Comparison {
	byApp := make(map[string]session.Report)
	for _, r := range baseline.Reports {
		byApp[r.AppID] = r
	}

	var comparisons []Comparison
	for _, cur := range current {
		base, ok := byApp[cur.AppID]
		if !ok {
			continue
		}
		for _, m := range metrics {
			bv, cv := m.value(base), m.value(cur)
			var deltaPct float64
			if bv != 0 {
				deltaPct = ((cv - bv) / math.Abs(bv)) * 100
			} else if cv != 0 {
				deltaPct = 100
			}
			comparisons = append(comparisons, Comparison{
				AppID:       cur.AppID,
				Metric:      m.name,
				BaselineVal: bv,
				CurrentVal:  cv,
				DeltaPct:    deltaPct,
				Severity:    classifySeverity(deltaPct, m.higherIsWorse),
			})
		}
	}
	return comparisons
}

func classifySeverity(deltaPct float64, higherIsWorse bool) Severity {
	absDelta := math.Abs(deltaPct)
	if absDelta < 5 {
		return SeverityNone
	}
	if absDelta < 15 {
		return SeverityMinor
	}
	if absDelta < 30 {
		return SeverityModerate
	}
	if (deltaPct > 0) == higherIsWorse {
		return SeverityRegress
	}
	return SeverityMajor
}

// Regressions counts comparisons classified as regressions.
func Regressions(comparisons []Comparison) int {
	n := 0
	for _, c := range comparisons {
		if c.Severity == SeverityRegress {
			n++
		}
	}
	return n
}

// RenderComparison outputs a styled comparison table.
func RenderComparison(w io.Writer, baseline *Baseline, comparisons []Comparison) {
	fmt.Fprintln(w, blTitle.Render("Baseline Comparison"))
	fmt.Fprintln(w, blDim.Render(strings.Repeat("═", 90)))
	fmt.Fprintf(w, "Comparing against %s (from %s)\n\n",
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%q", baseline.Name)),
		blDim.Render(baseline.Timestamp.Format("2006-01-02 15:04:05")))

	fmt.Fprintf(w, "  %s %s %s %s %s %s\n",
		blHeader.Render("APP                     "),
		blHeader.Render("METRIC        "),
		blHeader.Render("BASELINE  "),
		blHeader.Render("CURRENT   "),
		blHeader.Render("DELTA    "),
		blHeader.Render("SEVERITY  "))
	fmt.Fprintln(w, "  "+blDim.Render(strings.Repeat("─", 90)))

	for _, c := range comparisons {
		deltaStr := fmt.Sprintf("%+.1f%%", c.DeltaPct)
		var sevStr string
		switch c.Severity {
		case SeverityRegress:
			sevStr = blErr.Render("REGRESSION")
		case SeverityMajor:
			sevStr = blWarn.Render("MAJOR")
		case SeverityModerate:
			sevStr = blWarn.Render("moderate")
		case SeverityMinor:
			sevStr = blMinor.Render("minor")
		default:
			sevStr = blOK.Render("none")
		}

		fmt.Fprintf(w, "  %-25s %-15s %-12.2f %-12.2f %-10s %s\n",
			c.AppID, c.Metric, c.BaselineVal, c.CurrentVal, deltaStr, sevStr)
	}

	fmt.Fprintln(w)
	if n := Regressions(comparisons); n > 0 {
		fmt.Fprintf(w, "  %s\n", blErr.Render(fmt.Sprintf("%d potential regressions detected.", n)))
	} else {
		fmt.Fprintf(w, "  %s\n", blOK.Render("No significant regressions detected."))
	}
}
