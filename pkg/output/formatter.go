// Package output renders monitoring session reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/danpilch/fpsmon/pkg/session"
)

// Format represents the output format type.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatTSV   Format = "tsv"
	FormatText  Format = "text"
)

// DefaultTextTemplate is the text format used when none is set.
const DefaultTextTemplate = "FPS: %.1f"

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatTSV, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

var stateStyles = map[string]lipgloss.Style{
	"active":   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true), // Green
	"probing":  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true), // Yellow
	"degraded": lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	"failed":   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true), // Red
	"stopped":  lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true), // Gray
	"idle":     lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true),
}

// Formatter handles output formatting.
type Formatter struct {
	format       Format
	writer       io.Writer
	sparkline    *SparklineTracker
	textTemplate string
	showScore    bool
}

// NewFormatter creates a new formatter.
func NewFormatter(format Format, writer io.Writer) *Formatter {
	return &Formatter{
		format:       format,
		writer:       writer,
		textTemplate: DefaultTextTemplate,
	}
}

// SetSparklineTracker enables the frame interval trend column.
func (f *Formatter) SetSparklineTracker(s *SparklineTracker) {
	f.sparkline = s
}

// SetTextTemplate sets the printf template for the text format. It receives
// the current FPS as its only argument.
func (f *Formatter) SetTextTemplate(tmpl string) {
	if tmpl != "" {
		f.textTemplate = tmpl
	}
}

// SetShowScore enables the session health score line.
func (f *Formatter) SetShowScore(show bool) {
	f.showScore = show
}

// Render outputs the reports in the configured format.
func (f *Formatter) Render(reports []session.Report) error {
	if f.sparkline != nil {
		for _, r := range reports {
			if r.LastInterval > 0 {
				f.sparkline.Record(r.SessionID, float64(r.LastInterval.Microseconds())/1000)
			}
		}
	}

	switch f.format {
	case FormatJSON:
		return f.renderJSON(reports)
	case FormatTSV:
		return f.renderTSV(reports)
	case FormatText:
		return f.renderText(reports)
	default:
		return f.renderTable(reports)
	}
}

func (f *Formatter) renderJSON(reports []session.Report) error {
	output := struct {
		Sessions []session.Report `json:"sessions"`
	}{
		Sessions: reports,
	}

	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func (f *Formatter) renderTable(reports []session.Report) error {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	fmt.Fprintln(f.writer, titleStyle.Render("Frame Rate Monitor"))
	fmt.Fprintln(f.writer, strings.Repeat("═", 60))
	fmt.Fprintln(f.writer)

	hasSparklines := f.sparkline != nil
	rows := make([][]string, len(reports))
	for i, r := range reports {
		row := []string{
			r.AppID,
			r.Profile.Engine.String(),
			orDash(r.ActiveStrategy),
			renderState(r.State),
			fmt.Sprintf("%.1f", r.CurrentFPS),
			fmt.Sprintf("%.1f", r.AverageFPS),
			fmt.Sprintf("%.1f", r.PerSecondFPS),
			fmt.Sprintf("%d", r.Fallbacks),
		}
		if hasSparklines {
			row = append(row, f.sparkline.Sparkline(r.SessionID))
		}
		rows[i] = row
	}

	headers := []string{"APP", "ENGINE", "STRATEGY", "STATE", "FPS", "AVG", "1S", "FALLBACKS"}
	if hasSparklines {
		headers = append(headers, "INTERVAL")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	fmt.Fprintln(f.writer, t)
	fmt.Fprintln(f.writer)

	for _, r := range reports {
		if r.LastError != "" {
			fmt.Fprintf(f.writer, "%s: %s\n", r.AppID, stateStyles["degraded"].Render(r.LastError))
		}
		if f.showScore {
			score := HealthScore(r)
			style := stateStyles["active"]
			if score < 80 {
				style = stateStyles["degraded"]
			}
			if score < 50 {
				style = stateStyles["failed"]
			}
			fmt.Fprintf(f.writer, "Health Score: %s\n",
				style.Render(fmt.Sprintf("%d/100 (%s)", score, ScoreLabel(score))))
		}
		for _, s := range Suggestions(r) {
			fmt.Fprintf(f.writer, "  %s  %s\n", s.Command, lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(s.Reason))
		}
	}
	return nil
}

func (f *Formatter) renderTSV(reports []session.Report) error {
	fmt.Fprintln(f.writer, "SESSION\tAPP\tENGINE\tSTRATEGY\tSTATE\tFPS\tAVERAGE_FPS\tPER_SECOND_FPS\tSAMPLES\tFALLBACKS\tLAST_INTERVAL_MS")

	for _, r := range reports {
		fmt.Fprintf(f.writer, "%s\t%s\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%d\t%d\t%.3f\n",
			r.SessionID, r.AppID, r.Profile.Engine, r.ActiveStrategy, r.State,
			r.CurrentFPS, r.AverageFPS, r.PerSecondFPS, r.SampleCount, r.Fallbacks,
			float64(r.LastInterval.Microseconds())/1000)
	}
	return nil
}

// renderText prints one line per session using the text template, for
// embedding in status bars and other plain consumers.
func (f *Formatter) renderText(reports []session.Report) error {
	for _, r := range reports {
		if _, err := fmt.Fprintf(f.writer, f.textTemplate+"\n", r.CurrentFPS); err != nil {
			return err
		}
	}
	return nil
}

func renderState(state string) string {
	style, ok := stateStyles[state]
	if !ok {
		return strings.ToUpper(state)
	}
	return style.Render(strings.ToUpper(state))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
