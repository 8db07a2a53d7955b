package crosscheck

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/fpsmon/pkg/session"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	validStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	suspectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Check runs the frame rate cross-check and the sanity checks on a report.
func Check(r session.Report) (ValidationResult, []SanityResult) {
	return NewValidator().CrossCheck("frame rate", Sources(r)), RunSanityChecks(r)
}

// Failed counts failing sanity checks.
func Failed(sanity []SanityResult) int {
	n := 0
	for _, s := range sanity {
		if !s.Passed {
			n++
		}
	}
	return n
}

// Report writes a styled cross-check summary.
func Report(w io.Writer, v ValidationResult, sanity []SanityResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Frame Rate Cross-Check"))
	fmt.Fprintln(w, dimStyle.Render(strings.Repeat("═", 60)))

	if len(v.Sources) > 0 {
		fmt.Fprintf(w, "  %s %s %s\n",
			headerStyle.Render("CONSENSUS"), headerStyle.Render("MAX DEV"), headerStyle.Render("STATUS"))
		var status string
		switch v.Status {
		case StatusConflict:
			status = conflictStyle.Render("CONFLICT")
		case StatusSuspect:
			status = suspectStyle.Render("SUSPECT")
		default:
			status = validStyle.Render("VALID")
		}
		names := make([]string, len(v.Sources))
		for i, s := range v.Sources {
			names[i] = fmt.Sprintf("%s=%.1f", s.Name, s.Value)
		}
		fmt.Fprintf(w, "  %-11.1f %-8.1f%% %s  %s\n", v.Consensus, v.MaxDeviation, status,
			dimStyle.Render(strings.Join(names, ", ")))
	} else {
		fmt.Fprintln(w, dimStyle.Render("  no frames measured"))
	}

	fmt.Fprintln(w)
	for _, s := range sanity {
		icon := validStyle.Render("PASS")
		if !s.Passed {
			icon = conflictStyle.Render("FAIL")
		}
		fmt.Fprintf(w, "  [%s] %-20s %s\n", icon, s.Check, dimStyle.Render(s.Details))
	}
	if n := Failed(sanity); n > 0 {
		fmt.Fprintf(w, "  %s\n", conflictStyle.Render(fmt.Sprintf("%d of %d sanity checks failed.", n, len(sanity))))
	}
}

// ReportJSON writes cross-check results as JSON.
func ReportJSON(w io.Writer, v ValidationResult, sanity []SanityResult) error {
	out := struct {
		Validation ValidationResult `json:"validation"`
		Sanity     []SanityResult   `json:"sanity"`
	}{v, sanity}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
