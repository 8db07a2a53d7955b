package debug

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/fpsmon/pkg/strategy"
)

// DumpCandidates prints the ordered candidate list, marking the active one.
func DumpCandidates(w io.Writer, candidates []strategy.Descriptor, activeID string) {
	active := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Candidate Strategies"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 70)))
	fmt.Fprintf(w, "  %s %s %s %s %s\n",
		debugHeader.Render("#  "),
		debugHeader.Render("STRATEGY            "),
		debugHeader.Render("FAMILY            "),
		debugHeader.Render("STEALTH     "),
		debugHeader.Render("RELIABILITY"))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 70)))

	for i, d := range candidates {
		marker := " "
		id := d.ID
		if d.ID == activeID && activeID != "" {
			marker = active.Render("*")
			id = active.Render(d.ID)
		}
		fmt.Fprintf(w, "%s %-4d %-22s %-20s %-14s %s\n",
			marker, i+1, id, d.Family, d.StealthNeed, d.Reliability)
	}
}
