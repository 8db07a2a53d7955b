package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/danpilch/fpsmon/pkg/profile"
	"github.com/spf13/cobra"
)

func newClassifyCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "classify [app-id...]",
		Short: "Show the engine profile chosen for application identifiers",
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{a.cfg.AppID}
			}
			reg := profile.NewRegistry()
			profiles := make(map[string]profile.Profile, len(args))
			for _, id := range args {
				profiles[id] = reg.Classify(id)
			}
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(profiles)
			}

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
			cellStyle := lipgloss.NewStyle().Padding(0, 1)
			rows := make([][]string, 0, len(args))
			for _, id := range args {
				p := profiles[id]
				rows = append(rows, []string{
					id, p.Name, p.Engine.String(),
					fmt.Sprintf("%.0f Hz", p.SampleRateHz),
					fmt.Sprintf("%d", p.Priority),
					p.PreferredHook.String(),
					p.HealthInterval().String(),
				})
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
				Headers("APP", "PROFILE", "ENGINE", "RATE", "PRIORITY", "HOOK", "HEALTH CHECK").
				Rows(rows...)
			fmt.Fprintln(a.stdout, t)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print profiles as JSON")
	return cmd
}
