package main

import (
	"fmt"
	"time"

	"github.com/danpilch/fpsmon/pkg/baseline"
	"github.com/danpilch/fpsmon/pkg/config"
	"github.com/danpilch/fpsmon/pkg/session"
	"github.com/spf13/cobra"
)

func newBaselineCmd(a *app, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Save and compare frame rate baselines",
	}
	cmd.PersistentFlags().StringVar(&cfg.BaselineDir, "baseline-dir", cfg.BaselineDir, "Directory for saved baselines")

	var duration time.Duration
	save := &cobra.Command{
		Use:   "save <name>",
		Short: "Measure for a while and save the result as a baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.measure(cmd.Context(), duration, nil)
			if err != nil {
				return err
			}
			b := baseline.NewBaseline(args[0], []session.Report{r})
			b.Metadata = map[string]string{"duration": duration.String()}
			if err := b.Save(a.cfg.BaselineDir); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Saved baseline %q: %s at %.1f FPS via %s\n",
				b.Name, r.AppID, r.AverageFPS, r.ActiveStrategy)
			return nil
		},
	}
	save.Flags().DurationVarP(&duration, "duration", "d", 5*time.Second, "Measurement duration")

	compare := &cobra.Command{
		Use:   "compare <name>",
		Short: "Measure for a while and compare against a saved baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := baseline.Load(args[0], a.cfg.BaselineDir)
			if err != nil {
				return err
			}
			r, err := a.measure(cmd.Context(), duration, nil)
			if err != nil {
				return err
			}
			comps := baseline.Compare(b, []session.Report{r})
			if len(comps) == 0 {
				return fmt.Errorf("baseline %q has no report for %q", b.Name, r.AppID)
			}
			baseline.RenderComparison(a.stdout, b, comps)
			return nil
		},
	}
	compare.Flags().DurationVarP(&duration, "duration", "d", 5*time.Second, "Measurement duration")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved baselines",
		RunE: func(*cobra.Command, []string) error {
			names, err := baseline.List(a.cfg.BaselineDir)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(a.stdout, n)
			}
			return nil
		},
	}

	cmd.AddCommand(save, compare, list)
	return cmd
}
