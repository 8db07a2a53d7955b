package main

import (
	"fmt"
	"time"

	"github.com/danpilch/fpsmon/pkg/crosscheck"
	"github.com/danpilch/fpsmon/pkg/debug"
	"github.com/danpilch/fpsmon/pkg/selector"
	"github.com/spf13/cobra"
)

func newProbeCmd(a *app) *cobra.Command {
	var (
		settle time.Duration
		check  bool
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Select a frame source for an application and show the candidate order",
		RunE: func(*cobra.Command, []string) error {
			sess := a.newSession(a.cfg.Strategies())
			startErr := sess.Start()
			if startErr == nil && settle > 0 {
				time.Sleep(settle)
			}

			st := sess.Status()
			p := sess.Profile()
			fmt.Fprintf(a.stdout, "App:      %s\n", orDefault(sess.AppID(), "(none)"))
			fmt.Fprintf(a.stdout, "Profile:  %s (%s, %.0f Hz, hook %s)\n", p.Name, p.Engine, p.SampleRateHz, p.PreferredHook)
			fmt.Fprintf(a.stdout, "Stealth:  %s\n", sess.Report().Stealth)
			fmt.Fprintf(a.stdout, "State:    %s after %d attempts\n", st.State, st.Attempts)
			if st.LastError != nil {
				fmt.Fprintf(a.stdout, "Last err: %v\n", st.LastError)
			}
			if st.State == selector.StateActive {
				fmt.Fprintf(a.stdout, "FPS:      %.1f\n", sess.CurrentFPS())
			}
			debug.DumpCandidates(a.stdout, sess.Candidates(), st.ActiveID)
			if check {
				v, sanity := crosscheck.Check(sess.Report())
				crosscheck.Report(a.stdout, v, sanity)
			}

			if err := sess.Stop(); err != nil {
				return err
			}
			return startErr
		},
	}
	cmd.Flags().DurationVar(&settle, "settle", 1500*time.Millisecond, "How long to sample before reporting")
	cmd.Flags().BoolVar(&check, "check", false, "Cross-check the measured frame rate readings")
	return cmd
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
