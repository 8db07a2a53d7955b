package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danpilch/fpsmon/pkg/baseline"
	"github.com/danpilch/fpsmon/pkg/config"
	"github.com/danpilch/fpsmon/pkg/debug"
	"github.com/danpilch/fpsmon/pkg/metrics"
	"github.com/danpilch/fpsmon/pkg/output"
	"github.com/danpilch/fpsmon/pkg/profile"
	"github.com/danpilch/fpsmon/pkg/session"
	"github.com/danpilch/fpsmon/pkg/strategy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type runOptions struct {
	format   string
	duration time.Duration
	saveAs   string
	score    bool
}

func newRunCmd(a *app, cfg *config.Config) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Monitor an application's frame rate until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.Mode, "mode", "m", cfg.Mode, "FPS mode (average, per-second)")
	f.BoolVar(&cfg.LowPower, "low-power", cfg.LowPower, "Use low-power measurement windows")
	f.Float64Var(&cfg.RefreshSeconds, "refresh", cfg.RefreshSeconds, "Display refresh in seconds")
	f.IntVar(&cfg.HistorySize, "history", cfg.HistorySize, "Frame intervals kept for the trend column")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve /metrics and pprof on this address")
	f.StringVar(&cfg.TextFormat, "text-format", cfg.TextFormat, "printf template for the text format")
	f.StringVar(&cfg.BaselineDir, "baseline-dir", cfg.BaselineDir, "Directory for saved baselines")
	f.StringVarP(&opts.format, "format", "o", "", "Output format (table, json, tsv, text)")
	f.DurationVarP(&opts.duration, "duration", "d", 0, "Stop after this long (0 runs until interrupted)")
	f.StringVar(&opts.saveAs, "save-baseline", "", "Save the final report as a named baseline")
	f.BoolVar(&opts.score, "score", false, "Show the session health score")
	return cmd
}

func (a *app) newSession(strats []strategy.Strategy) *session.Session {
	opts := a.cfg.SessionOptions()
	if a.tracer != nil {
		opts.Selector.Tracer = a.tracer
	}
	return session.New(opts, profile.NewRegistry(), strats, a.logger)
}

// measure runs a session until ctx ends or duration elapses, calling onTick
// every refresh period, and returns the final report.
func (a *app) measure(ctx context.Context, duration time.Duration, onTick func(session.Report) error) (session.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	strats := a.cfg.Strategies()
	var timed []*debug.TimedStrategy
	if a.trace {
		strats, timed = debug.WrapTimed(strats)
	}
	sess := a.newSession(strats)

	reg := prometheus.NewRegistry()
	exp, err := metrics.NewExporter(sess, reg)
	if err != nil {
		return session.Report{}, fmt.Errorf("metrics: %w", err)
	}
	if a.cfg.MetricsAddr != "" {
		addr, stopServer, err := debug.StartServer(a.cfg.MetricsAddr, reg)
		if err != nil {
			return session.Report{}, err
		}
		defer stopServer()
		a.logger.WithField("addr", addr).Info("serving metrics and pprof")
	}

	if err := sess.Start(); err != nil {
		return sess.Report(), err
	}

	ticker := time.NewTicker(a.cfg.Refresh())
	defer ticker.Stop()
	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-deadline:
			break loop
		case <-ticker.C:
			exp.ObserveInterval(sess.LastInterval())
			if onTick != nil {
				if err := onTick(sess.Report()); err != nil {
					_ = sess.Stop()
					return sess.Report(), err
				}
			}
		}
	}

	if err := sess.Stop(); err != nil {
		a.logger.WithError(err).Warn("stopping session")
	}
	if len(timed) > 0 {
		timings := make([]debug.StrategyTiming, len(timed))
		for i, t := range timed {
			timings[i] = t.Timing()
		}
		debug.TimingReport(os.Stderr, timings)
	}
	return sess.Report(), nil
}

func (a *app) run(ctx context.Context, opts runOptions) error {
	f, err := a.formatter(opts.format)
	if err != nil {
		return err
	}
	f.SetSparklineTracker(output.NewSparklineTracker(a.cfg.HistorySize))
	f.SetShowScore(opts.score)
	live := opts.format == "" && term.IsTerminal(int(os.Stdout.Fd()))

	final, err := a.measure(ctx, opts.duration, func(r session.Report) error {
		if live {
			fmt.Fprint(a.stdout, "\033[H\033[2J")
		}
		return f.Render([]session.Report{r})
	})
	if renderErr := f.Render([]session.Report{final}); renderErr != nil {
		return renderErr
	}
	if err != nil {
		return err
	}

	if opts.saveAs != "" {
		b := baseline.NewBaseline(opts.saveAs, []session.Report{final})
		if err := b.Save(a.cfg.BaselineDir); err != nil {
			return err
		}
		a.logger.WithField("baseline", opts.saveAs).Info("baseline saved")
	}
	return nil
}
