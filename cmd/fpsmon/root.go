package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danpilch/fpsmon/pkg/config"
	"github.com/danpilch/fpsmon/pkg/debug"
	"github.com/danpilch/fpsmon/pkg/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app carries state shared by all subcommands.
type app struct {
	configPath string
	logFormat  string
	trace      bool

	cfg    *config.Config
	logger *logrus.Logger
	tracer *debug.TraceLogger
	stdout io.Writer
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	a := &app{stdout: stdout}
	cfg := config.DefaultConfig()

	root := &cobra.Command{
		Use:           "fpsmon",
		Short:         "Measure application frame rates with adaptive instrumentation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "fpsmon.json", "Path to JSON configuration")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "text", "Log format (text, json)")
	pf.BoolVar(&a.trace, "trace", false, "Trace selector steps to stderr")
	pf.StringVarP(&cfg.AppID, "app", "a", "", "Application identifier to monitor")
	pf.IntVarP(&cfg.StealthLevel, "stealth", "s", cfg.StealthLevel, "Stealth level 0 (cautious) to 2 (permissive)")

	root.AddCommand(
		newRunCmd(a, cfg),
		newClassifyCmd(a),
		newProbeCmd(a),
		newBenchCmd(a),
		newBaselineCmd(a, cfg),
	)
	return root
}

// setup loads the config file and environment, then reapplies any flag the
// user set explicitly so flags win.
func (a *app) setup(cmd *cobra.Command, flags *config.Config) error {
	fileCfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	fileCfg.ApplyEnv(nil)

	overrideFlags(cmd, fileCfg, flags)
	if err := fileCfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = fileCfg

	a.logger = logrus.New()
	a.logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.logger.SetLevel(level)
	switch strings.ToLower(a.logFormat) {
	case "json":
		a.logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		a.logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", a.logFormat)
	}

	if a.trace {
		a.tracer = debug.NewTraceLogger(os.Stderr)
	}
	return nil
}

// overrideFlags copies explicitly set flag values from flags into dst.
func overrideFlags(cmd *cobra.Command, dst, flags *config.Config) {
	set := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if set("log-level") {
		dst.LogLevel = flags.LogLevel
	}
	if set("app") {
		dst.AppID = flags.AppID
	}
	if set("stealth") {
		dst.StealthLevel = flags.StealthLevel
	}
	if set("mode") {
		dst.Mode = flags.Mode
	}
	if set("low-power") {
		dst.LowPower = flags.LowPower
	}
	if set("refresh") {
		dst.RefreshSeconds = flags.RefreshSeconds
	}
	if set("history") {
		dst.HistorySize = flags.HistorySize
	}
	if set("metrics-addr") {
		dst.MetricsAddr = flags.MetricsAddr
	}
	if set("text-format") {
		dst.TextFormat = flags.TextFormat
	}
	if set("baseline-dir") {
		dst.BaselineDir = flags.BaselineDir
	}
}

// defaultFormat picks a table on terminals and TSV when piped.
func defaultFormat() output.Format {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return output.FormatTable
	}
	return output.FormatTSV
}

func (a *app) formatter(name string) (*output.Formatter, error) {
	format := defaultFormat()
	if name != "" {
		f, err := output.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		format = f
	}
	f := output.NewFormatter(format, a.stdout)
	f.SetTextTemplate(a.cfg.TextFormat)
	return f, nil
}
