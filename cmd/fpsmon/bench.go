package main

import (
	"github.com/danpilch/fpsmon/pkg/benchmark"
	"github.com/danpilch/fpsmon/pkg/strategy"
	"github.com/spf13/cobra"
)

func newBenchCmd(a *app) *cobra.Command {
	opts := benchmark.DefaultOptions()
	var ticks int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark strategy activation and calculator throughput",
		RunE: func(*cobra.Command, []string) error {
			strats := append(a.cfg.Strategies(), strategy.NewTimer(a.cfg.TargetFPS))
			a.logger.WithField("strategies", len(strats)).Debug("starting benchmark")
			results := benchmark.Run(strats, opts)
			tp := benchmark.CalculatorThroughput(ticks)
			benchmark.RenderResults(a.stdout, results, tp, benchmark.MeasureOverhead())
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&opts.Iterations, "iterations", "n", opts.Iterations, "Activation cycles per strategy")
	f.IntVar(&opts.Warmup, "warmup", opts.Warmup, "Warmup cycles per strategy")
	f.DurationVar(&opts.Hold, "hold", opts.Hold, "How long each activation runs")
	f.IntVar(&ticks, "ticks", 1_000_000, "Frame ticks fed to the calculator")
	return cmd
}
