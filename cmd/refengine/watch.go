package main

import (
	"time"

	"github.com/spf13/cobra"

	"refengine/internal/ctxlog"
	"refengine/internal/recursor"
	"refengine/internal/tui"
)

type watchOptions struct {
	engine      engineFlags
	seeds       seedFlags
	delay       time.Duration
	archive     bool
	metricsFile string
}

func newWatchCmd(a *app) *cobra.Command {
	var opts watchOptions
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Evolve one seed with a live terminal view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.watch(cmd, &opts)
		},
	}
	opts.engine.register(cmd)
	opts.seeds.register(cmd)
	fs := cmd.Flags()
	fs.DurationVar(&opts.delay, "delay", 150*time.Millisecond, "pause after each step")
	fs.BoolVar(&opts.archive, "archive", false, "save the run to the archive")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	return cmd
}

func (a *app) watch(cmd *cobra.Command, opts *watchOptions) error {
	ctx := cmd.Context()
	cfg := a.cfg
	if err := opts.engine.apply(cmd, &cfg); err != nil {
		return err
	}
	seed, err := opts.seeds.resolve(cmd, cfg)
	if err != nil {
		return err
	}

	in, err := newInstruments(ctx, opts.metricsFile)
	if err != nil {
		return err
	}
	view := tui.Runner{
		Config:   cfg.Recursor(),
		Delay:    opts.delay,
		Observer: in.observer(),
		Options:  []recursor.Option{recursor.WithTransition(cfg.Transition())},
	}
	result, runErr := view.Run(ctx, seed)
	if err := in.close(ctx); err != nil {
		ctxlog.FromContext(ctx).Warn("flush instruments", "error", err)
	}
	if runErr != nil {
		return runErr
	}

	recursor.WriteReport(a.out, result)
	if opts.archive {
		id, err := a.saveRun(ctx, cfg, seed, result)
		if err != nil {
			return err
		}
		writef(a.out, "Run ID: %s\n", id)
	}
	return nil
}
