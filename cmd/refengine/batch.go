package main

import (
	"github.com/spf13/cobra"

	"refengine/internal/archive"
	"refengine/internal/batch"
	"refengine/internal/ctxlog"
	"refengine/internal/recursor"
	"refengine/internal/state"
)

type batchOptions struct {
	engine      engineFlags
	seedsJSON   string
	concurrency int
	archive     bool
	metricsFile string
	json        bool
}

func newBatchCmd(a *app) *cobra.Command {
	var opts batchOptions
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evolve many seeds in parallel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBatch(cmd, &opts)
		},
	}
	opts.engine.register(cmd)
	fs := cmd.Flags()
	fs.StringVar(&opts.seedsJSON, "seeds-json", "", "seeds as a JSON array of arrays, e.g. [[1,2,3],[1,1.5,2]]")
	fs.IntVar(&opts.concurrency, "concurrency", 0, "runs in flight at once")
	fs.BoolVar(&opts.archive, "archive", false, "save every run to the archive")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	fs.BoolVar(&opts.json, "json", false, "print outcomes as JSON")
	_ = cmd.MarkFlagRequired("seeds-json")
	return cmd
}

func (a *app) runBatch(cmd *cobra.Command, opts *batchOptions) error {
	ctx := cmd.Context()
	cfg := a.cfg
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	if err := opts.engine.apply(cmd, &cfg); err != nil {
		return err
	}
	seeds, err := state.ParseJSONList([]byte(opts.seedsJSON))
	if err != nil {
		return err
	}

	in, err := newInstruments(ctx, opts.metricsFile)
	if err != nil {
		return err
	}
	runner := batch.Runner{
		Concurrency: cfg.Concurrency,
		New: func() (*recursor.Recursor, error) {
			return recursor.New(cfg.Recursor(),
				recursor.WithTransition(cfg.Transition()),
				recursor.WithObserver(in.observer()),
			)
		},
	}
	outcomes, runErr := runner.Run(ctx, seeds)
	if err := in.close(ctx); err != nil {
		ctxlog.FromContext(ctx).Warn("flush instruments", "error", err)
	}
	if runErr != nil {
		return runErr
	}

	if opts.archive {
		store, err := archive.Open(cfg.ArchivePath())
		if err != nil {
			return err
		}
		defer store.Close()
		for _, o := range outcomes {
			if err := store.Save(ctx, archive.NewRecord(o.Seed, cfg.Recursor(), o.Result)); err != nil {
				return err
			}
		}
	}

	if opts.json {
		return writeJSON(a.out, outcomes)
	}
	for _, o := range outcomes {
		writef(a.out, "[%d] %s → %s %s %s\n",
			o.Index,
			state.Canonical(o.Seed),
			o.Result.HaltReason,
			o.Result.LastGlyph(),
			state.Canonical(o.Result.FinalState),
		)
	}
	return nil
}
