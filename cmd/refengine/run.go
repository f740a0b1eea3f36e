package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"refengine/internal/archive"
	"refengine/internal/config"
	"refengine/internal/ctxlog"
	"refengine/internal/glyph"
	"refengine/internal/recursor"
	"refengine/internal/state"
	"refengine/internal/steplog"
	"refengine/internal/tui"
)

type runOptions struct {
	engine      engineFlags
	seeds       seedFlags
	trace       bool
	chart       bool
	archive     bool
	metricsFile string
	json        bool
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve one seed and print how it halted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, &opts)
		},
	}
	opts.engine.register(cmd)
	opts.seeds.register(cmd)
	fs := cmd.Flags()
	fs.BoolVar(&opts.trace, "trace", false, "print the glyph trace")
	fs.BoolVar(&opts.chart, "chart", false, "print the state evolution chart")
	fs.BoolVar(&opts.archive, "archive", false, "save the run to the archive")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	fs.BoolVar(&opts.json, "json", false, "print the result as JSON")
	return cmd
}

// runOutput is the --json shape of a run.
type runOutput struct {
	ID string `json:"id,omitempty"`
	*recursor.Result
	LastGlyph string `json:"last_glyph"`
}

func (a *app) run(cmd *cobra.Command, opts *runOptions) error {
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

	rec, err := recursor.New(cfg.Recursor(),
		recursor.WithTransition(cfg.Transition()),
		recursor.WithStepLogger(steplog.New(steplog.WithSlog(ctxlog.FromContext(ctx)))),
		recursor.WithObserver(in.observer()),
	)
	if err != nil {
		return err
	}
	result, runErr := rec.Run(ctx, seed)
	if err := in.close(ctx); err != nil {
		ctxlog.FromContext(ctx).Warn("flush instruments", "error", err)
	}
	if runErr != nil {
		return runErr
	}

	var id string
	if opts.archive {
		if id, err = a.saveRun(ctx, cfg, seed, result); err != nil {
			return err
		}
	}

	if opts.json {
		return writeJSON(a.out, runOutput{ID: id, Result: result, LastGlyph: result.LastGlyph()})
	}

	recursor.WriteReport(a.out, result)
	if id != "" {
		writef(a.out, "Run ID: %s\n", id)
	}
	if opts.trace {
		writef(a.out, "\n")
		if err := glyph.WriteTrace(a.out, result.Trace); err != nil {
			return err
		}
	}
	if opts.chart {
		writef(a.out, "\n%s", tui.RenderEvolution(rec.StepLog().Records()))
	}
	return nil
}

// saveRun stores a finished run and returns its ID.
func (a *app) saveRun(ctx context.Context, cfg config.Config, seed state.State, result *recursor.Result) (string, error) {
	store, err := archive.Open(cfg.ArchivePath())
	if err != nil {
		return "", err
	}
	defer store.Close()

	record := archive.NewRecord(seed, cfg.Recursor(), result)
	if err := store.Save(ctx, record); err != nil {
		return "", err
	}
	return record.ID, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
