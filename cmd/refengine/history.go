package main

import (
	"github.com/spf13/cobra"

	"refengine/internal/archive"
	"refengine/internal/glyph"
	"refengine/internal/recursor"
	"refengine/internal/state"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := archive.Open(a.cfg.ArchivePath())
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if records == nil {
					records = []archive.Record{}
				}
				return writeJSON(a.out, records)
			}
			if len(records) == 0 {
				writef(a.out, "no archived runs\n")
				return nil
			}
			for _, r := range records {
				writef(a.out, "%s  %s  %-16s %3d  %s\n",
					r.ID,
					r.CreatedAt.Format("2006-01-02 15:04:05"),
					r.HaltReason,
					r.Iterations,
					r.LastGlyph(),
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print runs as JSON")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := archive.Open(a.cfg.ArchivePath())
			if err != nil {
				return err
			}
			defer store.Close()

			r, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.out, r)
			}

			writef(a.out, "Run ID: %s\n", r.ID)
			writef(a.out, "Created: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			writef(a.out, "Seed: %s\n", state.Canonical(r.Seed))
			writef(a.out, "Config: max_depth=%d tension_threshold=%s convergence_epsilon=%s\n",
				r.Config.MaxDepth,
				state.FormatFloat(r.Config.TensionThreshold),
				state.FormatFloat(r.Config.ConvergenceEpsilon),
			)
			recursor.WriteReport(a.out, &recursor.Result{
				FinalState: r.FinalState,
				HaltReason: r.HaltReason,
				Trace:      r.Trace,
				Iterations: r.Iterations,
			})
			if len(r.Trace) > 0 {
				writef(a.out, "\n")
				return glyph.WriteTrace(a.out, r.Trace)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run as JSON")
	return cmd
}
