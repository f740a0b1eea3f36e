// Package batch runs many seeds through independent recursors in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"refengine/internal/ctxlog"
	"refengine/internal/recursor"
	"refengine/internal/state"
)

// DefaultConcurrency is used when Runner.Concurrency is not positive.
const DefaultConcurrency = 4

// Outcome is the result for one seed of a batch.
type Outcome struct {
	Index  int              `json:"index"`
	Seed   state.State      `json:"seed"`
	Result *recursor.Result `json:"result"`
}

// Runner evolves seeds concurrently. Every seed gets its own Recursor from
// New, so runs share no memory or trace.
type Runner struct {
	// Concurrency bounds the number of runs in flight.
	Concurrency int

	// New builds the Recursor for one seed. Observers attached here must be
	// safe for concurrent use when Concurrency > 1.
	New func() (*recursor.Recursor, error)
}

// Run evolves every seed and returns outcomes in input order. The first
// failing run cancels the ones still pending and its error is returned.
func (r Runner) Run(ctx context.Context, seeds []state.State) ([]Outcome, error) {
	if r.New == nil {
		return nil, errors.New("batch: recursor constructor is required")
	}
	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	log := ctxlog.FromContext(ctx)
	outcomes := make([]Outcome, len(seeds))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, seed := range seeds {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			rec, err := r.New()
			if err != nil {
				return fmt.Errorf("seed %d: %w", i, err)
			}
			res, err := rec.Run(gCtx, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", i, err)
			}
			outcomes[i] = Outcome{Index: i, Seed: seed.Clone(), Result: res}
			log.Debug("batch seed done",
				slog.Int("index", i),
				slog.String("halt_reason", res.HaltReason.String()),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
