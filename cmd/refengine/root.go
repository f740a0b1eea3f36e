package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"refengine/internal/config"
	"refengine/internal/ctxlog"
	"refengine/internal/state"
)

// app carries state shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	logLevel   string
	logFormat  string
	dataDir    string

	cfg config.Config
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "refengine",
		Short:         "Recursive state-evolution engine",
		Long:          "refengine evolves a numeric state vector step by step, fingerprinting\neach step, until tension, convergence or the depth limit halts it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&a.dataDir, "data-dir", "", "directory holding the run archive")

	root.AddCommand(
		newRunCmd(a),
		newBatchCmd(a),
		newWatchCmd(a),
		newHistoryCmd(a),
		newShowCmd(a),
	)
	return root
}

// load resolves the layered configuration and installs the logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	a.cfg = cfg

	logger := ctxlog.New(cfg.LogLevel, cfg.LogFormat, a.errOut)
	cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
	return nil
}

// engineFlags are the run controls shared by run, batch and watch.
type engineFlags struct {
	maxDepth  int
	threshold float64
	epsilon   float64
	growth    float64
}

func (f *engineFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.maxDepth, "max-depth", 0, "maximum iterations")
	fs.Float64Var(&f.threshold, "threshold", 0, "tension above which a run halts")
	fs.Float64Var(&f.epsilon, "epsilon", 0, "distance below which successive states have converged")
	fs.Float64Var(&f.growth, "growth", 0, "growth factor applied each step")
}

// apply overrides cfg with the flags the user set, then validates it.
func (f *engineFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()
	if fs.Changed("max-depth") {
		cfg.MaxDepth = f.maxDepth
	}
	if fs.Changed("threshold") {
		cfg.TensionThreshold = f.threshold
	}
	if fs.Changed("epsilon") {
		cfg.ConvergenceEpsilon = f.epsilon
	}
	if fs.Changed("growth") {
		cfg.GrowthFactor = f.growth
	}
	return cfg.Validate()
}

// seedFlags select the starting state.
type seedFlags struct {
	seed     string
	seedJSON string
}

func (f *seedFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.seed, "seed", "", "comma-separated seed, e.g. 1,2,3")
	fs.StringVar(&f.seedJSON, "seed-json", "", "seed as a JSON array, e.g. [1.0, 1.5, 2.0]")
	cmd.MarkFlagsMutuallyExclusive("seed", "seed-json")
}

func (f *seedFlags) resolve(cmd *cobra.Command, cfg config.Config) (state.State, error) {
	switch {
	case cmd.Flags().Changed("seed-json"):
		s, err := state.ParseJSON([]byte(f.seedJSON))
		if err != nil {
			return nil, fmt.Errorf("--seed-json: %w", err)
		}
		return s, nil
	case cmd.Flags().Changed("seed"):
		s, err := state.Parse(f.seed)
		if err != nil {
			return nil, fmt.Errorf("--seed: %w", err)
		}
		return s, nil
	default:
		return cfg.SeedState(), nil
	}
}

// writef writes formatted output, ignoring errors.
// Use for non-critical output where write failures are acceptable.
func writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
