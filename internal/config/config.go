// Package config loads refengine settings from defaults, an optional YAML
// file, and REF_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"refengine/internal/evaluator"
	"refengine/internal/recursor"
	"refengine/internal/state"
)

const (
	// DataDirEnv overrides the directory holding the run archive.
	DataDirEnv = "REF_DATA_DIR"
	// DefaultDataDirName is the data directory under the user's home.
	DefaultDataDirName = ".refengine"
	// ArchiveFileName is the SQLite file inside the data directory.
	ArchiveFileName = "runs.db"
)

// Config holds every tunable of a refengine invocation.
type Config struct {
	MaxDepth           int       `yaml:"max_depth"           env:"REF_MAX_DEPTH"`
	TensionThreshold   float64   `yaml:"tension_threshold"   env:"REF_TENSION_THRESHOLD"`
	ConvergenceEpsilon float64   `yaml:"convergence_epsilon" env:"REF_CONVERGENCE_EPSILON"`
	GrowthFactor       float64   `yaml:"growth_factor"       env:"REF_GROWTH_FACTOR"`
	Seed               []float64 `yaml:"seed"                env:"REF_SEED" envSeparator:","`

	DataDir     string `yaml:"data_dir"    env:"REF_DATA_DIR"`
	LogLevel    string `yaml:"log_level"   env:"REF_LOG_LEVEL"`
	LogFormat   string `yaml:"log_format"  env:"REF_LOG_FORMAT"`
	Concurrency int    `yaml:"concurrency" env:"REF_CONCURRENCY"`
}

// Default returns the built-in configuration: the reference seed [1, 2, 3],
// depth 10, threshold 0.7, epsilon 0.001 and growth 1.05.
func Default() Config {
	rc := recursor.DefaultConfig()
	return Config{
		MaxDepth:           rc.MaxDepth,
		TensionThreshold:   rc.TensionThreshold,
		ConvergenceEpsilon: rc.ConvergenceEpsilon,
		GrowthFactor:       evaluator.DefaultGrowthFactor,
		Seed:               []float64{1, 2, 3},
		LogLevel:           "info",
		LogFormat:          "text",
		Concurrency:        4,
	}
}

// Load layers an optional YAML file and the environment over Default.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return Config{}, err
		}
		cfg.DataDir = dir
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return filepath.Join(home, DefaultDataDirName), nil
}

// Validate checks the engine settings and the ambient ones.
func (c Config) Validate() error {
	if err := c.Recursor().Validate(); err != nil {
		return err
	}
	if math.IsNaN(c.GrowthFactor) || math.IsInf(c.GrowthFactor, 0) {
		return fmt.Errorf("growth factor must be finite, got %v", c.GrowthFactor)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.New("log format must be text or json")
	}
	return nil
}

// Recursor returns the engine's termination controls.
func (c Config) Recursor() recursor.Config {
	return recursor.Config{
		MaxDepth:           c.MaxDepth,
		TensionThreshold:   c.TensionThreshold,
		ConvergenceEpsilon: c.ConvergenceEpsilon,
	}
}

// Transition returns the growth transition for GrowthFactor.
func (c Config) Transition() evaluator.Transition {
	return evaluator.Growth(c.GrowthFactor)
}

// SeedState returns a copy of the configured seed.
func (c Config) SeedState() state.State {
	return state.State(c.Seed).Clone()
}

// ArchivePath is the location of the run archive database.
func (c Config) ArchivePath() string {
	return filepath.Join(c.DataDir, ArchiveFileName)
}
