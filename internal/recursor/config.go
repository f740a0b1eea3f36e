package recursor

import (
	"errors"
	"fmt"
	"math"

	"refengine/internal/evaluator"
)

const (
	// DefaultMaxDepth is the iteration cap used by DefaultConfig.
	DefaultMaxDepth = 10

	// DefaultTensionThreshold is the tension above which a run halts.
	DefaultTensionThreshold = 0.7
)

// ErrInvalidConfig is returned for configurations no run can honor.
var ErrInvalidConfig = errors.New("invalid recursor config")

// Config holds the termination controls of a run.
type Config struct {
	// MaxDepth caps the number of iterations. Zero runs no iterations and
	// halts with HaltDepthLimit.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// TensionThreshold halts the run when a state's tension is strictly
	// greater than it.
	TensionThreshold float64 `json:"tension_threshold" yaml:"tension_threshold"`

	// ConvergenceEpsilon is the distance below which two successive states
	// are treated as stable. It is taken literally: zero never converges.
	ConvergenceEpsilon float64 `json:"convergence_epsilon" yaml:"convergence_epsilon"`
}

// DefaultConfig returns MaxDepth 10, TensionThreshold 0.7 and
// ConvergenceEpsilon 0.001.
func DefaultConfig() Config {
	return Config{
		MaxDepth:           DefaultMaxDepth,
		TensionThreshold:   DefaultTensionThreshold,
		ConvergenceEpsilon: evaluator.DefaultConvergenceEpsilon,
	}
}

// Validate reports contract violations as ErrInvalidConfig.
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth %d is negative", ErrInvalidConfig, c.MaxDepth)
	}
	if math.IsNaN(c.TensionThreshold) || c.TensionThreshold < 0 {
		return fmt.Errorf("%w: tension threshold %v must be non-negative", ErrInvalidConfig, c.TensionThreshold)
	}
	if math.IsNaN(c.ConvergenceEpsilon) || c.ConvergenceEpsilon < 0 {
		return fmt.Errorf("%w: convergence epsilon %v must be non-negative", ErrInvalidConfig, c.ConvergenceEpsilon)
	}
	return nil
}
