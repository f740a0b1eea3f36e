package recursor

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownHaltReason is returned when parsing an unrecognized label.
var ErrUnknownHaltReason = errors.New("unknown HaltReason")

// HaltReason indicates why a run stopped.
type HaltReason int

const (
	HaltNone            HaltReason = iota // Zero value; never returned by a completed run.
	HaltTensionExceeded                   // Tension rose above the threshold.
	HaltConverged                         // Two successive states were within epsilon.
	HaltDepthLimit                        // MaxDepth iterations ran without another halt.
)

// String returns the external label for the halt reason.
func (r HaltReason) String() string {
	switch r {
	case HaltTensionExceeded:
		return "tension_exceeded"
	case HaltConverged:
		return "converged"
	case HaltDepthLimit:
		return "depth_limit"
	case HaltNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseHaltReason converts an external label back into a HaltReason.
func ParseHaltReason(s string) (HaltReason, error) {
	switch s {
	case "tension_exceeded":
		return HaltTensionExceeded, nil
	case "converged":
		return HaltConverged, nil
	case "depth_limit":
		return HaltDepthLimit, nil
	case "none":
		return HaltNone, nil
	default:
		return HaltNone, fmt.Errorf("%w: %s", ErrUnknownHaltReason, s)
	}
}

// MarshalJSON encodes the halt reason as its label.
func (r HaltReason) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a label written by MarshalJSON.
func (r *HaltReason) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	v, err := ParseHaltReason(label)
	if err != nil {
		return err
	}
	*r = v
	return nil
}
