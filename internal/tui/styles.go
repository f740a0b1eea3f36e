// Package tui provides the terminal views for refengine: a live step view
// driven by a recursor observer and a state evolution chart.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"refengine/internal/recursor"
)

// Color palette (ANSI 256)
const (
	ColorAccent    = "86"  // Cyan/green - titles, highlights
	ColorHighlight = "205" // Magenta - glyphs, borders
	ColorDanger    = "196" // Red - errors, tension halts
	ColorMuted     = "241" // Gray - dimmed text, hints
	ColorText      = "252" // Light gray - normal text
	ColorWarning   = "208" // Orange - depth limit
	ColorSuccess   = "42"  // Green - convergence
)

// seriesColors cycles across dimensions in the evolution chart.
var seriesColors = []string{"86", "205", "208", "39", "142", "170", "214", "75"}

// Styles contains all styles for the refengine views.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Status   lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Muted    lipgloss.Style
	Glyph    lipgloss.Style
	Depth    lipgloss.Style
	Border   lipgloss.Style
}

// DefaultStyles returns the default refengine styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorAccent)),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorHighlight)),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorText)),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSuccess)),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorDanger)),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarning)),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted)),
		Glyph: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorHighlight)),
		Depth: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted)),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorMuted)).
			Padding(0, 1),
	}
}

// Halt icons
const (
	IconRunning   = "●"
	IconConverged = "✓"
	IconTension   = "✗"
	IconDepth     = "⏱"
	IconWaiting   = "○"
)

// HaltIcon returns the icon for a halt reason.
func HaltIcon(reason recursor.HaltReason) string {
	switch reason {
	case recursor.HaltConverged:
		return IconConverged
	case recursor.HaltTensionExceeded:
		return IconTension
	case recursor.HaltDepthLimit:
		return IconDepth
	default:
		return IconRunning
	}
}

// HaltStyle returns the style for a halt reason.
func (s Styles) HaltStyle(reason recursor.HaltReason) lipgloss.Style {
	switch reason {
	case recursor.HaltConverged:
		return s.Success
	case recursor.HaltTensionExceeded:
		return s.Error
	case recursor.HaltDepthLimit:
		return s.Warning
	default:
		return s.Status
	}
}
