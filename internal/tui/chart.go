package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"refengine/internal/state"
	"refengine/internal/steplog"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// RenderEvolution draws one sparkline per state dimension across the logged
// depths, scaled to the global min/max of all finite values. Non-finite
// values render as "?" and missing dimensions as a blank.
func RenderEvolution(records []steplog.Record) string {
	return renderEvolution(records, DefaultStyles())
}

func renderEvolution(records []steplog.Record, styles Styles) string {
	if len(records) == 0 {
		return styles.Muted.Render("no steps recorded") + "\n"
	}

	dims := 0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, rec := range records {
		dims = max(dims, rec.State.Len())
		for _, v := range rec.State {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if dims == 0 {
		return styles.Muted.Render(fmt.Sprintf("%d steps of an empty state", len(records))) + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("State evolution"))
	b.WriteString(styles.Muted.Render(fmt.Sprintf("  depth %d..%d", records[0].Depth, records[len(records)-1].Depth)))
	b.WriteString("\n")

	for d := 0; d < dims; d++ {
		line := make([]rune, len(records))
		for i, rec := range records {
			line[i] = sparkRune(rec.State, d, lo, hi)
		}
		color := lipgloss.Color(seriesColors[d%len(seriesColors)])
		label := styles.Depth.Render(fmt.Sprintf("x%-2d ", d))
		b.WriteString(label)
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(line)))
		if last, ok := lastValue(records, d); ok {
			b.WriteString(" " + styles.Muted.Render(state.FormatFloat(last)))
		}
		b.WriteString("\n")
	}

	if !math.IsInf(lo, 0) {
		b.WriteString(styles.Muted.Render(fmt.Sprintf("min %s  max %s", state.FormatFloat(lo), state.FormatFloat(hi))))
		b.WriteString("\n")
	}
	return b.String()
}

func sparkRune(s state.State, d int, lo, hi float64) rune {
	if d >= len(s) {
		return ' '
	}
	v := s[d]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return '?'
	}
	if hi <= lo {
		return sparkLevels[len(sparkLevels)/2]
	}
	idx := int((v - lo) / (hi - lo) * float64(len(sparkLevels)-1))
	return sparkLevels[min(max(idx, 0), len(sparkLevels)-1)]
}

func lastValue(records []steplog.Record, d int) (float64, bool) {
	for i := len(records) - 1; i >= 0; i-- {
		if d < records[i].State.Len() {
			return records[i].State[d], true
		}
	}
	return 0, false
}
