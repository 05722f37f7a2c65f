package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// DESIGN TOKENS - Colors and visual language
// ══════════════════════════════════════════════════════════════════════════════

// Adaptive colors for light and dark terminals.
var (
	ColorMuted = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// sparkRunes are the eight block heights of a sparkline.
var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// ══════════════════════════════════════════════════════════════════════════════
// METRIC VISUALIZATION - Bars, sliders and sparklines
// ══════════════════════════════════════════════════════════════════════════════

// RenderMiniBar renders a horizontal bar for a share between 0 and 1.
func RenderMiniBar(value float64, width int, color lipgloss.TerminalColor, t Theme) string {
	if width <= 0 {
		return ""
	}
	value = clamp01(value)
	filled := int(value*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return t.Renderer.NewStyle().Foreground(color).Render(bar)
}

// RenderSlider renders a year slider of the given width with the knob at
// year. A degenerate range puts the knob at the right end.
func RenderSlider(minYear, maxYear, year, width int) string {
	if width < 1 {
		return ""
	}
	pos := width - 1
	if maxYear > minYear {
		pos = (year - minYear) * (width - 1) / (maxYear - minYear)
	}
	pos = min(max(pos, 0), width-1)
	return strings.Repeat("━", pos) + "●" + strings.Repeat("─", width-1-pos)
}

// Sparkline maps values onto block runes against hi. Values at or below 0
// draw as the lowest block.
func Sparkline(values []float64, hi float64) string {
	var sb strings.Builder
	for _, v := range values {
		idx := 0
		if hi > 0 {
			idx = int(clamp01(v/hi) * float64(len(sparkRunes)-1))
		}
		sb.WriteRune(sparkRunes[idx])
	}
	return sb.String()
}

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Foreground(ColorMuted).Render(strings.Repeat("─", width))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
