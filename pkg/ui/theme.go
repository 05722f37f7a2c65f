package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// DataFg is ThemeFg for colours computed from data (series, markers).
func DataFg(c colorful.Color) lipgloss.TerminalColor {
	return ThemeFg(c.Clamped().Hex())
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Hierarchy
	Branch    lipgloss.AdaptiveColor
	Leaf      lipgloss.AdaptiveColor
	Selection lipgloss.AdaptiveColor

	// Timeline
	Playing lipgloss.AdaptiveColor
	Paused  lipgloss.AdaptiveColor
	Rise    lipgloss.AdaptiveColor
	Fall    lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Panel    lipgloss.Style
	Header   lipgloss.Style

	// Pre-computed row styles, created once instead of per frame.
	MutedText     lipgloss.Style
	InfoText      lipgloss.Style
	SecondaryText lipgloss.Style
	PrimaryBold   lipgloss.Style
	Marked        lipgloss.Style
	ErrorText     lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},

		Branch:    lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Leaf:      lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Selection: lipgloss.AdaptiveColor{Light: "#808000", Dark: "#FFFF00"}, // matches the yellow treemap stroke

		Playing: lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Paused:  lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},
		Rise:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Fall:    lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		Bold(true)

	t.Panel = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.MutedText = r.NewStyle().Foreground(ColorMuted)
	t.InfoText = r.NewStyle().Foreground(ColorInfo)
	t.SecondaryText = r.NewStyle().Foreground(t.Secondary)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Marked = r.NewStyle().Foreground(t.Selection).Bold(true)
	t.ErrorText = r.NewStyle().Foreground(ColorDanger).Bold(true)

	return t
}

// NodeColor picks the bar colour for a hierarchy row.
func (t Theme) NodeColor(leaf, highlighted bool) lipgloss.AdaptiveColor {
	switch {
	case highlighted:
		return t.Selection
	case leaf:
		return t.Leaf
	default:
		return t.Branch
	}
}

// RateColor colours a relative rate: rising burden red, falling green.
func (t Theme) RateColor(percent float64) lipgloss.AdaptiveColor {
	switch {
	case percent > 0:
		return t.Rise
	case percent < 0:
		return t.Fall
	default:
		return t.Subtext
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
