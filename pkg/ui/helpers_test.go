package ui

import (
	"math"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Botswana", 10, "Botswana"},
		{"Botswana", 5, "Bots…"},
		{"Botswana", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestFitCell(t *testing.T) {
	for _, s := range []string{"Chad", "SouthernAfrica", ""} {
		if w := runewidth.StringWidth(fitCell(s, 8)); w != 8 {
			t.Errorf("fitCell(%q, 8) width = %d", s, w)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{4501, "4,501"},
		{0, "0"},
		{1234.56, "1,234.6"},
		{1234.54, "1,234.5"},
		{1234.96, "1,235"},
		{0.05, "0.1"},
		{math.NaN(), "-"},
		{math.Inf(1), "-"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.v); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	if got := formatRate(-20); got != "-20.0%" {
		t.Errorf("formatRate(-20) = %q", got)
	}
	if got := formatRate(3.25); got != "+3.2%" && got != "+3.3%" {
		t.Errorf("formatRate(3.25) = %q", got)
	}
}

func TestSparkline(t *testing.T) {
	got := Sparkline([]float64{0, 5, 10, 20}, 10)
	if got != "▁▄██" {
		t.Errorf("Sparkline = %q", got)
	}
	if Sparkline([]float64{3, 4}, 0) != "▁▁" {
		t.Error("zero extent should draw the lowest block")
	}
}

func TestRenderSlider(t *testing.T) {
	tests := []struct {
		year int
		want string
	}{
		{1990, "●────"},
		{2000, "━━●──"},
		{2010, "━━━━●"},
		{2050, "━━━━●"},
	}
	for _, tt := range tests {
		if got := RenderSlider(1990, 2010, tt.year, 5); got != tt.want {
			t.Errorf("RenderSlider(year %d) = %q, want %q", tt.year, got, tt.want)
		}
	}
	if got := RenderSlider(2000, 2000, 2000, 3); got != "━━●" {
		t.Errorf("degenerate range = %q", got)
	}
	if RenderSlider(1990, 2010, 2000, 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestRenderMiniBar(t *testing.T) {
	bar := RenderMiniBar(0.5, 10, ColorPrimary, TestTheme())
	if n := strings.Count(bar, "█"); n != 5 {
		t.Errorf("filled cells = %d, want 5", n)
	}
	if RenderMiniBar(0.5, 0, ColorPrimary, TestTheme()) != "" {
		t.Error("zero width should render nothing")
	}
}
