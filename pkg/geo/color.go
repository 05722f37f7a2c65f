package geo

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Scale endpoints for marker values.
const (
	ScaleMin = 0.0
	ScaleMax = 100.0
)

var (
	low       = mustHex("#0000ff")
	high      = mustHex("#ff0000")
	Missing   = mustHex("#808080")
	Selected  = mustHex("#ff0000")
	Hovered   = mustHex("#ffa500")
	OceanFill = mustHex("#0000ff")
)

// category10 is the ordinal palette regions are filled with.
var category10 = []colorful.Color{
	mustHex("#1f77b4"), mustHex("#ff7f0e"), mustHex("#2ca02c"), mustHex("#d62728"),
	mustHex("#9467bd"), mustHex("#8c564b"), mustHex("#e377c2"), mustHex("#7f7f7f"),
	mustHex("#bcbd22"), mustHex("#17becf"),
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ValueColor maps a value on [ScaleMin, ScaleMax] linearly from blue to red
// in RGB space. Values outside the domain are clamped.
func ValueColor(v float64) colorful.Color {
	t := (v - ScaleMin) / (ScaleMax - ScaleMin)
	t = math.Max(0, math.Min(1, t))
	return low.BlendRgb(high, t).Clamped()
}

// MarkerColor returns the fill for a marker value. Missing and zero values
// are grey.
func MarkerColor(v float64, ok bool) colorful.Color {
	if !ok || v == 0 || math.IsNaN(v) {
		return Missing
	}
	return ValueColor(v)
}

// Palette returns the i-th ordinal region colour.
func Palette(i int) colorful.Color {
	if i < 0 {
		i = -i
	}
	return category10[i%len(category10)]
}
