package geo

import "math"

const radians = math.Pi / 180

// Orthographic is a globe projection centred at (CX, CY). Rotate holds the
// longitude and latitude rotation in degrees, as set by dragging the globe.
type Orthographic struct {
	Scale  float64
	CX, CY float64
	Rotate [2]float64
}

// NewOrthographic returns the default globe for a w×h canvas.
func NewOrthographic(w, h float64) Orthographic {
	return Orthographic{Scale: 150, CX: w / 2, CY: h / 2}
}

// Project maps a longitude/latitude pair to canvas coordinates. visible is
// false for points on the far side of the globe.
func (p Orthographic) Project(lon, lat float64) (x, y float64, visible bool) {
	lambda := (lon + p.Rotate[0]) * radians
	phi := lat * radians
	dphi := p.Rotate[1] * radians

	// Rotate the sphere around the y axis by the latitude rotation.
	cx := math.Cos(lambda) * math.Cos(phi)
	cy := math.Sin(lambda) * math.Cos(phi)
	cz := math.Sin(phi)
	k := cz*math.Cos(dphi) + cx*math.Sin(dphi)
	lambda = math.Atan2(cy, cx*math.Cos(dphi)-cz*math.Sin(dphi))
	phi = math.Asin(math.Max(-1, math.Min(1, k)))

	x = p.CX + p.Scale*math.Cos(phi)*math.Sin(lambda)
	y = p.CY - p.Scale*math.Sin(phi)
	visible = math.Cos(phi)*math.Cos(lambda) >= 0
	return x, y, visible
}

// Drag rotates the globe by a mouse delta in pixels.
func (p *Orthographic) Drag(dx, dy float64) {
	p.Rotate[0] -= dx * 0.5
	p.Rotate[1] += dy * 0.5
}

// Reset restores the unrotated view.
func (p *Orthographic) Reset() {
	p.Rotate = [2]float64{}
}
