package render

import (
	"math"

	"github.com/fogleman/gg"

	"certdesign/internal/document"
)

// GradientVector returns the start and end points of a linear gradient over
// a w×h box, in the box's local coordinates: from the origin to
// (w·cos θ, h·sin θ).
func GradientVector(g document.Gradient, w, h float64) (x0, y0, x1, y1 float64) {
	theta := g.Rotation * math.Pi / 180
	return 0, 0, w * math.Cos(theta), h * math.Sin(theta)
}

// fillPattern builds the gg pattern for a fill in device space, given the
// context's current transform. ok is false when nothing should be painted.
func fillPattern(dc *gg.Context, f document.Fill, w, h float64) (gg.Pattern, bool) {
	if f.IsGradient() {
		x0, y0, x1, y1 := GradientVector(*f.Gradient, w, h)
		dx0, dy0 := dc.TransformPoint(x0, y0)
		dx1, dy1 := dc.TransformPoint(x1, y1)
		grad := gg.NewLinearGradient(dx0, dy0, dx1, dy1)
		for _, s := range f.Gradient.Stops {
			grad.AddColorStop(s.Offset, hex(s.Color))
		}
		return grad, true
	}
	c, ok := ParseColor(f.Color)
	if !ok || c.A == 0 {
		return nil, false
	}
	return gg.NewSolidPattern(c), true
}
