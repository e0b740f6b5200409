// Package geometry computes alignment snapping for dragged elements.
package geometry

import "math"

// DefaultThreshold is the snapping distance in canvas pixels.
const DefaultThreshold = 5

type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Guide is an alignment line to draw while dragging. A vertical guide sits
// at x = Position, a horizontal one at y = Position.
type Guide struct {
	Orientation Orientation
	Position    float64
}

// Box is the resolved bounding box of another element.
type Box struct {
	ID                  string
	X, Y, Width, Height float64
}

// Edges returns the vertical (left, center, right) and horizontal
// (top, middle, bottom) alignment lines of b.
func (b Box) Edges() (xs, ys [3]float64) {
	xs = [3]float64{b.X, b.X + b.Width/2, b.X + b.Width}
	ys = [3]float64{b.Y, b.Y + b.Height/2, b.Y + b.Height}
	return xs, ys
}

type Input struct {
	MovingID      string
	X, Y          float64
	Width, Height float64
	Others        []Box
	CanvasWidth   float64
	CanvasHeight  float64
	// Threshold defaults to DefaultThreshold when zero.
	Threshold float64
}

type Result struct {
	X, Y   float64
	Guides []Guide
}

// Snap aligns the moving box with the first candidate line found within the
// threshold on each axis. Candidates come from the other elements in order,
// then from the canvas edges and centerline.
func Snap(in Input) Result {
	threshold := in.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var vLines, hLines []float64
	for _, o := range in.Others {
		if o.ID == in.MovingID {
			continue
		}
		xs, ys := o.Edges()
		vLines = append(vLines, xs[:]...)
		hLines = append(hLines, ys[:]...)
	}
	vLines = append(vLines, 0, in.CanvasWidth/2, in.CanvasWidth)
	hLines = append(hLines, 0, in.CanvasHeight/2, in.CanvasHeight)

	res := Result{X: in.X, Y: in.Y}
	if x, line, ok := snapAxis(in.X, in.Width, vLines, threshold); ok {
		res.X = x
		res.Guides = append(res.Guides, Guide{Orientation: Vertical, Position: line})
	}
	if y, line, ok := snapAxis(in.Y, in.Height, hLines, threshold); ok {
		res.Y = y
		res.Guides = append(res.Guides, Guide{Orientation: Horizontal, Position: line})
	}
	return res
}

func snapAxis(pos, size float64, lines []float64, threshold float64) (float64, float64, bool) {
	offsets := [3]float64{0, size / 2, size}
	for _, line := range lines {
		for _, off := range offsets {
			if math.Abs(pos+off-line) < threshold {
				return line - off, line, true
			}
		}
	}
	return pos, 0, false
}

// SnapToGrid rounds v to the nearest multiple of size.
func SnapToGrid(v float64, size int) float64 {
	if size <= 0 {
		return v
	}
	s := float64(size)
	return math.Round(v/s) * s
}
