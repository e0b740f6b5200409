package geometry

import "math"

type Point struct {
	X, Y float64
}

// Rotate turns p around origin by deg degrees, clockwise in screen space.
func Rotate(p, origin Point, deg float64) Point {
	if deg == 0 {
		return p
	}
	s, c := math.Sincos(deg * math.Pi / 180)
	dx, dy := p.X-origin.X, p.Y-origin.Y
	return Point{
		X: origin.X + dx*c - dy*s,
		Y: origin.Y + dx*s + dy*c,
	}
}

// Corners returns the four corners of a box of size w×h placed at (x, y)
// and rotated by deg around its top-left corner, starting top-left and going
// clockwise.
func Corners(x, y, w, h, deg float64) [4]Point {
	o := Point{X: x, Y: y}
	return [4]Point{
		Rotate(o, o, deg),
		Rotate(Point{X: x + w, Y: y}, o, deg),
		Rotate(Point{X: x + w, Y: y + h}, o, deg),
		Rotate(Point{X: x, Y: y + h}, o, deg),
	}
}

// RotatedBounds returns the axis-aligned box enclosing the rotated box.
func RotatedBounds(x, y, w, h, deg float64) Box {
	pts := Corners(x, y, w, h, deg)
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
