package document

import "math"

// Bounds is an axis-aligned rectangle in canvas pixels.
type Bounds struct {
	X, Y, Width, Height float64
}

func (b Bounds) Right() float64   { return b.X + b.Width }
func (b Bounds) Bottom() float64  { return b.Y + b.Height }
func (b Bounds) CenterX() float64 { return b.X + b.Width/2 }
func (b Bounds) CenterY() float64 { return b.Y + b.Height/2 }

// Contains reports whether the point lies inside b.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.X && x < b.Right() && y >= b.Y && y < b.Bottom()
}

// ResolveBounds returns the element's box after scaling. Rotation is not
// applied; stored geometry is always the unrotated box.
func ResolveBounds(e Element) Bounds {
	b := e.Meta()
	return Bounds{
		X:      b.X,
		Y:      b.Y,
		Width:  b.Width * b.ScaleX,
		Height: b.Height * b.ScaleY,
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsValidElement checks the type tag against the variant and the fields each
// variant requires.
func IsValidElement(e Element) bool {
	if e == nil {
		return false
	}
	b := e.Meta()
	if b.ID == "" || b.Width <= 0 || b.Height <= 0 {
		return false
	}
	if b.ScaleX < ScaleEpsilon || b.ScaleY < ScaleEpsilon {
		return false
	}
	if a := b.Alpha(); a < 0 || a > 1 {
		return false
	}
	if !finite(b.X, b.Y, b.Rotation, b.ScaleX, b.ScaleY, b.Width, b.Height) {
		return false
	}

	switch v := e.(type) {
	case *Text:
		return b.Type == KindText && v.FontSize > 0 && validFill(v.Fill)
	case *Image:
		return b.Type == KindImage && v.BorderRadius >= 0 && validFill(v.Fill)
	case *Shape:
		return b.Type.IsShape() && v.StrokeWidth >= 0 && validFill(v.Fill)
	case *QR:
		return b.Type == KindQR
	case *Serial:
		return b.Type == KindSerial && v.FontSize > 0
	case *Signature:
		return b.Type == KindSignature
	}
	return false
}

func validFill(f Fill) bool {
	if f.Gradient == nil {
		return true
	}
	if f.Gradient.Type != "linear" || len(f.Gradient.Stops) == 0 {
		return false
	}
	for _, s := range f.Gradient.Stops {
		if s.Offset < 0 || s.Offset > 1 {
			return false
		}
	}
	return true
}

// ValidCanvas reports whether the canvas has a positive size.
func ValidCanvas(c CanvasConfig) bool {
	return c.Width > 0 && c.Height > 0
}
