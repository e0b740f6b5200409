package render

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"certdesign/internal/assets"
	"certdesign/internal/document"
)

type placeholder struct {
	fill, stroke, ink color.NRGBA
	label             string
}

var (
	loadingBox = placeholder{
		fill:   color.NRGBA{0xf0, 0xf0, 0xf0, 0xff},
		stroke: color.NRGBA{0xdd, 0xdd, 0xdd, 0xff},
		ink:    color.NRGBA{0x99, 0x99, 0x99, 0xff},
		label:  "Loading...",
	}
	failedBox = placeholder{
		fill:   color.NRGBA{0xff, 0xeb, 0xee, 0xff},
		stroke: color.NRGBA{0xff, 0xcd, 0xd2, 0xff},
		ink:    color.NRGBA{0xef, 0x53, 0x50, 0xff},
		label:  "Image Error",
	}

	black          = color.NRGBA{0, 0, 0, 0xff}
	white          = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	qrPending      = color.NRGBA{0xf1, 0xf5, 0xf9, 0xff}
	qrBorder       = color.NRGBA{0xe2, 0xe8, 0xf0, 0xff}
	signatureFill  = color.NRGBA{0xf8, 0xfa, 0xfc, 0xff}
	signatureInk   = color.NRGBA{0x94, 0xa3, 0xb8, 0xff}
	signatureRule  = color.NRGBA{0xcb, 0xd5, 0xe1, 0xff}
	signatureLabel = "[Authorized Signature]"
)

// element draws one element in isolation: a panic while drawing it is
// logged and the element is replaced by the failed box.
func (f *frame) element(e document.Element) {
	b := e.Meta()
	if !b.IsVisible() || b.Alpha() <= 0 || b.Width <= 0 || b.Height <= 0 {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			f.r.log.Error("element render failed", "id", b.ID, "type", b.Type, "panic", p)
			f.dc.ResetClip()
			f.reset(f.dc)
			f.place(f.dc, b)
			f.placeholder(f.dc, b, failedBox)
		}
	}()

	f.withOpacity(b.Alpha(), f.area(e), func(dc *gg.Context) {
		f.reset(dc)
		f.place(dc, b)
		switch v := e.(type) {
		case *document.Text:
			f.text(dc, v)
		case *document.Shape:
			f.shape(dc, v)
		case *document.Image:
			f.image(dc, v)
		case *document.QR:
			f.qr(dc, v)
		case *document.Serial:
			f.serial(dc, v)
		case *document.Signature:
			f.signature(dc, v)
		}
	})
}

// withOpacity runs draw against the surface directly, or against a scratch
// layer covering area that is composited at alpha when alpha is below 1.
// While the layer is active, reset maps canvas space into the layer.
func (f *frame) withOpacity(alpha float64, area image.Rectangle, draw func(dc *gg.Context)) {
	if alpha >= 1 {
		draw(f.dc)
		return
	}
	area = area.Intersect(f.img.Bounds())
	if area.Empty() {
		return
	}
	layer := image.NewRGBA(image.Rect(0, 0, area.Dx(), area.Dy()))
	f.origin = area.Min
	defer func() { f.origin = image.Point{} }()
	draw(gg.NewContextForRGBA(layer))
	mask := image.NewUniform(color.Alpha{A: clamp8(alpha * 255)})
	xdraw.DrawMask(f.img, area, layer, image.Point{}, mask, image.Point{}, xdraw.Over)
}

// area is the device-space box e can paint into: its local extent pushed
// through the page and element transforms, padded for strokes and
// antialiasing.
func (f *frame) area(e document.Element) image.Rectangle {
	b := e.Meta()
	x0, y0, x1, y1 := f.extent(e)
	sx, sy := scales(b)
	m := gg.Identity().
		Translate(f.panX, f.panY).
		Scale(f.scale, f.scale).
		Translate(b.X, b.Y).
		Rotate(gg.Radians(b.Rotation)).
		Scale(sx, sy)
	return f.deviceBox(m, x0, y0, x1, y1, f.lineWidth(b, strokeWidth(e))+2)
}

func (f *frame) deviceBox(m gg.Matrix, x0, y0, x1, y1, pad float64) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [][2]float64{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}} {
		x, y := m.TransformPoint(p[0], p[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return image.Rect(
		int(math.Floor(minX-pad)), int(math.Floor(minY-pad)),
		int(math.Ceil(maxX+pad)), int(math.Ceil(maxY+pad)),
	)
}

// extent is the local box e draws into. It is wider than the element box
// where the drawing overflows it: round shapes use radius width/2, text
// wraps downward and centered labels spill sideways.
func (f *frame) extent(e document.Element) (x0, y0, x1, y1 float64) {
	b := e.Meta()
	w, h := b.Width, b.Height
	x0, y0, x1, y1 = 0, 0, w, h
	switch v := e.(type) {
	case *document.Shape:
		if v.Type == document.KindCircle || v.Type == document.KindHexagon {
			y0 = math.Min(y0, h/2-w/2)
			y1 = math.Max(y1, h/2+w/2)
		}
	case *document.Text:
		y1 = math.Max(y1, f.textHeight(v))
	case *document.Serial, *document.Signature:
		x0, x1 = -w, 2*w
	}
	return x0, y0, x1, y1
}

func strokeWidth(e document.Element) float64 {
	switch v := e.(type) {
	case *document.Shape:
		return v.StrokeWidth
	case *document.Image:
		return v.StrokeWidth
	}
	return 1
}

func scales(b *document.Base) (float64, float64) {
	sx, sy := b.ScaleX, b.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return sx, sy
}

// place applies the element transform: translate, rotate about the
// top-left corner, then scale.
func (f *frame) place(dc *gg.Context, b *document.Base) {
	sx, sy := scales(b)
	dc.Translate(b.X, b.Y)
	dc.Rotate(gg.Radians(b.Rotation))
	dc.Scale(sx, sy)
}

// density is the number of output pixels per local unit of b.
func (f *frame) density(b *document.Base) float64 {
	sx, sy := scales(b)
	return f.scale * math.Max(math.Abs(sx), math.Abs(sy))
}

// lineWidth converts a stroke width in local units to output pixels; gg
// strokes in device space.
func (f *frame) lineWidth(b *document.Base, w float64) float64 {
	sx, sy := scales(b)
	return w * f.scale * math.Sqrt(math.Abs(sx*sy))
}

type scaledKey struct {
	src     image.Image
	w, h    int
	nearest bool
}

// bitmap draws im stretched over (x, y, w, h) in the current transform. The
// bitmap is resampled to its output size first so gg's bilinear transform
// only has to cover the remainder.
func (f *frame) bitmap(dc *gg.Context, im image.Image, x, y, w, h, density float64, nearest bool) {
	tw, th := int(math.Ceil(w*density)), int(math.Ceil(h*density))
	if tw <= 0 || th <= 0 {
		return
	}
	key := scaledKey{src: im, w: tw, h: th, nearest: nearest}
	scaled, ok := f.scaled[key]
	if !ok {
		dst := image.NewRGBA(image.Rect(0, 0, tw, th))
		var interp xdraw.Interpolator = xdraw.CatmullRom
		if nearest {
			interp = xdraw.NearestNeighbor
		}
		interp.Scale(dst, dst.Bounds(), im, im.Bounds(), xdraw.Src, nil)
		scaled = dst
		f.scaled[key] = dst
	}
	dc.Push()
	dc.Translate(x, y)
	dc.Scale(w/float64(tw), h/float64(th))
	dc.DrawImage(scaled, 0, 0)
	dc.Pop()
}

func (f *frame) placeholder(dc *gg.Context, b *document.Base, p placeholder) {
	dc.DrawRectangle(0, 0, b.Width, b.Height)
	dc.SetColor(p.fill)
	dc.FillPreserve()
	dc.SetColor(p.stroke)
	dc.SetLineWidth(f.lineWidth(b, 1))
	dc.Stroke()
	f.centered(dc, b, p.label, "sans-serif", 12, assets.Style{}, p.ink, b.Width, b.Height)
}

func (f *frame) stroke(dc *gg.Context, b *document.Base, stroke string, width float64) {
	c, ok := ParseColor(stroke)
	if !ok || width <= 0 {
		dc.ClearPath()
		return
	}
	dc.SetColor(c)
	dc.SetLineWidth(f.lineWidth(b, width))
	dc.Stroke()
}

func (f *frame) shape(dc *gg.Context, s *document.Shape) {
	w, h := s.Width, s.Height
	path := func() {
		switch s.Type {
		case document.KindCircle:
			dc.DrawCircle(w/2, h/2, w/2)
		case document.KindHexagon:
			hexagon(dc, w/2, h/2, w/2)
		default:
			if r := math.Min(s.CornerRadius, math.Min(w, h)/2); r > 0 {
				dc.DrawRoundedRectangle(0, 0, w, h, r)
			} else {
				dc.DrawRectangle(0, 0, w, h)
			}
		}
	}

	if p, ok := fillPattern(dc, s.Fill, w, h); ok {
		path()
		dc.SetFillStyle(p)
		dc.Fill()
	}
	path()
	f.stroke(dc, &s.Base, s.Stroke, s.StrokeWidth)
}

// hexagon adds a regular hexagon with a vertex at the top.
func hexagon(dc *gg.Context, cx, cy, r float64) {
	for i := range 6 {
		a := -math.Pi/2 + float64(i)*math.Pi/3
		x, y := cx+r*math.Cos(a), cy+r*math.Sin(a)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
}

func (f *frame) image(dc *gg.Context, im *document.Image) {
	w, h := im.Width, im.Height
	src, state := f.r.images.Get(im.Src)
	switch state {
	case assets.Loading:
		f.placeholder(dc, &im.Base, loadingBox)
		return
	case assets.Failed:
		f.placeholder(dc, &im.Base, failedBox)
		return
	}

	radius := math.Min(im.BorderRadius, math.Min(w, h)/2)
	path := func() {
		if radius > 0 {
			dc.DrawRoundedRectangle(0, 0, w, h, radius)
		} else {
			dc.DrawRectangle(0, 0, w, h)
		}
	}

	if p, ok := fillPattern(dc, im.Fill, w, h); ok {
		path()
		dc.SetFillStyle(p)
		dc.Fill()
	}
	if radius > 0 {
		path()
		dc.Clip()
	}
	f.bitmap(dc, src, 0, 0, w, h, f.density(&im.Base), false)
	dc.ResetClip()

	path()
	f.stroke(dc, &im.Base, im.Stroke, im.StrokeWidth)
}

func (f *frame) qr(dc *gg.Context, q *document.QR) {
	w, h := q.Width, q.Height
	fg, bg := colorOr(q.Color, black), colorOr(q.BackgroundColor, white)

	dc.DrawRectangle(0, 0, w, h)
	dc.SetColor(bg)
	dc.FillPreserve()
	dc.SetColor(qrBorder)
	dc.SetLineWidth(f.lineWidth(&q.Base, 0.5))
	dc.Stroke()

	if strings.TrimSpace(q.Content) == "" {
		dc.DrawRectangle(0, 0, w, h)
		dc.SetColor(qrPending)
		dc.Fill()
		return
	}
	code, err := f.r.qrs.Get(q.Content, fg, bg)
	if err != nil {
		f.r.log.Warn("qr encode failed", "id", q.ID, "err", err)
		f.placeholder(dc, &q.Base, failedBox)
		return
	}
	f.bitmap(dc, code, 0, 0, w, h, f.density(&q.Base), true)
}

func (f *frame) serial(dc *gg.Context, s *document.Serial) {
	size := s.FontSize
	if size <= 0 {
		size = 14
	}
	content := s.Content
	if content == "" {
		content = s.Format
	}
	style := assets.Style{Bold: s.FontWeight.Bold()}
	f.centered(dc, &s.Base, content, s.FontFamily, size, style, colorOr(s.Fill, black), s.Width, s.Height)
}

func (f *frame) signature(dc *gg.Context, s *document.Signature) {
	w, h := s.Width, s.Height
	if s.ImageSrc != "" {
		if src, state := f.r.images.Get(s.ImageSrc); state == assets.Loaded {
			f.bitmap(dc, src, 0, 0, w, h, f.density(&s.Base), false)
			return
		}
	}

	dc.DrawRectangle(0, 0, w, h)
	dc.SetColor(signatureFill)
	dc.FillPreserve()
	dc.SetColor(qrBorder)
	dc.SetLineWidth(f.lineWidth(&s.Base, 1))
	dc.Stroke()

	f.centered(dc, &s.Base, signatureLabel, "sans-serif", 12, assets.Style{Italic: true}, signatureInk, w, math.Max(h-20, 0))

	dc.DrawLine(20, h-20, w-20, h-20)
	dc.SetColor(signatureRule)
	dc.SetLineWidth(f.lineWidth(&s.Base, 1))
	dc.Stroke()
}
