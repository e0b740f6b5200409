package render

import (
	"image"
	"image/color"
	"log/slog"
	"math"
	"slices"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"certdesign/internal/assets"
	"certdesign/internal/document"
	"certdesign/internal/geometry"
)

// Mode selects which decorations a render carries.
type Mode int

const (
	// Editor draws the canvas shadow, bleed, grid, guides and selection.
	Editor Mode = iota
	// Preview draws the design only.
	Preview
	// Export draws the design only, for print output.
	Export
)

func (m Mode) String() string {
	switch m {
	case Editor:
		return "editor"
	case Preview:
		return "preview"
	case Export:
		return "export"
	}
	return "unknown"
}

// Options controls one render.
type Options struct {
	Mode Mode
	// Scale is the number of output pixels per canvas pixel. Zero means 1.
	Scale float64
	// Viewport, when non-empty in Editor mode, fixes the output size; the
	// canvas is drawn at (PanX, PanY) on a workspace backdrop.
	Viewport   image.Point
	PanX, PanY float64
	Guides     []geometry.Guide
	Selection  []string
}

var (
	workspaceColor = color.NRGBA{0xf1, 0xf5, 0xf9, 0xff}
	gridColor      = color.NRGBA{0xdd, 0xdd, 0xdd, 0xff}
	bleedColor     = color.NRGBA{0xef, 0x44, 0x44, 0x80}
	guideColor     = color.NRGBA{0x3b, 0x82, 0xf6, 0xff}
	selectionColor = color.NRGBA{0x3b, 0x82, 0xf6, 0xff}
)

// Renderer draws designs onto raster surfaces. A Renderer is safe for
// concurrent use; each call to Render works on its own surface and faces.
type Renderer struct {
	log    *slog.Logger
	fonts  *assets.Fonts
	images *assets.Loader
	qrs    *assets.QRCodes
}

type Option func(*Renderer)

func WithLogger(log *slog.Logger) Option {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

func WithFonts(f *assets.Fonts) Option {
	return func(r *Renderer) { r.fonts = f }
}

func WithImages(l *assets.Loader) Option {
	return func(r *Renderer) { r.images = l }
}

func WithQRCodes(q *assets.QRCodes) Option {
	return func(r *Renderer) { r.qrs = q }
}

// New returns a renderer. Asset sources that are not supplied are created
// with their defaults.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{log: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	if r.fonts == nil {
		fonts, err := assets.NewFonts(r.log)
		if err != nil {
			return nil, err
		}
		r.fonts = fonts
	}
	if r.images == nil {
		r.images = assets.NewLoader(assets.WithLoaderLogger(r.log))
	}
	if r.qrs == nil {
		r.qrs = assets.NewQRCodes()
	}
	return r, nil
}

func (r *Renderer) Images() *assets.Loader { return r.images }
func (r *Renderer) Fonts() *assets.Fonts { return r.fonts }
func (r *Renderer) QRCodes() *assets.QRCodes { return r.qrs }

// Sources lists every image source a design refers to, for preloading.
func Sources(d document.Design) []string {
	var out []string
	add := func(s string) {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	add(d.Canvas.BackgroundImage)
	for _, s := range d.Canvas.Sections {
		add(s.BackgroundImage)
	}
	for _, e := range d.Elements {
		switch v := e.(type) {
		case *document.Image:
			add(v.Src)
		case *document.Signature:
			add(v.ImageSrc)
		}
	}
	return out
}

type faceKey struct {
	family string
	size   float64
	style  assets.Style
}

// frame is the state of one Render call.
type frame struct {
	r      *Renderer
	img    *image.RGBA
	dc     *gg.Context
	d      document.Design
	opts   Options
	scale  float64
	panX   float64
	panY   float64
	origin image.Point
	faces  map[faceKey]font.Face
	scaled map[scaledKey]image.Image
}

// Render draws d and returns the surface.
func (r *Renderer) Render(d document.Design, opts Options) *image.RGBA {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	cw, ch := float64(d.Canvas.Width), float64(d.Canvas.Height)

	f := &frame{
		r:      r,
		d:      d,
		opts:   opts,
		scale:  scale,
		faces:  map[faceKey]font.Face{},
		scaled: map[scaledKey]image.Image{},
	}

	w, h := int(math.Ceil(cw*scale)), int(math.Ceil(ch*scale))
	if opts.Mode == Editor && opts.Viewport.X > 0 && opts.Viewport.Y > 0 {
		w, h = opts.Viewport.X, opts.Viewport.Y
		f.panX, f.panY = opts.PanX, opts.PanY
	}
	f.img = image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	f.dc = gg.NewContextForRGBA(f.img)

	editor := opts.Mode == Editor
	if editor && f.panned() {
		f.dc.SetColor(workspaceColor)
		f.dc.Clear()
	}

	f.background(editor)
	f.backgroundImage()
	f.sections()
	if editor && d.Canvas.ShowBleed {
		f.bleed()
	}
	if editor && d.Canvas.GridOn {
		f.grid()
	}
	for _, e := range d.Elements {
		f.element(e)
	}
	if editor {
		f.guides()
		f.selection()
	}
	return f.img
}

func (f *frame) panned() bool {
	return f.opts.Viewport.X > 0 && f.opts.Viewport.Y > 0
}

// reset puts dc back to canvas coordinates. gg exposes no way to read the
// matrix back, so every layer starts here.
func (f *frame) reset(dc *gg.Context) {
	dc.Identity()
	dc.Translate(f.panX-float64(f.origin.X), f.panY-float64(f.origin.Y))
	dc.Scale(f.scale, f.scale)
}

func (f *frame) canvasSize() (float64, float64) {
	return float64(f.d.Canvas.Width), float64(f.d.Canvas.Height)
}

func (f *frame) background(editor bool) {
	cw, ch := f.canvasSize()
	dc := f.dc
	f.reset(dc)
	if editor {
		// Soft drop shadow below the sheet: widening bands, offset 10px down.
		const bands = 5
		for i := bands; i >= 1; i-- {
			spread := float64(i) * 4
			dc.DrawRoundedRectangle(-spread/2, 10-spread/2, cw+spread, ch+spread, spread/2)
			dc.SetColor(color.NRGBA{A: uint8(26 / i)})
			dc.Fill()
		}
	}
	dc.DrawRectangle(0, 0, cw, ch)
	dc.SetColor(colorOr(f.d.Canvas.BackgroundColor, color.NRGBA{255, 255, 255, 255}))
	dc.Fill()
}

func (f *frame) backgroundImage() {
	src := f.d.Canvas.BackgroundImage
	if src == "" {
		return
	}
	im, state := f.r.images.Get(src)
	if state != assets.Loaded {
		return
	}
	cw, ch := f.canvasSize()
	f.reset(f.dc)
	f.bitmap(f.dc, im, 0, 0, cw, ch, f.scale, false)
}

func (f *frame) sections() {
	cw, ch := f.d.Canvas.Width, f.d.Canvas.Height
	for _, s := range f.d.Canvas.Sections {
		b := s.Rect(cw, ch)
		if b.Width <= 0 || b.Height <= 0 || s.Opacity <= 0 {
			continue
		}
		area := f.deviceBox(gg.Identity().Translate(f.panX, f.panY).Scale(f.scale, f.scale), b.X, b.Y, b.X+b.Width, b.Y+b.Height, 1)
		f.withOpacity(s.Opacity, area, func(dc *gg.Context) {
			f.reset(dc)
			dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
			dc.Clip()
			defer dc.ResetClip()
			if c, ok := ParseColor(s.BackgroundColor); ok {
				dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
				dc.SetColor(c)
				dc.Fill()
			}
			if s.BackgroundImage != "" {
				if im, state := f.r.images.Get(s.BackgroundImage); state == assets.Loaded {
					f.bitmap(dc, im, b.X, b.Y, b.Width, b.Height, f.scale, false)
				}
			}
		})
	}
}

func (f *frame) bleed() {
	cw, ch := f.canvasSize()
	inset := f.d.Canvas.BleedArea
	dc := f.dc
	f.reset(dc)
	dc.SetDash(5*f.scale, 5*f.scale)
	dc.SetLineWidth(f.scale)
	dc.SetColor(bleedColor)
	dc.DrawRectangle(inset, inset, cw-inset*2, ch-inset*2)
	dc.Stroke()
	dc.SetDash()
}

func (f *frame) grid() {
	size := float64(f.d.Canvas.GridSize)
	if size <= 0 {
		return
	}
	cw, ch := f.canvasSize()
	dc := f.dc
	f.reset(dc)
	dc.SetLineWidth(f.scale)
	dc.SetColor(gridColor)
	for x := 0.0; x <= cw; x += size {
		dc.DrawLine(x, 0, x, ch)
	}
	for y := 0.0; y <= ch; y += size {
		dc.DrawLine(0, y, cw, y)
	}
	dc.Stroke()
}

func (f *frame) guides() {
	if len(f.opts.Guides) == 0 {
		return
	}
	cw, ch := f.canvasSize()
	dc := f.dc
	f.reset(dc)
	dc.SetDash(4*f.scale, 4*f.scale)
	dc.SetLineWidth(f.scale)
	dc.SetColor(guideColor)
	for _, g := range f.opts.Guides {
		if g.Orientation == geometry.Vertical {
			dc.DrawLine(g.Position, 0, g.Position, ch)
		} else {
			dc.DrawLine(0, g.Position, cw, g.Position)
		}
	}
	dc.Stroke()
	dc.SetDash()
}

// selection outlines every selected element with its rotated box and
// corner handles.
func (f *frame) selection() {
	const handle = 8
	dc := f.dc
	for _, id := range f.opts.Selection {
		e, ok := f.d.Find(id)
		if !ok || !e.Meta().IsVisible() {
			continue
		}
		b := e.Meta()
		f.reset(dc)
		dc.Translate(b.X, b.Y)
		dc.Rotate(gg.Radians(b.Rotation))
		w, h := b.Width*b.ScaleX, b.Height*b.ScaleY

		dc.SetLineWidth(f.scale)
		dc.SetColor(selectionColor)
		dc.DrawRectangle(0, 0, w, h)
		dc.Stroke()

		hs := handle / f.scale
		for _, p := range [][2]float64{{0, 0}, {w / 2, 0}, {w, 0}, {0, h / 2}, {w, h / 2}, {0, h}, {w / 2, h}, {w, h}} {
			dc.DrawRectangle(p[0]-hs/2, p[1]-hs/2, hs, hs)
			dc.SetColor(color.White)
			dc.FillPreserve()
			dc.SetColor(selectionColor)
			dc.Stroke()
		}
	}
}

func (f *frame) face(family string, size float64, style assets.Style) font.Face {
	k := faceKey{family: family, size: math.Round(size*4) / 4, style: style}
	if face, ok := f.faces[k]; ok {
		return face
	}
	face := f.r.fonts.Face(family, k.size, style)
	f.faces[k] = face
	return face
}
