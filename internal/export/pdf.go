// Package export writes rendered designs as print files.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/go-pdf/fpdf"

	"certdesign/internal/document"
	"certdesign/internal/render"
)

// A4 page size in points.
const (
	A4Width  = 595.28
	A4Height = 841.89
)

// Supersample is the pixel ratio designs are rendered at before being
// placed on the page.
const Supersample = 3

// ErrSurfaceNotReady is returned when there is no rendered surface to
// export.
var ErrSurfaceNotReady = errors.New("render surface not ready")

// Placement is where a canvas lands on the page, in points.
type Placement struct {
	Orientation string
	PageWidth   float64
	PageHeight  float64
	X, Y        float64
	Width       float64
	Height      float64
}

// Fit places a canvas on A4: landscape when the canvas is wider than tall,
// scaled uniformly to fit and centered.
func Fit(c document.CanvasConfig) Placement {
	p := Placement{Orientation: "P", PageWidth: A4Width, PageHeight: A4Height}
	if c.Width > c.Height {
		p.Orientation = "L"
		p.PageWidth, p.PageHeight = A4Height, A4Width
	}
	cw, ch := float64(c.Width), float64(c.Height)
	if cw <= 0 || ch <= 0 {
		return p
	}
	ratio := math.Min(p.PageWidth/cw, p.PageHeight/ch)
	p.Width, p.Height = cw*ratio, ch*ratio
	p.X = (p.PageWidth - p.Width) / 2
	p.Y = (p.PageHeight - p.Height) / 2
	return p
}

func ready(surface image.Image) bool {
	if surface == nil {
		return false
	}
	b := surface.Bounds()
	return b.Dx() > 0 && b.Dy() > 0
}

// PDF writes a single-page A4 document holding surface fitted per Fit.
func PDF(w io.Writer, surface image.Image, c document.CanvasConfig) error {
	if !ready(surface) || c.Width <= 0 || c.Height <= 0 {
		return ErrSurfaceNotReady
	}
	p := Fit(c)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, surface); err != nil {
		return fmt.Errorf("encode surface: %w", err)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: p.Orientation,
		UnitStr:        "pt",
		SizeStr:        "A4",
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("design", opt, &buf)
	pdf.ImageOptions("design", p.X, p.Y, p.Width, p.Height, false, opt, 0, "")
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// PNG writes surface as a PNG image.
func PNG(w io.Writer, surface image.Image) error {
	if !ready(surface) {
		return ErrSurfaceNotReady
	}
	if err := png.Encode(w, surface); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Render preloads every asset d refers to, renders it for print at
// Supersample and writes the PDF.
func Render(ctx context.Context, r *render.Renderer, d document.Design, w io.Writer) error {
	if err := r.Images().Preload(ctx, render.Sources(d)...); err != nil {
		return fmt.Errorf("preload assets: %w", err)
	}
	surface := r.Render(d, render.Options{Mode: render.Export, Scale: Supersample})
	return PDF(w, surface, d.Canvas)
}
