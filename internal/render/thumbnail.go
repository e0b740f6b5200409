package render

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"certdesign/internal/document"
)

// Thumbnail renders a preview of d no wider than maxWidth. The design is
// drawn at twice the target size and downsampled.
func (r *Renderer) Thumbnail(d document.Design, maxWidth int) *image.RGBA {
	cw := d.Canvas.Width
	if cw <= 0 || maxWidth <= 0 || maxWidth >= cw {
		return r.Render(d, Options{Mode: Preview})
	}
	scale := float64(maxWidth) / float64(cw)
	big := r.Render(d, Options{Mode: Preview, Scale: scale * 2})

	th := max(1, int(float64(d.Canvas.Height)*scale+0.5))
	out := image.NewRGBA(image.Rect(0, 0, maxWidth, th))
	xdraw.CatmullRom.Scale(out, out.Bounds(), big, big.Bounds(), xdraw.Src, nil)
	return out
}
