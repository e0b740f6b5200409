package render

import (
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"certdesign/internal/assets"
	"certdesign/internal/document"
)

// ApplyTransform applies a CSS-style text-transform value.
func ApplyTransform(s, transform string) string {
	switch transform {
	case "uppercase":
		return cases.Upper(language.Und).String(s)
	case "lowercase":
		return cases.Lower(language.Und).String(s)
	case "capitalize":
		return cases.Title(language.Und, cases.NoLower).String(s)
	}
	return s
}

type textLine struct {
	text       string
	width      float64
	spaceExtra float64
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// measure returns the advance width of s with spacing added after every
// rune.
func measure(face font.Face, s string, spacing float64) float64 {
	w := toFloat(font.MeasureString(face, s))
	return w + spacing*float64(len([]rune(s)))
}

// layoutLines breaks content into lines no wider than maxWidth. Explicit
// newlines always break; a single word wider than maxWidth keeps its own
// line. Justified lines other than the last of a paragraph get their slack
// spread over their spaces.
func layoutLines(face font.Face, content string, maxWidth, spacing float64, justify bool) []textLine {
	var lines []textLine
	for _, para := range strings.Split(content, "\n") {
		words := strings.Split(para, " ")
		start := len(lines)
		cur := ""
		for i, word := range words {
			candidate := word
			if i > 0 {
				candidate = cur + " " + word
			}
			if i == 0 || measure(face, candidate, spacing) <= maxWidth {
				cur = candidate
				continue
			}
			lines = append(lines, textLine{text: cur, width: measure(face, cur, spacing)})
			cur = word
		}
		lines = append(lines, textLine{text: cur, width: measure(face, cur, spacing)})

		if justify {
			for i := start; i < len(lines)-1; i++ {
				if n := strings.Count(lines[i].text, " "); n > 0 && lines[i].width < maxWidth {
					lines[i].spaceExtra = (maxWidth - lines[i].width) / float64(n)
					lines[i].width = maxWidth
				}
			}
		}
	}
	return lines
}

func drawRun(dc *gg.Context, face font.Face, s string, x, y, spacing, spaceExtra float64) {
	if spacing == 0 && spaceExtra == 0 {
		dc.DrawString(s, x, y)
		return
	}
	for _, r := range s {
		dc.DrawString(string(r), x, y)
		adv, _ := face.GlyphAdvance(r)
		x += toFloat(adv) + spacing
		if r == ' ' {
			x += spaceExtra
		}
	}
}

// text lays out and draws a text element. Layout happens in output pixels
// so glyphs are rasterized at their final size.
func (f *frame) text(dc *gg.Context, t *document.Text) {
	size := t.FontSize
	if size <= 0 {
		size = 24
	}
	lineHeight := t.LineHeight
	if lineHeight <= 0 {
		lineHeight = 1
	}
	k := f.density(&t.Base)
	style := assets.Style{
		Bold:   t.FontWeight.Bold(),
		Italic: strings.Contains(t.FontStyle, "italic"),
	}
	face := f.face(t.FontFamily, size*k, style)

	width := t.Width * k
	spacing := t.LetterSpacing * k
	lh := size * lineHeight * k
	lines := layoutLines(face, ApplyTransform(t.Content, t.TextTransform), width, spacing, t.Align == "justify")

	m := face.Metrics()
	ascent, descent := toFloat(m.Ascent), toFloat(m.Descent)
	thickness := max(1, size*k/15)

	ink := func(dc *gg.Context) {
		dc.SetFontFace(face)
		for i, ln := range lines {
			baseline := float64(i)*lh + lh/2 + (ascent-descent)/2
			x := 0.0
			switch t.Align {
			case "center":
				x = (width - ln.width) / 2
			case "right":
				x = width - ln.width
			}
			drawRun(dc, face, ln.text, x, baseline, spacing, ln.spaceExtra)

			if strings.Contains(t.TextDecoration, "underline") {
				dc.DrawRectangle(x, baseline+size*k*0.1, ln.width, thickness)
				dc.Fill()
			}
			if strings.Contains(t.TextDecoration, "line-through") {
				dc.DrawRectangle(x, baseline-ascent*0.3, ln.width, thickness)
				dc.Fill()
			}
		}
	}

	dc.Scale(1/k, 1/k)
	if !t.Fill.IsGradient() {
		c, ok := ParseColor(t.Fill.Color)
		if !ok {
			c = black
		}
		dc.SetColor(c)
		ink(dc)
		return
	}

	// Gradient text: rasterize the glyphs into a mask, then paint the
	// gradient through it.
	pattern, _ := fillPattern(dc, t.Fill, width, t.Height*k)
	mask := gg.NewContext(dc.Width(), dc.Height())
	f.reset(mask)
	f.place(mask, &t.Base)
	mask.Scale(1/k, 1/k)
	mask.SetColor(color.White)
	ink(mask)

	if err := dc.SetMask(mask.AsMask()); err != nil {
		f.r.log.Warn("gradient text mask", "id", t.ID, "err", err)
		return
	}
	dc.Push()
	dc.Identity()
	dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
	dc.SetFillStyle(pattern)
	dc.Fill()
	dc.Pop()
	dc.ResetClip()
}

// textHeight is the local height the wrapped lines of t occupy.
func (f *frame) textHeight(t *document.Text) float64 {
	size := t.FontSize
	if size <= 0 {
		size = 24
	}
	lineHeight := t.LineHeight
	if lineHeight <= 0 {
		lineHeight = 1
	}
	k := f.density(&t.Base)
	face := f.face(t.FontFamily, size*k, assets.Style{Bold: t.FontWeight.Bold(), Italic: strings.Contains(t.FontStyle, "italic")})
	lines := layoutLines(face, ApplyTransform(t.Content, t.TextTransform), t.Width*k, t.LetterSpacing*k, t.Align == "justify")
	return float64(len(lines)) * size * lineHeight
}

// centered draws a single line of text centered in a w×h local box.
func (f *frame) centered(dc *gg.Context, b *document.Base, s, family string, size float64, style assets.Style, c color.Color, w, h float64) {
	k := f.density(b)
	face := f.face(family, size*k, style)
	m := face.Metrics()
	ascent, descent := toFloat(m.Ascent), toFloat(m.Descent)

	dc.Push()
	defer dc.Pop()
	dc.Scale(1/k, 1/k)
	dc.SetFontFace(face)
	dc.SetColor(c)
	x := (w*k - measure(face, s, 0)) / 2
	y := h*k/2 + (ascent-descent)/2
	dc.DrawString(s, x, y)
}
