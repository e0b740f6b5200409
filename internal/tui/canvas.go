package tui

import (
	"math"
	"strings"

	"certdesign/internal/document"
	"certdesign/internal/geometry"
)

// A terminal cell is about twice as tall as it is wide.
const cellAspect = 2

// projection maps design pixels onto terminal cells. The canvas frame takes
// one cell on every side.
type projection struct {
	cols, rows int
	cellW      float64
}

func newProjection(c document.CanvasConfig, cols, rows int) projection {
	p := projection{cols: max(cols, 3), rows: max(rows, 3)}
	w, h := float64(max(c.Width, 1)), float64(max(c.Height, 1))
	p.cellW = math.Max(w/float64(p.cols-2), h/float64(cellAspect*(p.rows-2)))
	return p
}

func (p projection) cell(x, y float64) (int, int) {
	return 1 + int(math.Floor(x/p.cellW)), 1 + int(math.Floor(y/(p.cellW*cellAspect)))
}

// Render draws the design as ASCII art. Elements are drawn as labelled
// boxes in z-order; selected ones get '#' borders. Alignment guides are
// drawn last.
func Render(d document.Design, selected func(id string) bool, guides []geometry.Guide, cols, rows int) []string {
	p := newProjection(d.Canvas, cols, rows)
	grid := make([][]rune, p.rows)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", p.cols))
	}

	right, bottom := p.cell(float64(d.Canvas.Width), float64(d.Canvas.Height))
	drawFrame(grid, 0, 0, min(right, p.cols-1), min(bottom, p.rows-1), '+', '-', '|')

	for _, e := range d.Elements {
		b := e.Meta()
		if !b.IsVisible() {
			continue
		}
		r := document.ResolveBounds(e)
		box := geometry.RotatedBounds(r.X, r.Y, r.Width, r.Height, b.Rotation)
		x0, y0 := p.cell(box.X, box.Y)
		x1, y1 := p.cell(box.X+box.Width, box.Y+box.Height)
		x1, y1 = max(x1, x0+1), max(y1, y0+1)

		if selected(b.ID) {
			drawFrame(grid, x0, y0, x1, y1, '#', '#', '#')
		} else {
			drawFrame(grid, x0, y0, x1, y1, '+', '-', '|')
		}
		drawLabel(grid, x0, y0, x1, y1, label(e))
	}

	for _, g := range guides {
		switch g.Orientation {
		case geometry.Vertical:
			x, _ := p.cell(g.Position, 0)
			for y := 1; y < p.rows-1; y++ {
				set(grid, x, y, ':')
			}
		case geometry.Horizontal:
			_, y := p.cell(0, g.Position)
			for x := 1; x < p.cols-1; x++ {
				set(grid, x, y, '~')
			}
		}
	}

	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = strings.TrimRight(string(row), " ")
	}
	return lines
}

func set(grid [][]rune, x, y int, r rune) {
	if y >= 0 && y < len(grid) && x >= 0 && x < len(grid[y]) {
		grid[y][x] = r
	}
}

func drawFrame(grid [][]rune, x0, y0, x1, y1 int, corner, horizontal, vertical rune) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			switch {
			case (y == y0 || y == y1) && (x == x0 || x == x1):
				set(grid, x, y, corner)
			case y == y0 || y == y1:
				set(grid, x, y, horizontal)
			case x == x0 || x == x1:
				set(grid, x, y, vertical)
			}
		}
	}
}

// drawLabel writes text on the first inner row of a box, truncated to fit.
func drawLabel(grid [][]rune, x0, y0, x1, y1 int, text string) {
	width := x1 - x0 - 1
	if width <= 0 {
		return
	}
	y := y0 + 1
	if y >= y1 {
		y = y0
	}
	runes := []rune(text)
	if len(runes) > width {
		runes = runes[:width]
	}
	for i, r := range runes {
		set(grid, x0+1+i, y, r)
	}
}

func label(e document.Element) string {
	switch v := e.(type) {
	case *document.Text:
		return strings.ReplaceAll(v.Content, "\n", " ")
	case *document.Serial:
		if v.Content != "" {
			return v.Content
		}
		return v.Format
	case *document.QR:
		return "[qr]"
	case *document.Image:
		return "[image]"
	case *document.Signature:
		return "[signature]"
	}
	return "[" + string(document.KindOf(e)) + "]"
}
