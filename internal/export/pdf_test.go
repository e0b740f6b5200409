package export

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certdesign/internal/document"
	"certdesign/internal/render"
)

func TestFit(t *testing.T) {
	tests := []struct {
		name   string
		canvas document.CanvasConfig
		want   Placement
	}{
		{
			name:   "certificate is landscape and fills the width",
			canvas: document.DefaultCanvas(),
			want: Placement{
				Orientation: "L",
				PageWidth:   A4Height,
				PageHeight:  A4Width,
				X:           0,
				Y:           (A4Width - 800*A4Height/1200) / 2,
				Width:       A4Height,
				Height:      800 * A4Height / 1200,
			},
		},
		{
			name:   "badge is portrait and fills the width",
			canvas: document.BadgeCanvas(),
			want: Placement{
				Orientation: "P",
				PageWidth:   A4Width,
				PageHeight:  A4Height,
				X:           0,
				Y:           (A4Height - A4Width) / 2,
				Width:       A4Width,
				Height:      A4Width,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fit(tt.canvas)
			assert.Equal(t, tt.want.Orientation, got.Orientation)
			assert.InDelta(t, tt.want.PageWidth, got.PageWidth, 1e-9)
			assert.InDelta(t, tt.want.PageHeight, got.PageHeight, 1e-9)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.want.Width, got.Width, 1e-9)
			assert.InDelta(t, tt.want.Height, got.Height, 1e-9)
		})
	}
}

func TestPDF(t *testing.T) {
	surface := image.NewRGBA(image.Rect(0, 0, 60, 40))
	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, surface, document.DefaultCanvas()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestSurfaceNotReady(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, PDF(&buf, nil, document.DefaultCanvas()), ErrSurfaceNotReady)
	assert.ErrorIs(t, PDF(&buf, image.NewRGBA(image.Rectangle{}), document.DefaultCanvas()), ErrSurfaceNotReady)
	assert.ErrorIs(t, PNG(&buf, nil), ErrSurfaceNotReady)
	assert.Zero(t, buf.Len())
}

func TestRender(t *testing.T) {
	r, err := render.New()
	require.NoError(t, err)

	c := document.DefaultCanvas()
	c.Width, c.Height = 120, 80
	text := document.NewText("Certified")
	text.ID = "t"
	text.X, text.Y = 10, 10
	d := document.Design{Canvas: c, Elements: document.Elements{text}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var buf bytes.Buffer
	require.NoError(t, Render(ctx, r, d, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPNG(t *testing.T) {
	surface := image.NewRGBA(image.Rect(0, 0, 8, 4))
	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, surface))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, surface.Bounds(), img.Bounds())
}
