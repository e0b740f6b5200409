package document

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDesign() Design {
	text := NewText("Hello {{name}}")
	text.ID = "t1"
	text.FontWeight = "700"
	text.Fill = Linear(45, GradientStop{Offset: 0, Color: "#fff"}, GradientStop{Offset: 1, Color: "#000"})
	text.FieldBinding = "f1"
	text.CreatedAt, text.UpdatedAt = 1700000000000, 1700000000500

	rect := NewShape(KindRect)
	rect.ID = "r1"
	rect.CornerRadius = 8
	rect.Stroke = "#111111"
	rect.StrokeWidth = 2

	hex := NewShape(KindHexagon)
	hex.ID = "h1"
	hex.Rotation = 30

	img := NewImage("data:image/png;base64,AAAA")
	img.ID = "i1"
	img.OriginalWidth, img.OriginalHeight = 640, 480
	img.Fill = Solid("#eeeeee")

	qr := NewQR("{{VerifyLink}}")
	qr.ID = "q1"

	serial := NewSerial("SN-{{YEAR}}{{CODE}}")
	serial.ID = "s1"

	sig := NewSignature()
	sig.ID = "g1"
	sig.SignerName = "Ada Lovelace"
	sig.SignerRole = "Director"

	canvas := DefaultCanvas()
	canvas.Sections = LayoutSections(LayoutSidebarLeft)
	canvas.Skills = []string{"go", "design"}
	canvas.EarningCriteria = []Criterion{{ID: "c1", Type: "course", Label: "Complete", Description: "Finish all modules"}}

	return Design{
		Canvas:   canvas,
		Elements: Elements{text, rect, hex, img, qr, serial, sig},
	}
}

func TestRoundTrip(t *testing.T) {
	d := sampleDesign()

	data, err := Marshal(d)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	want := d
	want.Canvas.Zoom = 0
	assert.Equal(t, want, got)

	again, err := Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		check   func(t *testing.T, d Design)
	}{
		{
			name:  "empty elements",
			input: `{"canvas":{"width":10,"height":10},"elements":null}`,
			check: func(t *testing.T, d Design) {
				assert.NotNil(t, d.Elements)
				assert.Empty(t, d.Elements)
			},
		},
		{
			name:  "solid fill as string",
			input: `{"canvas":{"width":10,"height":10},"elements":[{"id":"a","type":"rect","width":5,"height":5,"fill":"#ff0000"}]}`,
			check: func(t *testing.T, d Design) {
				s, ok := d.Elements[0].(*Shape)
				require.True(t, ok)
				assert.Equal(t, "#ff0000", s.Fill.Color)
				assert.False(t, s.Fill.IsGradient())
			},
		},
		{
			name:  "numeric font weight",
			input: `{"canvas":{"width":10,"height":10},"elements":[{"id":"a","type":"text","content":"x","fontWeight":600}]}`,
			check: func(t *testing.T, d Design) {
				txt := d.Elements[0].(*Text)
				assert.Equal(t, FontWeight("600"), txt.FontWeight)
				assert.True(t, txt.FontWeight.Bold())
			},
		},
		{
			name:    "unknown type",
			input:   `{"canvas":{"width":10,"height":10},"elements":[{"id":"a","type":"video"}]}`,
			wantErr: ErrUnknownElementType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Unmarshal([]byte(tt.input))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, d)
		})
	}
}

func TestFillJSON(t *testing.T) {
	data, err := json.Marshal(Solid("#abcdef"))
	require.NoError(t, err)
	assert.Equal(t, `"#abcdef"`, string(data))

	data, err = json.Marshal(Linear(90, GradientStop{Offset: 0, Color: "red"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"linear","rotation":90,"stops":[{"offset":0,"color":"red"}]}`, string(data))
}

func TestIsValidElement(t *testing.T) {
	valid := NewText("x")
	valid.ID = "a"

	tests := []struct {
		name   string
		mutate func(e *Text)
		want   bool
	}{
		{name: "defaults", mutate: func(*Text) {}, want: true},
		{name: "missing id", mutate: func(e *Text) { e.ID = "" }, want: false},
		{name: "zero width", mutate: func(e *Text) { e.Width = 0 }, want: false},
		{name: "collapsed scale", mutate: func(e *Text) { e.ScaleX = 0 }, want: false},
		{name: "wrong tag", mutate: func(e *Text) { e.Type = KindRect }, want: false},
		{name: "opacity out of range", mutate: func(e *Text) { e.SetOpacity(1.5) }, want: false},
		{name: "bad stop offset", mutate: func(e *Text) { e.Fill = Linear(0, GradientStop{Offset: 2, Color: "red"}) }, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid.Clone().(*Text)
			tt.mutate(e)
			assert.Equal(t, tt.want, IsValidElement(e))
		})
	}

	assert.False(t, IsValidElement(nil))
}

func TestResolveBounds(t *testing.T) {
	s := NewShape(KindRect)
	s.X, s.Y = 10, 20
	s.ScaleX, s.ScaleY = 2, 0.5
	s.Rotation = 45

	b := ResolveBounds(s)
	assert.Equal(t, Bounds{X: 10, Y: 20, Width: 400, Height: 50}, b)
	assert.Equal(t, 410.0, b.Right())
	assert.Equal(t, 45.0, b.CenterY())
}

func TestNewDefaults(t *testing.T) {
	for _, k := range []Kind{KindText, KindImage, KindRect, KindCircle, KindHexagon, KindQR, KindSerial, KindSignature} {
		e, err := New(k)
		require.NoError(t, err)
		e.Meta().ID = "x"
		assert.Equal(t, k, e.Meta().Type)
		assert.True(t, IsValidElement(e), "kind %s", k)
	}

	_, err := New("video")
	assert.ErrorIs(t, err, ErrUnknownElementType)

	txt := NewText("Hi")
	assert.Equal(t, 100.0, txt.X)
	assert.Equal(t, 100.0, txt.Y)
	assert.Equal(t, 200.0, txt.Width)
	assert.Equal(t, 100.0, txt.Height)
	assert.Equal(t, 1.0, txt.Alpha())
}

func TestFillDefaults(t *testing.T) {
	t.Run("all omitted", func(t *testing.T) {
		e := &Text{Content: "Hi"}
		FillDefaults(e)
		assert.Equal(t, KindText, e.Type)
		assert.Equal(t, 100.0, e.X)
		assert.Equal(t, 200.0, e.Width)
		assert.Equal(t, 1.0, e.Alpha())
		assert.True(t, e.IsVisible())
		assert.True(t, e.IsDraggable())
	})

	t.Run("partial keeps given values", func(t *testing.T) {
		e := &Shape{Base: Base{Type: KindCircle, X: 5, Y: 6, Opacity: ptr(0.5)}}
		FillDefaults(e)
		assert.Equal(t, 5.0, e.X)
		assert.Equal(t, 6.0, e.Y)
		assert.Equal(t, 0.5, e.Alpha())
		assert.Equal(t, 120.0, e.Width)
		assert.Equal(t, 1.0, e.ScaleX)
		assert.True(t, e.IsVisible())
		assert.True(t, e.IsDraggable())
		assert.Equal(t, Solid("#3b82f6"), e.Fill)
	})

	t.Run("position only", func(t *testing.T) {
		e := &Shape{Base: Base{Type: KindRect, X: 50, Y: 50}}
		FillDefaults(e)
		assert.Equal(t, 50.0, e.X)
		assert.Equal(t, 50.0, e.Y)
		assert.Equal(t, 1.0, e.Alpha())
		require.NotNil(t, e.Opacity)
		require.NotNil(t, e.Visible)
		assert.True(t, *e.Visible)
		assert.True(t, *e.Draggable)
		assert.False(t, e.Fill.IsZero())
	})

	t.Run("decoded omissions", func(t *testing.T) {
		e, err := UnmarshalElement([]byte(`{"type":"qr","x":10,"y":10,"visible":false}`))
		require.NoError(t, err)
		FillDefaults(e)
		q := e.(*QR)
		assert.False(t, q.IsVisible())
		assert.True(t, q.IsDraggable())
		assert.Equal(t, 1.0, q.Alpha())
		assert.Equal(t, "{{VerifyLink}}", q.Content)
		assert.Equal(t, "#000000", q.Color)
		assert.Equal(t, "#ffffff", q.BackgroundColor)
		assert.Equal(t, 120.0, q.Width)
	})

	t.Run("explicit zero opacity kept", func(t *testing.T) {
		e, err := UnmarshalElement([]byte(`{"type":"rect","opacity":0}`))
		require.NoError(t, err)
		FillDefaults(e)
		assert.Equal(t, 0.0, e.Meta().Alpha())
	})
}

func TestCloneDoesNotShareFlagWrites(t *testing.T) {
	a := NewShape(KindRect)
	b := a.Clone().(*Shape)
	b.SetVisible(false)
	b.SetOpacity(0.25)
	assert.True(t, a.IsVisible())
	assert.Equal(t, 1.0, a.Alpha())
}

func TestLayoutSections(t *testing.T) {
	secs := LayoutSections(LayoutLogoTray)
	require.Len(t, secs, 2)

	r := secs[1].Rect(1200, 800)
	assert.Equal(t, Bounds{X: 0, Y: 160, Width: 1200, Height: 640}, r)

	assert.Empty(t, LayoutSections(LayoutNone))
}

func TestMaterializeSerial(t *testing.T) {
	now := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	vars := SerialVars(now, "A1B2")

	assert.Equal(t, "SN-2026A1B2", MaterializeSerial("SN-{{YEAR}}{{CODE}}", vars))
	assert.Equal(t, "2026-03-04", MaterializeSerial("{{YEAR}}-{{MONTH}}-{{DAY}}", vars))
	assert.Equal(t, "X-{{NOPE}}-2026", MaterializeSerial("X-{{NOPE}}-{{YEAR}}", vars))
	assert.Equal(t, "open {{YEAR", MaterializeSerial("open {{YEAR", vars))
}

func TestZoomIsNotPersisted(t *testing.T) {
	d := Design{Canvas: DefaultCanvas(), Elements: Elements{}}
	d.Canvas.Zoom = 2.5

	data, err := Marshal(d)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "zoom")

	got, err := Unmarshal([]byte(`{"canvas":{"width":10,"height":10,"zoom":3},"elements":[]}`))
	require.NoError(t, err)
	assert.Zero(t, got.Canvas.Zoom)
}

func TestCanvasViewFields(t *testing.T) {
	content := DefaultCanvas()
	content.BackgroundColor = "#000000"

	view := DefaultCanvas()
	view.Zoom = 2
	view.GridOn = true

	merged := content.WithViewOf(view)
	assert.Equal(t, "#000000", merged.BackgroundColor)
	assert.Equal(t, 2.0, merged.Zoom)
	assert.True(t, merged.GridOn)
}
