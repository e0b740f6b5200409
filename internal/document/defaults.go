package document

// Defaults applied to an element whose base attributes were omitted.
const (
	DefaultX       = 100
	DefaultY       = 100
	DefaultWidth   = 200
	DefaultHeight  = 100
	DefaultOpacity = 1

	// ScaleEpsilon is the smallest scale a resize may produce.
	ScaleEpsilon = 0.01
)

// DefaultCanvas is the certificate preset.
func DefaultCanvas() CanvasConfig {
	return CanvasConfig{
		Width:           1200,
		Height:          800,
		BackgroundColor: "#ffffff",
		Zoom:            0.8,
		GridSize:        20,
		ShowGuides:      true,
		SafeMargin:      40,
		BleedArea:       5,
		SnapToGrid:      true,
		Unit:            "px",
		DPI:             300,
		DesignType:      DesignCertificate,
		Skills:          []string{},
		EarningCriteria: []Criterion{},
		ExpiresOn:       "Lifetime",
	}
}

// BadgeCanvas is the square badge preset.
func BadgeCanvas() CanvasConfig {
	return CanvasConfig{
		Width:           500,
		Height:          500,
		BackgroundColor: "#ffffff",
		Zoom:            1,
		GridSize:        20,
		ShowGuides:      true,
		SafeMargin:      20,
		BleedArea:       2,
		SnapToGrid:      true,
		Unit:            "px",
		DPI:             300,
		DesignType:      DesignBadge,
	}
}

// CanvasFor returns the preset for a design type.
func CanvasFor(t DesignType) CanvasConfig {
	if t == DesignBadge {
		return BadgeCanvas()
	}
	return DefaultCanvas()
}

func defaultBase(kind Kind) Base {
	return Base{
		Type:      kind,
		X:         DefaultX,
		Y:         DefaultY,
		ScaleX:    1,
		ScaleY:    1,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Opacity:   ptr(float64(DefaultOpacity)),
		Draggable: ptr(true),
		Visible:   ptr(true),
		Version:   1,
	}
}

func ptr[T any](v T) *T { return &v }

// New returns an element of the given kind carrying every default.
func New(kind Kind) (Element, error) {
	switch kind {
	case KindText:
		return NewText(""), nil
	case KindImage:
		return NewImage(""), nil
	case KindRect, KindCircle, KindHexagon:
		return NewShape(kind), nil
	case KindQR:
		return NewQR("{{VerifyLink}}"), nil
	case KindSerial:
		return NewSerial("SN-{{YEAR}}{{CODE}}"), nil
	case KindSignature:
		return NewSignature(), nil
	}
	return nil, ErrUnknownElementType
}

func NewText(content string) *Text {
	return &Text{
		Base:       defaultBase(KindText),
		Content:    content,
		FontFamily: "Inter",
		FontSize:   24,
		FontWeight: "normal",
		FontStyle:  "normal",
		Fill:       Solid("#000000"),
		Align:      "left",
		LineHeight: 1,
	}
}

func NewImage(src string) *Image {
	return &Image{Base: defaultBase(KindImage), Src: src}
}

func NewShape(kind Kind) *Shape {
	s := &Shape{Base: defaultBase(kind), Fill: Solid("#3b82f6")}
	if kind != KindRect {
		s.Width, s.Height = 120, 120
	}
	return s
}

func NewQR(content string) *QR {
	q := &QR{Base: defaultBase(KindQR), Content: content, Color: "#000000", BackgroundColor: "#ffffff"}
	q.Width, q.Height = 120, 120
	return q
}

func NewSerial(format string) *Serial {
	s := &Serial{
		Base:       defaultBase(KindSerial),
		Format:     format,
		Content:    "SN-000000",
		FontFamily: "monospace",
		FontSize:   14,
		FontWeight: "normal",
		Fill:       "#000000",
	}
	s.Width, s.Height = 120, 30
	return s
}

func NewSignature() *Signature {
	s := &Signature{Base: defaultBase(KindSignature)}
	s.Name = "Signature"
	s.Width, s.Height = 200, 80
	return s
}

// FillDefaults completes a partially specified element in place. Every
// attribute the caller left unset takes the value New(kind) would give it;
// supplied values are kept. Position defaults only apply when the whole
// geometry was omitted, since 0,0 is a legal placement.
func FillDefaults(e Element) {
	kind := KindOf(e)
	tmpl, err := New(kind)
	if err != nil {
		return
	}
	b, d := e.Meta(), tmpl.Meta()
	if b.Type == "" {
		b.Type = kind
	}
	if b.X == 0 && b.Y == 0 && b.Width == 0 && b.Height == 0 {
		b.X, b.Y = d.X, d.Y
	}
	if b.Width <= 0 {
		b.Width = d.Width
	}
	if b.Height <= 0 {
		b.Height = d.Height
	}
	if b.ScaleX == 0 {
		b.ScaleX = 1
	}
	if b.ScaleY == 0 {
		b.ScaleY = 1
	}
	if b.Opacity == nil {
		b.SetOpacity(d.Alpha())
	}
	if b.Draggable == nil {
		b.SetDraggable(true)
	}
	if b.Visible == nil {
		b.SetVisible(true)
	}
	if b.Name == "" {
		b.Name = d.Name
	}
	if b.Version == 0 {
		b.Version = 1
	}
	ClampScale(b)

	switch v := e.(type) {
	case *Text:
		if t, ok := tmpl.(*Text); ok {
			v.FontFamily = orString(v.FontFamily, t.FontFamily)
			v.FontWeight = FontWeight(orString(string(v.FontWeight), string(t.FontWeight)))
			v.FontStyle = orString(v.FontStyle, t.FontStyle)
			v.Align = orString(v.Align, t.Align)
			if v.FontSize <= 0 {
				v.FontSize = t.FontSize
			}
			if v.LineHeight <= 0 {
				v.LineHeight = t.LineHeight
			}
			if v.Fill.IsZero() {
				v.Fill = t.Fill.Clone()
			}
		}
	case *Shape:
		if t, ok := tmpl.(*Shape); ok && v.Fill.IsZero() {
			v.Fill = t.Fill.Clone()
		}
	case *Serial:
		if t, ok := tmpl.(*Serial); ok {
			v.Format = orString(v.Format, t.Format)
			v.Content = orString(v.Content, t.Content)
			v.FontFamily = orString(v.FontFamily, t.FontFamily)
			v.FontWeight = FontWeight(orString(string(v.FontWeight), string(t.FontWeight)))
			v.Fill = orString(v.Fill, t.Fill)
			if v.FontSize <= 0 {
				v.FontSize = t.FontSize
			}
		}
	case *QR:
		if t, ok := tmpl.(*QR); ok {
			v.Content = orString(v.Content, t.Content)
			v.Color = orString(v.Color, t.Color)
			v.BackgroundColor = orString(v.BackgroundColor, t.BackgroundColor)
		}
	}
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ClampScale keeps both scale factors at or above ScaleEpsilon.
func ClampScale(b *Base) {
	b.ScaleX = max(b.ScaleX, ScaleEpsilon)
	b.ScaleY = max(b.ScaleY, ScaleEpsilon)
}

type Layout string

const (
	LayoutNone         Layout = "none"
	LayoutSidebarLeft  Layout = "sidebar-left"
	LayoutSidebarRight Layout = "sidebar-right"
	LayoutLogoTray     Layout = "logo-tray"
)

// LayoutSections returns the section preset for a layout.
func LayoutSections(l Layout) []Section {
	switch l {
	case LayoutSidebarLeft:
		return []Section{
			{ID: "sidebar", Name: "Left Sidebar", X: 0, Y: 0, Width: 25, Height: 100, BackgroundColor: "#f8fafc", Opacity: 1},
			{ID: "main", Name: "Main Area", X: 25, Y: 0, Width: 75, Height: 100, BackgroundColor: "#ffffff", Opacity: 1},
		}
	case LayoutSidebarRight:
		return []Section{
			{ID: "main", Name: "Main Area", X: 0, Y: 0, Width: 75, Height: 100, BackgroundColor: "#ffffff", Opacity: 1},
			{ID: "sidebar", Name: "Right Sidebar", X: 75, Y: 0, Width: 25, Height: 100, BackgroundColor: "#f8fafc", Opacity: 1},
		}
	case LayoutLogoTray:
		return []Section{
			{ID: "tray", Name: "Logo Tray", X: 0, Y: 0, Width: 100, Height: 20, BackgroundColor: "#f1f5f9", Opacity: 1},
			{ID: "main", Name: "Content Area", X: 0, Y: 20, Width: 100, Height: 80, BackgroundColor: "#ffffff", Opacity: 1},
		}
	}
	return []Section{}
}
