package document

import "slices"

// Kind is the discriminating "type" tag of an element.
type Kind string

const (
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindRect      Kind = "rect"
	KindCircle    Kind = "circle"
	KindHexagon   Kind = "hexagon"
	KindQR        Kind = "qr"
	KindSerial    Kind = "serial"
	KindSignature Kind = "signature"
)

// IsShape reports whether k is one of the shape primitives.
func (k Kind) IsShape() bool {
	return k == KindRect || k == KindCircle || k == KindHexagon
}

// Base holds the attributes shared by every element variant.
type Base struct {
	ID           string   `json:"id"`
	Type         Kind     `json:"type"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Rotation     float64  `json:"rotation"`
	ScaleX       float64  `json:"scaleX"`
	ScaleY       float64  `json:"scaleY"`
	Width        float64  `json:"width"`
	Height       float64  `json:"height"`
	Opacity      *float64 `json:"opacity,omitempty"`
	Draggable    *bool    `json:"draggable,omitempty"`
	Locked       bool     `json:"locked"`
	Visible      *bool    `json:"visible,omitempty"`
	Name         string   `json:"name,omitempty"`
	ParentID     string   `json:"parentId,omitempty"`
	FieldBinding string   `json:"fieldBinding,omitempty"`
	Version      int      `json:"version,omitempty"`
	CreatedAt    int64    `json:"createdAt"`
	UpdatedAt    int64    `json:"updatedAt"`
}

// Meta returns the shared attributes of the element.
func (b *Base) Meta() *Base { return b }

// Opacity, Draggable and Visible are nil when omitted and read as their
// defaults. Clones share the pointers, so they are replaced, never written
// through.

func (b *Base) Alpha() float64 {
	if b.Opacity == nil {
		return DefaultOpacity
	}
	return *b.Opacity
}

func (b *Base) IsDraggable() bool { return b.Draggable == nil || *b.Draggable }

func (b *Base) IsVisible() bool { return b.Visible == nil || *b.Visible }

func (b *Base) SetOpacity(v float64) { b.Opacity = &v }

func (b *Base) SetDraggable(v bool) { b.Draggable = &v }

func (b *Base) SetVisible(v bool) { b.Visible = &v }

func (*Base) isElement() {}

// Element is one visual object on the canvas. The set of implementations is
// closed: *Text, *Image, *Shape, *QR, *Serial and *Signature.
//
// Elements stored in a Design are treated as immutable values; mutate a
// Clone and swap it in.
type Element interface {
	Meta() *Base
	Clone() Element
	isElement()
}

// Text is a run of styled text. Content may carry {{placeholder}} tokens.
type Text struct {
	Base
	Content        string     `json:"content"`
	FontFamily     string     `json:"fontFamily,omitempty"`
	FontSize       float64    `json:"fontSize,omitempty"`
	FontWeight     FontWeight `json:"fontWeight,omitempty"`
	FontStyle      string     `json:"fontStyle,omitempty"`
	TextDecoration string     `json:"textDecoration,omitempty"`
	Fill           Fill       `json:"fill,omitzero"`
	Align          string     `json:"align,omitempty"`
	LetterSpacing  float64    `json:"letterSpacing,omitempty"`
	LineHeight     float64    `json:"lineHeight,omitempty"`
	TextTransform  string     `json:"textTransform,omitempty"`
}

func (t *Text) Clone() Element {
	c := *t
	c.Fill = t.Fill.Clone()
	return &c
}

// Image is a bitmap. OriginalWidth/OriginalHeight are captured the first
// time the source decodes.
type Image struct {
	Base
	Src            string  `json:"src"`
	OriginalWidth  float64 `json:"originalWidth,omitempty"`
	OriginalHeight float64 `json:"originalHeight,omitempty"`
	BorderRadius   float64 `json:"borderRadius,omitempty"`
	Fill           Fill    `json:"fill,omitzero"`
	Stroke         string  `json:"stroke,omitempty"`
	StrokeWidth    float64 `json:"strokeWidth,omitempty"`
}

func (i *Image) Clone() Element {
	c := *i
	c.Fill = i.Fill.Clone()
	return &c
}

// Shape is a rect, circle or hexagon primitive; Type selects which.
type Shape struct {
	Base
	Fill         Fill    `json:"fill,omitzero"`
	Stroke       string  `json:"stroke,omitempty"`
	StrokeWidth  float64 `json:"strokeWidth,omitempty"`
	CornerRadius float64 `json:"cornerRadius,omitempty"`
}

func (s *Shape) Clone() Element {
	c := *s
	c.Fill = s.Fill.Clone()
	return &c
}

// QR encodes Content, usually a verification URL template.
type QR struct {
	Base
	Content         string `json:"content"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

func (q *QR) Clone() Element {
	c := *q
	return &c
}

// Serial renders Content, the materialized preview of Format.
type Serial struct {
	Base
	Format     string     `json:"format"`
	Content    string     `json:"content"`
	FontFamily string     `json:"fontFamily,omitempty"`
	FontSize   float64    `json:"fontSize,omitempty"`
	FontWeight FontWeight `json:"fontWeight,omitempty"`
	Fill       string     `json:"fill,omitempty"`
}

func (s *Serial) Clone() Element {
	c := *s
	return &c
}

// Signature shows the signer's image or a caption placeholder.
type Signature struct {
	Base
	SignerName string `json:"signerName"`
	SignerRole string `json:"signerRole"`
	ImageSrc   string `json:"imageSrc,omitempty"`
}

func (s *Signature) Clone() Element {
	c := *s
	return &c
}

// KindOf returns the type tag of e, falling back to the concrete variant
// when the tag is unset.
func KindOf(e Element) Kind {
	if k := e.Meta().Type; k != "" {
		return k
	}
	switch e.(type) {
	case *Text:
		return KindText
	case *Image:
		return KindImage
	case *Shape:
		return KindRect
	case *QR:
		return KindQR
	case *Serial:
		return KindSerial
	case *Signature:
		return KindSignature
	}
	return ""
}

// CloneAll returns a slice holding clones of every element.
func CloneAll(elements []Element) []Element {
	out := make([]Element, len(elements))
	for i, e := range elements {
		out[i] = e.Clone()
	}
	return out
}

// IndexOf returns the z-order position of the element with id, or -1.
func IndexOf(elements []Element, id string) int {
	return slices.IndexFunc(elements, func(e Element) bool { return e.Meta().ID == id })
}
