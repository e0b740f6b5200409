package document

import "slices"

type DesignType string

const (
	DesignCertificate DesignType = "certificate"
	DesignBadge       DesignType = "badge"
)

// Section is a background region expressed in percentages of the canvas.
// Sections may overlap.
type Section struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	BackgroundImage string  `json:"backgroundImage,omitempty"`
	Opacity         float64 `json:"opacity"`
}

// Rect converts the section to canvas pixels. Negative sizes clamp to zero.
func (s Section) Rect(canvasWidth, canvasHeight int) Bounds {
	return Bounds{
		X:      s.X / 100 * float64(canvasWidth),
		Y:      s.Y / 100 * float64(canvasHeight),
		Width:  max(0, s.Width/100*float64(canvasWidth)),
		Height: max(0, s.Height/100*float64(canvasHeight)),
	}
}

// Criterion is one earning requirement shown on the verification page.
type Criterion struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// CanvasConfig describes the drawing surface of a design. Zoom, GridOn,
// ShowGuides, SnapToGrid and ShowBleed are view settings; the rest is
// content. Zoom belongs to the editing session and is never persisted.
type CanvasConfig struct {
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	BackgroundColor string      `json:"backgroundColor"`
	BackgroundImage string      `json:"backgroundImage,omitempty"`
	Zoom            float64     `json:"-"`
	GridOn          bool        `json:"gridOn"`
	GridSize        int         `json:"gridSize"`
	ShowGuides      bool        `json:"showGuides"`
	SnapToGrid      bool        `json:"snapToGrid"`
	ShowBleed       bool        `json:"showBleed,omitempty"`
	SafeMargin      float64     `json:"safeMargin"`
	BleedArea       float64     `json:"bleedArea"`
	Unit            string      `json:"unit"`
	DPI             int         `json:"dpi"`
	DesignType      DesignType  `json:"designType"`
	Sections        []Section   `json:"sections"`
	Description     string      `json:"description,omitempty"`
	Skills          []string    `json:"skills"`
	EarningCriteria []Criterion `json:"earningCriteria"`
	IssuedOn        string      `json:"issuedOn,omitempty"`
	ExpiresOn       string      `json:"expiresOn,omitempty"`
}

// Clone returns a copy that shares no slices with c.
func (c CanvasConfig) Clone() CanvasConfig {
	c.Sections = slices.Clone(c.Sections)
	c.Skills = slices.Clone(c.Skills)
	c.EarningCriteria = slices.Clone(c.EarningCriteria)
	return c
}

// WithViewOf returns c carrying the view settings of v.
func (c CanvasConfig) WithViewOf(v CanvasConfig) CanvasConfig {
	c.Zoom = v.Zoom
	c.GridOn = v.GridOn
	c.ShowGuides = v.ShowGuides
	c.SnapToGrid = v.SnapToGrid
	c.ShowBleed = v.ShowBleed
	return c
}

// Design is the persisted template layout, the design_config of a record.
type Design struct {
	Canvas   CanvasConfig `json:"canvas"`
	Elements Elements     `json:"elements"`
}

// Find returns the element with id.
func (d Design) Find(id string) (Element, bool) {
	if i := IndexOf(d.Elements, id); i >= 0 {
		return d.Elements[i], true
	}
	return nil, false
}

// FontFamilies lists the distinct font families referenced by the design,
// in first-use order.
func (d Design) FontFamilies() []string {
	var out []string
	seen := map[string]bool{}
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, e := range d.Elements {
		switch v := e.(type) {
		case *Text:
			add(v.FontFamily)
		case *Serial:
			add(v.FontFamily)
		}
	}
	return out
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Governance gates edits of a template.
type Governance struct {
	Status             Status `json:"status"`
	Version            int    `json:"version"`
	IsImmutable        bool   `json:"isImmutable"`
	LockedBy           string `json:"lockedBy,omitempty"`
	AllowDesignerEdits bool   `json:"allowDesignerEdits"`
}

// DefaultGovernance is the state of a freshly created template.
func DefaultGovernance() Governance {
	return Governance{Status: StatusDraft, Version: 1, AllowDesignerEdits: true}
}

// VerifyLinkField is the field id the issuing flow fills with the public
// verification URL of a certificate.
const VerifyLinkField = "VerifyLink"

// DynamicField is a named data slot elements can bind to.
type DynamicField struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	DefaultValue string `json:"defaultValue"`
	Category     string `json:"category,omitempty"`
}

// DefaultFields returns the built-in field catalog.
func DefaultFields() []DynamicField {
	return []DynamicField{
		{ID: "f1", Label: "Recipient Name", DefaultValue: "John Doe", Category: "recipient"},
		{ID: "f2", Label: "Issue Date", DefaultValue: "2026-01-01", Category: "issue"},
		{ID: "f3", Label: "Credential ID", DefaultValue: "CERT-000-000", Category: "security"},
		{ID: "f4", Label: "Course Name", DefaultValue: "Mastering Antigravity", Category: "recipient"},
		{ID: "f5", Label: "Achievement Badge", DefaultValue: "https://images.unsplash.com/photo-1563986768609-322da13575f3?w=200&h=200&fit=crop", Category: "issue"},
		{ID: VerifyLinkField, Label: "Verification Link", DefaultValue: "https://verify.example.org/verify/CERT-000-000", Category: "security"},
	}
}

// DefaultPlaceholderData is the sample bag used by the placeholder preview.
func DefaultPlaceholderData() map[string]string {
	return map[string]string{
		"f1": "John Q. Graduate",
		"f2": "September 15, 2026",
		"f3": "CERT-12345-ABCD",
		"f4": "Enterprise Architecture 101",
		"f5": "https://images.unsplash.com/photo-1599056377759-3a3621453f60?w=200&h=200&fit=crop",

		VerifyLinkField: "https://verify.example.org/verify/CERT-12345-ABCD",
	}
}
