package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// GradientStop is one color stop; Offset lies in [0,1].
type GradientStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// Gradient describes a linear gradient. Rotation is in degrees.
type Gradient struct {
	Type     string         `json:"type"`
	Rotation float64        `json:"rotation,omitempty"`
	Stops    []GradientStop `json:"stops"`
}

// Fill is either a solid color or a gradient. On the wire a solid fill is a
// bare string and a gradient is an object.
type Fill struct {
	Color    string
	Gradient *Gradient
}

// Solid returns a solid color fill.
func Solid(color string) Fill {
	return Fill{Color: color}
}

// Linear returns a linear gradient fill.
func Linear(rotation float64, stops ...GradientStop) Fill {
	return Fill{Gradient: &Gradient{Type: "linear", Rotation: rotation, Stops: stops}}
}

func (f Fill) IsZero() bool {
	return f.Color == "" && f.Gradient == nil
}

// IsGradient reports whether the fill is a linear gradient.
func (f Fill) IsGradient() bool {
	return f.Gradient != nil && f.Gradient.Type == "linear" && len(f.Gradient.Stops) > 0
}

func (f Fill) Clone() Fill {
	if f.Gradient == nil {
		return f
	}
	g := *f.Gradient
	g.Stops = slices.Clone(f.Gradient.Stops)
	return Fill{Color: f.Color, Gradient: &g}
}

func (f Fill) MarshalJSON() ([]byte, error) {
	if f.Gradient != nil {
		return json.Marshal(f.Gradient)
	}
	return json.Marshal(f.Color)
}

func (f *Fill) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = Fill{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Fill{Color: s}
		return nil
	case len(data) > 0 && data[0] == '{':
		var g Gradient
		if err := json.Unmarshal(data, &g); err != nil {
			return fmt.Errorf("decode gradient fill: %w", err)
		}
		*f = Fill{Gradient: &g}
		return nil
	}
	return fmt.Errorf("unsupported fill value %s", data)
}

// FontWeight is a CSS-style weight. Numeric weights on the wire are kept as
// their decimal string.
type FontWeight string

func (w *FontWeight) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = FontWeight(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*w = ""
		return nil
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid font weight %s", data)
	}
	*w = FontWeight(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// Bold reports whether the weight renders with a bold face.
func (w FontWeight) Bold() bool {
	switch w {
	case "bold", "bolder", "semibold", "extrabold", "black":
		return true
	}
	n, err := strconv.Atoi(string(w))
	return err == nil && n >= 600
}
