package render

import (
	"image/color"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]color.NRGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"orange":      {255, 165, 0, 255},
	"purple":      {128, 0, 128, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"silver":      {192, 192, 192, 255},
	"gold":        {255, 215, 0, 255},
	"navy":        {0, 0, 128, 255},
	"teal":        {0, 128, 128, 255},
	"maroon":      {128, 0, 0, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor understands #rgb, #rrggbb, #rrggbbaa, rgb(), rgba() and a few
// CSS names. ok is false for anything else.
func ParseColor(s string) (c color.NRGBA, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return color.NRGBA{}, false
	}
	if named, found := namedColors[s]; found {
		return named, true
	}

	if strings.HasPrefix(s, "#") {
		alpha := uint8(255)
		if len(s) == 9 {
			a, err := strconv.ParseUint(s[7:], 16, 8)
			if err != nil {
				return color.NRGBA{}, false
			}
			alpha, s = uint8(a), s[:7]
		}
		col, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{}, false
		}
		r, g, b := col.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: alpha}, true
	}

	if open := strings.IndexByte(s, '('); open > 0 && strings.HasSuffix(s, ")") {
		fn := s[:open]
		parts := strings.Split(s[open+1:len(s)-1], ",")
		if (fn != "rgb" && fn != "rgba") || len(parts) < 3 || len(parts) > 4 {
			return color.NRGBA{}, false
		}
		var ch [3]uint8
		for i := range 3 {
			v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
			if err != nil {
				return color.NRGBA{}, false
			}
			ch[i] = clamp8(v)
		}
		alpha := uint8(255)
		if len(parts) == 4 {
			a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
			if err != nil {
				return color.NRGBA{}, false
			}
			alpha = clamp8(a * 255)
		}
		return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, true
	}
	return color.NRGBA{}, false
}

// colorOr parses s, falling back to def when s is empty or invalid.
func colorOr(s string, def color.NRGBA) color.NRGBA {
	if c, ok := ParseColor(s); ok {
		return c
	}
	return def
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}

func hex(s string) color.NRGBA {
	c, _ := ParseColor(s)
	return c
}
