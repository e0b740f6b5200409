// Package resolve substitutes recipient data into a template document.
package resolve

import (
	"regexp"
	"slices"
	"strings"

	"certdesign/internal/document"
)

// ReservedIDs are legacy badge placeholder elements that never render.
var ReservedIDs = []string{"badge-base", "badge-t1", "badge-t2", "badge-t3"}

var tokenRe = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Resolve returns a copy of d with every {{key}} token in text content
// replaced by bag[key], and every field-bound element showing its field's
// value. Unmatched tokens stay verbatim. d is not modified.
func Resolve(d document.Design, bag map[string]string) document.Design {
	keys := make([]string, 0, len(bag))
	for k := range bag {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := document.Design{
		Canvas:   d.Canvas.Clone(),
		Elements: make(document.Elements, 0, len(d.Elements)),
	}
	for _, e := range d.Elements {
		if slices.Contains(ReservedIDs, e.Meta().ID) {
			continue
		}
		out.Elements = append(out.Elements, resolveElement(e, keys, bag))
	}
	return out
}

func resolveElement(e document.Element, keys []string, bag map[string]string) document.Element {
	if t, ok := e.(*document.Text); ok {
		if content := substitute(t.Content, keys, bag); content != t.Content {
			c := t.Clone().(*document.Text)
			c.Content = content
			e = c
		}
	}

	value, ok := bag[e.Meta().FieldBinding]
	if e.Meta().FieldBinding == "" || !ok {
		return e
	}
	c := e.Clone()
	switch v := c.(type) {
	case *document.Text:
		v.Content = value
	case *document.QR:
		v.Content = value
	case *document.Serial:
		v.Content = value
	case *document.Image:
		v.Src = value
	case *document.Signature:
		v.ImageSrc = value
	case *document.Shape:
		return e
	}
	return c
}

func substitute(s string, keys []string, bag map[string]string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	for _, k := range keys {
		s = strings.ReplaceAll(s, "{{"+k+"}}", bag[k])
	}
	return s
}

// Tokens lists the distinct placeholder keys referenced by s, in order of
// first appearance.
func Tokens(s string) []string {
	var out []string
	for _, m := range tokenRe.FindAllStringSubmatch(s, -1) {
		if !slices.Contains(out, m[1]) {
			out = append(out, m[1])
		}
	}
	return out
}

// Unresolved lists the placeholder keys left in the text elements of d.
func Unresolved(d document.Design) []string {
	var out []string
	for _, e := range d.Elements {
		t, ok := e.(*document.Text)
		if !ok {
			continue
		}
		for _, k := range Tokens(t.Content) {
			if !slices.Contains(out, k) {
				out = append(out, k)
			}
		}
	}
	return out
}
