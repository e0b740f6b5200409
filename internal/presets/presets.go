// Package presets ships the built-in starting designs a new template can be
// created from.
package presets

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"certdesign/internal/document"
)

//go:embed templates/*.json
var files embed.FS

// ErrUnknownPreset is returned by Get for a key with no preset.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is one starting design. Key is the file name it is selected by.
type Preset struct {
	Key         string
	Name        string
	Description string
	Design      document.Design
}

type presetFile struct {
	Name string `json:"name"`
	document.Design
}

// Keys lists the preset keys in order.
func Keys() []string {
	entries, _ := files.ReadDir("templates")
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	slices.Sort(keys)
	return keys
}

// List returns every preset, ordered by key.
func List() ([]Preset, error) {
	keys := Keys()
	out := make([]Preset, 0, len(keys))
	for _, k := range keys {
		p, err := Get(k)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Get decodes the preset named key. Each call returns a fresh design the
// caller may modify; omitted element attributes take their defaults and
// every element is stamped with the current time.
func Get(key string) (Preset, error) {
	data, err := files.ReadFile("templates/" + key + ".json")
	if err != nil || strings.ContainsAny(key, "/\\") {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, key)
	}

	f := presetFile{Design: document.Design{Canvas: document.DefaultCanvas()}}
	if err := json.Unmarshal(data, &f); err != nil {
		return Preset{}, fmt.Errorf("preset %s: %w", key, err)
	}
	if !document.ValidCanvas(f.Canvas) {
		return Preset{}, fmt.Errorf("preset %s: invalid canvas %dx%d", key, f.Canvas.Width, f.Canvas.Height)
	}

	now := time.Now().UnixMilli()
	for _, e := range f.Elements {
		document.FillDefaults(e)
		b := e.Meta()
		b.CreatedAt, b.UpdatedAt = now, now
		if !document.IsValidElement(e) {
			return Preset{}, fmt.Errorf("preset %s: invalid element %q", key, b.ID)
		}
	}

	return Preset{
		Key:         key,
		Name:        f.Name,
		Description: f.Canvas.Description,
		Design:      f.Design,
	}, nil
}
