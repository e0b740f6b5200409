package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/sync/errgroup"
)

// Style selects one face of a family.
type Style struct {
	Bold   bool
	Italic bool
}

func (s Style) suffix() string {
	switch {
	case s.Bold && s.Italic:
		return "BoldItalic"
	case s.Bold:
		return "Bold"
	case s.Italic:
		return "Italic"
	}
	return "Regular"
}

type family [4]*truetype.Font

func styleIndex(s Style) int {
	i := 0
	if s.Bold {
		i |= 1
	}
	if s.Italic {
		i |= 2
	}
	return i
}

// Fonts resolves font families to faces. Families that are not registered,
// or not yet fetched, fall back to the bundled Go fonts.
type Fonts struct {
	mu       sync.RWMutex
	log      *slog.Logger
	client   *http.Client
	families map[string]*family
	onChange func(family string)
}

// NewFonts returns a registry holding the bundled Go families: "Go" as the
// sans fallback and "monospace".
func NewFonts(log *slog.Logger) (*Fonts, error) {
	if log == nil {
		log = slog.Default()
	}
	f := &Fonts{
		log:      log,
		client:   &http.Client{},
		families: map[string]*family{},
	}
	bundled := map[string][4][]byte{
		"go":        {goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF},
		"monospace": {gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF},
	}
	for name, ttfs := range bundled {
		var fam family
		for i, data := range ttfs {
			parsed, err := truetype.Parse(data)
			if err != nil {
				return nil, fmt.Errorf("failed to parse bundled font %s: %w", name, err)
			}
			fam[i] = parsed
		}
		f.families[name] = &fam
	}
	return f, nil
}

// OnChange sets the callback run after a family becomes available.
func (f *Fonts) OnChange(fn func(family string)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Register adds one style of a family from TrueType data.
func (f *Fonts) Register(name string, style Style, data []byte) error {
	parsed, err := truetype.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse font %s: %w", name, err)
	}

	key := strings.ToLower(name)
	f.mu.Lock()
	fam, ok := f.families[key]
	if !ok {
		fam = &family{}
		f.families[key] = fam
	}
	fam[styleIndex(style)] = parsed
	cb := f.onChange
	f.mu.Unlock()

	if cb != nil {
		cb(name)
	}
	return nil
}

// RegisterDir loads every .ttf file in dir. A file named
// "Great Vibes-Bold.ttf" registers the bold face of "Great Vibes"; files
// without a style suffix register the regular face.
func (f *Fonts) RegisterDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read font dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".ttf") {
			continue
		}
		name, style := ParseFontName(e.Name())
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("failed to read font %s: %w", e.Name(), err)
		}
		if err := f.Register(name, style, data); err != nil {
			f.log.Warn("skipping font file", "file", e.Name(), "err", err)
		}
	}
	return nil
}

// ParseFontName splits "Family-Style.ttf" or "Family-Style" into the family
// and its style.
func ParseFontName(file string) (string, Style) {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	name, variant, ok := strings.Cut(base, "-")
	if !ok {
		return base, Style{}
	}
	v := strings.ToLower(variant)
	return name, Style{
		Bold:   strings.Contains(v, "bold"),
		Italic: strings.Contains(v, "italic"),
	}
}

// Fetch downloads a TrueType file for a family in the background.
// Rendering keeps using the fallback until it completes; failures are
// logged only.
func (f *Fonts) Fetch(ctx context.Context, name string, style Style, url string) {
	go func() {
		if err := f.fetch(ctx, name, style, url); err != nil {
			f.log.Warn("font fetch failed", "family", name, "style", style.suffix(), "err", err)
		}
	}()
}

// Preload fetches every entry of urls and waits for all of them. Keys name
// the family and optional style as ParseFontName reads them. Failures are
// logged and leave the fallback in place.
func (f *Fonts) Preload(ctx context.Context, urls map[string]string) {
	var g errgroup.Group
	for key, url := range urls {
		name, style := ParseFontName(key)
		g.Go(func() error {
			if err := f.fetch(ctx, name, style, url); err != nil {
				f.log.Warn("font fetch failed", "family", name, "style", style.suffix(), "err", err)
			}
			return nil
		})
	}
	g.Wait()
}

func (f *Fonts) fetch(ctx context.Context, name string, style Style, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		return err
	}
	return f.Register(name, style, data)
}

// Has reports whether a family is registered.
func (f *Fonts) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.families[strings.ToLower(name)]
	return ok
}

func (f *Fonts) lookup(name string, style Style) *truetype.Font {
	key := strings.ToLower(name)
	if _, ok := f.families[key]; !ok && (strings.Contains(key, "mono") || key == "courier") {
		key = "monospace"
	}
	fam, ok := f.families[key]
	if !ok {
		fam = f.families["go"]
	}
	if ft := fam[styleIndex(style)]; ft != nil {
		return ft
	}
	if ft := fam[0]; ft != nil {
		return ft
	}
	return f.families["go"][styleIndex(style)]
}

// Face returns a new face for the family at size pixels. A face keeps a
// glyph cache and must not be shared between goroutines.
func (f *Fonts) Face(name string, size float64, style Style) font.Face {
	f.mu.RLock()
	ft := f.lookup(name, style)
	f.mu.RUnlock()

	return truetype.NewFace(ft, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
