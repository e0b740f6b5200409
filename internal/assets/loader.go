// Package assets loads the bitmaps, QR codes and fonts a render needs.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

const maxAssetBytes = 20 << 20

// State is where a source is in its load.
type State int

const (
	Loading State = iota
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

var ErrEmptySource = errors.New("empty image source")

type entry struct {
	state State
	img   image.Image
	err   error
	done  chan struct{}
}

// Loader fetches and decodes image sources in the background. Each source
// moves once from Loading to Loaded or Failed; the result is cached.
type Loader struct {
	mu       sync.Mutex
	log      *slog.Logger
	client   *http.Client
	baseDir  string
	entries  map[string]*entry
	onChange func(src string, state State)
}

type LoaderOption func(*Loader)

func WithLoaderLogger(l *slog.Logger) LoaderOption {
	return func(ld *Loader) { ld.log = l }
}

// WithTimeout bounds every remote fetch.
func WithTimeout(d time.Duration) LoaderOption {
	return func(ld *Loader) { ld.client.Timeout = d }
}

// WithBaseDir resolves relative file sources against dir.
func WithBaseDir(dir string) LoaderOption {
	return func(ld *Loader) { ld.baseDir = dir }
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		log:     slog.Default(),
		client:  &http.Client{Timeout: 15 * time.Second},
		entries: map[string]*entry{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnChange sets the callback run when a source settles, replacing any
// previous one; nil removes it. It runs on the loading goroutine.
func (l *Loader) OnChange(fn func(src string, state State)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Get returns the decoded image and the state of src, starting a load the
// first time a source is seen.
func (l *Loader) Get(src string) (image.Image, State) {
	e := l.start(src)
	l.mu.Lock()
	defer l.mu.Unlock()
	return e.img, e.state
}

// Err returns the failure cause of a source, if any.
func (l *Loader) Err(src string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[src]; ok {
		return e.err
	}
	return nil
}

func (l *Loader) start(src string) *entry {
	l.mu.Lock()
	e, ok := l.entries[src]
	if !ok {
		e = &entry{state: Loading, done: make(chan struct{})}
		l.entries[src] = e
	}
	l.mu.Unlock()

	if !ok {
		go l.load(src, e)
	}
	return e
}

func (l *Loader) load(src string, e *entry) {
	img, err := l.fetch(context.Background(), src)

	l.mu.Lock()
	if err != nil {
		e.state, e.err = Failed, err
	} else {
		e.state, e.img = Loaded, img
	}
	state := e.state
	cb := l.onChange
	l.mu.Unlock()
	close(e.done)

	if err != nil {
		l.log.Warn("image load failed", "src", shorten(src), "err", err)
	}
	if cb != nil {
		cb(src, state)
	}
}

// Preload starts every source and waits until all have settled. Failed
// sources are not an error; they render as failed placeholders.
func (l *Loader) Preload(ctx context.Context, srcs ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range srcs {
		if src == "" {
			continue
		}
		e := l.start(src)
		g.Go(func() error {
			select {
			case <-e.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}

func (l *Loader) fetch(ctx context.Context, src string) (image.Image, error) {
	data, err := l.read(ctx, src)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func (l *Loader) read(ctx context.Context, src string) ([]byte, error) {
	switch {
	case src == "":
		return nil, ErrEmptySource
	case strings.HasPrefix(src, "data:"):
		return decodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.download(ctx, src)
	}

	path := strings.TrimPrefix(src, "file://")
	if !filepath.IsAbs(path) && l.baseDir != "" {
		path = filepath.Join(l.baseDir, path)
	}
	return os.ReadFile(path)
}

func (l *Loader) download(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
}

// decodeDataURI returns the payload of a data: URI.
func decodeDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	return []byte(s), err
}

func shorten(src string) string {
	if len(src) > 64 {
		return src[:61] + "..."
	}
	return src
}
