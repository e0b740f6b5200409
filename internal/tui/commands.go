package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"certdesign/internal/assets"
	"certdesign/internal/designer"
	"certdesign/internal/document"
	"certdesign/internal/export"
	"certdesign/internal/render"
	"certdesign/internal/resolve"
	"certdesign/internal/storage"
)

// statusMsg reports the outcome of a background command.
type statusMsg struct {
	text string
	err  error
}

type imageLoadedMsg struct {
	id            string
	width, height int
}

// savedMsg carries the stored template record after a save.
type savedMsg struct {
	template storage.Template
}

type pastedMsg struct {
	elements document.Elements
	err      error
}

// assetMsg reports an image source or font family that settled in the
// background. Handling it redraws the view.
type assetMsg struct {
	src    string
	family string
	state  assets.State
}

// watchAssets forwards asset changes of r to send until it is called again
// with a nil send.
func watchAssets(r *render.Renderer, send func(tea.Msg)) {
	if send == nil {
		r.Images().OnChange(nil)
		r.Fonts().OnChange(nil)
		return
	}
	r.Images().OnChange(func(src string, state assets.State) {
		send(assetMsg{src: src, state: state})
	})
	r.Fonts().OnChange(func(family string) {
		send(assetMsg{family: family, state: assets.Loaded})
	})
}

const commandTimeout = 30 * time.Second

// copyToClipboard puts the elements on the system clipboard as JSON so they
// can be pasted into another designer session.
func copyToClipboard(elements document.Elements) tea.Cmd {
	return func() tea.Msg {
		data, err := json.Marshal(elements)
		if err != nil {
			return statusMsg{err: err}
		}
		if err := clipboard.WriteAll(string(data)); err != nil {
			return statusMsg{text: fmt.Sprintf("Copied %d element(s)", len(elements))}
		}
		return statusMsg{text: fmt.Sprintf("Copied %d element(s) to clipboard", len(elements))}
	}
}

// readClipboard reads elements from the system clipboard. When it holds no
// element JSON the designer's own clipboard is pasted.
func readClipboard() tea.Cmd {
	return func() tea.Msg {
		text, err := clipboard.ReadAll()
		if err != nil {
			return pastedMsg{err: err}
		}
		elements, err := parseElements(text)
		return pastedMsg{elements: elements, err: err}
	}
}

func parseElements(text string) (document.Elements, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "[") {
		return nil, errors.New("clipboard holds no elements")
	}
	var elements document.Elements
	if err := json.Unmarshal([]byte(text), &elements); err != nil {
		return nil, err
	}
	for _, e := range elements {
		document.FillDefaults(e)
	}
	return elements, nil
}

// loadImage decodes the source in the background and reports its size.
func (m model) loadImage(id, src string) tea.Cmd {
	if m.renderer == nil {
		return nil
	}
	images := m.renderer.Images()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := images.Preload(ctx, src); err != nil {
			return statusMsg{err: err}
		}
		img, _ := images.Get(src)
		if img == nil {
			return statusMsg{err: fmt.Errorf("image %s: %w", src, images.Err(src))}
		}
		b := img.Bounds()
		return imageLoadedMsg{id: id, width: b.Dx(), height: b.Dy()}
	}
}

func (m model) exportName() string {
	name := "certificate"
	if m.template != nil && m.template.Name != "" {
		name = m.template.Name
	}
	return strings.ReplaceAll(strings.ToLower(name), " ", "-") + ".pdf"
}

// export writes the design as it is currently previewed. A .png name
// writes a PNG at design size, anything else an A4 PDF.
func (m model) export(path string) tea.Cmd {
	if m.renderer == nil {
		return func() tea.Msg { return statusMsg{err: errors.New("no renderer configured")} }
	}
	d := m.store.RenderDesign()
	r := m.renderer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return statusMsg{err: err}
		}
		f, err := os.Create(path)
		if err != nil {
			return statusMsg{err: err}
		}
		defer f.Close()

		if strings.EqualFold(filepath.Ext(path), ".png") {
			if err := r.Images().Preload(ctx, render.Sources(d)...); err != nil {
				return statusMsg{err: err}
			}
			err = export.PNG(f, r.Render(d, render.Options{Mode: render.Export, Scale: 1}))
		} else {
			err = export.Render(ctx, r, d, f)
		}
		if err != nil {
			return statusMsg{err: err}
		}
		if missing := resolve.Unresolved(d); len(missing) > 0 {
			return statusMsg{text: fmt.Sprintf("Exported %s (unresolved: %s)", path, strings.Join(missing, ", "))}
		}
		return statusMsg{text: "Exported " + path}
	}
}

func (m model) snapshotName() string {
	return strings.TrimSuffix(m.exportName(), ".pdf") + "-editor.png"
}

// snapshot writes the canvas as the editor sees it: zoomed, with the grid,
// bleed, snap guides and selection outlines that are switched on.
func (m model) snapshot(path string) tea.Cmd {
	if m.renderer == nil {
		return func() tea.Msg { return statusMsg{err: errors.New("no renderer configured")} }
	}
	d := m.store.RenderDesign()
	opts := editorOptions(m.store)
	r := m.renderer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := r.Images().Preload(ctx, render.Sources(d)...); err != nil {
			return statusMsg{err: err}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return statusMsg{err: err}
		}
		f, err := os.Create(path)
		if err != nil {
			return statusMsg{err: err}
		}
		defer f.Close()
		if err := export.PNG(f, r.Render(d, opts)); err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{text: "Snapshot " + path}
	}
}

func editorOptions(s *designer.Store) render.Options {
	return render.Options{
		Mode:      render.Editor,
		Scale:     s.Canvas().Zoom,
		Guides:    s.Guides(),
		Selection: s.Selected(),
	}
}

// save writes the design to the template store, creating the record on
// first save, and drops the recovery draft.
func (m model) save() tea.Cmd {
	if m.templates == nil || m.template == nil {
		return func() tea.Msg { return statusMsg{err: errors.New("no template store configured")} }
	}
	tpl := *m.template
	tpl.Design = m.store.Design()
	tpl.Governance = m.store.Governance()
	tpl.Type = tpl.Design.Canvas.DesignType
	tpl.UpdatedAt = time.Now().UTC()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = tpl.UpdatedAt
	}
	templates, drafts := m.templates, m.drafts

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		err := templates.Update(ctx, &tpl)
		if errors.Is(err, storage.ErrTemplateNotFound) {
			err = templates.Create(ctx, &tpl)
		}
		if err != nil {
			return statusMsg{err: fmt.Errorf("save template: %w", err)}
		}
		if drafts != nil {
			if err := drafts.Clear(ctx); err != nil {
				return statusMsg{err: fmt.Errorf("clear draft: %w", err)}
			}
		}
		return savedMsg{template: tpl}
	}
}
