package tui

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"certdesign/internal/assets"
	"certdesign/internal/designer"
	"certdesign/internal/document"
	"certdesign/internal/geometry"
	"certdesign/internal/render"
	"certdesign/internal/storage"
	"certdesign/internal/storage/sqlite"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m tea.Model, keys ...string) tea.Model {
	t.Helper()
	for _, k := range keys {
		m, _ = m.Update(keyMsg(k))
	}
	return m
}

func newModel(opts Options) (model, *designer.Store) {
	if opts.Store == nil {
		opts.Store = designer.New()
	}
	return New(opts).(model), opts.Store
}

func TestRender_Projection(t *testing.T) {
	rect := document.NewShape(document.KindRect)
	d := document.Design{Canvas: document.DefaultCanvas(), Elements: document.Elements{rect}}
	none := func(string) bool { return false }

	// 1200x800 on 62x22 cells is 20 design pixels per column.
	lines := Render(d, none, nil, 62, 22)
	require.Len(t, lines, 22)
	assert.Equal(t, "+"+strings.Repeat("-", 60)+"+", lines[0])
	assert.Equal(t, "+"+strings.Repeat("-", 60)+"+", lines[21])
	assert.Equal(t, '+', []rune(lines[3])[6])
	assert.Equal(t, '+', []rune(lines[6])[16])
	assert.Contains(t, lines[4], "|[rect]")

	lines = Render(d, func(id string) bool { return id == rect.ID }, nil, 62, 22)
	assert.Equal(t, "#", string([]rune(lines[3])[6]))

	guides := []geometry.Guide{{Orientation: geometry.Vertical, Position: 600}}
	lines = Render(d, none, guides, 62, 22)
	assert.Equal(t, ':', []rune(lines[10])[31])

	rect.SetVisible(false)
	lines = Render(d, none, nil, 62, 22)
	assert.NotContains(t, strings.Join(lines, "\n"), "[rect]")
}

func TestModel_AddMoveUndo(t *testing.T) {
	m, store := newModel(Options{})

	var tm tea.Model = m
	tm = press(t, tm, "a", "r")
	require.Len(t, store.Elements(), 1)
	id := store.Elements()[0].Meta().ID
	assert.True(t, store.IsSelected(id))

	tm = press(t, tm, "l", "l", "j")
	e, _ := store.Element(id)
	assert.Equal(t, 120.0, e.Meta().X)
	assert.Equal(t, 110.0, e.Meta().Y)

	// The whole run of moves is one undo step.
	press(t, tm, "u")
	e, _ = store.Element(id)
	assert.Equal(t, 100.0, e.Meta().X)
	assert.Equal(t, 100.0, e.Meta().Y)
}

func TestModel_AddUnknownKeyLeavesAddMode(t *testing.T) {
	m, store := newModel(Options{})
	tm := press(t, m, "a", "z")
	assert.Empty(t, store.Elements())
	assert.Equal(t, ModeNormal, tm.(model).mode)
}

func TestModel_EditTextContent(t *testing.T) {
	m, store := newModel(Options{})
	var tm tea.Model = press(t, m, "a", "t", "e")
	require.Equal(t, ModeTextInput, tm.(model).mode)
	assert.Equal(t, "Double click to edit", tm.(model).input)

	for range len("Double click to edit") {
		tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	tm, _ = tm.Update(keyMsg("Hello"))
	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeySpace})
	tm, _ = tm.Update(keyMsg("there"))
	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeNormal, tm.(model).mode)

	text := store.Elements()[0].(*document.Text)
	assert.Equal(t, "Hello there", text.Content)

	// Escape discards the edit.
	tm = press(t, tm, "e")
	tm, _ = tm.Update(keyMsg("!"))
	tm.Update(tea.KeyMsg{Type: tea.KeyEscape})
	assert.Equal(t, "Hello there", store.Elements()[0].(*document.Text).Content)
}

func TestModel_SerialFormatIsMaterialized(t *testing.T) {
	m, store := newModel(Options{})
	var tm tea.Model = press(t, m, "a", "s", "e")
	tm.Update(tea.KeyMsg{Type: tea.KeyEnter})

	serial := store.Elements()[0].(*document.Serial)
	assert.Equal(t, "SN-{{YEAR}}{{CODE}}", serial.Format)
	assert.NotContains(t, serial.Content, "{{")
	assert.Len(t, serial.Content, len("SN-")+4+6)
}

func TestModel_PublishedIsReadOnly(t *testing.T) {
	m, store := newModel(Options{})
	var tm tea.Model = press(t, m, "a", "r", "P")
	assert.True(t, store.Governance().IsImmutable)

	tm = press(t, tm, "a", "c")
	assert.Len(t, store.Elements(), 1)
	assert.Equal(t, "document is read-only", tm.(model).errorMessage)
	assert.Contains(t, tm.View(), "(read-only)")

	tm = press(t, tm, "N", "a", "c")
	assert.Len(t, store.Elements(), 2)
	assert.Equal(t, 2, store.Governance().Version)
}

func TestModel_ConfirmDelete(t *testing.T) {
	m, store := newModel(Options{Confirmations: true})
	var tm tea.Model = press(t, m, "a", "r", "d")
	assert.Equal(t, ModeConfirm, tm.(model).mode)

	tm = press(t, tm, "n")
	assert.Len(t, store.Elements(), 1)

	press(t, tm, "d", "y")
	assert.Empty(t, store.Elements())
}

func TestModel_QuitAsksForConfirmation(t *testing.T) {
	m, _ := newModel(Options{Confirmations: true})
	tm, cmd := m.Update(keyMsg("q"))
	assert.Nil(t, cmd)
	assert.Equal(t, ModeConfirm, tm.(model).mode)

	_, cmd = tm.Update(keyMsg("y"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_PasteFallsBackToInternalClipboard(t *testing.T) {
	m, store := newModel(Options{})
	var tm tea.Model = press(t, m, "a", "r")
	tm, cmd := tm.Update(keyMsg("y"))
	require.NotNil(t, cmd)

	tm, _ = tm.Update(pastedMsg{err: errors.New("no clipboard")})
	require.Len(t, store.Elements(), 2)
	first, second := store.Elements()[0].Meta(), store.Elements()[1].Meta()
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.X+designer.PasteOffset, second.X)

	circle := document.NewShape(document.KindCircle)
	tm.Update(pastedMsg{elements: document.Elements{circle}})
	require.Len(t, store.Elements(), 3)
	assert.Equal(t, document.KindCircle, document.KindOf(store.Elements()[2]))
}

func TestParseElements(t *testing.T) {
	data := `[{"type":"rect","id":"r1","width":50,"height":20}]`
	elements, err := parseElements(data)
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "r1", elements[0].Meta().ID)

	_, err = parseElements("just some text")
	assert.Error(t, err)
}

func TestModel_StatusMessages(t *testing.T) {
	m, _ := newModel(Options{})
	tm, _ := m.Update(statusMsg{err: errors.New("boom")})
	assert.Contains(t, tm.View(), "ERROR: boom")

	tm, _ = tm.Update(statusMsg{text: "Exported out.pdf"})
	assert.Contains(t, tm.View(), "Exported out.pdf")
	assert.NotContains(t, tm.View(), "boom")
}

func TestModel_HelpView(t *testing.T) {
	m, _ := newModel(Options{})
	tm := press(t, m, "?")
	assert.Contains(t, tm.View(), "Certificate Designer Help")

	tm = press(t, tm, "x")
	assert.NotContains(t, tm.View(), "Certificate Designer Help")
}

type recordingDrafts struct{ cleared int }

func (d *recordingDrafts) Clear(context.Context) error {
	d.cleared++
	return nil
}

func TestModel_Save(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	drafts := &recordingDrafts{}
	m, _ := newModel(Options{
		Templates: db,
		Template:  &storage.Template{ID: "tpl-1", OrganizationID: "org-1", Name: "Course completion"},
		Drafts:    drafts,
	})
	var tm tea.Model = press(t, m, "a", "r")

	for i := range 2 {
		var cmd tea.Cmd
		tm, cmd = tm.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
		require.NotNil(t, cmd)
		msg := cmd()
		require.IsType(t, savedMsg{}, msg, "save %d", i)
		tm, _ = tm.Update(msg)
	}
	assert.Equal(t, 2, drafts.cleared)
	assert.Equal(t, "Saved Course completion", tm.(model).successMessage)

	got, err := db.Get(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Len(t, got.Design.Elements, 1)
	assert.Equal(t, document.DesignCertificate, got.Type)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestModel_SaveWithoutStore(t *testing.T) {
	m, _ := newModel(Options{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	msg, ok := cmd().(statusMsg)
	require.True(t, ok)
	assert.Error(t, msg.err)
}

func TestModel_ExportPNG(t *testing.T) {
	r, err := render.New()
	require.NoError(t, err)

	dir := t.TempDir()
	m, _ := newModel(Options{
		Renderer: r,
		SavePath: func(name string) string { return filepath.Join(dir, name) },
	})
	var tm tea.Model = press(t, m, "a", "r", "E")
	require.Equal(t, ModeTextInput, tm.(model).mode)
	assert.Equal(t, "certificate.pdf", tm.(model).input)

	for range len("pdf") {
		tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	tm, _ = tm.Update(keyMsg("png"))
	_, cmd := tm.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd().(statusMsg)
	require.NoError(t, msg.err)

	f, err := os.Open(filepath.Join(dir, "certificate.png"))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 1200, cfg.Width)
	assert.Equal(t, 800, cfg.Height)
}

func TestModel_LockedMoveKeepsHistory(t *testing.T) {
	m, store := newModel(Options{})
	locked := document.NewShape(document.KindRect)
	locked.ID, locked.Locked = "locked", true
	pinned := document.NewShape(document.KindRect)
	pinned.ID = "pinned"
	pinned.SetDraggable(false)
	store.Load(document.Design{Canvas: document.DefaultCanvas(), Elements: document.Elements{locked, pinned}}, document.Governance{})

	store.AddElement(document.NewText("x"))
	store.Undo()
	require.True(t, store.CanRedo())

	for id, keys := range map[string][]string{
		"locked": {"l", "L", "j", "+", "-"},
		"pinned": {"l", "L", "k"},
	} {
		store.Select(id, false)
		press(t, m, keys...)

		assert.True(t, store.CanRedo(), id)
		assert.False(t, store.CanUndo(), id)
		e, _ := store.Element(id)
		assert.Equal(t, 100.0, e.Meta().X, id)
		assert.Equal(t, 100.0, e.Meta().Y, id)
	}
}

func TestModel_EditorSnapshot(t *testing.T) {
	r, err := render.New()
	require.NoError(t, err)

	dir := t.TempDir()
	m, store := newModel(Options{
		Renderer: r,
		SavePath: func(name string) string { return filepath.Join(dir, name) },
	})
	tm := press(t, m, "a", "r", "g")
	require.Len(t, store.Selected(), 1)

	opts := editorOptions(store)
	assert.Equal(t, render.Editor, opts.Mode)
	assert.Equal(t, store.Selected(), opts.Selection)
	assert.Equal(t, 0.8, opts.Scale)

	_, cmd := tm.Update(keyMsg("S"))
	require.NotNil(t, cmd)
	msg := cmd().(statusMsg)
	require.NoError(t, msg.err)

	f, err := os.Open(filepath.Join(dir, "certificate-editor.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 960, 640), img.Bounds())

	// The rect is blue; the top-middle selection handle is drawn over it in white.
	cr, cg, cb, _ := img.At(160, 80).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{cr, cg, cb})
}

func TestModel_AssetMessages(t *testing.T) {
	r, err := render.New()
	require.NoError(t, err)
	m, store := newModel(Options{Renderer: r})

	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngFixture(t, 6, 4))
	id := store.AddElement(document.NewImage(src))

	msgs := make(chan tea.Msg, 4)
	watchAssets(r, func(msg tea.Msg) { msgs <- msg })
	defer watchAssets(r, nil)
	r.Images().Get(src)

	var tm tea.Model = m
	select {
	case msg := <-msgs:
		tm, _ = tm.Update(msg)
	case <-time.After(5 * time.Second):
		t.Fatal("no asset message")
	}
	e, _ := store.Element(id)
	assert.Equal(t, 6.0, e.(*document.Image).OriginalWidth)
	assert.Equal(t, 4.0, e.(*document.Image).OriginalHeight)

	require.NoError(t, r.Fonts().Register("Lora", assets.Style{}, goregular.TTF))
	tm, _ = tm.Update(<-msgs)
	assert.Contains(t, tm.View(), "Font available: Lora")

	tm, _ = tm.Update(assetMsg{src: "broken.png", state: assets.Failed})
	assert.Contains(t, tm.View(), "Image failed to load")
}

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}
