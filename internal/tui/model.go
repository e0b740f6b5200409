// Package tui is the terminal designer: an ASCII view of the canvas driven
// by the designer store.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"certdesign/internal/assets"
	"certdesign/internal/designer"
	"certdesign/internal/document"
	"certdesign/internal/render"
	"certdesign/internal/storage"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeTextInput
	ModeConfirm
)

// inputTarget says what a finished text input is applied to.
type inputTarget int

const (
	inputContent inputTarget = iota
	inputImageSrc
	inputFileName
)

type ConfirmAction int

const (
	ConfirmDelete ConfirmAction = iota
	ConfirmQuit
)

// Move steps in design pixels; Shift multiplies by 10.
const (
	moveStep  = 10
	fastMove  = 10
	scaleStep = 1.1
)

// DraftClearer forgets the crash-recovery draft once the design is saved.
type DraftClearer interface {
	Clear(ctx context.Context) error
}

// Options wires the designer to its collaborators. Only Store is required.
type Options struct {
	Store         *designer.Store
	Renderer      *render.Renderer
	Templates     storage.TemplateStore
	Template      *storage.Template
	Drafts        DraftClearer
	SavePath      func(name string) string
	Confirmations bool
	Log           *slog.Logger
}

type model struct {
	store     *designer.Store
	renderer  *render.Renderer
	templates storage.TemplateStore
	template  *storage.Template
	drafts    DraftClearer
	savePath  func(string) string
	confirm   bool
	log       *slog.Logger

	width, height int
	mode          Mode
	help          bool
	dragging      bool

	input       string
	inputCursor int
	target      inputTarget

	confirmAction ConfirmAction

	errorMessage   string
	successMessage string
}

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f1f5f9")).Background(lipgloss.Color("#334155"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	layerStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).PaddingLeft(1)
	activeLayer = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6")).Bold(true)
)

// layerWidth is the width of the layer list next to the canvas.
const layerWidth = 28

func New(opts Options) tea.Model {
	m := model{
		store:     opts.Store,
		renderer:  opts.Renderer,
		templates: opts.Templates,
		template:  opts.Template,
		drafts:    opts.Drafts,
		savePath:  opts.SavePath,
		confirm:   opts.Confirmations,
		log:       opts.Log,
		width:     100,
		height:    30,
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if m.savePath == nil {
		m.savePath = func(name string) string { return name }
	}
	return m
}

// Run starts the designer on the terminal and blocks until it exits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	if opts.Renderer != nil {
		watchAssets(opts.Renderer, p.Send)
		defer watchAssets(opts.Renderer, nil)
	}
	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case statusMsg:
		m.errorMessage, m.successMessage = "", ""
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
		} else {
			m.successMessage = msg.text
		}
		return m, nil
	case savedMsg:
		tpl := msg.template
		m.template = &tpl
		m.errorMessage, m.successMessage = "", "Saved "+tpl.Name
		return m, nil
	case imageLoadedMsg:
		m.store.ImageLoaded(msg.id, msg.width, msg.height)
		return m, nil
	case assetMsg:
		m.assetSettled(msg)
		return m, nil
	case pastedMsg:
		if msg.err == nil && len(msg.elements) > 0 {
			m.store.SetClipboard(msg.elements)
		}
		m.store.PasteClipboard()
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		if m.help {
			m.help = false
			return m, nil
		}
		switch m.mode {
		case ModeAdd:
			return m.handleAdd(key)
		case ModeTextInput:
			return m.handleTextInput(msg)
		case ModeConfirm:
			return m.handleConfirm(key)
		}
		m.errorMessage, m.successMessage = "", ""
		return m.handleNormal(key)
	}
	return m, nil
}

// assetSettled records the natural size of images whose source finished
// loading and reports failures and newly available fonts.
func (m *model) assetSettled(msg assetMsg) {
	switch {
	case msg.family != "":
		m.successMessage = "Font available: " + msg.family
	case msg.state == assets.Failed:
		m.errorMessage = "Image failed to load: " + msg.src
	case msg.state == assets.Loaded && m.renderer != nil:
		img, _ := m.renderer.Images().Get(msg.src)
		if img == nil {
			return
		}
		b := img.Bounds()
		for _, e := range m.store.Elements() {
			if v, ok := e.(*document.Image); ok && v.Src == msg.src {
				m.store.ImageLoaded(v.ID, b.Dx(), b.Dy())
			}
		}
	}
}

// primary is the first selected element id, or "".
func (m *model) primary() string {
	if sel := m.store.Selected(); len(sel) > 0 {
		return sel[0]
	}
	return ""
}

func (m *model) endDrag() {
	if m.dragging {
		m.store.EndDrag()
		m.dragging = false
	}
}

func (m model) View() string {
	if m.help {
		return helpView()
	}

	canvasCols := max(m.width-layerWidth-1, 10)
	rows := max(m.height-1, 3)

	d := m.store.RenderDesign()
	lines := Render(d, m.store.IsSelected, m.store.Guides(), canvasCols, rows)
	for i := range lines {
		lines[i] = padRight(lines[i], canvasCols)
	}
	canvas := strings.Join(lines, "\n")

	view := lipgloss.JoinHorizontal(lipgloss.Top, canvas, layerStyle.Height(rows).Render(m.layers(rows)))
	return view + "\n" + m.statusLine()
}

func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// layers lists elements top-most first, like a layer panel.
func (m model) layers(rows int) string {
	elements := m.store.Elements()
	var b strings.Builder
	b.WriteString("Layers\n")
	for i := len(elements) - 1; i >= 0 && rows > 1; i-- {
		e := elements[i]
		meta := e.Meta()
		name := meta.Name
		if name == "" {
			name = label(e)
		}
		line := fmt.Sprintf("%-9s %s", document.KindOf(e), name)
		if meta.FieldBinding != "" {
			line += " @" + meta.FieldBinding
		}
		if meta.Locked {
			line += " (locked)"
		}
		if r := []rune(line); len(r) > layerWidth-3 {
			line = string(r[:layerWidth-3])
		}
		if m.store.IsSelected(meta.ID) {
			line = activeLayer.Render(line)
		}
		b.WriteString(line + "\n")
		rows--
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m model) statusLine() string {
	var status string
	switch m.mode {
	case ModeAdd:
		status = "Mode: ADD | t=text r=rect c=circle h=hexagon q=qr s=serial g=signature i=image | Esc=cancel"
	case ModeTextInput:
		prompt := map[inputTarget]string{
			inputContent:  "Content",
			inputImageSrc: "Image source",
			inputFileName: "Export to",
		}[m.target]
		status = fmt.Sprintf("Mode: TEXT | %s: %s | Enter=confirm, Esc=cancel", prompt, withCursor(m.input, m.inputCursor))
	case ModeConfirm:
		message := "Delete the selection? (y/n)"
		if m.confirmAction == ConfirmQuit {
			message = "Quit the designer? Unsaved changes stay in the draft. (y/n)"
		}
		status = "Mode: CONFIRM | " + message
	default:
		gov := m.store.Governance()
		status = fmt.Sprintf("Mode: NORMAL | %s v%d", gov.Status, gov.Version)
		if gov.IsImmutable {
			status += " (read-only)"
		}
		if m.store.PreviewMode() == designer.PreviewPlaceholder {
			status += " | PREVIEW"
		}
		if id := m.primary(); id != "" {
			if e, ok := m.store.Element(id); ok {
				b := e.Meta()
				status += fmt.Sprintf(" | %s at (%.0f,%.0f)", document.KindOf(e), b.X, b.Y)
			}
		}
		switch {
		case m.errorMessage != "":
			status += " | " + errorStyle.Render("ERROR: "+m.errorMessage)
		case m.successMessage != "":
			status += " | " + okStyle.Render(m.successMessage)
		default:
			status += " | ? for help | q to quit"
		}
	}
	return statusStyle.Width(max(m.width, 1)).Render(status)
}

// withCursor shows the cursor as a block over the character it sits on.
func withCursor(text string, pos int) string {
	runes := []rune(strings.ReplaceAll(text, "\n", " "))
	if pos >= len(runes) {
		return string(runes) + "█"
	}
	runes[pos] = '█'
	return string(runes)
}
