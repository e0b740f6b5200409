package tui

import (
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"certdesign/internal/designer"
	"certdesign/internal/document"
)

var addKeys = map[string]document.Kind{
	"t": document.KindText,
	"r": document.KindRect,
	"c": document.KindCircle,
	"h": document.KindHexagon,
	"q": document.KindQR,
	"s": document.KindSerial,
	"g": document.KindSignature,
	"i": document.KindImage,
}

func (m model) handleNormal(key string) (tea.Model, tea.Cmd) {
	if dx, dy, ok := moveDelta(key); ok {
		m.moveSelected(dx, dy)
		return m, nil
	}
	if key == "S" {
		// Before endDrag, so the guides of a move in progress are drawn.
		return m, m.snapshot(m.savePath(m.snapshotName()))
	}
	m.endDrag()

	id := m.primary()
	switch key {
	case "?":
		m.help = true
	case "q", "ctrl+c":
		if m.confirm {
			m.mode, m.confirmAction = ModeConfirm, ConfirmQuit
			return m, nil
		}
		return m, tea.Quit
	case "a":
		m.mode = ModeAdd
	case "tab":
		m.cycleSelection(1)
	case "shift+tab":
		m.cycleSelection(-1)
	case "esc":
		m.store.DeselectAll()
	case "+", "=":
		m.scaleSelected(scaleStep)
	case "-":
		m.scaleSelected(1 / scaleStep)
	case "d", "delete":
		if len(m.store.Selected()) == 0 {
			return m, nil
		}
		if m.confirm {
			m.mode, m.confirmAction = ModeConfirm, ConfirmDelete
			return m, nil
		}
		m.store.RemoveElement(m.store.Selected()...)
	case "D":
		m.store.DuplicateSelected()
	case "y":
		if m.store.CopySelected() {
			return m, copyToClipboard(m.store.Clipboard())
		}
	case "p":
		return m, readClipboard()
	case "G":
		m.store.GroupSelected()
	case "U":
		m.store.UngroupSelected()
	case "]":
		m.store.BringForward(id)
	case "[":
		m.store.SendBackward(id)
	case "}":
		m.store.BringToFront(id)
	case "{":
		m.store.SendToBack(id)
	case "u":
		m.store.Undo()
	case "ctrl+r":
		m.store.Redo()
	case "P":
		m.store.Publish()
	case "N":
		m.store.CreateNewVersion()
	case "A":
		m.store.Archive()
	case "v":
		if m.store.PreviewMode() == designer.PreviewDesign {
			m.store.SetPreviewMode(designer.PreviewPlaceholder)
		} else {
			m.store.SetPreviewMode(designer.PreviewDesign)
		}
	case "g":
		m.store.ToggleGrid()
	case "b":
		m.store.ToggleBleed()
	case "f":
		m.cycleBinding(id)
	case "e", "enter":
		if content, ok := editableContent(m.store, id); ok {
			m.startInput(inputContent, content)
		}
	case "ctrl+s":
		return m, m.save()
	case "E":
		m.startInput(inputFileName, m.exportName())
	}
	return m, nil
}

func moveDelta(key string) (float64, float64, bool) {
	step := float64(moveStep)
	switch key {
	case "H", "J", "K", "L", "shift+left", "shift+right", "shift+up", "shift+down":
		step *= fastMove
	}
	switch key {
	case "h", "left", "H", "shift+left":
		return -step, 0, true
	case "l", "right", "L", "shift+right":
		return step, 0, true
	case "k", "up", "K", "shift+up":
		return 0, -step, true
	case "j", "down", "J", "shift+down":
		return 0, step, true
	}
	return 0, 0, false
}

// moveSelected nudges the primary selection through the snapping engine.
// A run of consecutive moves is one undo step. Elements the store would
// refuse to move leave the history alone.
func (m *model) moveSelected(dx, dy float64) {
	id := m.primary()
	e, ok := m.store.Element(id)
	if !ok || !m.editable(e) || (dx == 0 && dy == 0) {
		return
	}
	if !m.dragging {
		m.store.Checkpoint()
		m.dragging = true
	}
	b := e.Meta()
	m.store.DragElement(id, b.X+dx, b.Y+dy)
}

func (m *model) scaleSelected(factor float64) {
	id := m.primary()
	e, ok := m.store.Element(id)
	if !ok || e.Meta().Locked || m.store.Governance().IsImmutable || factor == 1 {
		return
	}
	b := e.Meta()
	m.store.Checkpoint()
	m.store.ResizeElement(id, b.ScaleX*factor, b.ScaleY*factor)
}

// editable reports whether e can be dragged in the current document.
func (m *model) editable(e document.Element) bool {
	b := e.Meta()
	return !b.Locked && b.IsDraggable() && !m.store.Governance().IsImmutable
}

func (m *model) cycleSelection(dir int) {
	elements := m.store.Elements()
	if len(elements) == 0 {
		return
	}
	next := 0
	if i := document.IndexOf(elements, m.primary()); i >= 0 {
		next = (i + dir + len(elements)) % len(elements)
	} else if dir < 0 {
		next = len(elements) - 1
	}
	m.store.Select(elements[next].Meta().ID, false)
}

// cycleBinding steps the element's field binding through the field catalog
// and back to unbound.
func (m *model) cycleBinding(id string) {
	e, ok := m.store.Element(id)
	if !ok {
		return
	}
	fields := m.store.Fields()
	i := slices.IndexFunc(fields, func(f document.DynamicField) bool {
		return f.ID == e.Meta().FieldBinding
	})
	next := ""
	if i+1 < len(fields) {
		next = fields[i+1].ID
	}
	m.store.SetFieldBinding(id, next)
}

func editableContent(s *designer.Store, id string) (string, bool) {
	e, ok := s.Element(id)
	if !ok {
		return "", false
	}
	switch v := e.(type) {
	case *document.Text:
		return v.Content, true
	case *document.QR:
		return v.Content, true
	case *document.Serial:
		return v.Format, true
	}
	return "", false
}

func (m *model) startInput(target inputTarget, initial string) {
	m.mode = ModeTextInput
	m.target = target
	m.input = initial
	m.inputCursor = len([]rune(initial))
}

func (m model) handleAdd(key string) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	kind, ok := addKeys[key]
	if !ok {
		return m, nil
	}
	if kind == document.KindImage {
		m.startInput(inputImageSrc, "")
		return m, nil
	}
	e, err := document.New(kind)
	if err != nil {
		m.errorMessage = err.Error()
		return m, nil
	}
	if t, ok := e.(*document.Text); ok && t.Content == "" {
		t.Content = "Double click to edit"
	}
	if m.store.AddElement(e) == "" {
		m.errorMessage = "document is read-only"
	}
	return m, nil
}

func (m model) handleTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	runes := []rune(m.input)
	switch msg.Type {
	case tea.KeyEscape:
		m.mode = ModeNormal
		return m, nil
	case tea.KeyEnter:
		m.mode = ModeNormal
		return m.finishInput()
	case tea.KeyBackspace:
		if m.inputCursor > 0 {
			runes = append(runes[:m.inputCursor-1], runes[m.inputCursor:]...)
			m.inputCursor--
		}
	case tea.KeyDelete:
		if m.inputCursor < len(runes) {
			runes = append(runes[:m.inputCursor], runes[m.inputCursor+1:]...)
		}
	case tea.KeyLeft:
		m.inputCursor = max(m.inputCursor-1, 0)
	case tea.KeyRight:
		m.inputCursor = min(m.inputCursor+1, len(runes))
	case tea.KeyHome:
		m.inputCursor = 0
	case tea.KeyEnd:
		m.inputCursor = len(runes)
	case tea.KeyRunes, tea.KeySpace:
		ins := msg.Runes
		if msg.Type == tea.KeySpace {
			ins = []rune{' '}
		}
		runes = append(runes[:m.inputCursor], append(slices.Clone(ins), runes[m.inputCursor:]...)...)
		m.inputCursor += len(ins)
	}
	m.input = string(runes)
	return m, nil
}

func (m model) finishInput() (tea.Model, tea.Cmd) {
	switch m.target {
	case inputContent:
		id := m.primary()
		m.store.Checkpoint()
		m.store.UpdateElement(id, func(e document.Element) {
			switch v := e.(type) {
			case *document.Text:
				v.Content = m.input
			case *document.QR:
				v.Content = m.input
			case *document.Serial:
				v.Format = m.input
				v.Content = document.MaterializeSerial(v.Format, document.SerialVars(time.Now(), serialCode()))
			}
		})
	case inputImageSrc:
		if m.input == "" {
			return m, nil
		}
		id := m.store.AddElement(document.NewImage(m.input))
		if id == "" {
			m.errorMessage = "document is read-only"
			return m, nil
		}
		return m, m.loadImage(id, m.input)
	case inputFileName:
		if m.input == "" {
			return m, nil
		}
		return m, m.export(m.savePath(m.input))
	}
	return m, nil
}

func (m model) handleConfirm(key string) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	if key != "y" && key != "Y" {
		return m, nil
	}
	switch m.confirmAction {
	case ConfirmDelete:
		m.store.RemoveElement(m.store.Selected()...)
	case ConfirmQuit:
		return m, tea.Quit
	}
	return m, nil
}

// serialCode is a short random code for serial previews.
func serialCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}
