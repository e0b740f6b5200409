// Package designer holds the in-progress template document and every
// operation an editor performs on it.
package designer

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"certdesign/internal/document"
	"certdesign/internal/geometry"
	"certdesign/internal/history"
	"certdesign/internal/resolve"
)

type PreviewMode string

const (
	PreviewDesign      PreviewMode = "design"
	PreviewPlaceholder PreviewMode = "placeholder"
)

// Offsets applied to copies of existing elements.
const (
	DuplicateOffset = 20
	PasteOffset     = 40
)

// Draft is the state mirrored to local storage for crash recovery.
type Draft struct {
	Elements        document.Elements       `json:"elements"`
	Canvas          document.CanvasConfig   `json:"canvas"`
	Governance      document.Governance     `json:"governance"`
	Fields          []document.DynamicField `json:"fields"`
	PlaceholderData map[string]string       `json:"placeholderData"`
}

// DraftSink receives a copy of the state after every change.
type DraftSink interface {
	SaveDraft(ctx context.Context, d Draft) error
}

type snapshot struct {
	elements []document.Element
	canvas   document.CanvasConfig
	selected []string
}

// Store owns one document being edited. It is not safe for concurrent use;
// callers serialize access, as the terminal designer does through its update
// loop.
//
// Elements held by the store are never modified in place. Every change
// swaps in a modified clone, so history snapshots share the untouched
// elements.
type Store struct {
	log           *slog.Logger
	now           func() time.Time
	newID         func() string
	snapThreshold float64
	draft         DraftSink

	elements        []document.Element
	canvas          document.CanvasConfig
	selected        []string
	governance      document.Governance
	fields          []document.DynamicField
	placeholderData map[string]string
	previewMode     PreviewMode
	clipboard       []document.Element
	guides          []geometry.Guide

	history *history.Stack[snapshot]
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithHistoryDepth(depth int) Option {
	return func(s *Store) { s.history = history.New[snapshot](depth) }
}

func WithSnapThreshold(px float64) Option {
	return func(s *Store) { s.snapThreshold = px }
}

func WithDraftStore(sink DraftSink) Option {
	return func(s *Store) { s.draft = sink }
}

// New returns a store holding an empty certificate document.
func New(opts ...Option) *Store {
	s := &Store{
		log:             slog.Default(),
		now:             time.Now,
		newID:           uuid.NewString,
		snapThreshold:   geometry.DefaultThreshold,
		elements:        []document.Element{},
		canvas:          document.DefaultCanvas(),
		governance:      document.DefaultGovernance(),
		fields:          document.DefaultFields(),
		placeholderData: document.DefaultPlaceholderData(),
		previewMode:     PreviewDesign,
		history:         history.New[snapshot](history.DefaultDepth),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) stamp() int64 {
	return s.now().UnixMilli()
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		elements: slices.Clone(s.elements),
		canvas:   s.canvas.Clone(),
		selected: slices.Clone(s.selected),
	}
}

// commit records the current state as the undo point for the mutation that
// follows.
func (s *Store) commit() {
	s.history.Record(s.snapshot())
}

func (s *Store) restore(snap snapshot) {
	s.elements = snap.elements
	s.canvas = snap.canvas.WithViewOf(s.canvas)
	s.selected = snap.selected
	s.guides = nil
}

func (s *Store) locked() bool {
	if s.governance.IsImmutable {
		s.log.Debug("document is immutable, edit refused")
		return true
	}
	return false
}

// mirror hands the state to the draft sink. Failures are logged only.
func (s *Store) mirror() {
	if s.draft == nil {
		return
	}
	if err := s.draft.SaveDraft(context.Background(), s.Draft()); err != nil {
		s.log.Warn("failed to mirror draft", "err", err)
	}
}

func (s *Store) index(id string) int {
	return document.IndexOf(s.elements, id)
}

// Load replaces the document and clears history. It returns the font
// families the document uses so the caller can request them.
func (s *Store) Load(d document.Design, gov document.Governance) []string {
	canvas := d.Canvas.Clone()
	if !document.ValidCanvas(canvas) {
		canvas = document.CanvasFor(canvas.DesignType)
	}
	if canvas.Zoom <= 0 {
		canvas.Zoom = s.canvas.Zoom
	}
	if gov.Status == "" {
		gov = document.DefaultGovernance()
	}

	s.elements = document.CloneAll(d.Elements)
	if s.elements == nil {
		s.elements = []document.Element{}
	}
	s.canvas = canvas
	s.governance = gov
	s.selected = nil
	s.guides = nil
	s.previewMode = PreviewDesign
	s.history.Reset()
	s.mirror()

	return d.FontFamilies()
}

// RestoreDraft loads a previously mirrored draft.
func (s *Store) RestoreDraft(d Draft) []string {
	fonts := s.Load(document.Design{Canvas: d.Canvas, Elements: d.Elements}, d.Governance)
	if len(d.Fields) > 0 {
		s.fields = slices.Clone(d.Fields)
	}
	if d.PlaceholderData != nil {
		s.placeholderData = maps.Clone(d.PlaceholderData)
	}
	return fonts
}

// Design returns the current document. Its elements must be treated as
// read-only.
func (s *Store) Design() document.Design {
	return document.Design{
		Canvas:   s.canvas.Clone(),
		Elements: slices.Clone(s.elements),
	}
}

// RenderDesign returns the document as the canvas should show it: resolved
// against the placeholder data in placeholder preview mode.
func (s *Store) RenderDesign() document.Design {
	d := s.Design()
	if s.previewMode == PreviewPlaceholder {
		return resolve.Resolve(d, s.placeholderData)
	}
	return d
}

func (s *Store) Draft() Draft {
	return Draft{
		Elements:        slices.Clone(s.elements),
		Canvas:          s.canvas.Clone(),
		Governance:      s.governance,
		Fields:          slices.Clone(s.fields),
		PlaceholderData: maps.Clone(s.placeholderData),
	}
}

func (s *Store) Elements() []document.Element { return slices.Clone(s.elements) }

// Element returns the element with id.
func (s *Store) Element(id string) (document.Element, bool) {
	if i := s.index(id); i >= 0 {
		return s.elements[i], true
	}
	return nil, false
}

func (s *Store) Canvas() document.CanvasConfig { return s.canvas.Clone() }
func (s *Store) Governance() document.Governance { return s.governance }
func (s *Store) Fields() []document.DynamicField { return slices.Clone(s.fields) }
func (s *Store) PlaceholderData() map[string]string { return maps.Clone(s.placeholderData) }
func (s *Store) PreviewMode() PreviewMode { return s.previewMode }
func (s *Store) Guides() []geometry.Guide { return slices.Clone(s.guides) }
func (s *Store) Selected() []string { return slices.Clone(s.selected) }
func (s *Store) IsSelected(id string) bool { return slices.Contains(s.selected, id) }
func (s *Store) CanUndo() bool { return s.history.CanUndo() }
func (s *Store) CanRedo() bool { return s.history.CanRedo() }
func (s *Store) Clipboard() document.Elements { return document.CloneAll(s.clipboard) }
func (s *Store) SetClipboard(elements document.Elements) { s.clipboard = document.CloneAll(elements) }

// Undo restores the state before the last recorded mutation. View settings
// such as zoom and grid visibility are kept.
func (s *Store) Undo() {
	if s.locked() {
		return
	}
	prev, ok := s.history.Undo(s.snapshot())
	if !ok {
		return
	}
	s.restore(prev)
	s.mirror()
}

func (s *Store) Redo() {
	if s.locked() {
		return
	}
	next, ok := s.history.Redo(s.snapshot())
	if !ok {
		return
	}
	s.restore(next)
	s.mirror()
}

// Checkpoint records the current state as an undo point. Callers use it at
// the start of a drag or resize gesture, whose per-frame updates are not
// recorded.
func (s *Store) Checkpoint() {
	if s.locked() {
		return
	}
	s.commit()
}
