package designer

import (
	"slices"

	"certdesign/internal/document"
	"certdesign/internal/geometry"
)

// AddElement fills the omitted attributes of e, gives it a fresh id when it
// has none, places it on top and selects it. The caller's value is copied.
// It returns the id of the added element, or "" when the edit was refused.
func (s *Store) AddElement(e document.Element) string {
	if e == nil || s.locked() {
		return ""
	}
	e = e.Clone()
	document.FillDefaults(e)

	b := e.Meta()
	if b.ID == "" || s.index(b.ID) >= 0 {
		b.ID = s.newID()
	}
	now := s.stamp()
	if b.CreatedAt == 0 {
		b.CreatedAt = now
	}
	if b.UpdatedAt == 0 {
		b.UpdatedAt = now
	}

	s.commit()
	s.elements = append(s.elements, e)
	s.selected = []string{b.ID}
	s.mirror()
	return b.ID
}

// UpdateElement applies fn to a copy of the element and swaps the copy in.
// The id and type tag cannot be changed. Updates are not recorded in
// history; use Checkpoint before a gesture that should be undoable.
func (s *Store) UpdateElement(id string, fn func(document.Element)) {
	if s.locked() {
		return
	}
	i := s.index(id)
	if i < 0 {
		return
	}
	s.replace(i, fn)
	s.mirror()
}

func (s *Store) replace(i int, fn func(document.Element)) {
	old := s.elements[i]
	c := old.Clone()
	fn(c)

	b := c.Meta()
	b.ID = old.Meta().ID
	b.Type = old.Meta().Type
	document.ClampScale(b)
	b.UpdatedAt = s.stamp()

	s.elements[i] = c
}

func movable(e document.Element) bool {
	b := e.Meta()
	return !b.Locked && b.IsDraggable()
}

// MoveElement sets the position of an unlocked element.
func (s *Store) MoveElement(id string, x, y float64) {
	e, ok := s.Element(id)
	if !ok || !movable(e) {
		return
	}
	s.UpdateElement(id, func(e document.Element) {
		b := e.Meta()
		b.X, b.Y = x, y
	})
}

// ResizeElement sets the scale of an unlocked element. Scales below
// document.ScaleEpsilon are clamped.
func (s *Store) ResizeElement(id string, scaleX, scaleY float64) {
	e, ok := s.Element(id)
	if !ok || e.Meta().Locked {
		return
	}
	s.UpdateElement(id, func(e document.Element) {
		b := e.Meta()
		b.ScaleX, b.ScaleY = scaleX, scaleY
	})
}

// DragElement moves an element to the proposed position after snapping it
// to the other elements and the canvas. It returns the applied position and
// keeps the active guides until EndDrag.
func (s *Store) DragElement(id string, x, y float64) (float64, float64) {
	e, ok := s.Element(id)
	if !ok || !movable(e) || s.governance.IsImmutable {
		return x, y
	}
	bounds := document.ResolveBounds(e)

	others := make([]geometry.Box, 0, len(s.elements))
	for _, o := range s.elements {
		if !o.Meta().IsVisible() {
			continue
		}
		ob := document.ResolveBounds(o)
		others = append(others, geometry.Box{ID: o.Meta().ID, X: ob.X, Y: ob.Y, Width: ob.Width, Height: ob.Height})
	}

	res := geometry.Snap(geometry.Input{
		MovingID:     id,
		X:            x,
		Y:            y,
		Width:        bounds.Width,
		Height:       bounds.Height,
		Others:       others,
		CanvasWidth:  float64(s.canvas.Width),
		CanvasHeight: float64(s.canvas.Height),
		Threshold:    s.snapThreshold,
	})

	if s.canvas.GridOn && s.canvas.SnapToGrid {
		var snappedX, snappedY bool
		for _, g := range res.Guides {
			snappedX = snappedX || g.Orientation == geometry.Vertical
			snappedY = snappedY || g.Orientation == geometry.Horizontal
		}
		if !snappedX {
			res.X = geometry.SnapToGrid(res.X, s.canvas.GridSize)
		}
		if !snappedY {
			res.Y = geometry.SnapToGrid(res.Y, s.canvas.GridSize)
		}
	}

	s.guides = res.Guides
	s.MoveElement(id, res.X, res.Y)
	return res.X, res.Y
}

// EndDrag clears the alignment guides.
func (s *Store) EndDrag() {
	s.guides = nil
}

// ImageLoaded records the intrinsic size of an image once its source has
// decoded. Results for elements that no longer exist are dropped.
func (s *Store) ImageLoaded(id string, width, height int) {
	e, ok := s.Element(id)
	if !ok {
		return
	}
	img, ok := e.(*document.Image)
	if !ok || img.OriginalWidth > 0 || s.governance.IsImmutable {
		return
	}
	s.replace(s.index(id), func(e document.Element) {
		im := e.(*document.Image)
		im.OriginalWidth, im.OriginalHeight = float64(width), float64(height)
	})
	s.mirror()
}

// RemoveElement deletes the elements and drops them from the selection.
func (s *Store) RemoveElement(ids ...string) {
	if s.locked() {
		return
	}
	drop := func(e document.Element) bool { return slices.Contains(ids, e.Meta().ID) }
	if !slices.ContainsFunc(s.elements, drop) {
		return
	}

	s.commit()
	s.elements = slices.DeleteFunc(slices.Clone(s.elements), drop)
	s.selected = slices.DeleteFunc(slices.Clone(s.selected), func(id string) bool {
		return slices.Contains(ids, id)
	})
	s.mirror()
}

func (s *Store) selectedElements() []document.Element {
	var out []document.Element
	for _, e := range s.elements {
		if s.IsSelected(e.Meta().ID) {
			out = append(out, e)
		}
	}
	return out
}

// appendCopies adds offset clones of src with fresh ids and selects them.
func (s *Store) appendCopies(src []document.Element, offset float64) {
	now := s.stamp()
	ids := make([]string, 0, len(src))
	elements := slices.Clone(s.elements)
	for _, e := range src {
		c := e.Clone()
		b := c.Meta()
		b.ID = s.newID()
		b.X += offset
		b.Y += offset
		b.CreatedAt, b.UpdatedAt = now, now
		elements = append(elements, c)
		ids = append(ids, b.ID)
	}
	s.elements = elements
	s.selected = ids
}

// DuplicateSelected clones every selected element, offset by
// DuplicateOffset, and selects the clones.
func (s *Store) DuplicateSelected() {
	if s.locked() {
		return
	}
	src := s.selectedElements()
	if len(src) == 0 {
		return
	}
	s.commit()
	s.appendCopies(src, DuplicateOffset)
	s.mirror()
}

// CopySelected puts clones of the selected elements on the clipboard and
// reports whether anything was copied.
func (s *Store) CopySelected() bool {
	src := s.selectedElements()
	if len(src) == 0 {
		return false
	}
	s.clipboard = document.CloneAll(src)
	return true
}

// PasteClipboard adds the clipboard elements offset by PasteOffset.
func (s *Store) PasteClipboard() {
	if s.locked() || len(s.clipboard) == 0 {
		return
	}
	s.commit()
	s.appendCopies(s.clipboard, PasteOffset)
	s.mirror()
}

// GroupSelected tags two or more selected elements with a shared parent id.
func (s *Store) GroupSelected() {
	if s.locked() || len(s.selectedElements()) < 2 {
		return
	}
	s.commit()
	group := s.newID()
	elements := slices.Clone(s.elements)
	for i, e := range elements {
		if s.IsSelected(e.Meta().ID) {
			c := e.Clone()
			c.Meta().ParentID = group
			elements[i] = c
		}
	}
	s.elements = elements
	s.mirror()
}

// UngroupSelected clears the grouping of every group a selected element
// belongs to.
func (s *Store) UngroupSelected() {
	if s.locked() {
		return
	}
	groups := map[string]bool{}
	for _, e := range s.selectedElements() {
		if p := e.Meta().ParentID; p != "" {
			groups[p] = true
		}
	}
	for _, id := range s.selected {
		groups[id] = true
	}
	inGroup := func(e document.Element) bool {
		p := e.Meta().ParentID
		return p != "" && groups[p]
	}
	if !slices.ContainsFunc(s.elements, inGroup) {
		return
	}

	s.commit()
	elements := slices.Clone(s.elements)
	for i, e := range elements {
		if inGroup(e) {
			c := e.Clone()
			c.Meta().ParentID = ""
			elements[i] = c
		}
	}
	s.elements = elements
	s.mirror()
}

// SetFieldBinding binds the element to a known dynamic field; an empty
// fieldID clears the binding. Unknown field ids are refused.
func (s *Store) SetFieldBinding(id, fieldID string) {
	if s.locked() {
		return
	}
	i := s.index(id)
	if i < 0 {
		return
	}
	if fieldID != "" && !slices.ContainsFunc(s.fields, func(f document.DynamicField) bool { return f.ID == fieldID }) {
		s.log.Debug("unknown field binding refused", "element", id, "field", fieldID)
		return
	}
	if s.elements[i].Meta().FieldBinding == fieldID {
		return
	}
	s.commit()
	s.replace(i, func(e document.Element) { e.Meta().FieldBinding = fieldID })
	s.mirror()
}

// Select replaces the selection with id, or toggles its membership when
// multi is set.
func (s *Store) Select(id string, multi bool) {
	if s.index(id) < 0 {
		return
	}
	if !multi {
		s.selected = []string{id}
		return
	}
	if i := slices.Index(s.selected, id); i >= 0 {
		s.selected = slices.Delete(slices.Clone(s.selected), i, i+1)
		return
	}
	s.selected = append(slices.Clone(s.selected), id)
}

func (s *Store) DeselectAll() {
	s.selected = nil
}
