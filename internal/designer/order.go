package designer

import (
	"slices"

	"certdesign/internal/document"
)

// reorder moves the element at from to position to and records the change.
func (s *Store) reorder(id string, target func(from, last int) int) {
	if s.locked() {
		return
	}
	from := s.index(id)
	if from < 0 {
		return
	}
	to := target(from, len(s.elements)-1)
	if to == from {
		return
	}

	s.commit()
	e := s.elements[from]
	elements := slices.Delete(slices.Clone(s.elements), from, from+1)
	s.elements = slices.Insert(elements, to, e)
	s.mirror()
}

// BringForward swaps the element with the one above it.
func (s *Store) BringForward(id string) {
	s.reorder(id, func(from, last int) int { return min(from+1, last) })
}

// SendBackward swaps the element with the one below it.
func (s *Store) SendBackward(id string) {
	s.reorder(id, func(from, _ int) int { return max(from-1, 0) })
}

func (s *Store) BringToFront(id string) {
	s.reorder(id, func(_, last int) int { return last })
}

func (s *Store) SendToBack(id string) {
	s.reorder(id, func(int, int) int { return 0 })
}

// ZIndex returns the z-order position of the element, or -1.
func (s *Store) ZIndex(id string) int {
	return document.IndexOf(s.elements, id)
}
