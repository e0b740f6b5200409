// Package history keeps bounded undo and redo stacks of snapshots.
package history

// DefaultDepth is the number of undo entries kept before the oldest is
// evicted.
const DefaultDepth = 50

// Stack holds past and future snapshots of a value of type T.
type Stack[T any] struct {
	undoStack []T
	redoStack []T
	depth     int
}

func New[T any](depth int) *Stack[T] {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Stack[T]{depth: depth}
}

// Record pushes the pre-mutation state and clears the redo stack.
func (s *Stack[T]) Record(prior T) {
	s.undoStack = append(s.undoStack, prior)
	if over := len(s.undoStack) - s.depth; over > 0 {
		clear(s.undoStack[:over])
		s.undoStack = s.undoStack[over:]
	}
	clear(s.redoStack)
	s.redoStack = s.redoStack[:0]
}

// Undo pops the latest past snapshot, pushing current onto the redo stack.
func (s *Stack[T]) Undo(current T) (T, bool) {
	var zero T
	if len(s.undoStack) == 0 {
		return zero, false
	}
	lastIndex := len(s.undoStack) - 1
	prev := s.undoStack[lastIndex]
	s.undoStack[lastIndex] = zero
	s.undoStack = s.undoStack[:lastIndex]

	s.redoStack = append(s.redoStack, current)
	return prev, true
}

// Redo pops the latest future snapshot, pushing current onto the undo stack.
func (s *Stack[T]) Redo(current T) (T, bool) {
	var zero T
	if len(s.redoStack) == 0 {
		return zero, false
	}
	lastIndex := len(s.redoStack) - 1
	next := s.redoStack[lastIndex]
	s.redoStack[lastIndex] = zero
	s.redoStack = s.redoStack[:lastIndex]

	s.undoStack = append(s.undoStack, current)
	return next, true
}

func (s *Stack[T]) CanUndo() bool { return len(s.undoStack) > 0 }
func (s *Stack[T]) CanRedo() bool { return len(s.redoStack) > 0 }

// Len returns the sizes of the undo and redo stacks.
func (s *Stack[T]) Len() (past, future int) {
	return len(s.undoStack), len(s.redoStack)
}

// Reset drops both stacks.
func (s *Stack[T]) Reset() {
	s.undoStack = nil
	s.redoStack = nil
}
