package designer

import "certdesign/internal/document"

// Publish marks the document published and immutable.
func (s *Store) Publish() {
	s.governance.Status = document.StatusPublished
	s.governance.IsImmutable = true
	s.mirror()
}

// Archive retires the document. Archived documents cannot be edited.
func (s *Store) Archive() {
	s.governance.Status = document.StatusArchived
	s.governance.IsImmutable = true
	s.mirror()
}

// CreateNewVersion reopens the document as an editable draft of the next
// version.
func (s *Store) CreateNewVersion() {
	s.governance.Status = document.StatusDraft
	s.governance.IsImmutable = false
	s.governance.Version++
	s.mirror()
}

// SetGovernance applies fn to the governance state.
func (s *Store) SetGovernance(fn func(*document.Governance)) {
	fn(&s.governance)
	s.mirror()
}
