package designer

import (
	"maps"

	"certdesign/internal/document"
)

// SetCanvasConfig applies fn to a copy of the canvas. Results without a
// positive size are refused.
func (s *Store) SetCanvasConfig(fn func(*document.CanvasConfig)) {
	if s.locked() {
		return
	}
	c := s.canvas.Clone()
	fn(&c)
	if !document.ValidCanvas(c) {
		s.log.Debug("canvas change refused", "width", c.Width, "height", c.Height)
		return
	}
	s.commit()
	s.canvas = c
	s.mirror()
}

// SetDesignType switches to the certificate or badge preset. Zoom and the
// credential metadata are kept.
func (s *Store) SetDesignType(t document.DesignType) {
	preset := document.CanvasFor(t)
	s.SetCanvasConfig(func(c *document.CanvasConfig) {
		c.Width, c.Height = preset.Width, preset.Height
		c.BackgroundColor = preset.BackgroundColor
		c.GridSize = preset.GridSize
		c.ShowGuides = preset.ShowGuides
		c.SafeMargin = preset.SafeMargin
		c.BleedArea = preset.BleedArea
		c.SnapToGrid = preset.SnapToGrid
		c.Unit = preset.Unit
		c.DPI = preset.DPI
		c.DesignType = preset.DesignType
	})
}

// SetLayout replaces the sections with the preset for l.
func (s *Store) SetLayout(l document.Layout) {
	s.SetCanvasConfig(func(c *document.CanvasConfig) {
		c.Sections = document.LayoutSections(l)
	})
}

// UpdateSection applies fn to the section with id.
func (s *Store) UpdateSection(id string, fn func(*document.Section)) {
	found := false
	for _, sec := range s.canvas.Sections {
		found = found || sec.ID == id
	}
	if !found {
		return
	}
	s.SetCanvasConfig(func(c *document.CanvasConfig) {
		for i := range c.Sections {
			if c.Sections[i].ID == id {
				fn(&c.Sections[i])
				c.Sections[i].ID = id
			}
		}
	})
}

// View settings below are allowed on immutable documents and are not
// recorded in history.

// SetZoom sets the view zoom. Non-positive values are ignored.
func (s *Store) SetZoom(zoom float64) {
	if zoom <= 0 {
		return
	}
	s.canvas.Zoom = zoom
	s.mirror()
}

func (s *Store) ToggleGrid() {
	s.canvas.GridOn = !s.canvas.GridOn
	s.mirror()
}

func (s *Store) ToggleBleed() {
	s.canvas.ShowBleed = !s.canvas.ShowBleed
	s.mirror()
}

func (s *Store) ToggleGuides() {
	s.canvas.ShowGuides = !s.canvas.ShowGuides
	s.mirror()
}

func (s *Store) SetPreviewMode(m PreviewMode) {
	s.previewMode = m
}

// SetPlaceholderData replaces the sample data used in placeholder preview.
func (s *Store) SetPlaceholderData(bag map[string]string) {
	s.placeholderData = maps.Clone(bag)
	if s.placeholderData == nil {
		s.placeholderData = map[string]string{}
	}
	s.mirror()
}
