package storage

import (
	"encoding/json"
	"fmt"

	"certdesign/internal/document"
)

// EncodeTemplate serializes the JSON columns of a template record.
func EncodeTemplate(t *Template) (design, governance []byte, err error) {
	design, err = document.Marshal(t.Design)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode design_config: %w", err)
	}
	governance, err = json.Marshal(t.Governance)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode governance: %w", err)
	}
	return design, governance, nil
}

// DecodeTemplate fills the JSON-backed fields of t. An empty governance
// column decodes to the default governance.
func DecodeTemplate(t *Template, design, governance []byte) error {
	d, err := document.Unmarshal(design)
	if err != nil {
		return fmt.Errorf("failed to decode design_config: %w", err)
	}
	t.Design = d

	t.Governance = document.DefaultGovernance()
	if len(governance) > 0 {
		if err := json.Unmarshal(governance, &t.Governance); err != nil {
			return fmt.Errorf("failed to decode governance: %w", err)
		}
	}
	if t.Type == "" {
		t.Type = d.Canvas.DesignType
	}
	return nil
}
