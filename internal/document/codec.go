package document

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownElementType is returned when decoding an element whose type tag
// is not one of the known variants.
var ErrUnknownElementType = errors.New("unknown element type")

// Elements is the ordered element list; array order is z-order.
type Elements []Element

func (es Elements) MarshalJSON() ([]byte, error) {
	if es == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Element(es))
}

func (es *Elements) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode elements: %w", err)
	}
	out := make(Elements, 0, len(raw))
	for i, r := range raw {
		e, err := UnmarshalElement(r)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, e)
	}
	*es = out
	return nil
}

// UnmarshalElement decodes one element, choosing the variant from its type
// tag.
func UnmarshalElement(data []byte) (Element, error) {
	var tag struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode element tag: %w", err)
	}

	var e Element
	switch tag.Type {
	case KindText:
		e = &Text{}
	case KindImage:
		e = &Image{}
	case KindRect, KindCircle, KindHexagon:
		e = &Shape{}
	case KindQR:
		e = &QR{}
	case KindSerial:
		e = &Serial{}
	case KindSignature:
		e = &Signature{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownElementType, tag.Type)
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("decode %s element: %w", tag.Type, err)
	}
	return e, nil
}

// Marshal serializes a design to its design_config JSON.
func Marshal(d Design) ([]byte, error) {
	return json.Marshal(d)
}

// Unmarshal parses design_config JSON.
func Unmarshal(data []byte) (Design, error) {
	var d Design
	if err := json.Unmarshal(data, &d); err != nil {
		return Design{}, fmt.Errorf("decode design: %w", err)
	}
	if d.Elements == nil {
		d.Elements = Elements{}
	}
	return d, nil
}
