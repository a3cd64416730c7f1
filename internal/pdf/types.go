// Package pdf provides the PDF collaborators of the form pipeline:
// AcroForm field extraction, page text reading, digital-form detection,
// native form filling and image-form text overlay.
package pdf

import "github.com/autoscribe/mcp-form-filler/internal/layout"

// FieldType identifies the kind of an AcroForm field
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeRadio     FieldType = "radio"
	FieldTypeSelect    FieldType = "select"
	FieldTypeSignature FieldType = "signature"
	FieldTypeButton    FieldType = "button"
	FieldTypeUnknown   FieldType = "unknown"
)

// QuestionType maps an AcroForm field type onto the question taxonomy
// used by the layout engine and the question generator.
func (t FieldType) QuestionType() layout.QuestionType {
	switch t {
	case FieldTypeCheckbox:
		return layout.QuestionTypeCheckbox
	case FieldTypeRadio, FieldTypeSelect:
		return layout.QuestionTypeMultipleChoice
	case FieldTypeSignature:
		return layout.QuestionTypeSignature
	case FieldTypeText:
		return layout.QuestionTypeText
	default:
		return layout.QuestionTypeUnspecified
	}
}

// Coordinate represents a point in PDF user space
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox represents a field's widget rectangle in PDF user space
// (origin bottom-left, units of points).
type BoundingBox struct {
	LowerLeft  Coordinate `json:"lower_left"`
	UpperRight Coordinate `json:"upper_right"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
}

// FormField represents a single AcroForm field
type FormField struct {
	Name     string       `json:"name"`
	Type     FieldType    `json:"type"`
	Value    string       `json:"value,omitempty"`
	Options  []string     `json:"options,omitempty"`
	Required bool         `json:"required,omitempty"`
	ReadOnly bool         `json:"read_only,omitempty"`
	Multi    bool         `json:"multi,omitempty"`
	MaxLen   int          `json:"max_len,omitempty"`
	Bounds   *BoundingBox `json:"bounds,omitempty"`
	Page     int          `json:"page,omitempty"`
}

// FillStats reports the outcome of a form-fill run per disposition.
type FillStats struct {
	Filled  int      `json:"filled"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
