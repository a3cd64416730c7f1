package pdf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// FormFiller writes answers into AcroForm fields using the pdfcpu
// form-fill JSON interface
type FormFiller struct {
	conf *model.Configuration
}

// NewFormFiller creates a filler with relaxed validation, matching the
// extractor
func NewFormFiller() *FormFiller {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &FormFiller{conf: conf}
}

// formJSON mirrors the pdfcpu form-fill JSON layout.
type formJSON struct {
	Forms []formEntries `json:"forms"`
}

type formEntries struct {
	TextFields  []textFieldJSON  `json:"textfield,omitempty"`
	CheckBoxes  []checkBoxJSON   `json:"checkbox,omitempty"`
	RadioGroups []radioGroupJSON `json:"radiobuttongroup,omitempty"`
	ComboBoxes  []comboBoxJSON   `json:"combobox,omitempty"`
	ListBoxes   []listBoxJSON    `json:"listbox,omitempty"`
}

type textFieldJSON struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type checkBoxJSON struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

type radioGroupJSON struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type comboBoxJSON struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type listBoxJSON struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Fill writes the given answers into the document's form fields and
// saves the result to outPath. Answers are keyed by field name; nil
// answers and read-only fields are skipped. Stats are always returned,
// also on partial failure.
func (ff *FormFiller) Fill(inPath, outPath string, fields []FormField, answers map[string]*string) (*FillStats, error) {
	entries, stats := collectEntries(fields, answers)

	if stats.Filled == 0 {
		// Nothing to write; hand back a byte-for-byte copy.
		if err := copyFile(inPath, outPath); err != nil {
			return stats, fmt.Errorf("failed to copy unmodified form: %w", err)
		}
		return stats, nil
	}

	jsonPath, err := ff.writeFormJSON(entries)
	if err != nil {
		return stats, err
	}
	defer os.Remove(jsonPath)

	if err := api.FillFormFile(inPath, jsonPath, outPath, ff.conf); err != nil {
		stats.Failed = stats.Filled
		stats.Filled = 0
		stats.Errors = append(stats.Errors, err.Error())
		return stats, fmt.Errorf("failed to fill form: %w", err)
	}

	return stats, nil
}

// collectEntries routes each answered field into its form JSON entry
// list. Nil and empty answers, read-only fields and unsupported types
// are counted as skipped.
func collectEntries(fields []FormField, answers map[string]*string) (formEntries, *FillStats) {
	stats := &FillStats{}
	entries := formEntries{}

	for _, field := range fields {
		answer, ok := answers[field.Name]
		if !ok || answer == nil || *answer == "" {
			stats.Skipped++
			continue
		}
		if field.ReadOnly {
			stats.Skipped++
			continue
		}

		value := *answer
		switch field.Type {
		case FieldTypeText, FieldTypeSignature:
			value = truncateRunes(value, field.MaxLen)
			entries.TextFields = append(entries.TextFields, textFieldJSON{Name: field.Name, Value: value})
		case FieldTypeCheckbox:
			entries.CheckBoxes = append(entries.CheckBoxes, checkBoxJSON{Name: field.Name, Value: isAffirmative(value, field.Options)})
		case FieldTypeRadio:
			entries.RadioGroups = append(entries.RadioGroups, radioGroupJSON{Name: field.Name, Value: value})
		case FieldTypeSelect:
			if field.Multi {
				entries.ListBoxes = append(entries.ListBoxes, listBoxJSON{Name: field.Name, Values: splitChoiceValues(value)})
			} else {
				entries.ComboBoxes = append(entries.ComboBoxes, comboBoxJSON{Name: field.Name, Value: value})
			}
		default:
			stats.Skipped++
			continue
		}
		stats.Filled++
	}

	return entries, stats
}

// truncateRunes bounds a value to max characters without splitting a
// rune. max <= 0 means unbounded.
func truncateRunes(value string, max int) string {
	if max <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}

// splitChoiceValues parses a multi-select answer into its values.
func splitChoiceValues(value string) []string {
	var values []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			values = append(values, p)
		}
	}
	if len(values) == 0 {
		return []string{value}
	}
	return values
}

func (ff *FormFiller) writeFormJSON(entries formEntries) (string, error) {
	payload, err := json.MarshalIndent(formJSON{Forms: []formEntries{entries}}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode form data: %w", err)
	}

	tmp, err := os.CreateTemp("", "form-fill-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create form data file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write form data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close form data file: %w", err)
	}
	return tmp.Name(), nil
}

// isAffirmative interprets a textual answer for a checkbox. An answer
// equal to any non-negative option name also checks the box.
func isAffirmative(value string, options []string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "on", "true", "checked", "x":
		return true
	case "no", "off", "false", "unchecked", "":
		return false
	}
	for _, opt := range options {
		if strings.EqualFold(opt, value) && !strings.EqualFold(opt, "Off") {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
