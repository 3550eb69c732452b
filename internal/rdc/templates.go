package rdc

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/shifts"
)

//go:embed templates/shift_templates.yaml
var shiftTemplatesYAML []byte

// ShiftTemplates parses the embedded global shift definitions.
func ShiftTemplates() ([]*shifts.ShiftTemplate, error) {
	return ParseShiftTemplates(shiftTemplatesYAML)
}

func ParseShiftTemplates(raw []byte) ([]*shifts.ShiftTemplate, error) {
	var doc struct {
		Templates []*shifts.ShiftTemplate `yaml:"templates"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse shift templates: %w", err)
	}
	seen := map[string]bool{}
	for _, t := range doc.Templates {
		if t.Type == "" || seen[t.Type] {
			return nil, fmt.Errorf("shift templates: invalid or duplicate type %q", t.Type)
		}
		seen[t.Type] = true
		if t.DurationHours != 8 && t.DurationHours != 12 {
			return nil, fmt.Errorf("shift template %s: duration must be 8 or 12 hours", t.Type)
		}
	}
	return doc.Templates, nil
}
