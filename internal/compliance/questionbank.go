package compliance

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	domain "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/compliance"
)

//go:embed questionbank/rdc_502_2021.yaml
var rdc502YAML []byte

type BankQuestion struct {
	Number         int                     `yaml:"number"`
	Text           string                  `yaml:"text"`
	Criticality    string                  `yaml:"criticality"`
	LegalReference string                  `yaml:"legal_reference"`
	Category       string                  `yaml:"category"`
	Options        []domain.ResponseOption `yaml:"options"`
}

// Bank is one regulation revision of the self-assessment questionnaire.
type Bank struct {
	RegulationName string         `yaml:"regulation_name"`
	VersionNumber  int            `yaml:"version_number"`
	EffectiveDate  string         `yaml:"effective_date"`
	Description    string         `yaml:"description"`
	Questions      []BankQuestion `yaml:"questions"`
}

// LoadBank parses and validates the embedded RDC 502/2021 question bank.
func LoadBank() (*Bank, error) {
	return ParseBank(rdc502YAML)
}

func ParseBank(raw []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(b.Questions) != domain.TotalQuestions {
		return nil, fmt.Errorf("question bank has %d questions, expected %d", len(b.Questions), domain.TotalQuestions)
	}
	seen := map[int]bool{}
	for _, q := range b.Questions {
		if q.Number < 1 || q.Number > domain.TotalQuestions || seen[q.Number] {
			return nil, fmt.Errorf("question bank: invalid or duplicate number %d", q.Number)
		}
		seen[q.Number] = true
		if q.Criticality != domain.CriticalityCritical && q.Criticality != domain.CriticalityNonCritical {
			return nil, fmt.Errorf("question %d: invalid criticality %q", q.Number, q.Criticality)
		}
		if q.Category != CategoryFor(q.Number) {
			return nil, fmt.Errorf("question %d: category %q does not match %q", q.Number, q.Category, CategoryFor(q.Number))
		}
	}
	return &b, nil
}
