// Package compliance holds the pure scoring rules of the RDC 502/2021
// self-assessment: per-assessment score, category breakdown and the
// comparison across completed assessments.
package compliance

import (
	"fmt"
	"math"
	"sort"

	domain "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/compliance"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
)

const (
	RegularThreshold = 75.0
	PartialThreshold = 50.0
	// CriticalFloor is the minimum score a critical question needs to count as compliant.
	CriticalFloor = 3
)

// Answer is one scored response.
type Answer struct {
	QuestionNumber   int
	QuestionText     string
	CriticalityLevel string
	SelectedPoints   *int
	IsNotApplicable  bool
}

type Score struct {
	QuestionsAnswered    int                   `json:"questions_answered"`
	QuestionsNA          int                   `json:"questions_na"`
	ApplicableQuestions  int                   `json:"applicable_questions"`
	PointsObtained       float64               `json:"points_obtained"`
	PointsPossible       float64               `json:"points_possible"`
	CompliancePercentage float64               `json:"compliance_percentage"`
	ComplianceLevel      string                `json:"compliance_level"`
	CriticalNonCompliant []domain.CriticalItem `json:"critical_non_compliant"`
}

// ValidateAnswer enforces the response shape: number in range and points
// present exactly when the question is applicable.
func ValidateAnswer(a Answer) error {
	fields := map[string]string{}
	if a.QuestionNumber < 1 || a.QuestionNumber > domain.TotalQuestions {
		fields["questionNumber"] = fmt.Sprintf("must be between 1 and %d", domain.TotalQuestions)
	}
	switch {
	case a.IsNotApplicable && a.SelectedPoints != nil:
		fields["selectedPoints"] = "must be empty when the question is not applicable"
	case !a.IsNotApplicable && a.SelectedPoints == nil:
		fields["selectedPoints"] = "is required unless the question is not applicable"
	case a.SelectedPoints != nil && (*a.SelectedPoints < 0 || *a.SelectedPoints > domain.MaxPoints):
		fields["selectedPoints"] = fmt.Sprintf("must be between 0 and %d", domain.MaxPoints)
	}
	if len(fields) > 0 {
		return apierr.Validation(fields)
	}
	return nil
}

// Calculate scores a set of answers. N/A answers count as answered but are
// excluded from both obtained and possible points.
func Calculate(answers []Answer) (Score, error) {
	s := Score{CriticalNonCompliant: []domain.CriticalItem{}}
	for _, a := range answers {
		if err := ValidateAnswer(a); err != nil {
			return Score{}, err
		}
		s.QuestionsAnswered++
		if a.IsNotApplicable {
			s.QuestionsNA++
			continue
		}
		pts := *a.SelectedPoints
		s.ApplicableQuestions++
		s.PointsObtained += float64(pts)
		s.PointsPossible += domain.MaxPoints
		if a.CriticalityLevel == domain.CriticalityCritical && pts < CriticalFloor {
			s.CriticalNonCompliant = append(s.CriticalNonCompliant, domain.CriticalItem{
				QuestionNumber: a.QuestionNumber,
				QuestionText:   a.QuestionText,
				PointsObtained: pts,
			})
		}
	}
	sort.Slice(s.CriticalNonCompliant, func(i, j int) bool {
		return s.CriticalNonCompliant[i].QuestionNumber < s.CriticalNonCompliant[j].QuestionNumber
	})
	if s.PointsPossible > 0 {
		s.CompliancePercentage = Round2(s.PointsObtained / s.PointsPossible * 100)
	}
	s.ComplianceLevel = Level(s.CompliancePercentage)
	return s, nil
}

// Level classifies a compliance percentage.
func Level(pct float64) string {
	switch {
	case pct >= RegularThreshold:
		return domain.LevelRegular
	case pct >= PartialThreshold:
		return domain.LevelPartial
	default:
		return domain.LevelIrregular
	}
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
