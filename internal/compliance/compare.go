package compliance

import (
	"sort"
	"time"

	"github.com/google/uuid"

	domain "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/compliance"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
)

const (
	TrendImproving = "MELHORANDO"
	TrendWorsening = "PIORANDO"
	TrendStagnant  = "ESTAGNADO"
	TrendThreshold = 5.0
	MinToCompare   = 2
	MaxToCompare   = 10
)

// ScoredAssessment is a completed assessment with its answers keyed by question number.
type ScoredAssessment struct {
	ID                        uuid.UUID
	AssessmentDate            time.Time
	CompliancePercentage      float64
	ComplianceLevel           string
	TotalPointsObtained       float64
	TotalPointsPossible       float64
	CriticalNonCompliantCount int
	Answers                   map[int]Answer
}

type AssessmentPoint struct {
	ID                        uuid.UUID `json:"id"`
	AssessmentDate            time.Time `json:"assessment_date"`
	CompliancePercentage      float64   `json:"compliance_percentage"`
	ComplianceLevel           string    `json:"compliance_level"`
	TotalPointsObtained       float64   `json:"total_points_obtained"`
	TotalPointsPossible       float64   `json:"total_points_possible"`
	CriticalNonCompliantCount int       `json:"critical_non_compliant_count"`
}

type QuestionDelta struct {
	QuestionNumber int    `json:"question_number"`
	Category       string `json:"category"`
	FirstPoints    int    `json:"first_points"`
	LastPoints     int    `json:"last_points"`
	Delta          int    `json:"delta"`
}

type Comparison struct {
	Assessments       []AssessmentPoint `json:"assessments"`
	PercentageChange  float64           `json:"percentage_change"`
	PointsEvolution   float64           `json:"points_evolution"`
	Trend             string            `json:"trend"`
	Improved          []QuestionDelta   `json:"improved"`
	Worsened          []QuestionDelta   `json:"worsened"`
	ImprovementsCount int               `json:"improvements_count"`
	RegressionsCount  int               `json:"regressions_count"`
}

// Trend classifies the percentage-point change between two assessments.
func Trend(delta float64) string {
	switch {
	case delta > TrendThreshold:
		return TrendImproving
	case delta < -TrendThreshold:
		return TrendWorsening
	default:
		return TrendStagnant
	}
}

// Compare orders assessments by date and diffs the first against the last.
// Missing and N/A answers count as zero points.
func Compare(items []ScoredAssessment) (Comparison, error) {
	if len(items) < MinToCompare || len(items) > MaxToCompare {
		return Comparison{}, apierr.Field("assessmentIds", "must list between 2 and 10 assessments")
	}
	sorted := append([]ScoredAssessment(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AssessmentDate.Before(sorted[j].AssessmentDate)
	})

	out := Comparison{
		Assessments: make([]AssessmentPoint, 0, len(sorted)),
		Improved:    []QuestionDelta{},
		Worsened:    []QuestionDelta{},
	}
	for _, a := range sorted {
		out.Assessments = append(out.Assessments, AssessmentPoint{
			ID:                        a.ID,
			AssessmentDate:            a.AssessmentDate,
			CompliancePercentage:      a.CompliancePercentage,
			ComplianceLevel:           a.ComplianceLevel,
			TotalPointsObtained:       a.TotalPointsObtained,
			TotalPointsPossible:       a.TotalPointsPossible,
			CriticalNonCompliantCount: a.CriticalNonCompliantCount,
		})
	}
	first, last := sorted[0], sorted[len(sorted)-1]
	out.PercentageChange = Round2(last.CompliancePercentage - first.CompliancePercentage)
	out.PointsEvolution = Round2(last.TotalPointsObtained - first.TotalPointsObtained)
	out.Trend = Trend(out.PercentageChange)

	for n := 1; n <= domain.TotalQuestions; n++ {
		fp, lp := pointsOf(first.Answers, n), pointsOf(last.Answers, n)
		if fp == lp {
			continue
		}
		d := QuestionDelta{QuestionNumber: n, Category: CategoryFor(n), FirstPoints: fp, LastPoints: lp, Delta: lp - fp}
		if d.Delta > 0 {
			out.Improved = append(out.Improved, d)
		} else {
			out.Worsened = append(out.Worsened, d)
		}
	}
	out.ImprovementsCount = len(out.Improved)
	out.RegressionsCount = len(out.Worsened)
	return out, nil
}

func pointsOf(answers map[int]Answer, n int) int {
	a, ok := answers[n]
	if !ok || a.IsNotApplicable || a.SelectedPoints == nil {
		return 0
	}
	return *a.SelectedPoints
}
