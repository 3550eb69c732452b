package compliance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/compliance"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
)

func pts(n int) *int { return &n }

func TestLoadBank(t *testing.T) {
	b, err := LoadBank()
	require.NoError(t, err)
	assert.Equal(t, "RDC 502/2021", b.RegulationName)
	assert.Equal(t, 1, b.VersionNumber)
	require.Len(t, b.Questions, domain.TotalQuestions)

	critical := 0
	for _, q := range b.Questions {
		require.Len(t, q.Options, 6, "question %d", q.Number)
		assert.Equal(t, 5, q.Options[0].Points)
		assert.Equal(t, 0, q.Options[5].Points)
		if q.Criticality == domain.CriticalityCritical {
			critical++
		}
	}
	assert.Equal(t, 10, critical)
}

func TestParseBankRejectsShortBank(t *testing.T) {
	_, err := ParseBank([]byte("regulation_name: X\nversion_number: 1\nquestions:\n  - number: 1\n"))
	require.Error(t, err)
}

func TestLevelThresholds(t *testing.T) {
	cases := map[float64]string{
		100:   domain.LevelRegular,
		75:    domain.LevelRegular,
		74.99: domain.LevelPartial,
		50:    domain.LevelPartial,
		49.99: domain.LevelIrregular,
		0:     domain.LevelIrregular,
	}
	for pct, want := range cases {
		if got := Level(pct); got != want {
			t.Fatalf("Level(%v) = %q, want %q", pct, got, want)
		}
	}
}

func TestCalculate(t *testing.T) {
	answers := []Answer{
		{QuestionNumber: 1, QuestionText: "Alvará", CriticalityLevel: "C", SelectedPoints: pts(2)},
		{QuestionNumber: 2, CriticalityLevel: "NC", SelectedPoints: pts(5)},
		{QuestionNumber: 3, CriticalityLevel: "NC", IsNotApplicable: true},
		{QuestionNumber: 4, CriticalityLevel: "C", SelectedPoints: pts(3)},
	}
	s, err := Calculate(answers)
	require.NoError(t, err)

	assert.Equal(t, 4, s.QuestionsAnswered)
	assert.Equal(t, 1, s.QuestionsNA)
	assert.Equal(t, 3, s.ApplicableQuestions)
	assert.Equal(t, 10.0, s.PointsObtained)
	assert.Equal(t, 15.0, s.PointsPossible)
	assert.Equal(t, 66.67, s.CompliancePercentage)
	assert.Equal(t, domain.LevelPartial, s.ComplianceLevel)

	want := []domain.CriticalItem{{QuestionNumber: 1, QuestionText: "Alvará", PointsObtained: 2}}
	if diff := cmp.Diff(want, s.CriticalNonCompliant); diff != "" {
		t.Fatalf("critical items mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateExcludesNotApplicableFromDenominator(t *testing.T) {
	s, err := Calculate([]Answer{
		{QuestionNumber: 1, CriticalityLevel: "C", SelectedPoints: pts(5)},
		{QuestionNumber: 2, CriticalityLevel: "NC", IsNotApplicable: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, s.PointsObtained)
	assert.Equal(t, 5.0, s.PointsPossible)
	assert.Equal(t, 100.0, s.CompliancePercentage)
	assert.Equal(t, domain.LevelRegular, s.ComplianceLevel)
	assert.Empty(t, s.CriticalNonCompliant)
}

func TestCalculateAllNotApplicable(t *testing.T) {
	s, err := Calculate([]Answer{{QuestionNumber: 5, IsNotApplicable: true}})
	require.NoError(t, err)
	assert.Zero(t, s.CompliancePercentage)
	assert.Equal(t, domain.LevelIrregular, s.ComplianceLevel)
	assert.Empty(t, s.CriticalNonCompliant)
}

func TestValidateAnswer(t *testing.T) {
	cases := []Answer{
		{QuestionNumber: 0, SelectedPoints: pts(1)},
		{QuestionNumber: 38, SelectedPoints: pts(1)},
		{QuestionNumber: 1},
		{QuestionNumber: 1, IsNotApplicable: true, SelectedPoints: pts(2)},
		{QuestionNumber: 1, SelectedPoints: pts(6)},
		{QuestionNumber: 1, SelectedPoints: pts(-1)},
	}
	for i, a := range cases {
		err := ValidateAnswer(a)
		ae, ok := apierr.As(err)
		require.True(t, ok, "case %d", i)
		assert.Equal(t, 400, ae.Status, "case %d", i)
	}
	require.NoError(t, ValidateAnswer(Answer{QuestionNumber: 37, SelectedPoints: pts(0)}))
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategoryDocumentation, CategoryFor(6))
	assert.Equal(t, CategoryHumanResources, CategoryFor(7))
	assert.Equal(t, CategoryInfrastructure, CategoryFor(24))
	assert.Equal(t, CategoryCare, CategoryFor(25))
	assert.Equal(t, CategoryManagement, CategoryFor(37))
	assert.Equal(t, "", CategoryFor(38))
}

func TestCategoryStats(t *testing.T) {
	stats := CategoryStats([]Answer{
		{QuestionNumber: 7, SelectedPoints: pts(5)},
		{QuestionNumber: 8, SelectedPoints: pts(0)},
		{QuestionNumber: 9, IsNotApplicable: true},
	})
	require.Len(t, stats, len(Categories))
	total := 0
	for _, st := range stats {
		total += st.TotalQuestions
	}
	assert.Equal(t, domain.TotalQuestions, total)

	hr := stats[1]
	assert.Equal(t, CategoryHumanResources, hr.Category)
	assert.Equal(t, 3, hr.TotalQuestions)
	assert.Equal(t, 3, hr.Answered)
	assert.Equal(t, 1, hr.NotApplicable)
	assert.Equal(t, 50.0, hr.Percentage)
	assert.Zero(t, stats[0].Percentage)
}

func TestCompare(t *testing.T) {
	d1 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 3, 0)
	first := ScoredAssessment{
		ID: uuid.New(), AssessmentDate: d1, CompliancePercentage: 60, ComplianceLevel: domain.LevelPartial,
		TotalPointsObtained: 7, TotalPointsPossible: 10, CriticalNonCompliantCount: 1,
		Answers: map[int]Answer{
			1: {QuestionNumber: 1, SelectedPoints: pts(2)},
			2: {QuestionNumber: 2, SelectedPoints: pts(5)},
			3: {QuestionNumber: 3, IsNotApplicable: true},
		},
	}
	last := ScoredAssessment{
		ID: uuid.New(), AssessmentDate: d2, CompliancePercentage: 80.456, ComplianceLevel: domain.LevelRegular,
		TotalPointsObtained: 7.5, TotalPointsPossible: 10,
		Answers: map[int]Answer{
			1: {QuestionNumber: 1, SelectedPoints: pts(4)},
			2: {QuestionNumber: 2, SelectedPoints: pts(3)},
			3: {QuestionNumber: 3, IsNotApplicable: true},
		},
	}

	// out of order on purpose
	c, err := Compare([]ScoredAssessment{last, first})
	require.NoError(t, err)
	assert.Equal(t, first.ID, c.Assessments[0].ID)
	assert.Equal(t, 20.46, c.PercentageChange)
	assert.Equal(t, 0.5, c.PointsEvolution)
	assert.Equal(t, TrendImproving, c.Trend)
	assert.Equal(t, 1, c.ImprovementsCount)
	assert.Equal(t, 1, c.RegressionsCount)
	assert.Equal(t, 1, c.Assessments[0].CriticalNonCompliantCount)
	assert.Equal(t, 7.5, c.Assessments[1].TotalPointsObtained)

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	for _, key := range []string{"points_evolution", "improvements_count", "regressions_count", "total_points_obtained", "critical_non_compliant_count"} {
		assert.Contains(t, string(raw), `"`+key+`"`)
	}

	wantImproved := []QuestionDelta{{QuestionNumber: 1, Category: CategoryDocumentation, FirstPoints: 2, LastPoints: 4, Delta: 2}}
	wantWorsened := []QuestionDelta{{QuestionNumber: 2, Category: CategoryDocumentation, FirstPoints: 5, LastPoints: 3, Delta: -2}}
	if diff := cmp.Diff(wantImproved, c.Improved); diff != "" {
		t.Fatalf("improved mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantWorsened, c.Worsened); diff != "" {
		t.Fatalf("worsened mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareBounds(t *testing.T) {
	_, err := Compare([]ScoredAssessment{{}})
	require.Error(t, err)
	_, err = Compare(make([]ScoredAssessment, 11))
	require.Error(t, err)
}

func TestTrend(t *testing.T) {
	assert.Equal(t, TrendStagnant, Trend(5))
	assert.Equal(t, TrendStagnant, Trend(-5))
	assert.Equal(t, TrendImproving, Trend(5.01))
	assert.Equal(t, TrendWorsening, Trend(-5.01))
}
