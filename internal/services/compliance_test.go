package services

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/compliance"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	domain "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/compliance"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/pointers"
)

type levelCounter map[string]int

func (c levelCounter) ObserveAssessmentCompleted(level string) { c[level]++ }

func newComplianceService(t *testing.T, f *fixture) (ComplianceService, levelCounter) {
	t.Helper()
	seen := levelCounter{}
	svc := NewComplianceService(f.db, f.log, repos.NewQuestionRepo(f.db, f.log), repos.NewAssessmentRepo(f.db, f.log), seen)
	_, created, err := svc.SeedQuestionBank(f.system())
	require.NoError(t, err)
	require.True(t, created)
	_, created, err = svc.SeedQuestionBank(f.system())
	require.NoError(t, err)
	require.False(t, created)
	return svc, seen
}

func answerAll(t *testing.T, svc ComplianceService, f *fixture, id uuid.UUID, points func(n int) *int) {
	t.Helper()
	for n := 1; n <= domain.TotalQuestions; n++ {
		p := points(n)
		_, err := svc.SaveResponse(f.adminCtx(), id, ResponseInput{QuestionNumber: n, SelectedPoints: p, IsNotApplicable: p == nil})
		require.NoError(t, err, "question %d", n)
	}
}

func TestComplianceAssessmentFlow(t *testing.T) {
	f := newFixture(t)
	svc, seen := newComplianceService(t, f)
	dbc := f.adminCtx()

	qs, err := svc.GetQuestions(dbc, nil)
	require.NoError(t, err)
	require.Len(t, qs.Questions, domain.TotalQuestions)

	a, err := svc.CreateAssessment(dbc, CreateAssessmentInput{AssessmentDate: "2025-01-10"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, a.Status)

	_, err = svc.SaveResponse(dbc, a.ID, ResponseInput{QuestionNumber: 1, SelectedPoints: pointers.Int(6)})
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	_, err = svc.SaveResponse(dbc, a.ID, ResponseInput{QuestionNumber: 1, SelectedPoints: pointers.Int(5), IsNotApplicable: true})
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	saved, err := svc.SaveResponse(dbc, a.ID, ResponseInput{QuestionNumber: 1, SelectedPoints: pointers.Int(4)})
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Assessment.QuestionsAnswered)
	assert.Equal(t, "Atende com falhas pontuais sem impacto ao residente", saved.Response.SelectedText)

	redone, err := svc.SaveResponse(dbc, a.ID, ResponseInput{QuestionNumber: 1, IsNotApplicable: true})
	require.NoError(t, err)
	assert.Equal(t, saved.Response.ID, redone.Response.ID)
	assert.True(t, redone.Response.IsNotApplicable)
	assert.Nil(t, redone.Response.SelectedPoints)
	assert.Equal(t, 1, redone.Assessment.QuestionsAnswered)

	_, err = svc.CompleteAssessment(dbc, a.ID)
	requireAPIError(t, err, http.StatusUnprocessableEntity, "assessment_incomplete")

	answerAll(t, svc, f, a.ID, func(n int) *int {
		switch n {
		case 1:
			return pointers.Int(2)
		case 37:
			return nil
		}
		return pointers.Int(5)
	})

	done, err := svc.CompleteAssessment(dbc, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.Equal(t, 37, done.QuestionsAnswered)
	assert.Equal(t, 1, done.QuestionsNA)
	assert.Equal(t, compliance.Round2(177.0/180.0*100), done.CompliancePercentage)
	assert.Equal(t, domain.LevelRegular, done.ComplianceLevel)
	assert.Equal(t, 1, seen[domain.LevelRegular])
	assert.Contains(t, string(done.CriticalNonCompliant), `"question_number":1`)

	_, err = svc.SaveResponse(dbc, a.ID, ResponseInput{QuestionNumber: 2, SelectedPoints: pointers.Int(0)})
	requireAPIError(t, err, http.StatusConflict, "assessment_not_draft")

	detail, err := svc.GetAssessment(dbc, a.ID)
	require.NoError(t, err)
	require.Len(t, detail.CategoryStats, len(compliance.Categories))
	assert.Equal(t, 6, detail.CategoryStats[0].TotalQuestions)

	report, err := svc.Report(dbc, a.ID)
	require.NoError(t, err)
	require.Len(t, report.Responses, domain.TotalQuestions)
	assert.Equal(t, 1, report.Responses[0].QuestionNumber)

	raw, name, err := svc.Export(dbc, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "autoavaliacao-rdc-2025-01-10.xlsx", name)
	book, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer book.Close()
	assert.Equal(t, []string{sheetSummary, sheetResponses, sheetCritical}, book.GetSheetList())
	rows, err := book.GetRows(sheetResponses)
	require.NoError(t, err)
	assert.Len(t, rows, domain.TotalQuestions+1)
}

func TestComplianceCompare(t *testing.T) {
	f := newFixture(t)
	svc, _ := newComplianceService(t, f)
	dbc := f.adminCtx()

	later, err := svc.CreateAssessment(dbc, CreateAssessmentInput{AssessmentDate: "2025-06-10"})
	require.NoError(t, err)
	answerAll(t, svc, f, later.ID, func(n int) *int {
		if n == 1 {
			return pointers.Int(2)
		}
		return pointers.Int(3)
	})
	_, err = svc.CompleteAssessment(dbc, later.ID)
	require.NoError(t, err)

	earlier, err := svc.CreateAssessment(dbc, CreateAssessmentInput{AssessmentDate: "2025-01-10"})
	require.NoError(t, err)
	answerAll(t, svc, f, earlier.ID, func(int) *int { return pointers.Int(5) })

	_, err = svc.Compare(dbc, []uuid.UUID{later.ID, earlier.ID})
	requireAPIError(t, err, http.StatusUnprocessableEntity, "assessment_not_completed")

	_, err = svc.CompleteAssessment(dbc, earlier.ID)
	require.NoError(t, err)

	cmp, err := svc.Compare(dbc, []uuid.UUID{later.ID, earlier.ID, later.ID})
	require.NoError(t, err)
	require.Len(t, cmp.Assessments, 2)
	assert.Equal(t, earlier.ID, cmp.Assessments[0].ID)
	assert.Equal(t, -40.54, cmp.PercentageChange)
	assert.Equal(t, -75.0, cmp.PointsEvolution)
	assert.Equal(t, compliance.TrendWorsening, cmp.Trend)
	assert.Len(t, cmp.Worsened, domain.TotalQuestions)
	assert.Empty(t, cmp.Improved)
	assert.Equal(t, domain.TotalQuestions, cmp.RegressionsCount)
	assert.Zero(t, cmp.ImprovementsCount)

	assert.Equal(t, 185.0, cmp.Assessments[0].TotalPointsObtained)
	assert.Equal(t, 185.0, cmp.Assessments[0].TotalPointsPossible)
	assert.Zero(t, cmp.Assessments[0].CriticalNonCompliantCount)
	assert.Equal(t, 110.0, cmp.Assessments[1].TotalPointsObtained)
	assert.Equal(t, 1, cmp.Assessments[1].CriticalNonCompliantCount)

	_, err = svc.Compare(dbc, []uuid.UUID{later.ID})
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	list, meta, err := svc.ListAssessments(dbc, AssessmentListFilter{Level: domain.LevelPartial, Page: paging.Page{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, later.ID, list[0].ID)
	assert.Equal(t, int64(1), meta.Total)

	require.NoError(t, svc.DeleteAssessment(dbc, later.ID))
	_, err = svc.GetAssessment(dbc, later.ID)
	requireAPIError(t, err, http.StatusNotFound, "not_found")
}
