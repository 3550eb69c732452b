package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/compliance"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
)

const (
	sheetSummary   = "Resumo"
	sheetResponses = "Respostas"
	sheetCritical  = "Críticos"
)

// Export renders a completed assessment report as an xlsx workbook.
func (s *complianceService) Export(dbc dbctx.Context, id uuid.UUID) ([]byte, string, error) {
	rep, err := s.Report(dbc, id)
	if err != nil {
		return nil, "", err
	}
	a := rep.Assessment
	wb, err := newWorkbook()
	if err != nil {
		return nil, "", err
	}
	defer wb.close()
	regulation := ""
	if rep.Version != nil {
		regulation = fmt.Sprintf("%s (versão %d)", rep.Version.RegulationName, rep.Version.VersionNumber)
	}

	if err := wb.sheet(sheetSummary); err != nil {
		return nil, "", err
	}
	summary := [][]any{
		{"Norma", regulation},
		{"Data da avaliação", dates.Format(a.AssessmentDate)},
		{"Responsável", a.PerformedByName},
		{"Questões respondidas", rep.Score.QuestionsAnswered},
		{"Não aplicáveis", rep.Score.QuestionsNA},
		{"Pontos obtidos", rep.Score.PointsObtained},
		{"Pontos possíveis", rep.Score.PointsPossible},
		{"Conformidade (%)", rep.Score.CompliancePercentage},
		{"Classificação", rep.Score.ComplianceLevel},
	}
	for _, row := range summary {
		if err := wb.append(sheetSummary, row...); err != nil {
			return nil, "", err
		}
	}
	wb.blank(sheetSummary)
	if err := wb.headerRow(sheetSummary, "Categoria", "Questões", "Respondidas", "N/A", "Pontos", "Possíveis", "%"); err != nil {
		return nil, "", err
	}
	for _, c := range rep.CategoryStats {
		if err := wb.append(sheetSummary, c.Category, c.TotalQuestions, c.Answered, c.NotApplicable, c.PointsObtained, c.PointsPossible, c.Percentage); err != nil {
			return nil, "", err
		}
	}

	if err := wb.sheet(sheetResponses); err != nil {
		return nil, "", err
	}
	if err := wb.headerRow(sheetResponses, "Nº", "Questão", "Criticidade", "Pontos", "Resposta", "Observações"); err != nil {
		return nil, "", err
	}
	for _, r := range rep.Responses {
		var points any = "N/A"
		if !r.IsNotApplicable && r.SelectedPoints != nil {
			points = *r.SelectedPoints
		}
		if err := wb.append(sheetResponses, r.QuestionNumber, r.QuestionTextSnapshot, r.CriticalityLevel, points, r.SelectedText, r.Observations); err != nil {
			return nil, "", err
		}
	}

	if err := wb.sheet(sheetCritical); err != nil {
		return nil, "", err
	}
	if err := wb.headerRow(sheetCritical, "Nº", "Questão", "Pontos"); err != nil {
		return nil, "", err
	}
	var critical []domain.CriticalItem
	if len(a.CriticalNonCompliant) > 0 {
		if err := json.Unmarshal(a.CriticalNonCompliant, &critical); err != nil {
			return nil, "", fmt.Errorf("decode critical items: %w", err)
		}
	}
	for _, c := range critical {
		if err := wb.append(sheetCritical, c.QuestionNumber, c.QuestionText, c.PointsObtained); err != nil {
			return nil, "", err
		}
	}

	out, err := wb.bytes()
	if err != nil {
		return nil, "", err
	}
	return out, fmt.Sprintf("autoavaliacao-rdc-%s.xlsx", dates.Format(a.AssessmentDate)), nil
}
