package compliance

import domain "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/compliance"

const (
	CategoryDocumentation  = "Documentação e Regularização"
	CategoryHumanResources = "Recursos Humanos"
	CategoryInfrastructure = "Infraestrutura Física"
	CategoryCare           = "Assistência e Cuidado"
	CategoryManagement     = "Gestão e Qualidade"
)

// Categories in questionnaire order.
var Categories = []string{
	CategoryDocumentation,
	CategoryHumanResources,
	CategoryInfrastructure,
	CategoryCare,
	CategoryManagement,
}

// CategoryFor maps a question number to its questionnaire section.
func CategoryFor(number int) string {
	switch {
	case number >= 1 && number <= 6:
		return CategoryDocumentation
	case number >= 7 && number <= 9:
		return CategoryHumanResources
	case number >= 10 && number <= 24:
		return CategoryInfrastructure
	case number >= 25 && number <= 32:
		return CategoryCare
	case number >= 33 && number <= domain.TotalQuestions:
		return CategoryManagement
	}
	return ""
}

type CategoryStat struct {
	Category       string  `json:"category"`
	TotalQuestions int     `json:"total_questions"`
	Answered       int     `json:"answered"`
	NotApplicable  int     `json:"not_applicable"`
	PointsObtained float64 `json:"points_obtained"`
	PointsPossible float64 `json:"points_possible"`
	Percentage     float64 `json:"percentage"`
}

// CategoryStats aggregates answers per category. Unanswered questions count
// toward the category total only.
func CategoryStats(answers []Answer) []CategoryStat {
	byCat := make(map[string]*CategoryStat, len(Categories))
	for _, c := range Categories {
		byCat[c] = &CategoryStat{Category: c}
	}
	for n := 1; n <= domain.TotalQuestions; n++ {
		byCat[CategoryFor(n)].TotalQuestions++
	}
	for _, a := range answers {
		st, ok := byCat[CategoryFor(a.QuestionNumber)]
		if !ok {
			continue
		}
		st.Answered++
		if a.IsNotApplicable || a.SelectedPoints == nil {
			st.NotApplicable++
			continue
		}
		st.PointsObtained += float64(*a.SelectedPoints)
		st.PointsPossible += domain.MaxPoints
	}
	out := make([]CategoryStat, 0, len(Categories))
	for _, c := range Categories {
		st := byCat[c]
		if st.PointsPossible > 0 {
			st.Percentage = Round2(st.PointsObtained / st.PointsPossible * 100)
		}
		out = append(out, *st)
	}
	return out
}
