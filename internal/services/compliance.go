package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/compliance"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	complianceRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/compliance"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	domain "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/compliance"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

type AssessmentObserver interface {
	ObserveAssessmentCompleted(level string)
}

type QuestionSet struct {
	Version   *types.ComplianceQuestionVersion `json:"version"`
	Questions []*types.ComplianceQuestion      `json:"questions"`
}

type CreateAssessmentInput struct {
	VersionID      *uuid.UUID `json:"versionId"`
	AssessmentDate string     `json:"assessmentDate"`
	Notes          string     `json:"notes"`
}

type ResponseInput struct {
	QuestionNumber  int    `json:"questionNumber"`
	SelectedPoints  *int   `json:"selectedPoints"`
	SelectedText    string `json:"selectedText"`
	IsNotApplicable bool   `json:"isNotApplicable"`
	Observations    string `json:"observations"`
}

// AssessmentListFilter is the query-string form of the assessment filter.
type AssessmentListFilter struct {
	Status      string
	Level       string
	VersionID   uuid.UUID
	PerformedBy uuid.UUID
	StartDate   string
	EndDate     string
	Page        paging.Page
}

type AssessmentDetail struct {
	*types.ComplianceAssessment
	CategoryStats []compliance.CategoryStat `json:"category_stats"`
}

type SavedResponse struct {
	Response   *types.ComplianceResponse   `json:"response"`
	Assessment *types.ComplianceAssessment `json:"assessment"`
}

type AssessmentReport struct {
	Assessment    *types.ComplianceAssessment      `json:"assessment"`
	Version       *types.ComplianceQuestionVersion `json:"version"`
	Score         compliance.Score                 `json:"score"`
	CategoryStats []compliance.CategoryStat        `json:"category_stats"`
	Responses     []*types.ComplianceResponse      `json:"responses"`
}

type ComplianceService interface {
	// SeedQuestionBank loads the embedded question bank once; created is false when it already exists.
	SeedQuestionBank(dbc dbctx.Context) (version *types.ComplianceQuestionVersion, created bool, err error)
	GetQuestions(dbc dbctx.Context, versionID *uuid.UUID) (*QuestionSet, error)
	CreateAssessment(dbc dbctx.Context, in CreateAssessmentInput) (*types.ComplianceAssessment, error)
	ListAssessments(dbc dbctx.Context, f AssessmentListFilter) ([]*types.ComplianceAssessment, paging.Meta, error)
	GetAssessment(dbc dbctx.Context, id uuid.UUID) (*AssessmentDetail, error)
	SaveResponse(dbc dbctx.Context, id uuid.UUID, in ResponseInput) (*SavedResponse, error)
	CompleteAssessment(dbc dbctx.Context, id uuid.UUID) (*types.ComplianceAssessment, error)
	Report(dbc dbctx.Context, id uuid.UUID) (*AssessmentReport, error)
	Compare(dbc dbctx.Context, ids []uuid.UUID) (*compliance.Comparison, error)
	Export(dbc dbctx.Context, id uuid.UUID) ([]byte, string, error)
	DeleteAssessment(dbc dbctx.Context, id uuid.UUID) error
}

type complianceService struct {
	db           *gorm.DB
	log          *logger.Logger
	questionRepo repos.QuestionRepo
	repo         repos.AssessmentRepo
	observer     AssessmentObserver
	now          func() time.Time
}

func NewComplianceService(db *gorm.DB, log *logger.Logger, questionRepo repos.QuestionRepo, repo repos.AssessmentRepo, observer AssessmentObserver) ComplianceService {
	return &complianceService{
		db:           db,
		log:          log.With("service", "ComplianceService"),
		questionRepo: questionRepo,
		repo:         repo,
		observer:     observer,
		now:          time.Now,
	}
}

func (s *complianceService) SeedQuestionBank(dbc dbctx.Context) (*types.ComplianceQuestionVersion, bool, error) {
	bank, err := compliance.LoadBank()
	if err != nil {
		return nil, false, err
	}
	existing, err := s.questionRepo.GetVersionByNumber(dbc, bank.RegulationName, bank.VersionNumber)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	v := &types.ComplianceQuestionVersion{
		RegulationName: bank.RegulationName,
		VersionNumber:  bank.VersionNumber,
		EffectiveDate:  bank.EffectiveDate,
		Description:    bank.Description,
	}
	questions := make([]*types.ComplianceQuestion, 0, len(bank.Questions))
	for _, q := range bank.Questions {
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return nil, false, err
		}
		questions = append(questions, &types.ComplianceQuestion{
			QuestionNumber:   q.Number,
			QuestionText:     q.Text,
			CriticalityLevel: q.Criticality,
			LegalReference:   q.LegalReference,
			Category:         q.Category,
			ResponseOptions:  datatypes.JSON(opts),
		})
	}
	if err := inTx(dbc, s.db, func(inner dbctx.Context) error {
		return s.questionRepo.CreateVersion(inner, v, questions)
	}); err != nil {
		return nil, false, fmt.Errorf("seed question bank: %w", err)
	}
	s.log.Info("question bank seeded", "regulation", v.RegulationName, "version", v.VersionNumber, "questions", len(questions))
	return v, true, nil
}

func (s *complianceService) resolveVersion(dbc dbctx.Context, versionID *uuid.UUID) (*types.ComplianceQuestionVersion, error) {
	var (
		v   *types.ComplianceQuestionVersion
		err error
	)
	if versionID != nil && *versionID != uuid.Nil {
		v, err = s.questionRepo.GetVersion(dbc, *versionID)
	} else {
		v, err = s.questionRepo.GetCurrentVersion(dbc)
	}
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apierr.NotFound("question version")
	}
	return v, nil
}

func (s *complianceService) GetQuestions(dbc dbctx.Context, versionID *uuid.UUID) (*QuestionSet, error) {
	v, err := s.resolveVersion(dbc, versionID)
	if err != nil {
		return nil, err
	}
	qs, err := s.questionRepo.ListByVersion(dbc, v.ID)
	if err != nil {
		return nil, err
	}
	return &QuestionSet{Version: v, Questions: qs}, nil
}

func (s *complianceService) CreateAssessment(dbc dbctx.Context, in CreateAssessmentInput) (*types.ComplianceAssessment, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	date := s.now()
	if in.AssessmentDate != "" {
		if date, err = dates.Parse(in.AssessmentDate); err != nil {
			return nil, apierr.Field("assessmentDate", "must be a date in YYYY-MM-DD format")
		}
	}
	v, err := s.resolveVersion(dbc, in.VersionID)
	if err != nil {
		return nil, err
	}
	a := &types.ComplianceAssessment{
		TenantID:        rd.TenantID,
		VersionID:       v.ID,
		AssessmentDate:  date,
		PerformedBy:     rd.UserID,
		PerformedByName: rd.UserName,
		Status:          domain.StatusDraft,
		TotalQuestions:  domain.TotalQuestions,
		Notes:           in.Notes,
	}
	if err := s.repo.Create(dbc, a); err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}
	return a, nil
}

func (s *complianceService) ListAssessments(dbc dbctx.Context, f AssessmentListFilter) ([]*types.ComplianceAssessment, paging.Meta, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	rf := complianceRepo.AssessmentFilter{
		Status:      strings.ToUpper(f.Status),
		Level:       strings.ToUpper(f.Level),
		VersionID:   f.VersionID,
		PerformedBy: f.PerformedBy,
		Page:        f.Page,
	}
	fields := fieldErrors{}
	if f.StartDate != "" {
		if t, err := dates.Parse(f.StartDate); err == nil {
			rf.From = &t
		} else {
			fields["startDate"] = "must be a date in YYYY-MM-DD format"
		}
	}
	if f.EndDate != "" {
		if t, err := dates.Parse(f.EndDate); err == nil {
			end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
			rf.To = &end
		} else {
			fields["endDate"] = "must be a date in YYYY-MM-DD format"
		}
	}
	if err := fields.err(); err != nil {
		return nil, paging.Meta{}, err
	}
	rows, total, err := s.repo.List(dbc, rd.TenantID, rf)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return rows, f.Page.Meta(total), nil
}

func (s *complianceService) load(dbc dbctx.Context, tenantID, id uuid.UUID, withResponses bool) (*types.ComplianceAssessment, error) {
	a, err := s.repo.GetByID(dbc, tenantID, id, withResponses)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apierr.NotFound("assessment")
	}
	return a, nil
}

func answersOf(responses []types.ComplianceResponse) []compliance.Answer {
	out := make([]compliance.Answer, 0, len(responses))
	for _, r := range responses {
		out = append(out, compliance.Answer{
			QuestionNumber:   r.QuestionNumber,
			QuestionText:     r.QuestionTextSnapshot,
			CriticalityLevel: r.CriticalityLevel,
			SelectedPoints:   r.SelectedPoints,
			IsNotApplicable:  r.IsNotApplicable,
		})
	}
	return out
}

func derefResponses(in []*types.ComplianceResponse) []types.ComplianceResponse {
	out := make([]types.ComplianceResponse, 0, len(in))
	for _, r := range in {
		out = append(out, *r)
	}
	return out
}

func (s *complianceService) GetAssessment(dbc dbctx.Context, id uuid.UUID) (*AssessmentDetail, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.load(dbc, rd.TenantID, id, true)
	if err != nil {
		return nil, err
	}
	return &AssessmentDetail{ComplianceAssessment: a, CategoryStats: compliance.CategoryStats(answersOf(a.Responses))}, nil
}

func scoreUpdates(score compliance.Score) map[string]any {
	return map[string]any{
		"questions_answered":    score.QuestionsAnswered,
		"questions_na":          score.QuestionsNA,
		"applicable_questions":  score.ApplicableQuestions,
		"total_points_obtained": score.PointsObtained,
		"total_points_possible": score.PointsPossible,
		"compliance_percentage": score.CompliancePercentage,
		"compliance_level":      score.ComplianceLevel,
	}
}

func applyScore(a *types.ComplianceAssessment, score compliance.Score) {
	a.QuestionsAnswered = score.QuestionsAnswered
	a.QuestionsNA = score.QuestionsNA
	a.ApplicableQuestions = score.ApplicableQuestions
	a.TotalPointsObtained = score.PointsObtained
	a.TotalPointsPossible = score.PointsPossible
	a.CompliancePercentage = score.CompliancePercentage
	a.ComplianceLevel = score.ComplianceLevel
}

func optionText(raw datatypes.JSON, points int) string {
	var opts []domain.ResponseOption
	if err := json.Unmarshal(raw, &opts); err != nil {
		return ""
	}
	for _, o := range opts {
		if o.Points == points {
			return o.Text
		}
	}
	return ""
}

func (s *complianceService) SaveResponse(dbc dbctx.Context, id uuid.UUID, in ResponseInput) (*SavedResponse, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if err := compliance.ValidateAnswer(compliance.Answer{
		QuestionNumber:  in.QuestionNumber,
		SelectedPoints:  in.SelectedPoints,
		IsNotApplicable: in.IsNotApplicable,
	}); err != nil {
		return nil, err
	}
	out := &SavedResponse{}
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		a, err := s.load(inner, rd.TenantID, id, false)
		if err != nil {
			return err
		}
		if a.Status != domain.StatusDraft {
			return apierr.Conflict("assessment_not_draft", "only DRAFT assessments accept responses")
		}
		q, err := s.questionRepo.GetByNumber(inner, a.VersionID, in.QuestionNumber)
		if err != nil {
			return err
		}
		if q == nil {
			return apierr.NotFound(fmt.Sprintf("question %d", in.QuestionNumber))
		}
		resp := &types.ComplianceResponse{
			AssessmentID:         a.ID,
			QuestionID:           q.ID,
			QuestionNumber:       q.QuestionNumber,
			SelectedPoints:       in.SelectedPoints,
			SelectedText:         strings.TrimSpace(in.SelectedText),
			IsNotApplicable:      in.IsNotApplicable,
			QuestionTextSnapshot: q.QuestionText,
			CriticalityLevel:     q.CriticalityLevel,
			Observations:         in.Observations,
			RespondedBy:          rd.UserID,
		}
		if resp.SelectedText == "" && resp.SelectedPoints != nil {
			resp.SelectedText = optionText(q.ResponseOptions, *resp.SelectedPoints)
		}
		if err := s.repo.UpsertResponse(inner, resp); err != nil {
			return fmt.Errorf("save response: %w", err)
		}
		all, err := s.repo.ListResponses(inner, a.ID)
		if err != nil {
			return err
		}
		score, err := compliance.Calculate(answersOf(derefResponses(all)))
		if err != nil {
			return err
		}
		if err := s.repo.UpdateFields(inner, a.ID, scoreUpdates(score)); err != nil {
			return err
		}
		applyScore(a, score)
		out.Response = resp
		out.Assessment = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *complianceService) CompleteAssessment(dbc dbctx.Context, id uuid.UUID) (*types.ComplianceAssessment, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	var a *types.ComplianceAssessment
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if a, err = s.load(inner, rd.TenantID, id, true); err != nil {
			return err
		}
		if a.Status != domain.StatusDraft {
			return apierr.Conflict("assessment_not_draft", "assessment is already completed")
		}
		if len(a.Responses) < domain.TotalQuestions {
			return apierr.Rule("assessment_incomplete", fmt.Sprintf("%d of %d questions answered", len(a.Responses), domain.TotalQuestions))
		}
		score, err := compliance.Calculate(answersOf(a.Responses))
		if err != nil {
			return err
		}
		critical, err := json.Marshal(score.CriticalNonCompliant)
		if err != nil {
			return err
		}
		now := s.now()
		updates := scoreUpdates(score)
		updates["status"] = domain.StatusCompleted
		updates["completed_at"] = now
		updates["critical_non_compliant"] = datatypes.JSON(critical)
		if err := s.repo.UpdateFields(inner, a.ID, updates); err != nil {
			return err
		}
		applyScore(a, score)
		a.Status = domain.StatusCompleted
		a.CompletedAt = &now
		a.CriticalNonCompliant = datatypes.JSON(critical)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.observer != nil {
		s.observer.ObserveAssessmentCompleted(a.ComplianceLevel)
	}
	s.log.Info("assessment completed", "tenant_id", rd.TenantID, "assessment_id", a.ID, "level", a.ComplianceLevel, "percentage", a.CompliancePercentage)
	return a, nil
}

func (s *complianceService) Report(dbc dbctx.Context, id uuid.UUID) (*AssessmentReport, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.load(dbc, rd.TenantID, id, true)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.StatusCompleted {
		return nil, apierr.Rule("assessment_not_completed", "reports are only available for completed assessments")
	}
	answers := answersOf(a.Responses)
	score, err := compliance.Calculate(answers)
	if err != nil {
		return nil, err
	}
	responses := make([]*types.ComplianceResponse, 0, len(a.Responses))
	for i := range a.Responses {
		responses = append(responses, &a.Responses[i])
	}
	sort.Slice(responses, func(i, j int) bool { return responses[i].QuestionNumber < responses[j].QuestionNumber })
	return &AssessmentReport{
		Assessment:    a,
		Version:       a.Version,
		Score:         score,
		CategoryStats: compliance.CategoryStats(answers),
		Responses:     responses,
	}, nil
}

func (s *complianceService) Compare(dbc dbctx.Context, ids []uuid.UUID) (*compliance.Comparison, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) < compliance.MinToCompare || len(unique) > compliance.MaxToCompare {
		return nil, apierr.Field("assessmentIds", "must list between 2 and 10 assessments")
	}
	rows, err := s.repo.GetByIDs(dbc, rd.TenantID, unique)
	if err != nil {
		return nil, err
	}
	if len(rows) != len(unique) {
		return nil, apierr.NotFound("assessment")
	}
	responses, err := s.repo.ListResponsesFor(dbc, unique)
	if err != nil {
		return nil, err
	}
	byAssessment := make(map[uuid.UUID]map[int]compliance.Answer, len(rows))
	for _, r := range responses {
		m := byAssessment[r.AssessmentID]
		if m == nil {
			m = map[int]compliance.Answer{}
			byAssessment[r.AssessmentID] = m
		}
		m[r.QuestionNumber] = compliance.Answer{
			QuestionNumber:  r.QuestionNumber,
			SelectedPoints:  r.SelectedPoints,
			IsNotApplicable: r.IsNotApplicable,
		}
	}
	items := make([]compliance.ScoredAssessment, 0, len(rows))
	for _, a := range rows {
		if a.Status != domain.StatusCompleted {
			return nil, apierr.Rule("assessment_not_completed", "only completed assessments can be compared")
		}
		var critical []domain.CriticalItem
		if len(a.CriticalNonCompliant) > 0 {
			if err := json.Unmarshal(a.CriticalNonCompliant, &critical); err != nil {
				return nil, fmt.Errorf("decode critical items of %s: %w", a.ID, err)
			}
		}
		items = append(items, compliance.ScoredAssessment{
			ID:                        a.ID,
			AssessmentDate:            a.AssessmentDate,
			CompliancePercentage:      a.CompliancePercentage,
			ComplianceLevel:           a.ComplianceLevel,
			TotalPointsObtained:       a.TotalPointsObtained,
			TotalPointsPossible:       a.TotalPointsPossible,
			CriticalNonCompliantCount: len(critical),
			Answers:                   byAssessment[a.ID],
		})
	}
	cmp, err := compliance.Compare(items)
	if err != nil {
		return nil, err
	}
	return &cmp, nil
}

func (s *complianceService) DeleteAssessment(dbc dbctx.Context, id uuid.UUID) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	if _, err := s.load(dbc, rd.TenantID, id, false); err != nil {
		return err
	}
	return s.repo.SoftDelete(dbc, rd.TenantID, id)
}
