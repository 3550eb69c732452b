package compliance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

type AssessmentFilter struct {
	Status      string
	Level       string
	VersionID   uuid.UUID
	PerformedBy uuid.UUID
	From        *time.Time
	To          *time.Time
	paging.Page
}

type AssessmentRepo interface {
	Create(dbc dbctx.Context, a *types.ComplianceAssessment) error
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID, withResponses bool) (*types.ComplianceAssessment, error)
	GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.ComplianceAssessment, error)
	List(dbc dbctx.Context, tenantID uuid.UUID, f AssessmentFilter) ([]*types.ComplianceAssessment, int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	SoftDelete(dbc dbctx.Context, tenantID, id uuid.UUID) error

	UpsertResponse(dbc dbctx.Context, resp *types.ComplianceResponse) error
	ListResponses(dbc dbctx.Context, assessmentID uuid.UUID) ([]*types.ComplianceResponse, error)
	ListResponsesFor(dbc dbctx.Context, assessmentIDs []uuid.UUID) ([]*types.ComplianceResponse, error)
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return &assessmentRepo{db: db, log: baseLog.With("repo", "ComplianceAssessmentRepo")}
}

func (r *assessmentRepo) Create(dbc dbctx.Context, a *types.ComplianceAssessment) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Omit(clause.Associations).Create(a).Error
}

func (r *assessmentRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID, withResponses bool) (*types.ComplianceAssessment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Preload("Version")
	if withResponses {
		q = q.Preload("Responses", func(db *gorm.DB) *gorm.DB { return db.Order("question_number ASC") })
	}
	var out types.ComplianceAssessment
	if err := q.Where("tenant_id = ? AND id = ?", tenantID, id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *assessmentRepo) GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.ComplianceAssessment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ComplianceAssessment
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("assessment_date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentRepo) List(dbc dbctx.Context, tenantID uuid.UUID, f AssessmentFilter) ([]*types.ComplianceAssessment, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.ComplianceAssessment{}).Where("tenant_id = ?", tenantID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Level != "" {
		q = q.Where("compliance_level = ?", f.Level)
	}
	if f.VersionID != uuid.Nil {
		q = q.Where("version_id = ?", f.VersionID)
	}
	if f.PerformedBy != uuid.Nil {
		q = q.Where("performed_by = ?", f.PerformedBy)
	}
	if f.From != nil {
		q = q.Where("assessment_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("assessment_date <= ?", *f.To)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*types.ComplianceAssessment
	if err := f.Page.Apply(q.Order("assessment_date DESC")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *assessmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.ComplianceAssessment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *assessmentRepo) SoftDelete(dbc dbctx.Context, tenantID, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&types.ComplianceAssessment{}).Error
}

// UpsertResponse inserts or overwrites the answer for (assessment, question number).
// resp is reloaded afterwards so it carries the stored row's id and created_at.
func (r *assessmentRepo) UpsertResponse(dbc dbctx.Context, resp *types.ComplianceResponse) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assessment_id"}, {Name: "question_number"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"selected_points", "selected_text", "is_not_applicable", "observations",
				"question_text_snapshot", "criticality_level", "responded_by", "updated_at",
			}),
		}).
		Create(resp).Error; err != nil {
		return err
	}
	var stored types.ComplianceResponse
	if err := transaction.WithContext(dbc.Ctx).
		Where("assessment_id = ? AND question_number = ?", resp.AssessmentID, resp.QuestionNumber).
		Take(&stored).Error; err != nil {
		return err
	}
	*resp = stored
	return nil
}

func (r *assessmentRepo) ListResponses(dbc dbctx.Context, assessmentID uuid.UUID) ([]*types.ComplianceResponse, error) {
	return r.ListResponsesFor(dbc, []uuid.UUID{assessmentID})
}

func (r *assessmentRepo) ListResponsesFor(dbc dbctx.Context, assessmentIDs []uuid.UUID) ([]*types.ComplianceResponse, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ComplianceResponse
	if len(assessmentIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("assessment_id IN ?", assessmentIDs).
		Order("question_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
