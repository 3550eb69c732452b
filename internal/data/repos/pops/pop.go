package pops

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/pops"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type PopFilter struct {
	Status   string
	Category string
	Search   string
}

type PopRepo interface {
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Pop, error)
	List(dbc dbctx.Context, tenantID uuid.UUID, f PopFilter) ([]*types.Pop, error)
	// ListDueForReview returns published POPs whose next review date is on or before date.
	ListDueForReview(dbc dbctx.Context, tenantID uuid.UUID, date string) ([]*types.Pop, error)
	HasDraftSuccessor(dbc dbctx.Context, tenantID, previousID uuid.UUID) (bool, error)
}

type popRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPopRepo(db *gorm.DB, baseLog *logger.Logger) PopRepo {
	return &popRepo{db: db, log: baseLog.With("repo", "PopRepo")}
}

func (r *popRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Pop, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Pop
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *popRepo) List(dbc dbctx.Context, tenantID uuid.UUID, f PopFilter) ([]*types.Pop, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Where("tenant_id = ?", tenantID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	var out []*types.Pop
	if err := q.Order("title ASC, document_version DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *popRepo) ListDueForReview(dbc dbctx.Context, tenantID uuid.UUID, date string) ([]*types.Pop, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Pop
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND status = ? AND next_review_date IS NOT NULL AND next_review_date <= ?", tenantID, pops.StatusPublished, date).
		Order("next_review_date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *popRepo) HasDraftSuccessor(dbc dbctx.Context, tenantID, previousID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Pop{}).
		Where("tenant_id = ? AND previous_version_id = ? AND status = ?", tenantID, previousID, pops.StatusDraft).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
