package clinical

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type ConditionRepo interface {
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Condition, error)
	ListByResident(dbc dbctx.Context, tenantID, residentID uuid.UUID) ([]*types.Condition, error)
}

type conditionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConditionRepo(db *gorm.DB, baseLog *logger.Logger) ConditionRepo {
	return &conditionRepo{db: db, log: baseLog.With("repo", "ConditionRepo")}
}

func (r *conditionRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Condition, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Condition
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

func (r *conditionRepo) ListByResident(dbc dbctx.Context, tenantID, residentID uuid.UUID) ([]*types.Condition, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Condition
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND resident_id = ?", tenantID, residentID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
