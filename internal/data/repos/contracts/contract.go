package contracts

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type ContractFilter struct {
	ResidentID uuid.UUID
}

type ContractRepo interface {
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Contract, error)
	List(dbc dbctx.Context, tenantID uuid.UUID, f ContractFilter) ([]*types.Contract, error)
	NumberTaken(dbc dbctx.Context, tenantID uuid.UUID, number string, excludeID uuid.UUID) (bool, error)
	// SetStatus writes a derived status without touching the version.
	SetStatus(dbc dbctx.Context, id uuid.UUID, status string) error
}

type contractRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContractRepo(db *gorm.DB, baseLog *logger.Logger) ContractRepo {
	return &contractRepo{db: db, log: baseLog.With("repo", "ContractRepo")}
}

func (r *contractRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Contract, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Contract
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

func (r *contractRepo) List(dbc dbctx.Context, tenantID uuid.UUID, f ContractFilter) ([]*types.Contract, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Where("tenant_id = ?", tenantID)
	if f.ResidentID != uuid.Nil {
		q = q.Where("resident_id = ?", f.ResidentID)
	}
	var out []*types.Contract
	if err := q.Order("start_date DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contractRepo) NumberTaken(dbc dbctx.Context, tenantID uuid.UUID, number string, excludeID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.Contract{}).
		Unscoped().
		Where("tenant_id = ? AND contract_number = ?", tenantID, number)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *contractRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, status string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Contract{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}
