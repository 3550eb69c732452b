package financial

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/financial"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type ReconciliationRepo interface {
	Create(dbc dbctx.Context, rec *types.FinancialReconciliation) error
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.FinancialReconciliation, error)
	List(dbc dbctx.Context, tenantID, accountID uuid.UUID) ([]*types.FinancialReconciliation, error)
	// OverlapsReconciled reports whether a RECONCILED period of the account intersects [start, end].
	OverlapsReconciled(dbc dbctx.Context, tenantID, accountID uuid.UUID, start, end string) (bool, error)
}

type reconciliationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReconciliationRepo(db *gorm.DB, baseLog *logger.Logger) ReconciliationRepo {
	return &reconciliationRepo{db: db, log: baseLog.With("repo", "FinancialReconciliationRepo")}
}

func (r *reconciliationRepo) Create(dbc dbctx.Context, rec *types.FinancialReconciliation) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(rec).Error
}

func (r *reconciliationRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.FinancialReconciliation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.FinancialReconciliation
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

func (r *reconciliationRepo) List(dbc dbctx.Context, tenantID, accountID uuid.UUID) ([]*types.FinancialReconciliation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Where("tenant_id = ?", tenantID)
	if accountID != uuid.Nil {
		q = q.Where("account_id = ?", accountID)
	}
	var out []*types.FinancialReconciliation
	if err := q.Order("period_end DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reconciliationRepo) OverlapsReconciled(dbc dbctx.Context, tenantID, accountID uuid.UUID, start, end string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.FinancialReconciliation{}).
		Where("tenant_id = ? AND account_id = ? AND status = ?", tenantID, accountID, financial.ReconciliationReconciled).
		Where("period_start <= ? AND period_end >= ?", end, start).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
