package financial

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type AccountRepo interface {
	Create(dbc dbctx.Context, a *types.FinancialAccount) error
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.FinancialAccount, error)
	List(dbc dbctx.Context, tenantID uuid.UUID, activeOnly bool) ([]*types.FinancialAccount, error)
	UpdateFields(dbc dbctx.Context, tenantID, id uuid.UUID, updates map[string]any) error
}

type accountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return &accountRepo{db: db, log: baseLog.With("repo", "FinancialAccountRepo")}
}

func (r *accountRepo) Create(dbc dbctx.Context, a *types.FinancialAccount) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(a).Error
}

func (r *accountRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.FinancialAccount, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.FinancialAccount
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

func (r *accountRepo) List(dbc dbctx.Context, tenantID uuid.UUID, activeOnly bool) ([]*types.FinancialAccount, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Where("tenant_id = ?", tenantID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []*types.FinancialAccount
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *accountRepo) UpdateFields(dbc dbctx.Context, tenantID, id uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.FinancialAccount{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates).Error
}
