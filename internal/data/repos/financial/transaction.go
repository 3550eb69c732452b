package financial

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/financial"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

type TransactionFilter struct {
	AccountID  uuid.UUID
	ResidentID uuid.UUID
	Type       string
	Status     string
	DueFrom    string
	DueTo      string
	paging.Page
}

type TransactionRepo interface {
	Create(dbc dbctx.Context, rows []*types.FinancialTransaction) ([]*types.FinancialTransaction, error)
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.FinancialTransaction, error)
	List(dbc dbctx.Context, tenantID uuid.UUID, f TransactionFilter) ([]*types.FinancialTransaction, int64, error)
	UpdateFields(dbc dbctx.Context, tenantID, id uuid.UUID, updates map[string]any) error
	// ListOverdue returns PENDING transactions due before today.
	ListOverdue(dbc dbctx.Context, tenantID uuid.UUID, today string) ([]*types.FinancialTransaction, error)
	// ListPaid returns PAID transactions of an account with paid_at in [from, to].
	ListPaid(dbc dbctx.Context, tenantID, accountID uuid.UUID, from, to string, unreconciledOnly bool) ([]*types.FinancialTransaction, error)
	// PaidBalanceUntil sums paid income minus paid expense with paid_at <= until.
	PaidBalanceUntil(dbc dbctx.Context, tenantID, accountID uuid.UUID, until string) (int64, error)
	MarkReconciled(dbc dbctx.Context, ids []uuid.UUID, reconciliationID uuid.UUID) error
}

type transactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTransactionRepo(db *gorm.DB, baseLog *logger.Logger) TransactionRepo {
	return &transactionRepo{db: db, log: baseLog.With("repo", "FinancialTransactionRepo")}
}

func (r *transactionRepo) Create(dbc dbctx.Context, rows []*types.FinancialTransaction) ([]*types.FinancialTransaction, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.FinancialTransaction{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *transactionRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.FinancialTransaction, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.FinancialTransaction
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

func (r *transactionRepo) List(dbc dbctx.Context, tenantID uuid.UUID, f TransactionFilter) ([]*types.FinancialTransaction, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.FinancialTransaction{}).Where("tenant_id = ?", tenantID)
	if f.AccountID != uuid.Nil {
		q = q.Where("account_id = ?", f.AccountID)
	}
	if f.ResidentID != uuid.Nil {
		q = q.Where("resident_id = ?", f.ResidentID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DueFrom != "" {
		q = q.Where("due_date >= ?", f.DueFrom)
	}
	if f.DueTo != "" {
		q = q.Where("due_date <= ?", f.DueTo)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*types.FinancialTransaction
	if err := f.Page.Apply(q.Order("due_date ASC, created_at ASC")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *transactionRepo) UpdateFields(dbc dbctx.Context, tenantID, id uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.FinancialTransaction{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates).Error
}

func (r *transactionRepo) ListOverdue(dbc dbctx.Context, tenantID uuid.UUID, today string) ([]*types.FinancialTransaction, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.FinancialTransaction
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND status = ? AND due_date < ?", tenantID, financial.TxPending, today).
		Order("due_date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *transactionRepo) ListPaid(dbc dbctx.Context, tenantID, accountID uuid.UUID, from, to string, unreconciledOnly bool) ([]*types.FinancialTransaction, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND account_id = ? AND status = ?", tenantID, accountID, financial.TxPaid).
		Where("paid_at >= ? AND paid_at <= ?", from, to)
	if unreconciledOnly {
		q = q.Where("is_reconciled = ?", false)
	}
	var out []*types.FinancialTransaction
	if err := q.Order("paid_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *transactionRepo) PaidBalanceUntil(dbc dbctx.Context, tenantID, accountID uuid.UUID, until string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.FinancialTransaction{}).
		Where("tenant_id = ? AND account_id = ? AND status = ? AND paid_at <= ?", tenantID, accountID, financial.TxPaid, until).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN amount_cents ELSE -amount_cents END), 0)", financial.TypeIncome).
		Scan(&total).Error
	return total, err
}

func (r *transactionRepo) MarkReconciled(dbc dbctx.Context, ids []uuid.UUID, reconciliationID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.FinancialTransaction{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"is_reconciled": true, "reconciliation_id": reconciliationID}).Error
}
