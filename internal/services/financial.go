package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	financialRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/financial"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/financial"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

type AccountInput struct {
	Name                string `json:"name"`
	BankName            string `json:"bankName"`
	AgencyNumber        string `json:"agencyNumber"`
	AccountNumber       string `json:"accountNumber"`
	OpeningBalanceCents int64  `json:"openingBalanceCents"`
}

type AccountPatch struct {
	Name                *string `json:"name"`
	BankName            *string `json:"bankName"`
	AgencyNumber        *string `json:"agencyNumber"`
	AccountNumber       *string `json:"accountNumber"`
	OpeningBalanceCents *int64  `json:"openingBalanceCents"`
	IsActive            *bool   `json:"isActive"`
}

type TransactionInput struct {
	AccountID   uuid.UUID  `json:"accountId"`
	ResidentID  *uuid.UUID `json:"residentId"`
	ContractID  *uuid.UUID `json:"contractId"`
	Type        string     `json:"type"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	AmountCents int64      `json:"amountCents"`
	DueDate     string     `json:"dueDate"`
	PaidAt      *string    `json:"paidAt"`
}

type ReconciliationInput struct {
	AccountID           uuid.UUID `json:"accountId"`
	PeriodStart         string    `json:"periodStart"`
	PeriodEnd           string    `json:"periodEnd"`
	ClosingBalanceCents int64     `json:"closingBalanceCents"`
	Notes               string    `json:"notes"`
}

type FinancialService interface {
	CreateAccount(dbc dbctx.Context, in AccountInput) (*types.FinancialAccount, error)
	ListAccounts(dbc dbctx.Context, activeOnly bool) ([]*types.FinancialAccount, error)
	GetAccount(dbc dbctx.Context, id uuid.UUID) (*types.FinancialAccount, error)
	UpdateAccount(dbc dbctx.Context, id uuid.UUID, in AccountPatch) (*types.FinancialAccount, error)
	// DeactivateAccount hides the account from new transactions; history is kept.
	DeactivateAccount(dbc dbctx.Context, id uuid.UUID) error

	CreateTransaction(dbc dbctx.Context, in TransactionInput) (*types.FinancialTransaction, error)
	ListTransactions(dbc dbctx.Context, f financialRepo.TransactionFilter) ([]*types.FinancialTransaction, paging.Meta, error)
	GetTransaction(dbc dbctx.Context, id uuid.UUID) (*types.FinancialTransaction, error)
	MarkPaid(dbc dbctx.Context, id uuid.UUID, paidAt string) (*types.FinancialTransaction, error)
	CancelTransaction(dbc dbctx.Context, id uuid.UUID) (*types.FinancialTransaction, error)
	ListOverdue(dbc dbctx.Context) ([]*types.FinancialTransaction, error)
	UnreconciledPaid(dbc dbctx.Context, accountID uuid.UUID, from, to string) ([]*types.FinancialTransaction, error)
	ExportTransactions(dbc dbctx.Context, f financialRepo.TransactionFilter) ([]byte, string, error)

	CreateReconciliation(dbc dbctx.Context, in ReconciliationInput) (*types.FinancialReconciliation, error)
	ListReconciliations(dbc dbctx.Context, accountID uuid.UUID) ([]*types.FinancialReconciliation, error)
	GetReconciliation(dbc dbctx.Context, id uuid.UUID) (*types.FinancialReconciliation, error)
}

type financialService struct {
	db                 *gorm.DB
	log                *logger.Logger
	accountRepo        repos.AccountRepo
	transactionRepo    repos.TransactionRepo
	reconciliationRepo repos.ReconciliationRepo
	residentRepo       repos.ResidentRepo
	now                func() time.Time
}

func NewFinancialService(
	db *gorm.DB,
	log *logger.Logger,
	accountRepo repos.AccountRepo,
	transactionRepo repos.TransactionRepo,
	reconciliationRepo repos.ReconciliationRepo,
	residentRepo repos.ResidentRepo,
) FinancialService {
	return &financialService{
		db:                 db,
		log:                log.With("service", "FinancialService"),
		accountRepo:        accountRepo,
		transactionRepo:    transactionRepo,
		reconciliationRepo: reconciliationRepo,
		residentRepo:       residentRepo,
		now:                time.Now,
	}
}

func (s *financialService) loadAccount(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.FinancialAccount, error) {
	a, err := s.accountRepo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apierr.NotFound("financial account")
	}
	return a, nil
}

func (s *financialService) CreateAccount(dbc dbctx.Context, in AccountInput) (*types.FinancialAccount, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	fields := fieldErrors{}
	fields.required("name", in.Name)
	if err := fields.err(); err != nil {
		return nil, err
	}
	a := &types.FinancialAccount{
		TenantID:            rd.TenantID,
		Name:                strings.TrimSpace(in.Name),
		BankName:            strings.TrimSpace(in.BankName),
		AgencyNumber:        strings.TrimSpace(in.AgencyNumber),
		AccountNumber:       strings.TrimSpace(in.AccountNumber),
		OpeningBalanceCents: in.OpeningBalanceCents,
		IsActive:            true,
	}
	if err := s.accountRepo.Create(dbc, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *financialService) ListAccounts(dbc dbctx.Context, activeOnly bool) ([]*types.FinancialAccount, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.accountRepo.List(dbc, rd.TenantID, activeOnly)
}

func (s *financialService) GetAccount(dbc dbctx.Context, id uuid.UUID) (*types.FinancialAccount, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.loadAccount(dbc, rd.TenantID, id)
}

// UpdateAccount refuses to move the opening balance once a period was reconciled against it.
func (s *financialService) UpdateAccount(dbc dbctx.Context, id uuid.UUID, in AccountPatch) (*types.FinancialAccount, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.loadAccount(dbc, rd.TenantID, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.Validation(map[string]string{"name": "is required"})
		}
		updates["name"] = name
	}
	if in.BankName != nil {
		updates["bank_name"] = strings.TrimSpace(*in.BankName)
	}
	if in.AgencyNumber != nil {
		updates["agency_number"] = strings.TrimSpace(*in.AgencyNumber)
	}
	if in.AccountNumber != nil {
		updates["account_number"] = strings.TrimSpace(*in.AccountNumber)
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.OpeningBalanceCents != nil && *in.OpeningBalanceCents != a.OpeningBalanceCents {
		recs, err := s.reconciliationRepo.List(dbc, rd.TenantID, id)
		if err != nil {
			return nil, err
		}
		if len(recs) > 0 {
			return nil, apierr.Conflict("account_reconciled", "opening balance cannot change after a reconciliation")
		}
		updates["opening_balance_cents"] = *in.OpeningBalanceCents
	}
	if err := s.accountRepo.UpdateFields(dbc, rd.TenantID, id, updates); err != nil {
		return nil, err
	}
	return s.loadAccount(dbc, rd.TenantID, id)
}

func (s *financialService) DeactivateAccount(dbc dbctx.Context, id uuid.UUID) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	if _, err := s.loadAccount(dbc, rd.TenantID, id); err != nil {
		return err
	}
	return s.accountRepo.UpdateFields(dbc, rd.TenantID, id, map[string]any{"is_active": false})
}

func (s *financialService) CreateTransaction(dbc dbctx.Context, in TransactionInput) (*types.FinancialTransaction, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	kind := strings.ToUpper(strings.TrimSpace(in.Type))
	paidAt := emptyToNil(in.PaidAt)
	fields := fieldErrors{}
	if kind != financial.TypeIncome && kind != financial.TypeExpense {
		fields["type"] = "must be INCOME or EXPENSE"
	}
	fields.required("description", in.Description)
	if in.AmountCents <= 0 {
		fields["amountCents"] = "must be greater than zero"
	}
	fields.date("dueDate", in.DueDate)
	fields.optionalDate("paidAt", paidAt)
	if err := fields.err(); err != nil {
		return nil, err
	}

	a, err := s.loadAccount(dbc, rd.TenantID, in.AccountID)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		return nil, apierr.Rule("account_inactive", "financial account is inactive")
	}
	if in.ResidentID != nil {
		if _, err := loadResident(dbc, s.residentRepo, rd.TenantID, *in.ResidentID); err != nil {
			return nil, err
		}
	}
	t := &types.FinancialTransaction{
		TenantID:    rd.TenantID,
		AccountID:   a.ID,
		ResidentID:  in.ResidentID,
		ContractID:  in.ContractID,
		Type:        kind,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		AmountCents: in.AmountCents,
		DueDate:     in.DueDate,
		PaidAt:      paidAt,
		Status:      financial.TxPending,
		CreatedBy:   rd.UserID,
	}
	if paidAt != nil {
		t.Status = financial.TxPaid
	}
	if _, err := s.transactionRepo.Create(dbc, []*types.FinancialTransaction{t}); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *financialService) ListTransactions(dbc dbctx.Context, f financialRepo.TransactionFilter) ([]*types.FinancialTransaction, paging.Meta, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	f.Page = f.Page.Normalize()
	f.Type = strings.ToUpper(f.Type)
	f.Status = strings.ToUpper(f.Status)
	rows, total, err := s.transactionRepo.List(dbc, rd.TenantID, f)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return rows, f.Page.Meta(total), nil
}

func (s *financialService) loadTransaction(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.FinancialTransaction, error) {
	t, err := s.transactionRepo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apierr.NotFound("financial transaction")
	}
	return t, nil
}

func (s *financialService) GetTransaction(dbc dbctx.Context, id uuid.UUID) (*types.FinancialTransaction, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.loadTransaction(dbc, rd.TenantID, id)
}

func (s *financialService) MarkPaid(dbc dbctx.Context, id uuid.UUID, paidAt string) (*types.FinancialTransaction, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if paidAt == "" {
		paidAt = dates.Today(s.now())
	}
	if !dates.Valid(paidAt) {
		return nil, apierr.Validation(map[string]string{"paidAt": "must be a date in YYYY-MM-DD format"})
	}
	t, err := s.loadTransaction(dbc, rd.TenantID, id)
	if err != nil {
		return nil, err
	}
	if t.Status != financial.TxPending {
		return nil, apierr.Conflict("transaction_not_pending", "only pending transactions can be paid")
	}
	if err := s.transactionRepo.UpdateFields(dbc, rd.TenantID, id, map[string]any{
		"status":  financial.TxPaid,
		"paid_at": paidAt,
	}); err != nil {
		return nil, err
	}
	return s.loadTransaction(dbc, rd.TenantID, id)
}

func (s *financialService) CancelTransaction(dbc dbctx.Context, id uuid.UUID) (*types.FinancialTransaction, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.loadTransaction(dbc, rd.TenantID, id)
	if err != nil {
		return nil, err
	}
	if t.Status != financial.TxPending {
		return nil, apierr.Conflict("transaction_not_pending", "only pending transactions can be cancelled")
	}
	if err := s.transactionRepo.UpdateFields(dbc, rd.TenantID, id, map[string]any{"status": financial.TxCancelled}); err != nil {
		return nil, err
	}
	return s.loadTransaction(dbc, rd.TenantID, id)
}

func (s *financialService) ListOverdue(dbc dbctx.Context) ([]*types.FinancialTransaction, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.transactionRepo.ListOverdue(dbc, rd.TenantID, dates.Today(s.now()))
}

func periodFields(from, to string) error {
	fields := fieldErrors{}
	fields.date("periodStart", from)
	fields.date("periodEnd", to)
	if len(fields) == 0 && to < from {
		fields["periodEnd"] = "must not be before the period start"
	}
	return fields.err()
}

func (s *financialService) UnreconciledPaid(dbc dbctx.Context, accountID uuid.UUID, from, to string) ([]*types.FinancialTransaction, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if err := periodFields(from, to); err != nil {
		return nil, err
	}
	if _, err := s.loadAccount(dbc, rd.TenantID, accountID); err != nil {
		return nil, err
	}
	return s.transactionRepo.ListPaid(dbc, rd.TenantID, accountID, from, to, true)
}

// CreateReconciliation compares the bank closing balance with the system
// balance at period end. Only a zero difference reconciles the period's
// paid transactions.
func (s *financialService) CreateReconciliation(dbc dbctx.Context, in ReconciliationInput) (*types.FinancialReconciliation, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if err := periodFields(in.PeriodStart, in.PeriodEnd); err != nil {
		return nil, err
	}
	var out *types.FinancialReconciliation
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		a, err := s.loadAccount(inner, rd.TenantID, in.AccountID)
		if err != nil {
			return err
		}
		overlaps, err := s.reconciliationRepo.OverlapsReconciled(inner, rd.TenantID, a.ID, in.PeriodStart, in.PeriodEnd)
		if err != nil {
			return err
		}
		if overlaps {
			return apierr.Conflict("period_already_reconciled", "period overlaps an already reconciled period")
		}
		paid, err := s.transactionRepo.PaidBalanceUntil(inner, rd.TenantID, a.ID, in.PeriodEnd)
		if err != nil {
			return err
		}
		period, err := s.transactionRepo.ListPaid(inner, rd.TenantID, a.ID, in.PeriodStart, in.PeriodEnd, true)
		if err != nil {
			return err
		}
		system := a.OpeningBalanceCents + paid
		rec := &types.FinancialReconciliation{
			TenantID:            rd.TenantID,
			AccountID:           a.ID,
			PeriodStart:         in.PeriodStart,
			PeriodEnd:           in.PeriodEnd,
			ClosingBalanceCents: in.ClosingBalanceCents,
			SystemBalanceCents:  system,
			DifferenceCents:     in.ClosingBalanceCents - system,
			TransactionCount:    len(period),
			Status:              financial.ReconciliationDiscrepancy,
			ReconciledBy:        rd.UserID,
			ReconciledAt:        s.now(),
			Notes:               strings.TrimSpace(in.Notes),
		}
		if rec.DifferenceCents == 0 {
			rec.Status = financial.ReconciliationReconciled
		}
		if err := s.reconciliationRepo.Create(inner, rec); err != nil {
			return err
		}
		if rec.Status == financial.ReconciliationReconciled {
			ids := make([]uuid.UUID, 0, len(period))
			for _, t := range period {
				ids = append(ids, t.ID)
			}
			if err := s.transactionRepo.MarkReconciled(inner, ids, rec.ID); err != nil {
				return err
			}
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("reconciliation recorded",
		"tenant_id", rd.TenantID,
		"account_id", out.AccountID,
		"status", out.Status,
		"difference_cents", out.DifferenceCents,
	)
	return out, nil
}

func (s *financialService) ListReconciliations(dbc dbctx.Context, accountID uuid.UUID) ([]*types.FinancialReconciliation, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.reconciliationRepo.List(dbc, rd.TenantID, accountID)
}

func (s *financialService) GetReconciliation(dbc dbctx.Context, id uuid.UUID) (*types.FinancialReconciliation, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.reconciliationRepo.GetByID(dbc, rd.TenantID, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apierr.NotFound("reconciliation")
	}
	return rec, nil
}
