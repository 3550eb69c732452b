package services

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	financialRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/financial"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/financial"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/pointers"
)

func newFinancialService(f *fixture) *financialService {
	svc := NewFinancialService(f.db, f.log,
		repos.NewAccountRepo(f.db, f.log),
		repos.NewTransactionRepo(f.db, f.log),
		repos.NewReconciliationRepo(f.db, f.log),
		f.residents,
	).(*financialService)
	svc.now = fixedClock("2025-03-20T10:00:00-03:00")
	return svc
}

func TestFinancialTransactions(t *testing.T) {
	f := newFixture(t)
	svc := newFinancialService(f)
	ctx := f.adminCtx()
	res := f.seedResident("Ana", "2025-01-01", residents.DependencyGrauI)

	acc, err := svc.CreateAccount(ctx, AccountInput{Name: "Conta Movimento", BankName: "Banco do Brasil", OpeningBalanceCents: 100000})
	require.NoError(t, err)
	assert.True(t, acc.IsActive)

	_, err = svc.CreateTransaction(ctx, TransactionInput{AccountID: acc.ID, Type: "transfer", AmountCents: 0, DueDate: "2025-13-01"})
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "type")
	assert.Contains(t, ae.Fields, "amountCents")
	assert.Contains(t, ae.Fields, "dueDate")
	assert.Contains(t, ae.Fields, "description")

	fee, err := svc.CreateTransaction(ctx, TransactionInput{
		AccountID: acc.ID, ResidentID: &res.ID, Type: "income", Description: "Mensalidade março",
		AmountCents: 450000, DueDate: "2025-03-10",
	})
	require.NoError(t, err)
	assert.Equal(t, financial.TxPending, fee.Status)
	assert.Equal(t, financial.TypeIncome, fee.Type)

	paidRent, err := svc.CreateTransaction(ctx, TransactionInput{
		AccountID: acc.ID, Type: financial.TypeExpense, Description: "Aluguel",
		AmountCents: 200000, DueDate: "2025-03-05", PaidAt: pointers.String("2025-03-05"),
	})
	require.NoError(t, err)
	assert.Equal(t, financial.TxPaid, paidRent.Status)

	_, err = svc.CreateTransaction(ctx, TransactionInput{
		AccountID: acc.ID, Type: financial.TypeExpense, Description: "Farmácia",
		AmountCents: 3000, DueDate: "2025-03-25",
	})
	require.NoError(t, err)

	overdue, err := svc.ListOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, fee.ID, overdue[0].ID)

	paid, err := svc.MarkPaid(ctx, fee.ID, "")
	require.NoError(t, err)
	assert.Equal(t, financial.TxPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, "2025-03-20", *paid.PaidAt)
	_, err = svc.MarkPaid(ctx, fee.ID, "")
	requireAPIError(t, err, http.StatusConflict, "transaction_not_pending")
	_, err = svc.CancelTransaction(ctx, fee.ID)
	requireAPIError(t, err, http.StatusConflict, "transaction_not_pending")

	rows, meta, err := svc.ListTransactions(ctx, financialRepo.TransactionFilter{Status: "paid", Page: paging.Page{Limit: 1}})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(2), meta.Total)
	assert.Equal(t, 2, meta.TotalPages)

	require.NoError(t, svc.DeactivateAccount(ctx, acc.ID))
	_, err = svc.CreateTransaction(ctx, TransactionInput{AccountID: acc.ID, Type: financial.TypeIncome, Description: "x", AmountCents: 1, DueDate: "2025-03-01"})
	requireAPIError(t, err, http.StatusUnprocessableEntity, "account_inactive")

	data, name, err := svc.ExportTransactions(ctx, financialRepo.TransactionFilter{AccountID: acc.ID})
	require.NoError(t, err)
	assert.Equal(t, "lancamentos-2025-03-20.xlsx", name)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	assert.Equal(t, []string{sheetTransactions, sheetTotals}, book.GetSheetList())
	lines, err := book.GetRows(sheetTransactions)
	require.NoError(t, err)
	assert.Len(t, lines, 4)
	balance, err := book.GetCellValue(sheetTotals, "B4")
	require.NoError(t, err)
	assert.Equal(t, "2500", balance)
}

func TestReconciliation(t *testing.T) {
	f := newFixture(t)
	svc := newFinancialService(f)
	ctx := f.adminCtx()

	acc, err := svc.CreateAccount(ctx, AccountInput{Name: "Conta", OpeningBalanceCents: 50000})
	require.NoError(t, err)
	income, err := svc.CreateTransaction(ctx, TransactionInput{
		AccountID: acc.ID, Type: financial.TypeIncome, Description: "Mensalidade",
		AmountCents: 300000, DueDate: "2025-02-10", PaidAt: pointers.String("2025-02-10"),
	})
	require.NoError(t, err)
	_, err = svc.CreateTransaction(ctx, TransactionInput{
		AccountID: acc.ID, Type: financial.TypeExpense, Description: "Energia",
		AmountCents: 45000, DueDate: "2025-02-15", PaidAt: pointers.String("2025-02-14"),
	})
	require.NoError(t, err)
	// Paid after the period: excluded from the system balance.
	_, err = svc.CreateTransaction(ctx, TransactionInput{
		AccountID: acc.ID, Type: financial.TypeIncome, Description: "Mensalidade março",
		AmountCents: 300000, DueDate: "2025-03-10", PaidAt: pointers.String("2025-03-10"),
	})
	require.NoError(t, err)

	unreconciled, err := svc.UnreconciledPaid(ctx, acc.ID, "2025-02-01", "2025-02-28")
	require.NoError(t, err)
	assert.Len(t, unreconciled, 2)

	_, err = svc.CreateReconciliation(ctx, ReconciliationInput{AccountID: acc.ID, PeriodStart: "2025-02-28", PeriodEnd: "2025-02-01"})
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	// System: 50000 + 300000 - 45000 = 305000.
	off, err := svc.CreateReconciliation(ctx, ReconciliationInput{AccountID: acc.ID, PeriodStart: "2025-02-01", PeriodEnd: "2025-02-28", ClosingBalanceCents: 300000})
	require.NoError(t, err)
	assert.Equal(t, financial.ReconciliationDiscrepancy, off.Status)
	assert.Equal(t, int64(305000), off.SystemBalanceCents)
	assert.Equal(t, int64(-5000), off.DifferenceCents)
	unreconciled, err = svc.UnreconciledPaid(ctx, acc.ID, "2025-02-01", "2025-02-28")
	require.NoError(t, err)
	assert.Len(t, unreconciled, 2)

	ok, err := svc.CreateReconciliation(ctx, ReconciliationInput{AccountID: acc.ID, PeriodStart: "2025-02-01", PeriodEnd: "2025-02-28", ClosingBalanceCents: 305000})
	require.NoError(t, err)
	assert.Equal(t, financial.ReconciliationReconciled, ok.Status)
	assert.Equal(t, 2, ok.TransactionCount)

	tx, err := svc.GetTransaction(ctx, income.ID)
	require.NoError(t, err)
	assert.True(t, tx.IsReconciled)
	require.NotNil(t, tx.ReconciliationID)
	assert.Equal(t, ok.ID, *tx.ReconciliationID)

	_, err = svc.CreateReconciliation(ctx, ReconciliationInput{AccountID: acc.ID, PeriodStart: "2025-02-20", PeriodEnd: "2025-03-31", ClosingBalanceCents: 605000})
	requireAPIError(t, err, http.StatusConflict, "period_already_reconciled")

	_, err = svc.UpdateAccount(ctx, acc.ID, AccountPatch{OpeningBalanceCents: pointers.Ptr(int64(0))})
	requireAPIError(t, err, http.StatusConflict, "account_reconciled")
	renamed, err := svc.UpdateAccount(ctx, acc.ID, AccountPatch{Name: pointers.String("Conta Principal")})
	require.NoError(t, err)
	assert.Equal(t, "Conta Principal", renamed.Name)

	list, err := svc.ListReconciliations(ctx, acc.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	got, err := svc.GetReconciliation(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, ok.ID, got.ID)
}
