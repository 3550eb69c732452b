package financial

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/testutil"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/financial"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

func TestFinancialRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()
	log := testutil.Logger(t)

	accounts := NewAccountRepo(db, log)
	txs := NewTransactionRepo(db, log)
	recs := NewReconciliationRepo(db, log)

	tenant := testutil.SeedTenant(t, ctx, tx, "Casa")
	acc := &types.FinancialAccount{TenantID: tenant.ID, Name: "Conta Corrente", IsActive: true, OpeningBalanceCents: 1000}
	if err := accounts.Create(dbc, acc); err != nil {
		t.Fatalf("Create account: %v", err)
	}
	closed := &types.FinancialAccount{TenantID: tenant.ID, Name: "Antiga", IsActive: false}
	if err := accounts.Create(dbc, closed); err != nil {
		t.Fatalf("Create account: %v", err)
	}
	active, err := accounts.List(dbc, tenant.ID, true)
	if err != nil || len(active) != 1 || active[0].ID != acc.ID {
		t.Fatalf("List active: err=%v len=%d", err, len(active))
	}

	paid := func(s string) *string { return &s }
	rows := []*types.FinancialTransaction{
		{TenantID: tenant.ID, AccountID: acc.ID, Type: financial.TypeIncome, Description: "Mensalidade", AmountCents: 500000, DueDate: "2025-03-05", PaidAt: paid("2025-03-05"), Status: financial.TxPaid},
		{TenantID: tenant.ID, AccountID: acc.ID, Type: financial.TypeExpense, Description: "Farmacia", AmountCents: 120000, DueDate: "2025-03-10", PaidAt: paid("2025-03-11"), Status: financial.TxPaid},
		{TenantID: tenant.ID, AccountID: acc.ID, Type: financial.TypeIncome, Description: "Mensalidade", AmountCents: 500000, DueDate: "2025-03-20", Status: financial.TxPending},
		{TenantID: tenant.ID, AccountID: acc.ID, Type: financial.TypeExpense, Description: "Luz", AmountCents: 30000, DueDate: "2025-04-02", PaidAt: paid("2025-04-02"), Status: financial.TxPaid},
	}
	if _, err := txs.Create(dbc, rows); err != nil {
		t.Fatalf("Create transactions: %v", err)
	}

	list, total, err := txs.List(dbc, tenant.ID, TransactionFilter{Type: financial.TypeIncome, Page: paging.Page{Page: 1, Limit: 1}})
	if err != nil || total != 2 || len(list) != 1 {
		t.Fatalf("List: err=%v total=%d len=%d", err, total, len(list))
	}

	overdue, err := txs.ListOverdue(dbc, tenant.ID, "2025-03-25")
	if err != nil || len(overdue) != 1 || overdue[0].ID != rows[2].ID {
		t.Fatalf("ListOverdue: err=%v len=%d", err, len(overdue))
	}

	march, err := txs.ListPaid(dbc, tenant.ID, acc.ID, "2025-03-01", "2025-03-31", true)
	if err != nil || len(march) != 2 {
		t.Fatalf("ListPaid: err=%v len=%d", err, len(march))
	}
	bal, err := txs.PaidBalanceUntil(dbc, tenant.ID, acc.ID, "2025-03-31")
	if err != nil || bal != 380000 {
		t.Fatalf("PaidBalanceUntil: err=%v bal=%d", err, bal)
	}

	rec := &types.FinancialReconciliation{
		TenantID: tenant.ID, AccountID: acc.ID, PeriodStart: "2025-03-01", PeriodEnd: "2025-03-31",
		ClosingBalanceCents: 381000, SystemBalanceCents: 381000, Status: financial.ReconciliationReconciled,
		ReconciledBy: uuid.New(), TransactionCount: 2,
	}
	if err := recs.Create(dbc, rec); err != nil {
		t.Fatalf("Create reconciliation: %v", err)
	}
	if err := txs.MarkReconciled(dbc, []uuid.UUID{march[0].ID, march[1].ID}, rec.ID); err != nil {
		t.Fatalf("MarkReconciled: %v", err)
	}
	left, err := txs.ListPaid(dbc, tenant.ID, acc.ID, "2025-03-01", "2025-03-31", true)
	if err != nil || len(left) != 0 {
		t.Fatalf("ListPaid after reconcile: err=%v len=%d", err, len(left))
	}

	overlap, err := recs.OverlapsReconciled(dbc, tenant.ID, acc.ID, "2025-03-15", "2025-04-15")
	if err != nil || !overlap {
		t.Fatalf("OverlapsReconciled: err=%v overlap=%v", err, overlap)
	}
	overlap, err = recs.OverlapsReconciled(dbc, tenant.ID, acc.ID, "2025-04-01", "2025-04-30")
	if err != nil || overlap {
		t.Fatalf("OverlapsReconciled april: err=%v overlap=%v", err, overlap)
	}
}
