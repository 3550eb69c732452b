package tenancy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/testutil"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

func TestTenantRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()

	repo := NewTenantRepo(db, testutil.Logger(t))

	a := testutil.SeedTenant(t, ctx, tx, "Casa Aurora")
	testutil.SeedTenant(t, ctx, tx, "Lar Esperança")
	suspended := &types.Tenant{ID: uuid.New(), Name: "Recanto", CNPJ: "11222333000181", Email: "r@x.com", Status: tenancy.TenantSuspended}
	if _, err := repo.Create(dbc, []*types.Tenant{suspended}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(dbc, a.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	if got.Subscription == nil || got.Subscription.Plan != tenancy.PlanEnterprise {
		t.Fatalf("GetByID: subscription not preloaded: %+v", got.Subscription)
	}
	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID(missing): err=%v got=%v", err, missing)
	}
	if byCNPJ, err := repo.GetByCNPJ(dbc, "11222333000181"); err != nil || byCNPJ == nil || byCNPJ.ID != suspended.ID {
		t.Fatalf("GetByCNPJ: err=%v got=%v", err, byCNPJ)
	}

	rows, total, err := repo.List(dbc, TenantFilter{Search: "aurora", Page: paging.Page{Page: 1, Limit: 10}})
	if err != nil || total != 1 || len(rows) != 1 || rows[0].ID != a.ID {
		t.Fatalf("List(search): err=%v total=%d len=%d", err, total, len(rows))
	}
	_, total, err = repo.List(dbc, TenantFilter{Status: tenancy.TenantActive})
	if err != nil || total != 2 {
		t.Fatalf("List(status): err=%v total=%d", err, total)
	}

	counts, err := repo.CountByStatus(dbc)
	if err != nil || counts[tenancy.TenantActive] != 2 || counts[tenancy.TenantSuspended] != 1 {
		t.Fatalf("CountByStatus: err=%v counts=%v", err, counts)
	}

	if err := repo.UpdateFields(dbc, a.ID, map[string]any{"status": tenancy.TenantSuspended}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	ids, err := repo.ListIDsByStatus(dbc, tenancy.TenantSuspended)
	if err != nil || len(ids) != 2 {
		t.Fatalf("ListIDsByStatus: err=%v ids=%v", err, ids)
	}
}

func TestSubscriptionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()

	repo := NewSubscriptionRepo(db, testutil.Logger(t))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	active := testutil.SeedTenant(t, ctx, tx, "Ativa")
	trialTenant := &types.Tenant{ID: uuid.New(), Name: "Trial", CNPJ: "99888777000166", Email: "t@x.com", Status: tenancy.TenantActive}
	lateTenant := &types.Tenant{ID: uuid.New(), Name: "Late", CNPJ: "55444333000122", Email: "l@x.com", Status: tenancy.TenantActive}
	if err := tx.Create([]*types.Tenant{trialTenant, lateTenant}).Error; err != nil {
		t.Fatalf("seed tenants: %v", err)
	}
	soon := now.Add(3 * 24 * time.Hour)
	past := now.Add(-time.Hour)
	if _, err := repo.Create(dbc, []*types.Subscription{
		{TenantID: trialTenant.ID, Plan: tenancy.PlanBasic, Status: tenancy.SubscriptionTrialing, PriceCents: 29900, TrialEndsAt: &soon},
		{TenantID: lateTenant.ID, Plan: tenancy.PlanBasic, Status: tenancy.SubscriptionTrialing, PriceCents: 29900, TrialEndsAt: &past},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	mrr, err := repo.SumActivePriceCents(dbc)
	if err != nil || mrr != active.Subscription.PriceCents {
		t.Fatalf("SumActivePriceCents: err=%v mrr=%d", err, mrr)
	}

	ending, err := repo.ListTrialsEndingBetween(dbc, now, now.Add(7*24*time.Hour))
	if err != nil || len(ending) != 1 || ending[0].TenantID != trialTenant.ID {
		t.Fatalf("ListTrialsEndingBetween: err=%v len=%d", err, len(ending))
	}

	n, err := repo.ExpireTrials(dbc, now)
	if err != nil || n != 1 {
		t.Fatalf("ExpireTrials: err=%v n=%d", err, n)
	}
	late, err := repo.GetByTenantID(dbc, lateTenant.ID)
	if err != nil || late == nil || late.Status != tenancy.SubscriptionPastDue {
		t.Fatalf("GetByTenantID after expiry: err=%v sub=%+v", err, late)
	}
	pastDue, err := repo.ListByStatus(dbc, tenancy.SubscriptionPastDue)
	if err != nil || len(pastDue) != 1 {
		t.Fatalf("ListByStatus: err=%v len=%d", err, len(pastDue))
	}

	if err := repo.UpdateFields(dbc, trialTenant.ID, map[string]any{"status": tenancy.SubscriptionActive, "price_cents": int64(59900)}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	counts, err := repo.CountByStatus(dbc)
	if err != nil || counts[tenancy.SubscriptionActive] != 2 {
		t.Fatalf("CountByStatus: err=%v counts=%v", err, counts)
	}
}
