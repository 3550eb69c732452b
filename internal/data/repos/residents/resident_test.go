package residents

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/testutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

func TestResidentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()

	repo := NewResidentRepo(db, testutil.Logger(t))
	tenant := testutil.SeedTenant(t, ctx, tx, "Casa")
	other := testutil.SeedTenant(t, ctx, tx, "Outra")

	maria := testutil.SeedResident(t, ctx, tx, tenant.ID, "Maria Silva", "2024-01-10", residents.DependencyGrauII)
	joao := testutil.SeedResident(t, ctx, tx, tenant.ID, "João Souza", "2025-02-01", residents.DependencyGrauI)
	testutil.SeedResident(t, ctx, tx, other.ID, "Maria de Outra Casa", "2024-01-10", residents.DependencyGrauI)

	discharged := "2025-01-20"
	if err := tx.Model(joao).Updates(map[string]any{"discharge_date": discharged, "status": residents.StatusInactive}).Error; err != nil {
		t.Fatalf("discharge: %v", err)
	}

	if got, err := repo.GetByID(dbc, tenant.ID, maria.ID); err != nil || got == nil {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	if got, err := repo.GetByID(dbc, other.ID, maria.ID); err != nil || got != nil {
		t.Fatalf("GetByID(cross tenant): err=%v got=%v", err, got)
	}

	rows, total, err := repo.List(dbc, tenant.ID, ResidentFilter{Search: "maria", Page: paging.Page{Limit: 5}})
	if err != nil || total != 1 || len(rows) != 1 {
		t.Fatalf("List(search): err=%v total=%d len=%d", err, total, len(rows))
	}
	if _, total, err := repo.List(dbc, tenant.ID, ResidentFilter{Status: residents.StatusActive}); err != nil || total != 1 {
		t.Fatalf("List(status): err=%v total=%d", err, total)
	}

	present, err := repo.ListPresentOn(dbc, tenant.ID, "2024-06-15")
	if err != nil || len(present) != 1 || present[0].ID != maria.ID {
		t.Fatalf("ListPresentOn: err=%v len=%d", err, len(present))
	}

	if n, err := repo.CountActive(dbc, tenant.ID); err != nil || n != 1 {
		t.Fatalf("CountActive: err=%v n=%d", err, n)
	}
	if n, err := repo.CountActiveAll(dbc); err != nil || n != 2 {
		t.Fatalf("CountActiveAll: err=%v n=%d", err, n)
	}

	if taken, err := repo.CPFTaken(dbc, tenant.ID, maria.CPF, uuid.Nil); err != nil || !taken {
		t.Fatalf("CPFTaken: err=%v taken=%v", err, taken)
	}
	if taken, err := repo.CPFTaken(dbc, tenant.ID, maria.CPF, maria.ID); err != nil || taken {
		t.Fatalf("CPFTaken(exclude self): err=%v taken=%v", err, taken)
	}
}
