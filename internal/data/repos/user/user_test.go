package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/testutil"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	userdomain "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()

	repo := NewUserRepo(db, testutil.Logger(t))
	tenant := testutil.SeedTenant(t, ctx, tx, "Casa")

	a := testutil.SeedUser(t, ctx, tx, tenant.ID, "ana@casa.com", userdomain.RoleNurse)
	b := testutil.SeedUser(t, ctx, tx, tenant.ID, "bia@casa.com", userdomain.RoleCaregiver)
	testutil.SeedUser(t, ctx, tx, uuid.Nil, "root@ilpi.com", userdomain.RoleSuperadmin)

	if got, err := repo.GetByEmail(dbc, "  ANA@casa.com "); err != nil || got == nil || got.ID != a.ID {
		t.Fatalf("GetByEmail: err=%v got=%v", err, got)
	}
	if got, err := repo.GetByEmail(dbc, "nobody@casa.com"); err != nil || got != nil {
		t.Fatalf("GetByEmail(missing): err=%v got=%v", err, got)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{a.ID, b.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}

	if err := repo.UpdateFields(dbc, b.ID, map[string]any{"is_active": false}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if n, err := repo.CountActiveByTenant(dbc, tenant.ID); err != nil || n != 1 {
		t.Fatalf("CountActiveByTenant: err=%v n=%d", err, n)
	}
	if rows, err := repo.ListByTenant(dbc, tenant.ID, false); err != nil || len(rows) != 2 {
		t.Fatalf("ListByTenant(all): err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.ListByTenant(dbc, tenant.ID, true); err != nil || len(rows) != 1 {
		t.Fatalf("ListByTenant(active): err=%v len=%d", err, len(rows))
	}
}

func TestUserPermissionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()

	repo := NewUserPermissionRepo(db, testutil.Logger(t))
	tenant := testutil.SeedTenant(t, ctx, tx, "Casa")
	u := testutil.SeedUser(t, ctx, tx, tenant.ID, "cuidador@casa.com", userdomain.RoleCaregiver)

	grant := &types.UserPermission{TenantID: tenant.ID, UserID: u.ID, Permission: userdomain.PermShiftsManage, Granted: true}
	if err := repo.Upsert(dbc, []*types.UserPermission{grant}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	revoke := &types.UserPermission{TenantID: tenant.ID, UserID: u.ID, Permission: userdomain.PermShiftsManage, Granted: false}
	if err := repo.Upsert(dbc, []*types.UserPermission{revoke}); err != nil {
		t.Fatalf("Upsert(again): %v", err)
	}
	rows, err := repo.ListByUser(dbc, u.ID)
	if err != nil || len(rows) != 1 || rows[0].Granted {
		t.Fatalf("ListByUser: err=%v rows=%v", err, rows)
	}
	if err := repo.DeleteByUserAndPermission(dbc, u.ID, userdomain.PermShiftsManage); err != nil {
		t.Fatalf("DeleteByUserAndPermission: %v", err)
	}
	if rows, err := repo.ListByUser(dbc, u.ID); err != nil || len(rows) != 0 {
		t.Fatalf("ListByUser(after delete): err=%v len=%d", err, len(rows))
	}
}
