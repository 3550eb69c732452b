package shifts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/testutil"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/shifts"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
)

func seedTemplates(t *testing.T, repo ShiftTemplateRepo, dbc dbctx.Context) []*types.ShiftTemplate {
	t.Helper()
	tpls := []*types.ShiftTemplate{
		{Type: shifts.TemplateDay12h, Name: "Dia 12h", StartTime: "07:00", EndTime: "19:00", DurationHours: 12, DisplayOrder: 4, IsActive: true},
		{Type: shifts.TemplateDay8h, Name: "Manhã", StartTime: "07:00", EndTime: "15:00", DurationHours: 8, DisplayOrder: 1, IsActive: true},
	}
	if err := repo.Upsert(dbc, tpls); err != nil {
		t.Fatalf("Upsert templates: %v", err)
	}
	return tpls
}

func TestShiftTemplateRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()

	repo := NewShiftTemplateRepo(db, testutil.Logger(t))
	tpls := seedTemplates(t, repo, dbc)

	// re-seeding updates in place
	if err := repo.Upsert(dbc, []*types.ShiftTemplate{
		{Type: shifts.TemplateDay8h, Name: "Diurno 8h", StartTime: "07:00", EndTime: "15:00", DurationHours: 8, DisplayOrder: 1, IsActive: true},
	}); err != nil {
		t.Fatalf("Upsert(again): %v", err)
	}
	active, err := repo.ListActive(dbc)
	if err != nil || len(active) != 2 || active[0].Name != "Diurno 8h" {
		t.Fatalf("ListActive: err=%v rows=%v", err, active)
	}
	if got, err := repo.GetByID(dbc, active[1].ID); err != nil || got == nil || got.Type != shifts.TemplateDay12h {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}

	tenant := testutil.SeedTenant(t, ctx, tx, "Casa")
	cfg := &types.TenantShiftConfig{TenantID: tenant.ID, ShiftTemplateID: tpls[0].ID, IsEnabled: true, CustomName: "Plantão diurno"}
	if err := repo.UpsertConfig(dbc, cfg); err != nil {
		t.Fatalf("UpsertConfig: %v", err)
	}
	if err := repo.UpsertConfig(dbc, &types.TenantShiftConfig{TenantID: tenant.ID, ShiftTemplateID: tpls[0].ID, IsEnabled: false}); err != nil {
		t.Fatalf("UpsertConfig(disable): %v", err)
	}
	cfgs, err := repo.ListConfigs(dbc, tenant.ID)
	if err != nil || len(cfgs) != 1 || cfgs[0].IsEnabled {
		t.Fatalf("ListConfigs: err=%v cfgs=%v", err, cfgs)
	}
}

func TestTeamRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()

	repo := NewTeamRepo(db, testutil.Logger(t))
	tenant := testutil.SeedTenant(t, ctx, tx, "Casa")
	ana := testutil.SeedUser(t, ctx, tx, tenant.ID, "ana@casa.com", "CAREGIVER")
	bia := testutil.SeedUser(t, ctx, tx, tenant.ID, "bia@casa.com", "CAREGIVER")

	team := &types.Team{TenantID: tenant.ID, Name: "Equipe A", Color: "#FF0000", IsActive: true}
	if err := repo.Create(dbc, team); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, u := range []*types.User{ana, bia} {
		if err := repo.AddMember(dbc, &types.TeamMember{TenantID: tenant.ID, TeamID: team.ID, UserID: u.ID}); err != nil {
			t.Fatalf("AddMember: %v", err)
		}
	}
	removed, err := repo.RemoveMember(dbc, team.ID, bia.ID, time.Now())
	if err != nil || !removed {
		t.Fatalf("RemoveMember: err=%v removed=%v", err, removed)
	}
	if again, err := repo.RemoveMember(dbc, team.ID, bia.ID, time.Now()); err != nil || again {
		t.Fatalf("RemoveMember(again): err=%v removed=%v", err, again)
	}

	got, err := repo.GetByID(dbc, tenant.ID, team.ID)
	if err != nil || got == nil || len(got.Members) != 1 || got.Members[0].UserID != ana.ID {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	members, err := repo.ActiveMembers(dbc, []uuid.UUID{team.ID})
	if err != nil || len(members[team.ID]) != 1 {
		t.Fatalf("ActiveMembers: err=%v members=%v", err, members)
	}

	if err := repo.UpdateFields(dbc, tenant.ID, team.ID, map[string]any{"is_active": false}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if rows, err := repo.List(dbc, tenant.ID, true); err != nil || len(rows) != 0 {
		t.Fatalf("List(active): err=%v len=%d", err, len(rows))
	}

	tplID := uuid.New()
	if err := repo.ReplacePattern(dbc, tenant.ID, []*types.WeeklyPatternAssignment{
		{Weekday: 1, ShiftTemplateID: tplID, TeamID: team.ID},
		{Weekday: 0, ShiftTemplateID: tplID, TeamID: team.ID},
	}); err != nil {
		t.Fatalf("ReplacePattern: %v", err)
	}
	if err := repo.ReplacePattern(dbc, tenant.ID, []*types.WeeklyPatternAssignment{
		{Weekday: 3, ShiftTemplateID: tplID, TeamID: team.ID},
	}); err != nil {
		t.Fatalf("ReplacePattern(again): %v", err)
	}
	pattern, err := repo.ListPattern(dbc, tenant.ID)
	if err != nil || len(pattern) != 1 || pattern[0].Weekday != 3 {
		t.Fatalf("ListPattern: err=%v rows=%v", err, pattern)
	}

	if err := repo.SoftDelete(dbc, tenant.ID, team.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if got, err := repo.GetByID(dbc, tenant.ID, team.ID); err != nil || got != nil {
		t.Fatalf("GetByID after delete: err=%v got=%v", err, got)
	}
}

func TestShiftRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()

	tplRepo := NewShiftTemplateRepo(db, testutil.Logger(t))
	tpls := seedTemplates(t, tplRepo, dbc)
	repo := NewShiftRepo(db, testutil.Logger(t))
	tenant := testutil.SeedTenant(t, ctx, tx, "Casa")
	ana := testutil.SeedUser(t, ctx, tx, tenant.ID, "ana@casa.com", "CAREGIVER")

	s := &types.Shift{TenantID: tenant.ID, Date: "2025-03-03", ShiftTemplateID: tpls[0].ID, Status: shifts.ShiftScheduled}
	created, err := repo.CreateIfAbsent(dbc, s)
	if err != nil || !created {
		t.Fatalf("CreateIfAbsent: err=%v created=%v", err, created)
	}
	dup := &types.Shift{TenantID: tenant.ID, Date: "2025-03-03", ShiftTemplateID: tpls[0].ID, Status: shifts.ShiftScheduled}
	if created, err := repo.CreateIfAbsent(dbc, dup); err != nil || created {
		t.Fatalf("CreateIfAbsent(dup): err=%v created=%v", err, created)
	}

	if err := repo.AddMembers(dbc, []*types.ShiftMember{{TenantID: tenant.ID, ShiftID: s.ID, UserID: ana.ID}}); err != nil {
		t.Fatalf("AddMembers: %v", err)
	}
	if ok, err := repo.IsMember(dbc, s.ID, ana.ID); err != nil || !ok {
		t.Fatalf("IsMember: err=%v ok=%v", err, ok)
	}

	rows, err := repo.ListRange(dbc, tenant.ID, "2025-03-01", "2025-03-31")
	if err != nil || len(rows) != 1 || rows[0].Template == nil || len(rows[0].Members) != 1 {
		t.Fatalf("ListRange: err=%v rows=%v", err, rows)
	}

	if removed, err := repo.RemoveMember(dbc, s.ID, ana.ID, ana.ID, time.Now()); err != nil || !removed {
		t.Fatalf("RemoveMember: err=%v removed=%v", err, removed)
	}
	if err := repo.UpdateFields(dbc, tenant.ID, s.ID, map[string]any{"status": shifts.ShiftCompleted}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetByID(dbc, tenant.ID, s.ID)
	if err != nil || got == nil || got.Status != shifts.ShiftCompleted || len(got.Members) != 0 {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
}
