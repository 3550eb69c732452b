package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/testutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/shifts"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/pointers"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/rdc"
)

func newShiftService(t *testing.T, f *fixture) *shiftService {
	t.Helper()
	svc := NewShiftService(f.db, f.log,
		repos.NewShiftTemplateRepo(f.db, f.log),
		repos.NewTeamRepo(f.db, f.log),
		repos.NewShiftRepo(f.db, f.log),
		f.residents,
		f.users,
	).(*shiftService)
	svc.now = fixedClock("2025-03-03T12:00:00-03:00")
	n, err := svc.SeedTemplates(f.system())
	require.NoError(t, err)
	require.Equal(t, 5, n)
	return svc
}

func templateByType(t *testing.T, views []TemplateView, kind string) TemplateView {
	t.Helper()
	for _, v := range views {
		if v.Type == kind {
			return v
		}
	}
	t.Fatalf("template %s not found", kind)
	return TemplateView{}
}

func TestShiftTemplatesConfiguration(t *testing.T) {
	f := newFixture(t)
	svc := newShiftService(t, f)
	ctx := f.adminCtx()

	views, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, views, 5)
	night := templateByType(t, views, shifts.TemplateNight12h)
	assert.True(t, night.IsEnabled)
	assert.Equal(t, "Noite 12h", night.DisplayName)

	v, err := svc.ConfigureTemplate(ctx, night.ID, TemplateConfigInput{IsEnabled: false, CustomName: " Plantão B "})
	require.NoError(t, err)
	assert.False(t, v.IsEnabled)
	assert.Equal(t, "Plantão B", v.DisplayName)

	views, err = svc.ListTemplates(ctx)
	require.NoError(t, err)
	assert.False(t, templateByType(t, views, shifts.TemplateNight12h).IsEnabled)
	assert.True(t, templateByType(t, views, shifts.TemplateDay12h).IsEnabled)

	// SeedTemplates again must not reset tenant overrides.
	_, err = svc.SeedTemplates(f.system())
	require.NoError(t, err)
	views, err = svc.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Plantão B", templateByType(t, views, shifts.TemplateNight12h).DisplayName)
}

func TestTeamsAndWeeklyPattern(t *testing.T) {
	f := newFixture(t)
	svc := newShiftService(t, f)
	ctx := f.adminCtx()

	_, err := svc.CreateTeam(ctx, TeamInput{Name: " ", Color: "blue"})
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "name")
	assert.Contains(t, ae.Fields, "color")

	team, err := svc.CreateTeam(ctx, TeamInput{Name: "Equipe A", Color: "#1A2B3C"})
	require.NoError(t, err)
	nurse := f.seedUser(user.RoleCaregiver)

	team, err = svc.AddTeamMember(ctx, team.ID, TeamMemberInput{UserID: nurse.ID, Role: "cuidadora"})
	require.NoError(t, err)
	require.Len(t, team.Members, 1)
	_, err = svc.AddTeamMember(ctx, team.ID, TeamMemberInput{UserID: nurse.ID})
	requireAPIError(t, err, http.StatusConflict, "already_member")

	team, err = svc.UpdateTeam(ctx, team.ID, TeamPatch{Name: pointers.String("Equipe Alfa")})
	require.NoError(t, err)
	assert.Equal(t, "Equipe Alfa", team.Name)

	views, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	day := templateByType(t, views, shifts.TemplateDay12h)

	_, err = svc.SetWeeklyPattern(ctx, []PatternInput{
		{Weekday: 7, ShiftTemplateID: day.ID, TeamID: team.ID},
	})
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	pattern, err := svc.SetWeeklyPattern(ctx, []PatternInput{
		{Weekday: 1, ShiftTemplateID: day.ID, TeamID: team.ID},
		{Weekday: 3, ShiftTemplateID: day.ID, TeamID: team.ID},
	})
	require.NoError(t, err)
	require.Len(t, pattern, 2)
	assert.Equal(t, 1, pattern[0].Weekday)

	require.NoError(t, svc.DeleteTeam(ctx, team.ID))
	pattern, err = svc.GetWeeklyPattern(ctx)
	require.NoError(t, err)
	assert.Empty(t, pattern)
	_, err = svc.GetTeam(ctx, team.ID)
	requireAPIError(t, err, http.StatusNotFound, "not_found")
}

func TestGenerateShiftsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := newShiftService(t, f)
	ctx := f.adminCtx()

	team, err := svc.CreateTeam(ctx, TeamInput{Name: "Equipe A"})
	require.NoError(t, err)
	a, b := f.seedUser(user.RoleCaregiver), f.seedUser(user.RoleCaregiver)
	_, err = svc.AddTeamMember(ctx, team.ID, TeamMemberInput{UserID: a.ID})
	require.NoError(t, err)
	_, err = svc.AddTeamMember(ctx, team.ID, TeamMemberInput{UserID: b.ID})
	require.NoError(t, err)

	views, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	day := templateByType(t, views, shifts.TemplateDay12h)
	// 2025-03-03 is a Monday.
	_, err = svc.SetWeeklyPattern(ctx, []PatternInput{{Weekday: 1, ShiftTemplateID: day.ID, TeamID: team.ID}})
	require.NoError(t, err)

	res, err := svc.GenerateShifts(ctx, "2025-03-03", "2025-03-16")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Skipped)

	res, err = svc.GenerateForTenant(f.system(), f.tenant.ID, "2025-03-03", "2025-03-16")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Skipped)

	list, err := svc.ListShifts(ctx, "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2025-03-03", list[0].Date)
	assert.Equal(t, "2025-03-10", list[1].Date)
	assert.True(t, list[0].IsFromPattern)
	assert.Len(t, list[0].Members, 2)
	require.NotNil(t, list[0].Template)
	assert.Equal(t, shifts.TemplateDay12h, list[0].Template.Type)

	_, err = svc.GenerateShifts(ctx, "2025-03-10", "2025-03-01")
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	_, err = svc.GenerateShifts(ctx, "2025-01-01", "2025-12-31")
	requireAPIError(t, err, http.StatusUnprocessableEntity, "range_too_large")
}

func TestShiftMembersAndStatus(t *testing.T) {
	f := newFixture(t)
	svc := newShiftService(t, f)
	ctx := f.adminCtx()

	team, err := svc.CreateTeam(ctx, TeamInput{Name: "Equipe A"})
	require.NoError(t, err)
	views, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	_, err = svc.SetWeeklyPattern(ctx, []PatternInput{{Weekday: 1, ShiftTemplateID: templateByType(t, views, shifts.TemplateDay8h).ID, TeamID: team.ID}})
	require.NoError(t, err)
	_, err = svc.GenerateShifts(ctx, "2025-03-03", "2025-03-03")
	require.NoError(t, err)
	list, err := svc.ListShifts(ctx, "2025-03-03", "2025-03-03")
	require.NoError(t, err)
	require.Len(t, list, 1)
	shiftID := list[0].ID
	assert.Empty(t, list[0].Members)

	caregiver := f.seedUser(user.RoleCaregiver)
	sh, err := svc.AssignMember(ctx, shiftID, caregiver.ID)
	require.NoError(t, err)
	require.Len(t, sh.Members, 1)
	_, err = svc.AssignMember(ctx, shiftID, caregiver.ID)
	requireAPIError(t, err, http.StatusConflict, "already_assigned")

	otherTenant := testutil.SeedTenant(t, ctx.Ctx, f.tx, "Outra Casa")
	outsider := testutil.SeedUser(t, ctx.Ctx, f.tx, otherTenant.ID, "fora@outra.com.br", user.RoleCaregiver)
	_, err = svc.AssignMember(ctx, shiftID, outsider.ID)
	requireAPIError(t, err, http.StatusNotFound, "not_found")

	sh, err = svc.RemoveMember(ctx, shiftID, caregiver.ID)
	require.NoError(t, err)
	assert.Empty(t, sh.Members)
	_, err = svc.RemoveMember(ctx, shiftID, caregiver.ID)
	requireAPIError(t, err, http.StatusNotFound, "not_found")

	_, err = svc.UpdateShift(ctx, shiftID, ShiftPatch{Status: pointers.String("paused")})
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	sh, err = svc.UpdateShift(ctx, shiftID, ShiftPatch{Status: pointers.String("completed"), Notes: pointers.String("sem intercorrências")})
	require.NoError(t, err)
	assert.Equal(t, shifts.ShiftCompleted, sh.Status)
	assert.Equal(t, "sem intercorrências", sh.Notes)

	_, err = svc.AssignMember(ctx, shiftID, caregiver.ID)
	requireAPIError(t, err, http.StatusConflict, "shift_closed")
	_, err = svc.UpdateShift(ctx, shiftID, ShiftPatch{Status: pointers.String(shifts.ShiftScheduled)})
	requireAPIError(t, err, http.StatusConflict, "shift_closed")
}

func TestStaffingAndCoverage(t *testing.T) {
	f := newFixture(t)
	svc := newShiftService(t, f)
	ctx := f.adminCtx()

	for i := 0; i < 7; i++ {
		f.seedResident("Grau III", "2025-01-10", residents.DependencyGrauIII)
	}
	for i := 0; i < 11; i++ {
		f.seedResident("Grau I", "2025-01-10", residents.DependencyGrauI)
	}
	f.seedResident("Sem grau", "2025-01-10", "")
	f.seedResident("Admitido depois", "2025-04-01", residents.DependencyGrauII)

	st, err := svc.CalculateStaffing(ctx, "2025-03-03")
	require.NoError(t, err)
	assert.Equal(t, 18, st.TotalResidents)
	assert.Equal(t, 1, st.Unclassified)
	assert.Equal(t, 1+2, st.MinimumCaregivers8h)
	assert.Equal(t, 2+2, st.MinimumCaregivers12h)
	assert.Len(t, st.Warnings, 1)

	_, err = svc.CalculateStaffing(ctx, "03/03/2025")
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	team, err := svc.CreateTeam(ctx, TeamInput{Name: "Equipe A"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.AddTeamMember(ctx, team.ID, TeamMemberInput{UserID: f.seedUser(user.RoleCaregiver).ID})
		require.NoError(t, err)
	}
	empty, err := svc.CreateTeam(ctx, TeamInput{Name: "Equipe Vazia"})
	require.NoError(t, err)
	views, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	_, err = svc.SetWeeklyPattern(ctx, []PatternInput{
		{Weekday: 1, ShiftTemplateID: templateByType(t, views, shifts.TemplateDay8h).ID, TeamID: team.ID},
		{Weekday: 1, ShiftTemplateID: templateByType(t, views, shifts.TemplateDay12h).ID, TeamID: team.ID},
		{Weekday: 1, ShiftTemplateID: templateByType(t, views, shifts.TemplateNight12h).ID, TeamID: empty.ID},
	})
	require.NoError(t, err)
	_, err = svc.GenerateShifts(ctx, "2025-03-03", "2025-03-03")
	require.NoError(t, err)

	report, err := svc.CoverageReport(ctx, "2025-03-03", "2025-03-03")
	require.NoError(t, err)
	require.Len(t, report.Shifts, 3)
	status := map[string]string{}
	for _, row := range report.Shifts {
		status[row.TemplateType] = row.ComplianceStatus
	}
	assert.Equal(t, rdc.CoverageCompliant, status[shifts.TemplateDay8h])
	assert.Equal(t, rdc.CoverageAttention, status[shifts.TemplateDay12h])
	assert.Equal(t, rdc.CoverageNonCompliant, status[shifts.TemplateNight12h])
	assert.Equal(t, CoverageSummary{Total: 3, Compliant: 1, Attention: 1, NonCompliant: 1}, report.Summary)
}
