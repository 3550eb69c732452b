package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/testutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

func newTenantService(f *fixture) *tenantService {
	svc := NewTenantService(f.db, f.log, f.tenants, f.subscriptions, f.users, f.residents).(*tenantService)
	svc.now = fixedClock("2025-03-01T09:00:00-03:00")
	return svc
}

func (f *fixture) superadminCtx() dbctx.Context {
	f.t.Helper()
	root := testutil.SeedUser(f.t, context.Background(), f.tx, uuid.Nil, "root+"+uuid.NewString()[:6]+"@plataforma.com.br", user.RoleSuperadmin)
	return f.as(root)
}

func TestCreateTenant(t *testing.T) {
	f := newFixture(t)
	svc := newTenantService(f)
	root := f.superadminCtx()

	in := CreateTenantInput{
		Name:  "Lar Esperança",
		CNPJ:  "12.345.678/0001-90",
		Email: "Contato@LarEsperanca.org.br",
		City:  "Campinas",
		State: "sp",
		Plan:  tenancy.PlanProfessional,
		Admin: TenantAdminInput{Name: "Joana", Email: "joana@laresperanca.org.br", Password: "senha-forte"},
	}
	_, err := svc.CreateTenant(f.adminCtx(), in)
	requireAPIError(t, err, http.StatusForbidden, "")

	bad := in
	bad.CNPJ = "123"
	bad.Plan = "GOLD"
	bad.Admin.Email = ""
	_, err = svc.CreateTenant(root, bad)
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "cnpj")
	assert.Contains(t, ae.Fields, "plan")
	assert.Contains(t, ae.Fields, "admin.email")

	created, err := svc.CreateTenant(root, in)
	require.NoError(t, err)
	assert.Equal(t, "12345678000190", created.Tenant.CNPJ)
	assert.Equal(t, "SP", created.Tenant.State)
	assert.Equal(t, tenancy.TenantActive, created.Tenant.Status)
	require.NotNil(t, created.Tenant.Subscription)
	assert.Equal(t, tenancy.SubscriptionTrialing, created.Tenant.Subscription.Status)
	require.NotNil(t, created.Tenant.Subscription.TrialEndsAt)
	assert.Equal(t, "2025-03-31", created.Tenant.Subscription.TrialEndsAt.Format("2006-01-02"))
	assert.Equal(t, user.RoleAdmin, created.Admin.Role)

	_, err = svc.CreateTenant(root, in)
	requireAPIError(t, err, http.StatusConflict, "cnpj_taken")

	rows, meta, err := svc.ListTenants(root, "", "esperan", paging.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), meta.Total)

	detail, err := svc.GetTenant(root, f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.ActiveUsers)
}

func TestTenantSuspensionAndPlan(t *testing.T) {
	f := newFixture(t)
	svc := newTenantService(f)
	root := f.superadminCtx()

	_, err := svc.SuspendTenant(root, f.tenant.ID, "")
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	suspended, err := svc.SuspendTenant(root, f.tenant.ID, "inadimplência")
	require.NoError(t, err)
	assert.Equal(t, tenancy.TenantSuspended, suspended.Status)
	assert.Equal(t, "inadimplência", suspended.SuspendedReason)

	active, err := svc.ReactivateTenant(root, f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, tenancy.TenantActive, active.Status)
	_, err = svc.ReactivateTenant(root, f.tenant.ID)
	requireAPIError(t, err, http.StatusUnprocessableEntity, "tenant_not_suspended")

	for i := 0; i < tenancy.Plans[tenancy.PlanBasic].MaxResidents+1; i++ {
		f.seedResident("Residente", "2025-01-01", residents.DependencyGrauI)
	}
	_, err = svc.ChangePlan(root, f.tenant.ID, "basic")
	requireAPIError(t, err, http.StatusUnprocessableEntity, "plan_resident_limit")
	sub, err := svc.ChangePlan(root, f.tenant.ID, tenancy.PlanProfessional)
	require.NoError(t, err)
	assert.Equal(t, tenancy.PlanProfessional, sub.Plan)
	assert.Equal(t, tenancy.Plans[tenancy.PlanProfessional].PriceCents, sub.PriceCents)

	sub, err = svc.CancelSubscription(root, f.tenant.ID, "encerramento das atividades")
	require.NoError(t, err)
	assert.Equal(t, tenancy.SubscriptionCancelled, sub.Status)
	_, err = svc.ChangePlan(root, f.tenant.ID, tenancy.PlanEnterprise)
	requireAPIError(t, err, http.StatusUnprocessableEntity, "subscription_cancelled")
	_, err = svc.SuspendTenant(root, f.tenant.ID, "qualquer motivo")
	requireAPIError(t, err, http.StatusUnprocessableEntity, "tenant_cancelled")
}

func TestExpireTrialsAndAlerts(t *testing.T) {
	f := newFixture(t)
	svc := newTenantService(f)
	root := f.superadminCtx()

	created, err := svc.CreateTenant(root, CreateTenantInput{
		Name: "Casa Nova", CNPJ: "98765432000155", Email: "nova@casa.org.br",
		Admin: TenantAdminInput{Name: "Rui", Email: "rui@casa.org.br", Password: "senha-forte"},
	})
	require.NoError(t, err)

	svc.now = fixedClock("2025-03-27T09:00:00-03:00")
	alerts, err := svc.Alerts(root)
	require.NoError(t, err)
	assert.True(t, hasAlert(alerts, AlertTrialExpiring, created.Tenant.ID))

	metrics, err := svc.Metrics(root)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, metrics.TrialsEndingSoon, 1)
	assert.GreaterOrEqual(t, metrics.TenantsByStatus[tenancy.TenantActive], int64(2))

	svc.now = fixedClock("2025-04-02T09:00:00-03:00")
	n, err := svc.ExpireTrials(f.system())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	alerts, err = svc.Alerts(root)
	require.NoError(t, err)
	assert.True(t, hasAlert(alerts, AlertPastDue, created.Tenant.ID))
	assert.False(t, hasAlert(alerts, AlertTrialExpiring, created.Tenant.ID))
}

func hasAlert(alerts []PlatformAlert, kind string, tenantID uuid.UUID) bool {
	for _, a := range alerts {
		if a.Type == kind && a.TenantID == tenantID {
			return true
		}
	}
	return false
}
