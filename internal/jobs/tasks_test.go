package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type fakeTenantRepo struct {
	repos.TenantRepo
	ids    []uuid.UUID
	status string
}

func (f *fakeTenantRepo) ListIDsByStatus(_ dbctx.Context, status string) ([]uuid.UUID, error) {
	f.status = status
	return f.ids, nil
}

type generateCall struct {
	tenantID   uuid.UUID
	start, end string
}

type fakeShifts struct {
	services.ShiftService
	mu      sync.Mutex
	calls   []generateCall
	failFor uuid.UUID
}

func (f *fakeShifts) GenerateForTenant(_ dbctx.Context, tenantID uuid.UUID, start, end string) (*services.GenerateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generateCall{tenantID, start, end})
	if tenantID == f.failFor {
		return nil, errors.New("no weekly pattern")
	}
	return &services.GenerateResult{StartDate: start, EndDate: end, Created: 3}, nil
}

type fakeIndicators struct {
	services.IndicatorService
	summary services.RecomputeSummary
}

func (f *fakeIndicators) RecomputeCurrentMonth(dbctx.Context) (*services.RecomputeSummary, error) {
	s := f.summary
	return &s, nil
}

type fakeAudit struct {
	services.AuditService
	olderThan time.Duration
}

func (f *fakeAudit) Purge(_ dbctx.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 7, nil
}

func fixedNow(t *testing.T, rfc3339 string) func() time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, rfc3339)
	require.NoError(t, err)
	return func() time.Time { return ts }
}

func TestGenerateShiftsPerActiveTenant(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	tenants := &fakeTenantRepo{ids: []uuid.UUID{a, b, c}}
	shifts := &fakeShifts{failFor: b}
	tasks := NewTasks(
		Deps{Log: logger.Nop(), TenantRepo: tenants, Shifts: shifts},
		Options{ShiftGenerationDays: 7, Now: fixedNow(t, "2025-03-20T23:30:00-03:00")},
	)

	err := tasks.GenerateShifts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), b.String())
	assert.Equal(t, tenancy.TenantActive, tenants.status)

	require.Len(t, shifts.calls, 3, "a failing tenant does not stop the others")
	for _, call := range shifts.calls {
		assert.Equal(t, "2025-03-20", call.start)
		assert.Equal(t, "2025-03-26", call.end)
	}
}

func TestRecomputeIndicatorsReportsFailures(t *testing.T) {
	ind := &fakeIndicators{summary: services.RecomputeSummary{Year: 2025, Month: 3, Tenants: 2, Calculated: 2}}
	tasks := NewTasks(Deps{Indicators: ind}, Options{})
	require.NoError(t, tasks.RecomputeIndicators(context.Background()))

	ind.summary.Failed = 1
	assert.Error(t, tasks.RecomputeIndicators(context.Background()))
}

func TestRegisterAllUsesDefaultsAndOverrides(t *testing.T) {
	audit := &fakeAudit{}
	tasks := NewTasks(Deps{Audit: audit}, Options{Schedules: map[string]string{JobAuditPurge: "@weekly"}})
	s := NewScheduler(logger.Nop(), nil, time.UTC)
	require.NoError(t, tasks.RegisterAll(s))

	specs := map[string]string{}
	for _, j := range s.Jobs() {
		specs[j[0]] = j[1]
	}
	assert.Len(t, specs, len(DefaultSchedules))
	assert.Equal(t, "@weekly", specs[JobAuditPurge])
	assert.Equal(t, DefaultSchedules[JobShiftGeneration], specs[JobShiftGeneration])

	require.NoError(t, s.RunNow(context.Background(), JobAuditPurge))
	assert.Equal(t, DefaultAuditRetention, audit.olderThan)
	require.NoError(t, s.Stop(context.Background()))
}
