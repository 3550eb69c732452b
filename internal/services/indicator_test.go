package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/clinical"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/indicators"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/pointers"
)

func newIndicatorService(f *fixture) *indicatorService {
	svc := NewIndicatorService(f.db, f.log,
		repos.NewIndicatorRepo(f.db, f.log),
		repos.NewDailyRecordRepo(f.db, f.log),
		f.residents,
		f.tenants,
	).(*indicatorService)
	svc.now = fixedClock("2025-03-20T10:00:00-03:00")
	return svc
}

func (f *fixture) seedIncident(residentID uuid.UUID, date, subtype string) {
	f.t.Helper()
	rec := &types.DailyRecord{
		TenantID:         f.tenant.ID,
		ResidentID:       residentID,
		Type:             clinical.RecordIncident,
		Date:             date,
		Time:             "08:00",
		RecordedBy:       "Enfermagem",
		IncidentSubtype:  pointers.String(subtype),
		IncidentSeverity: pointers.String(clinical.IncidentModerate),
	}
	rec.VersionNumber = 1
	require.NoError(f.t, f.tx.WithContext(context.Background()).Create(rec).Error)
}

func indicatorByType(t *testing.T, rows []*types.RdcIndicator, typ string) *types.RdcIndicator {
	t.Helper()
	for _, r := range rows {
		if r.IndicatorType == typ {
			return r
		}
	}
	t.Fatalf("indicator %s not found", typ)
	return nil
}

func TestCalculateMonthlyIndicators(t *testing.T) {
	f := newFixture(t)
	svc := newIndicatorService(f)
	ctx := f.adminCtx()

	a := f.seedResident("Ana", "2025-01-01", residents.DependencyGrauI)
	b := f.seedResident("Bento", "2025-01-01", residents.DependencyGrauII)
	c := f.seedResident("Clara", "2025-01-01", residents.DependencyGrauIII)
	late := f.seedResident("Davi", "2025-03-16", residents.DependencyGrauI)

	f.seedIncident(a.ID, "2025-03-02", clinical.IncidentScabies)
	f.seedIncident(a.ID, "2025-03-09", clinical.IncidentScabies)
	f.seedIncident(b.ID, "2025-03-11", clinical.IncidentScabies)
	f.seedIncident(c.ID, "2025-03-18", clinical.IncidentDeath)
	f.seedIncident(late.ID, "2025-03-19", clinical.IncidentFall)
	f.seedIncident(a.ID, "2025-02-10", clinical.IncidentScabies)

	month, err := svc.CalculateMonthly(ctx, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, indicators.MonthOpen, month.Status)
	assert.Equal(t, "03/2025", month.MonthLabel)
	require.Len(t, month.Indicators, 6)

	scabies := indicatorByType(t, month.Indicators, indicators.Scabies)
	assert.Equal(t, 2, scabies.Numerator)
	assert.Equal(t, 3, scabies.Denominator)
	assert.Equal(t, 66.67, scabies.Rate)
	require.NotNil(t, scabies.CalculatedBy)
	assert.Equal(t, f.admin.ID, *scabies.CalculatedBy)

	mortality := indicatorByType(t, month.Indicators, indicators.Mortality)
	assert.Equal(t, 1, mortality.Numerator)
	assert.Equal(t, 33.33, mortality.Rate)
	assert.Equal(t, 0, indicatorByType(t, month.Indicators, indicators.AcuteDiarrhea).Numerator)

	// Recalculation replaces rows instead of duplicating them.
	month, err = svc.CalculateMonthly(ctx, 2025, 3)
	require.NoError(t, err)
	assert.Len(t, month.Indicators, 6)

	_, err = svc.CalculateMonthly(ctx, 2025, 4)
	requireAPIError(t, err, http.StatusUnprocessableEntity, "future_month")
	_, err = svc.CalculateMonthly(ctx, 2025, 13)
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	empty, err := svc.GetByMonth(ctx, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, monthMissing, empty.Status)
	assert.Empty(t, empty.Indicators)
}

func TestCloseAndReopenMonth(t *testing.T) {
	f := newFixture(t)
	svc := newIndicatorService(f)
	ctx := f.adminCtx()
	f.seedResident("Ana", "2025-01-01", residents.DependencyGrauI)

	_, err := svc.CloseMonth(ctx, 2025, 2, "")
	requireAPIError(t, err, http.StatusUnprocessableEntity, "indicators_missing")

	_, err = svc.CalculateMonthly(ctx, 2025, 2)
	require.NoError(t, err)
	_, err = svc.CalculateMonthly(ctx, 2025, 3)
	require.NoError(t, err)

	closure, err := svc.CloseMonth(ctx, 2025, 3, " conferido ")
	require.NoError(t, err)
	assert.Equal(t, indicators.MonthClosed, closure.Status)
	assert.Equal(t, "conferido", closure.CloseNote)
	require.NotNil(t, closure.ClosedBy)

	_, err = svc.CloseMonth(ctx, 2025, 3, "")
	requireAPIError(t, err, http.StatusConflict, "month_closed")
	_, err = svc.CalculateMonthly(ctx, 2025, 3)
	requireAPIError(t, err, http.StatusConflict, "month_closed")

	summary, err := svc.RecomputeCurrentMonth(f.system())
	require.NoError(t, err)
	assert.Equal(t, 2025, summary.Year)
	assert.Equal(t, 3, summary.Month)
	assert.GreaterOrEqual(t, summary.Skipped, 1)
	assert.Zero(t, summary.Failed)

	annual, err := svc.Annual(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, AnnualSummary{TotalMonths: 12, ClosedMonths: 1, OpenMonths: 1, MissingMonths: 10}, annual.Summary)
	assert.Equal(t, indicators.MonthClosed, annual.Months[2].Status)
	assert.Equal(t, indicators.MonthOpen, annual.Months[1].Status)
	assert.Equal(t, monthMissing, annual.Months[0].Status)
	assert.Len(t, annual.Months[0].Indicators, 6)

	_, err = svc.ReopenMonth(ctx, 2025, 3, " ok ")
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "reason")

	closure, err = svc.ReopenMonth(ctx, 2025, 3, "erro na contagem")
	require.NoError(t, err)
	assert.Equal(t, indicators.MonthOpen, closure.Status)
	assert.Equal(t, "erro na contagem", closure.ReopenReason)
	_, err = svc.ReopenMonth(ctx, 2025, 3, "erro na contagem")
	requireAPIError(t, err, http.StatusConflict, "month_open")

	history, err := svc.History(ctx, 12)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Month)
	assert.Equal(t, 3, history[1].Month)
	assert.Equal(t, indicators.MonthOpen, history[1].Status)
	assert.Len(t, history[1].Indicators, 6)

	history, err = svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 3, history[0].Month)
}
