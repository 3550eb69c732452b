package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/clinical"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/pointers"
)

func floatp(f float64) *float64 { return &f }

func TestVitalSignAlerts(t *testing.T) {
	cases := []struct {
		name string
		v    types.VitalSign
		want map[string]string
	}{
		{"normal", types.VitalSign{SystolicBloodPressure: pointers.Int(120), Temperature: floatp(36.5), HeartRate: pointers.Int(72), OxygenSaturation: pointers.Int(96), BloodGlucose: pointers.Int(110)}, map[string]string{}},
		{"pressure warning", types.VitalSign{SystolicBloodPressure: pointers.Int(140)}, map[string]string{clinical.AlertPressure: clinical.AlertWarning}},
		{"pressure critical low", types.VitalSign{SystolicBloodPressure: pointers.Int(79)}, map[string]string{clinical.AlertPressure: clinical.AlertCritical}},
		{"glucose", types.VitalSign{BloodGlucose: pointers.Int(250)}, map[string]string{clinical.AlertGlucose: clinical.AlertCritical}},
		{"fever", types.VitalSign{Temperature: floatp(37.5)}, map[string]string{clinical.AlertTemperature: clinical.AlertWarning}},
		{"hypothermia", types.VitalSign{Temperature: floatp(34.9)}, map[string]string{clinical.AlertTemperature: clinical.AlertCritical}},
		{"heart rate", types.VitalSign{HeartRate: pointers.Int(59)}, map[string]string{clinical.AlertHeartRate: clinical.AlertWarning}},
		{"oxygen", types.VitalSign{OxygenSaturation: pointers.Int(91), HeartRate: pointers.Int(120)}, map[string]string{clinical.AlertOxygen: clinical.AlertWarning, clinical.AlertHeartRate: clinical.AlertCritical}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := map[string]string{}
			for _, a := range tc.v.Alerts() {
				got[a.Type] = a.Severity
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("alerts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestVitalSignLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := NewVitalSignService(f.db, f.log, repos.NewVitalSignRepo(f.db, f.log), f.residents, f.recorder, f.notifier).(*vitalSignService)
	svc.now = fixedClock("2025-03-10T12:00:00-03:00")
	dbc := f.adminCtx()
	res := f.seedResident("Rosa Prado", "2024-01-01", residents.DependencyGrauII)
	morning := time.Date(2025, 3, 10, 9, 0, 0, 0, dates.Location())

	_, err := svc.Create(dbc, VitalSignInput{ResidentID: res.ID, MeasuredAt: morning})
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "readings")

	_, err = svc.Create(dbc, VitalSignInput{ResidentID: res.ID, MeasuredAt: morning.Add(24 * time.Hour), HeartRate: pointers.Int(70)})
	ae = requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "measuredAt")

	_, err = svc.Create(dbc, VitalSignInput{ResidentID: res.ID, MeasuredAt: morning, OxygenSaturation: pointers.Int(120)})
	ae = requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "oxygenSaturation")

	normal, err := svc.Create(dbc, VitalSignInput{ResidentID: res.ID, MeasuredAt: morning, HeartRate: pointers.Int(72), OxygenSaturation: pointers.Int(96)})
	require.NoError(t, err)
	assert.Equal(t, 1, normal.VersionNumber)
	assert.Equal(t, f.admin.ID, normal.RecordedBy)
	n, err := f.notifier.UnreadCount(dbc)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.Create(dbc, VitalSignInput{ResidentID: res.ID, MeasuredAt: morning.Add(time.Hour), SystolicBloodPressure: pointers.Int(165), Temperature: floatp(37.8)})
	require.NoError(t, err)
	rows, _, err := f.notifier.List(dbc, true, paging.Page{})
	require.NoError(t, err)
	got := map[string]string{}
	for _, r := range rows {
		got[r.Type] = r.Severity
	}
	assert.Equal(t, map[string]string{clinical.AlertPressure: clinical.AlertCritical, clinical.AlertTemperature: clinical.AlertWarning}, got)

	updated, err := svc.Update(dbc, normal.ID, VitalSignPatch{OxygenSaturation: pointers.Int(86), ChangeReason: "valor transcrito incorretamente"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.VersionNumber)
	n, err = f.notifier.UnreadCount(dbc)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// An alert already raised by the previous version is not repeated.
	_, err = svc.Update(dbc, normal.ID, VitalSignPatch{OxygenSaturation: pointers.Int(85), ChangeReason: "nova leitura do oxímetro"})
	require.NoError(t, err)
	n, err = f.notifier.UnreadCount(dbc)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = svc.Update(dbc, normal.ID, VitalSignPatch{HeartRate: pointers.Int(80), ChangeReason: "curta"})
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	day, err := svc.ListByResident(dbc, res.ID, "2025-03-10", "2025-03-10")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, normal.ID, day[1].ID)
	later, err := svc.ListByResident(dbc, res.ID, "2025-03-11", "")
	require.NoError(t, err)
	assert.Empty(t, later)
	_, err = svc.ListByResident(dbc, res.ID, "10/03/2025", "")
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	require.NoError(t, svc.Delete(dbc, normal.ID, "aferição duplicada no sistema"))
	_, err = svc.Get(dbc, normal.ID)
	requireAPIError(t, err, http.StatusNotFound, "not_found")
	hist, err := svc.History(dbc, normal.ID)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, 4, hist[0].VersionNumber)
	assert.Equal(t, "DELETE", hist[0].ChangeType)
	v2, err := svc.HistoryVersion(dbc, normal.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE", v2.ChangeType)
}
