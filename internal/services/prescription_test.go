package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	medicationRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/medication"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/medication"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/pointers"
)

func newPrescriptionService(f *fixture) *prescriptionService {
	svc := NewPrescriptionService(f.db, f.log, repos.NewPrescriptionRepo(f.db, f.log), repos.NewAdministrationRepo(f.db, f.log), f.residents, f.recorder, f.notifier).(*prescriptionService)
	svc.now = fixedClock("2025-03-10T12:00:00-03:00")
	return svc
}

func losartana() MedicationInput {
	return MedicationInput{Name: "Losartana", Dose: "50mg", Route: "VO", ScheduledTimes: []string{"20:00", "08:00"}, StartDate: "2025-03-01"}
}

func TestPrescriptionCreateValidatesMedications(t *testing.T) {
	f := newFixture(t)
	svc := newPrescriptionService(f)
	res := f.seedResident("José Alves", "2024-01-01", residents.DependencyGrauII)
	in := PrescriptionInput{ResidentID: res.ID, DoctorName: "Carla Mendes", PrescriptionDate: "2025-03-01", Type: medication.TypeRoutine}

	_, err := svc.Create(f.adminCtx(), in)
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "medications")

	bad := losartana()
	bad.ScheduledTimes = []string{"8h"}
	in.Medications = []MedicationInput{bad}
	_, err = svc.Create(f.adminCtx(), in)
	ae = requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "medications[0].scheduledTimes")

	in.Medications = []MedicationInput{losartana()}
	p, err := svc.Create(f.adminCtx(), in)
	require.NoError(t, err)
	require.Len(t, p.Medications, 1)
	assert.JSONEq(t, `["08:00","20:00"]`, string(p.Medications[0].ScheduledTimes))
}

func TestPrescriptionUpdateReplacesMedicationsAndExpiring(t *testing.T) {
	f := newFixture(t)
	svc := newPrescriptionService(f)
	dbc := f.adminCtx()
	res := f.seedResident("José Alves", "2024-01-01", residents.DependencyGrauII)

	p, err := svc.Create(dbc, PrescriptionInput{
		ResidentID: res.ID, DoctorName: "Carla Mendes", PrescriptionDate: "2025-03-01",
		ValidUntil: pointers.String("2025-03-13"), Type: medication.TypeAntibiotic,
		Medications: []MedicationInput{losartana()},
	})
	require.NoError(t, err)

	meds := []MedicationInput{
		{Name: "Amoxicilina", Dose: "500mg", Route: "VO", ScheduledTimes: []string{"06:00", "14:00", "22:00"}, StartDate: "2025-03-01"},
		losartana(),
	}
	p, err = svc.Update(dbc, p.ID, PrescriptionPatch{Medications: &meds, ChangeReason: "inclusão de antibiótico pelo médico"})
	require.NoError(t, err)
	assert.Equal(t, 2, p.VersionNumber)

	got, err := svc.Get(dbc, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Medications, 2)

	hist, err := svc.History(dbc, p.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Contains(t, string(hist[0].ChangedFields), "medications")

	expiring, err := svc.Expiring(dbc, 5)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	expiring, err = svc.Expiring(dbc, 1)
	require.NoError(t, err)
	assert.Empty(t, expiring)

	sent, err := svc.NotifyExpiring(f.system(), ExpiringNoticeDays)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestRecordAdministrationRequiresActivePrescription(t *testing.T) {
	f := newFixture(t)
	svc := newPrescriptionService(f)
	dbc := f.adminCtx()
	res := f.seedResident("José Alves", "2024-01-01", residents.DependencyGrauII)

	p, err := svc.Create(dbc, PrescriptionInput{
		ResidentID: res.ID, DoctorName: "Carla Mendes", PrescriptionDate: "2025-03-01",
		Type: medication.TypeRoutine, Medications: []MedicationInput{losartana()},
	})
	require.NoError(t, err)
	medID := p.Medications[0].ID

	row, err := svc.RecordAdministration(dbc, AdministrationInput{MedicationID: medID, ScheduledDate: "2025-03-10", ScheduledTime: "08:00", Status: "given"})
	require.NoError(t, err)
	assert.Equal(t, res.ID, row.ResidentID)
	require.NotNil(t, row.AdministeredAt)

	rows, err := svc.ListAdministrations(dbc, res.ID, "2025-03-10")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = svc.Update(dbc, p.ID, PrescriptionPatch{IsActive: pointers.Bool(false), ChangeReason: "tratamento suspenso pelo médico"})
	require.NoError(t, err)
	_, err = svc.RecordAdministration(dbc, AdministrationInput{MedicationID: medID, ScheduledDate: "2025-03-10", ScheduledTime: "20:00", Status: medication.AdministrationGiven})
	requireAPIError(t, err, http.StatusUnprocessableEntity, "prescription_inactive")

	active, err := svc.List(dbc, medicationRepo.PrescriptionFilter{ResidentID: res.ID, ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestSOSMedicationValidationAndDailyLimit(t *testing.T) {
	f := newFixture(t)
	svc := newPrescriptionService(f)
	dbc := f.adminCtx()
	res := f.seedResident("José Alves", "2024-01-01", residents.DependencyGrauII)

	dipirona := MedicationInput{Name: "Dipirona", Dose: "1g", Route: "VO", StartDate: "2025-03-01", IsSOS: true, ScheduledTimes: []string{"08:00"}, Indication: "azia"}
	in := PrescriptionInput{ResidentID: res.ID, DoctorName: "Carla Mendes", PrescriptionDate: "2025-03-01", Type: medication.TypeRoutine, Medications: []MedicationInput{dipirona}}
	_, err := svc.Create(dbc, in)
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "medications[0].scheduledTimes")
	assert.Contains(t, ae.Fields, "medications[0].indication")
	assert.Contains(t, ae.Fields, "medications[0].minInterval")
	assert.Contains(t, ae.Fields, "medications[0].maxDailyDoses")

	dipirona.ScheduledTimes = nil
	dipirona.Indication = "febre"
	dipirona.MinInterval = "6h"
	dipirona.MaxDailyDoses = pointers.Int(2)
	in.Medications = []MedicationInput{losartana(), dipirona}
	p, err := svc.Create(dbc, in)
	require.NoError(t, err)
	require.Len(t, p.Medications, 2)
	var sos *medication.Medication
	for i := range p.Medications {
		if p.Medications[i].IsSOS {
			sos = &p.Medications[i]
		}
	}
	require.NotNil(t, sos)
	assert.Equal(t, medication.IndicationFever, sos.Indication)
	assert.JSONEq(t, `[]`, string(sos.ScheduledTimes))

	give := AdministrationInput{MedicationID: sos.ID, ScheduledDate: "2025-03-10", ScheduledTime: "09:00", Status: medication.AdministrationGiven}
	_, err = svc.RecordAdministration(dbc, give)
	require.NoError(t, err)
	give.ScheduledTime = "16:00"
	_, err = svc.RecordAdministration(dbc, give)
	require.NoError(t, err)

	refused := give
	refused.ScheduledTime = "22:00"
	refused.Status = medication.AdministrationRefused
	_, err = svc.RecordAdministration(dbc, refused)
	require.NoError(t, err)

	give.ScheduledTime = "23:00"
	_, err = svc.RecordAdministration(dbc, give)
	requireAPIError(t, err, http.StatusUnprocessableEntity, "sos_daily_limit")

	give.ScheduledDate = "2025-03-11"
	_, err = svc.RecordAdministration(dbc, give)
	require.NoError(t, err)
}
