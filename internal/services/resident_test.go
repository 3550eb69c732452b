package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	residentRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
)

func newResidentService(f *fixture) ResidentService {
	return NewResidentService(f.db, f.log, f.residents, f.subscriptions, f.recorder)
}

func validResident() ResidentInput {
	return ResidentInput{
		FullName:        "Maria da Silva",
		CPF:             "123.456.789-01",
		BirthDate:       "1938-04-12",
		AdmissionDate:   "2024-03-01",
		DependencyLevel: residents.DependencyGrauII,
	}
}

func TestResidentCreateAndVersionedUpdate(t *testing.T) {
	f := newFixture(t)
	svc := newResidentService(f)
	dbc := f.adminCtx()

	r, err := svc.Create(dbc, validResident())
	require.NoError(t, err)
	assert.Equal(t, "12345678901", r.CPF)
	assert.Equal(t, 1, r.VersionNumber)
	assert.Equal(t, residents.StatusActive, r.Status)

	_, err = svc.Create(dbc, validResident())
	requireAPIError(t, err, http.StatusConflict, "cpf_taken")

	room := "12B"
	updated, err := svc.Update(dbc, r.ID, ResidentPatch{Room: &room, ChangeReason: "mudança de quarto solicitada"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.VersionNumber)
	assert.Equal(t, "12B", updated.Room)

	_, err = svc.Update(dbc, r.ID, ResidentPatch{Room: &room, ChangeReason: "curto"})
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	hist, err := svc.History(dbc, r.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, 2, hist[0].VersionNumber)
	assert.Contains(t, string(hist[0].ChangedFields), "room")

	v2, err := svc.HistoryVersion(dbc, r.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "mudança de quarto solicitada", v2.ChangeReason)
	_, err = svc.HistoryVersion(dbc, r.ID, 7)
	requireAPIError(t, err, http.StatusNotFound, "not_found")
}

func TestResidentValidation(t *testing.T) {
	f := newFixture(t)
	svc := newResidentService(f)

	in := validResident()
	in.CPF = "123"
	in.AdmissionDate = "2024-13-01"
	_, err := svc.Create(f.adminCtx(), in)
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "cpf")
	assert.Contains(t, ae.Fields, "admissionDate")

	in = validResident()
	in.AdmissionDate = "1930-01-01"
	_, err = svc.Create(f.adminCtx(), in)
	ae = requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "admissionDate")
}

func TestResidentPlanLimit(t *testing.T) {
	f := newFixture(t)
	svc := newResidentService(f)
	require.NoError(t, f.tx.Model(f.tenant.Subscription).Update("plan", tenancy.PlanBasic).Error)

	limit := tenancy.Plans[tenancy.PlanBasic].MaxResidents
	for i := 0; i < limit; i++ {
		f.seedResident("Residente", "2024-01-01", residents.DependencyGrauI)
	}
	_, err := svc.Create(f.adminCtx(), validResident())
	requireAPIError(t, err, http.StatusUnprocessableEntity, "plan_resident_limit")
}

func TestResidentDeleteAndTenantIsolation(t *testing.T) {
	f := newFixture(t)
	svc := newResidentService(f)
	dbc := f.adminCtx()

	r, err := svc.Create(dbc, validResident())
	require.NoError(t, err)

	require.Error(t, svc.Delete(dbc, r.ID, "pouco"))
	require.NoError(t, svc.Delete(dbc, r.ID, "cadastro duplicado por engano"))

	_, err = svc.Get(dbc, r.ID)
	requireAPIError(t, err, http.StatusNotFound, "not_found")

	hist, err := svc.History(dbc, r.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "DELETE", hist[0].ChangeType)

	rows, meta, err := svc.List(dbc, residentRepo.ResidentFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int64(0), meta.Total)

	_, err = svc.Get(dbc, uuid.New())
	requireAPIError(t, err, http.StatusNotFound, "not_found")
}
