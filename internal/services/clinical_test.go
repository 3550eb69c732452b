package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/clinical"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/pointers"
)

func TestAllergyLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := NewAllergyService(f.db, f.log, repos.NewAllergyRepo(f.db, f.log), f.residents, f.recorder)
	dbc := f.adminCtx()
	res := f.seedResident("Ana Lima", "2024-01-01", residents.DependencyGrauI)

	_, err := svc.Create(dbc, AllergyInput{ResidentID: uuid.New(), Substance: "Dipirona"})
	requireAPIError(t, err, http.StatusNotFound, "not_found")

	_, err = svc.Create(dbc, AllergyInput{ResidentID: res.ID, Substance: "Dipirona", Severity: "FORTE"})
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	a, err := svc.Create(dbc, AllergyInput{ResidentID: res.ID, Substance: "Dipirona", Severity: "grave"})
	require.NoError(t, err)
	assert.Equal(t, clinical.SeveritySevere, a.Severity)

	a, err = svc.Update(dbc, a.ID, AllergyPatch{Severity: pointers.String("ANAFILAXIA"), ChangeReason: "reação confirmada pelo médico"})
	require.NoError(t, err)
	assert.Equal(t, 2, a.VersionNumber)

	list, err := svc.ListByResident(dbc, res.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, clinical.SeverityAnaphylaxis, list[0].Severity)

	require.NoError(t, svc.Delete(dbc, a.ID, "registro feito no residente errado"))
	hist, err := svc.History(dbc, a.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, 3, hist[0].VersionNumber)
	assert.Equal(t, "DELETE", hist[0].ChangeType)
}

func TestConditionTenantIsolation(t *testing.T) {
	f := newFixture(t)
	svc := NewConditionService(f.db, f.log, repos.NewConditionRepo(f.db, f.log), f.residents, f.recorder)
	res := f.seedResident("Ana Lima", "2024-01-01", residents.DependencyGrauI)

	c, err := svc.Create(f.adminCtx(), ConditionInput{ResidentID: res.ID, Name: "Hipertensão", ICD10Code: "i10", DiagnosedAt: pointers.String("2019-05-02")})
	require.NoError(t, err)
	assert.Equal(t, "I10", c.ICD10Code)

	_, err = svc.Create(f.adminCtx(), ConditionInput{ResidentID: res.ID, Name: "Diabetes", DiagnosedAt: pointers.String("02/05/2019")})
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	stranger := f.seedUser("ADMIN")
	strangerTenant := uuid.New()
	stranger.TenantID = &strangerTenant
	_, err = svc.Get(f.as(stranger), c.ID)
	requireAPIError(t, err, http.StatusNotFound, "not_found")
}

func TestDietaryRestrictionLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := NewDietaryRestrictionService(f.db, f.log, repos.NewDietaryRestrictionRepo(f.db, f.log), f.residents, f.recorder)
	dbc := f.adminCtx()
	res := f.seedResident("Ana Lima", "2024-01-01", residents.DependencyGrauI)

	_, err := svc.Create(dbc, DietaryRestrictionInput{ResidentID: res.ID, RestrictionType: "VEGANA", Description: "Sem carne"})
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	assert.Contains(t, ae.Fields, "restrictionType")

	_, err = svc.Create(dbc, DietaryRestrictionInput{ResidentID: uuid.New(), RestrictionType: clinical.RestrictionDiabetes, Description: "Sem açúcar"})
	requireAPIError(t, err, http.StatusNotFound, "not_found")

	d, err := svc.Create(dbc, DietaryRestrictionInput{ResidentID: res.ID, RestrictionType: "alergia_alimentar", Description: " Camarão "})
	require.NoError(t, err)
	assert.Equal(t, clinical.RestrictionFoodAllergy, d.RestrictionType)
	assert.Equal(t, "Camarão", d.Description)
	assert.Equal(t, 1, d.VersionNumber)

	_, err = svc.Update(dbc, d.ID, DietaryRestrictionPatch{Description: pointers.String("Frutos do mar"), ChangeReason: "curto"})
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	d, err = svc.Update(dbc, d.ID, DietaryRestrictionPatch{
		RestrictionType: pointers.String(clinical.RestrictionMedical),
		Description:     pointers.String("Frutos do mar"),
		ChangeReason:    "orientação da nutricionista",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, d.VersionNumber)

	list, err := svc.ListByResident(dbc, res.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, clinical.RestrictionMedical, list[0].RestrictionType)

	v2, err := svc.HistoryVersion(dbc, d.ID, 2)
	require.NoError(t, err)
	assert.Contains(t, string(v2.ChangedFields), `"restriction_type"`)
	assert.Contains(t, string(v2.ChangedFields), `"description"`)

	require.NoError(t, svc.Delete(dbc, d.ID, "restrição revogada pelo médico"))
	list, err = svc.ListByResident(dbc, res.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	hist, err := svc.History(dbc, d.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "DELETE", hist[0].ChangeType)
}
