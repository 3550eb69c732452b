package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	popRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/pops"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/pops"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/pointers"
)

func newPopService(f *fixture, now string) *popService {
	svc := NewPopService(f.db, f.log, repos.NewPopRepo(f.db, f.log), f.recorder, f.notifier).(*popService)
	svc.now = fixedClock(now)
	return svc
}

func TestPopPublishAndNewVersion(t *testing.T) {
	f := newFixture(t)
	svc := newPopService(f, "2025-01-15T10:00:00-03:00")
	dbc := f.adminCtx()

	draft, err := svc.CreateDraft(dbc, PopInput{Title: "Higienização das mãos", Category: "enfermagem", Content: "1. Molhar as mãos", ReviewIntervalMonths: 6})
	require.NoError(t, err)
	assert.Equal(t, pops.StatusDraft, draft.Status)

	draft, err = svc.Update(dbc, draft.ID, PopPatch{Content: pointers.String("1. Molhar as mãos\n2. Aplicar sabão"), ChangeReason: "inclusão da etapa de sabão"})
	require.NoError(t, err)

	v1, err := svc.Publish(dbc, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, pops.StatusPublished, v1.Status)
	require.NotNil(t, v1.NextReviewDate)
	assert.Equal(t, "2025-07-15", *v1.NextReviewDate)

	_, err = svc.Update(dbc, v1.ID, PopPatch{Title: pointers.String("Outro título"), ChangeReason: "tentativa de edição publicada"})
	requireAPIError(t, err, http.StatusConflict, "pop_not_editable")
	_, err = svc.Publish(dbc, v1.ID)
	requireAPIError(t, err, http.StatusConflict, "pop_not_draft")

	v2, err := svc.NewVersion(dbc, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.DocumentVersion)
	require.NotNil(t, v2.PreviousVersionID)
	assert.Equal(t, v1.ID, *v2.PreviousVersionID)

	_, err = svc.NewVersion(dbc, v1.ID)
	requireAPIError(t, err, http.StatusConflict, "pop_draft_exists")

	_, err = svc.Publish(dbc, v2.ID)
	require.NoError(t, err)
	old, err := svc.Get(dbc, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, pops.StatusObsolete, old.Status)
	assert.Nil(t, old.NextReviewDate)

	published, err := svc.List(dbc, popRepo.PopFilter{Status: pops.StatusPublished})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, v2.ID, published[0].ID)

	hist, err := svc.History(dbc, v1.ID)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, 4, hist[0].VersionNumber)
}

func TestPopDeleteAndObsoleteRules(t *testing.T) {
	f := newFixture(t)
	svc := newPopService(f, "2025-01-15T10:00:00-03:00")
	dbc := f.adminCtx()

	_, err := svc.CreateDraft(dbc, PopInput{Title: "Limpeza", Category: "FARMACIA", Content: "x"})
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	p, err := svc.CreateDraft(dbc, PopInput{Title: "Limpeza de quartos", Category: "LIMPEZA", Content: "Passo a passo"})
	require.NoError(t, err)
	assert.Equal(t, defaultReviewIntervalMonths, p.ReviewIntervalMonths)

	_, err = svc.Obsolete(dbc, p.ID, "procedimento não é mais utilizado")
	requireAPIError(t, err, http.StatusConflict, "pop_not_published")

	_, err = svc.Publish(dbc, p.ID)
	require.NoError(t, err)
	err = svc.Delete(dbc, p.ID, "rascunho criado por engano")
	requireAPIError(t, err, http.StatusConflict, "pop_not_editable")

	later := newPopService(f, "2026-02-01T10:00:00-03:00")
	n, err := later.NotifyReviewDue(f.system(), f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	obs, err := svc.Obsolete(dbc, p.ID, "procedimento substituído pela empresa terceirizada")
	require.NoError(t, err)
	assert.Equal(t, pops.StatusObsolete, obs.Status)
	assert.NotNil(t, obs.ObsoletedAt)
}
