package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/compliance"
	financialRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/financial"
	residentRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/residents"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeResidents struct {
	services.ResidentService
	lastFilter  residentRepo.ResidentFilter
	deleted     uuid.UUID
	reason      string
	lastVersion int
}

func (f *fakeResidents) List(_ dbctx.Context, rf residentRepo.ResidentFilter) ([]*types.Resident, paging.Meta, error) {
	f.lastFilter = rf
	return []*types.Resident{{FullName: "Ana"}}, rf.Page.Meta(1), nil
}

func (f *fakeResidents) Get(_ dbctx.Context, id uuid.UUID) (*types.Resident, error) {
	return nil, apierr.NotFound("resident")
}

func (f *fakeResidents) Delete(_ dbctx.Context, id uuid.UUID, reason string) error {
	f.deleted, f.reason = id, reason
	return nil
}

func (f *fakeResidents) HistoryVersion(_ dbctx.Context, id uuid.UUID, version int) (*types.RecordHistory, error) {
	f.lastVersion = version
	return &types.RecordHistory{EntityID: id, VersionNumber: version}, nil
}

type fakeCompliance struct {
	services.ComplianceService
	compared []uuid.UUID
}

func (f *fakeCompliance) Compare(_ dbctx.Context, ids []uuid.UUID) (*compliance.Comparison, error) {
	f.compared = ids
	return &compliance.Comparison{}, nil
}

type fakeFinancial struct {
	services.FinancialService
	filter financialRepo.TransactionFilter
	paidAt string
}

func (f *fakeFinancial) ExportTransactions(_ dbctx.Context, tf financialRepo.TransactionFilter) ([]byte, string, error) {
	f.filter = tf
	return []byte("xlsx"), "lancamentos-2025-03-20.xlsx", nil
}

func (f *fakeFinancial) MarkPaid(_ dbctx.Context, id uuid.UUID, paidAt string) (*types.FinancialTransaction, error) {
	f.paidAt = paidAt
	return &types.FinancialTransaction{}, nil
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestResidentHandler(t *testing.T) {
	svc := &fakeResidents{}
	h := NewResidentHandler(svc)
	r := gin.New()
	r.GET("/residents", h.List)
	r.GET("/residents/:id", h.Get)
	r.DELETE("/residents/:id", h.Delete())
	r.GET("/residents/:id/history/:version", h.HistoryVersion())

	rec := serve(r, http.MethodGet, "/residents?status=ACTIVE&search=ana&page=2&limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ACTIVE", svc.lastFilter.Status)
	assert.Equal(t, "ana", svc.lastFilter.Search)
	assert.Equal(t, 2, svc.lastFilter.Page.Page)
	assert.Equal(t, paging.MaxLimit, svc.lastFilter.Page.Limit)
	var page struct {
		Data []map[string]any `json:"data"`
		Meta paging.Meta      `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, int64(1), page.Meta.Total)

	rec = serve(r, http.MethodGet, "/residents?page=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "page")

	rec = serve(r, http.MethodGet, "/residents/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decodeError(t, rec).Code)

	rec = serve(r, http.MethodGet, "/residents/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	id := uuid.New()
	rec = serve(r, http.MethodDelete, "/residents/"+id.String(), `{"deleteReason":"transferido para hospital"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id, svc.deleted)
	assert.Equal(t, "transferido para hospital", svc.reason)

	rec = serve(r, http.MethodDelete, "/residents/"+id.String(), `{bad`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Code)

	rec = serve(r, http.MethodGet, "/residents/"+id.String()+"/history/3", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, svc.lastVersion)

	rec = serve(r, http.MethodGet, "/residents/"+id.String()+"/history/0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComplianceCompareParsesIDs(t *testing.T) {
	svc := &fakeCompliance{}
	r := gin.New()
	r.GET("/comparison", NewComplianceHandler(svc).Compare)

	a, b := uuid.New(), uuid.New()
	rec := serve(r, http.MethodGet, "/comparison?ids="+a.String()+",%20"+b.String()+",", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{a, b}, svc.compared)

	rec = serve(r, http.MethodGet, "/comparison?ids=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "ids")
}

func TestFinancialExportAndPay(t *testing.T) {
	svc := &fakeFinancial{}
	h := NewFinancialHandler(svc)
	r := gin.New()
	r.GET("/transactions/export", h.ExportTransactions)
	r.POST("/transactions/:id/pay", h.MarkPaid)

	acc := uuid.New()
	rec := serve(r, http.MethodGet, "/transactions/export?accountId="+acc.String()+"&status=PAID", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="lancamentos-2025-03-20.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "xlsx", rec.Body.String())
	assert.Equal(t, acc, svc.filter.AccountID)
	assert.Equal(t, "PAID", svc.filter.Status)

	rec = serve(r, http.MethodGet, "/transactions/export?residentId=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodPost, "/transactions/"+uuid.NewString()+"/pay", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", svc.paidAt)

	rec = serve(r, http.MethodPost, "/transactions/"+uuid.NewString()+"/pay", `{"paidAt":"2025-03-18"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-03-18", svc.paidAt)
}

type fakeVitalSigns struct {
	services.VitalSignService
	resident   uuid.UUID
	start, end string
	patch      services.VitalSignPatch
}

func (f *fakeVitalSigns) ListByResident(_ dbctx.Context, residentID uuid.UUID, start, end string) ([]*types.VitalSign, error) {
	f.resident, f.start, f.end = residentID, start, end
	return []*types.VitalSign{}, nil
}

func (f *fakeVitalSigns) Update(_ dbctx.Context, id uuid.UUID, in services.VitalSignPatch) (*types.VitalSign, error) {
	f.patch = in
	return &types.VitalSign{ID: id}, nil
}

func TestVitalSignHandler(t *testing.T) {
	svc := &fakeVitalSigns{}
	h := NewVitalSignHandler(svc)
	r := gin.New()
	r.GET("/vital-signs", h.List)
	r.PATCH("/vital-signs/:id", h.Update)

	rec := serve(r, http.MethodGet, "/vital-signs", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "residentId")

	resident := uuid.New()
	rec = serve(r, http.MethodGet, "/vital-signs?residentId="+resident.String()+"&startDate=2025-03-01&endDate=2025-03-10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resident, svc.resident)
	assert.Equal(t, "2025-03-01", svc.start)
	assert.Equal(t, "2025-03-10", svc.end)
	assert.Contains(t, rec.Body.String(), `"vital_signs"`)

	rec = serve(r, http.MethodPatch, "/vital-signs/"+uuid.NewString(), `{"temperature":38.2,"changeReason":"nova aferição confirmada"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.patch.Temperature)
	assert.Equal(t, 38.2, *svc.patch.Temperature)
	assert.Nil(t, svc.patch.HeartRate)
}
