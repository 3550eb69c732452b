package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type ComplianceHandler struct {
	svc services.ComplianceService
}

func NewComplianceHandler(svc services.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{svc: svc}
}

// GET /compliance-assessments/questions?versionId=
func (h *ComplianceHandler) Questions(c *gin.Context) {
	versionID, ok := queryID(c, "versionId")
	if !ok {
		return
	}
	var ref *uuid.UUID
	if versionID != uuid.Nil {
		ref = &versionID
	}
	set, err := h.svc.GetQuestions(dbc(c), ref)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, set)
}

// GET /compliance-assessments?status=&level=&versionId=&performedBy=&startDate=&endDate=&page=&limit=
func (h *ComplianceHandler) List(c *gin.Context) {
	versionID, ok := queryID(c, "versionId")
	if !ok {
		return
	}
	performedBy, ok := queryID(c, "performedBy")
	if !ok {
		return
	}
	page, ok := queryPage(c)
	if !ok {
		return
	}
	rows, meta, err := h.svc.ListAssessments(dbc(c), services.AssessmentListFilter{
		Status:      c.Query("status"),
		Level:       c.Query("level"),
		VersionID:   versionID,
		PerformedBy: performedBy,
		StartDate:   c.Query("startDate"),
		EndDate:     c.Query("endDate"),
		Page:        page,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, rows, meta)
}

// POST /compliance-assessments
func (h *ComplianceHandler) Create(c *gin.Context) {
	var req services.CreateAssessmentInput
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.svc.CreateAssessment(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, a)
}

// GET /compliance-assessments/:id
func (h *ComplianceHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.GetAssessment(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, a)
}

// POST /compliance-assessments/:id/responses
func (h *ComplianceHandler) SaveResponse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.ResponseInput
	if !bindJSON(c, &req) {
		return
	}
	saved, err := h.svc.SaveResponse(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, saved)
}

// POST /compliance-assessments/:id/complete
func (h *ComplianceHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.CompleteAssessment(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, a)
}

// GET /compliance-assessments/:id/report
func (h *ComplianceHandler) Report(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.Report(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, r)
}

// GET /compliance-assessments/:id/export
func (h *ComplianceHandler) Export(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, name, err := h.svc.Export(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondFile(c, xlsxContentType, name, data)
}

// GET /compliance-assessments/comparison?ids=a,b,c
func (h *ComplianceHandler) Compare(c *gin.Context) {
	var ids []uuid.UUID
	for _, raw := range strings.Split(c.Query("ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondErr(c, apierr.Field("ids", "must be a comma separated list of UUIDs"))
			return
		}
		ids = append(ids, id)
	}
	cmp, err := h.svc.Compare(dbc(c), ids)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, cmp)
}

// DELETE /compliance-assessments/:id
func (h *ComplianceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAssessment(dbc(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}
