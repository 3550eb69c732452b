package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type VitalSignHandler struct {
	svc services.VitalSignService
}

func NewVitalSignHandler(svc services.VitalSignService) *VitalSignHandler {
	return &VitalSignHandler{svc: svc}
}

// GET /vital-signs?residentId=&startDate=&endDate=
func (h *VitalSignHandler) List(c *gin.Context) {
	residentID, ok := requiredResident(c)
	if !ok {
		return
	}
	rows, err := h.svc.ListByResident(dbc(c), residentID, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"vital_signs": rows})
}

// POST /vital-signs
func (h *VitalSignHandler) Create(c *gin.Context) {
	var req services.VitalSignInput
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.svc.Create(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, row)
}

// GET /vital-signs/:id
func (h *VitalSignHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, err := h.svc.Get(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, row)
}

// PATCH /vital-signs/:id
func (h *VitalSignHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.VitalSignPatch
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.svc.Update(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, row)
}

func (h *VitalSignHandler) Delete() gin.HandlerFunc         { return deleteHandler(h.svc.Delete) }
func (h *VitalSignHandler) History() gin.HandlerFunc        { return historyHandler(h.svc) }
func (h *VitalSignHandler) HistoryVersion() gin.HandlerFunc { return historyVersionHandler(h.svc) }
