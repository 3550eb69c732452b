package handlers

import (
	"github.com/gin-gonic/gin"

	medicationRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/medication"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type PrescriptionHandler struct {
	svc services.PrescriptionService
}

func NewPrescriptionHandler(svc services.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{svc: svc}
}

// GET /prescriptions?residentId=&activeOnly=&type=
func (h *PrescriptionHandler) List(c *gin.Context) {
	residentID, ok := queryID(c, "residentId")
	if !ok {
		return
	}
	rows, err := h.svc.List(dbc(c), medicationRepo.PrescriptionFilter{
		ResidentID: residentID,
		ActiveOnly: queryBool(c, "activeOnly"),
		Type:       c.Query("type"),
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"prescriptions": rows})
}

// GET /prescriptions/expiring?days=5
func (h *PrescriptionHandler) Expiring(c *gin.Context) {
	days, ok := queryInt(c, "days", services.ExpiringNoticeDays)
	if !ok {
		return
	}
	rows, err := h.svc.Expiring(dbc(c), days)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"prescriptions": rows})
}

// POST /prescriptions
func (h *PrescriptionHandler) Create(c *gin.Context) {
	var req services.PrescriptionInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Create(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, p)
}

// GET /prescriptions/:id
func (h *PrescriptionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, p)
}

// PATCH /prescriptions/:id
func (h *PrescriptionHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.PrescriptionPatch
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Update(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, p)
}

// POST /medication-administrations
func (h *PrescriptionHandler) RecordAdministration(c *gin.Context) {
	var req services.AdministrationInput
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.svc.RecordAdministration(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, a)
}

// GET /medication-administrations?residentId=&date=YYYY-MM-DD
func (h *PrescriptionHandler) ListAdministrations(c *gin.Context) {
	residentID, ok := requiredResident(c)
	if !ok {
		return
	}
	rows, err := h.svc.ListAdministrations(dbc(c), residentID, c.Query("date"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"administrations": rows})
}

func (h *PrescriptionHandler) Delete() gin.HandlerFunc         { return deleteHandler(h.svc.Delete) }
func (h *PrescriptionHandler) History() gin.HandlerFunc        { return historyHandler(h.svc) }
func (h *PrescriptionHandler) HistoryVersion() gin.HandlerFunc { return historyVersionHandler(h.svc) }
