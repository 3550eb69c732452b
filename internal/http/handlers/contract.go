package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type ContractHandler struct {
	svc services.ContractService
}

func NewContractHandler(svc services.ContractService) *ContractHandler {
	return &ContractHandler{svc: svc}
}

// GET /contracts?residentId=&status=
func (h *ContractHandler) List(c *gin.Context) {
	residentID, ok := queryID(c, "residentId")
	if !ok {
		return
	}
	rows, err := h.svc.List(dbc(c), services.ContractFilter{ResidentID: residentID, Status: c.Query("status")})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contracts": rows})
}

// POST /contracts
func (h *ContractHandler) Create(c *gin.Context) {
	var req services.ContractInput
	if !bindJSON(c, &req) {
		return
	}
	ct, err := h.svc.Create(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, ct)
}

// GET /contracts/:id
func (h *ContractHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ct, err := h.svc.Get(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, ct)
}

// PATCH /contracts/:id
func (h *ContractHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.ContractPatch
	if !bindJSON(c, &req) {
		return
	}
	ct, err := h.svc.Update(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, ct)
}

// POST /contracts/:id/rescind
func (h *ContractHandler) Rescind(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !bindJSON(c, &req) {
		return
	}
	ct, err := h.svc.Rescind(dbc(c), id, req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, ct)
}

func (h *ContractHandler) Delete() gin.HandlerFunc         { return deleteHandler(h.svc.Delete) }
func (h *ContractHandler) History() gin.HandlerFunc        { return historyHandler(h.svc) }
func (h *ContractHandler) HistoryVersion() gin.HandlerFunc { return historyVersionHandler(h.svc) }
