package handlers

import (
	"github.com/gin-gonic/gin"

	popRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/pops"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type PopHandler struct {
	svc services.PopService
}

func NewPopHandler(svc services.PopService) *PopHandler {
	return &PopHandler{svc: svc}
}

// GET /pops?status=&category=&search=
func (h *PopHandler) List(c *gin.Context) {
	rows, err := h.svc.List(dbc(c), popRepo.PopFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pops": rows})
}

// POST /pops
func (h *PopHandler) Create(c *gin.Context) {
	var req services.PopInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.CreateDraft(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, p)
}

// GET /pops/:id
func (h *PopHandler) Get(c *gin.Context) {
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

// PATCH /pops/:id
func (h *PopHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.PopPatch
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

// POST /pops/:id/publish
func (h *PopHandler) Publish(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Publish(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, p)
}

// POST /pops/:id/obsolete
func (h *PopHandler) Obsolete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Obsolete(dbc(c), id, req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, p)
}

// POST /pops/:id/new-version starts a new draft from a published POP.
func (h *PopHandler) NewVersion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.NewVersion(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, p)
}

func (h *PopHandler) Delete() gin.HandlerFunc         { return deleteHandler(h.svc.Delete) }
func (h *PopHandler) History() gin.HandlerFunc        { return historyHandler(h.svc) }
func (h *PopHandler) HistoryVersion() gin.HandlerFunc { return historyVersionHandler(h.svc) }
