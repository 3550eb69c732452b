package handlers

import (
	"github.com/gin-gonic/gin"

	residentRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type ResidentHandler struct {
	svc services.ResidentService
}

func NewResidentHandler(svc services.ResidentService) *ResidentHandler {
	return &ResidentHandler{svc: svc}
}

// GET /residents?status=&dependencyLevel=&search=&page=&limit=
func (h *ResidentHandler) List(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	rows, meta, err := h.svc.List(dbc(c), residentRepo.ResidentFilter{
		Status:          c.Query("status"),
		DependencyLevel: c.Query("dependencyLevel"),
		Search:          c.Query("search"),
		Page:            page,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, rows, meta)
}

// POST /residents
func (h *ResidentHandler) Create(c *gin.Context) {
	var req services.ResidentInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Create(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /residents/:id
func (h *ResidentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.Get(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// PATCH /residents/:id
func (h *ResidentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.ResidentPatch
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Update(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *ResidentHandler) Delete() gin.HandlerFunc         { return deleteHandler(h.svc.Delete) }
func (h *ResidentHandler) History() gin.HandlerFunc        { return historyHandler(h.svc) }
func (h *ResidentHandler) HistoryVersion() gin.HandlerFunc { return historyVersionHandler(h.svc) }
