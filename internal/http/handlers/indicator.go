package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type IndicatorHandler struct {
	svc services.IndicatorService
}

func NewIndicatorHandler(svc services.IndicatorService) *IndicatorHandler {
	return &IndicatorHandler{svc: svc}
}

type periodRequest struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

// POST /rdc-indicators/calculate
func (h *IndicatorHandler) Calculate(c *gin.Context) {
	var req periodRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.CalculateMonthly(dbc(c), req.Year, req.Month)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, m)
}

// GET /rdc-indicators?year=&month=
func (h *IndicatorHandler) ByMonth(c *gin.Context) {
	year, ok := queryInt(c, "year", 0)
	if !ok {
		return
	}
	month, ok := queryInt(c, "month", 0)
	if !ok {
		return
	}
	m, err := h.svc.GetByMonth(dbc(c), year, month)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, m)
}

// GET /rdc-indicators/history?months=12
func (h *IndicatorHandler) History(c *gin.Context) {
	months, ok := queryInt(c, "months", 0)
	if !ok {
		return
	}
	rows, err := h.svc.History(dbc(c), months)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"months": rows})
}

// POST /rdc-indicators/close
func (h *IndicatorHandler) Close(c *gin.Context) {
	var req periodRequest
	if !bindJSON(c, &req) {
		return
	}
	cl, err := h.svc.CloseMonth(dbc(c), req.Year, req.Month, req.Note)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, cl)
}

// POST /rdc-indicators/reopen
func (h *IndicatorHandler) Reopen(c *gin.Context) {
	var req periodRequest
	if !bindJSON(c, &req) {
		return
	}
	cl, err := h.svc.ReopenMonth(dbc(c), req.Year, req.Month, req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, cl)
}

// GET /rdc-indicators/annual?year=
func (h *IndicatorHandler) Annual(c *gin.Context) {
	year, ok := queryInt(c, "year", 0)
	if !ok {
		return
	}
	rep, err := h.svc.Annual(dbc(c), year)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rep)
}
