package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type DailyRecordHandler struct {
	svc services.DailyRecordService
}

func NewDailyRecordHandler(svc services.DailyRecordService) *DailyRecordHandler {
	return &DailyRecordHandler{svc: svc}
}

// GET /daily-records?residentId=&startDate=&endDate=
// GET /daily-records?date=YYYY-MM-DD lists every resident's records for one day.
func (h *DailyRecordHandler) List(c *gin.Context) {
	residentID, ok := queryID(c, "residentId")
	if !ok {
		return
	}
	var (
		rows any
		err  error
	)
	if residentID != uuid.Nil {
		rows, err = h.svc.ListByResident(dbc(c), residentID, c.Query("startDate"), c.Query("endDate"))
	} else {
		rows, err = h.svc.ListByDate(dbc(c), c.Query("date"))
	}
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"records": rows})
}

// POST /daily-records
func (h *DailyRecordHandler) Create(c *gin.Context) {
	var req services.DailyRecordInput
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.svc.Create(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, rec)
}

// GET /daily-records/:id
func (h *DailyRecordHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.svc.Get(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rec)
}

// PATCH /daily-records/:id
func (h *DailyRecordHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.DailyRecordPatch
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.svc.Update(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rec)
}

func (h *DailyRecordHandler) Delete() gin.HandlerFunc         { return deleteHandler(h.svc.Delete) }
func (h *DailyRecordHandler) History() gin.HandlerFunc        { return historyHandler(h.svc) }
func (h *DailyRecordHandler) HistoryVersion() gin.HandlerFunc { return historyVersionHandler(h.svc) }
