package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type ShiftHandler struct {
	svc services.ShiftService
}

func NewShiftHandler(svc services.ShiftService) *ShiftHandler {
	return &ShiftHandler{svc: svc}
}

type dateRangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type memberRequest struct {
	UserID uuid.UUID `json:"userId"`
}

// GET /care-shifts/templates
func (h *ShiftHandler) ListTemplates(c *gin.Context) {
	rows, err := h.svc.ListTemplates(dbc(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"templates": rows})
}

// PATCH /care-shifts/templates/:id
func (h *ShiftHandler) ConfigureTemplate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.TemplateConfigInput
	if !bindJSON(c, &req) {
		return
	}
	tpl, err := h.svc.ConfigureTemplate(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, tpl)
}

// GET /care-shifts/teams?activeOnly=
func (h *ShiftHandler) ListTeams(c *gin.Context) {
	rows, err := h.svc.ListTeams(dbc(c), queryBool(c, "activeOnly"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"teams": rows})
}

// POST /care-shifts/teams
func (h *ShiftHandler) CreateTeam(c *gin.Context) {
	var req services.TeamInput
	if !bindJSON(c, &req) {
		return
	}
	team, err := h.svc.CreateTeam(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, team)
}

// GET /care-shifts/teams/:id
func (h *ShiftHandler) GetTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	team, err := h.svc.GetTeam(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, team)
}

// PATCH /care-shifts/teams/:id
func (h *ShiftHandler) UpdateTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.TeamPatch
	if !bindJSON(c, &req) {
		return
	}
	team, err := h.svc.UpdateTeam(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, team)
}

// DELETE /care-shifts/teams/:id
func (h *ShiftHandler) DeleteTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteTeam(dbc(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /care-shifts/teams/:id/members
func (h *ShiftHandler) AddTeamMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.TeamMemberInput
	if !bindJSON(c, &req) {
		return
	}
	team, err := h.svc.AddTeamMember(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, team)
}

// DELETE /care-shifts/teams/:id/members/:userId
func (h *ShiftHandler) RemoveTeamMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if err := h.svc.RemoveTeamMember(dbc(c), id, userID); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /care-shifts/weekly-pattern
func (h *ShiftHandler) GetWeeklyPattern(c *gin.Context) {
	rows, err := h.svc.GetWeeklyPattern(dbc(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignments": rows})
}

// PUT /care-shifts/weekly-pattern replaces the whole pattern.
func (h *ShiftHandler) SetWeeklyPattern(c *gin.Context) {
	var req struct {
		Assignments []services.PatternInput `json:"assignments"`
	}
	if !bindJSON(c, &req) {
		return
	}
	rows, err := h.svc.SetWeeklyPattern(dbc(c), req.Assignments)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignments": rows})
}

// POST /care-shifts/generate
func (h *ShiftHandler) Generate(c *gin.Context) {
	var req dateRangeRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.GenerateShifts(dbc(c), req.StartDate, req.EndDate)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /care-shifts?startDate=&endDate=
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	rows, err := h.svc.ListShifts(dbc(c), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"shifts": rows})
}

// GET /care-shifts/:id
func (h *ShiftHandler) GetShift(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sh, err := h.svc.GetShift(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, sh)
}

// PATCH /care-shifts/:id
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.ShiftPatch
	if !bindJSON(c, &req) {
		return
	}
	sh, err := h.svc.UpdateShift(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, sh)
}

// POST /care-shifts/:id/members
func (h *ShiftHandler) AssignMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req memberRequest
	if !bindJSON(c, &req) {
		return
	}
	sh, err := h.svc.AssignMember(dbc(c), id, req.UserID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, sh)
}

// DELETE /care-shifts/:id/members/:userId
func (h *ShiftHandler) RemoveMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	sh, err := h.svc.RemoveMember(dbc(c), id, userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, sh)
}

// GET /care-shifts/rdc-calculation?date=YYYY-MM-DD
func (h *ShiftHandler) RdcCalculation(c *gin.Context) {
	res, err := h.svc.CalculateStaffing(dbc(c), c.Query("date"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /care-shifts/coverage-report?startDate=&endDate=
func (h *ShiftHandler) CoverageReport(c *gin.Context) {
	rep, err := h.svc.CoverageReport(dbc(c), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rep)
}
