package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

// ClinicalHandler serves allergies, conditions and dietary restrictions, which share one shape.
type ClinicalHandler struct {
	allergies    services.AllergyService
	conditions   services.ConditionService
	restrictions services.DietaryRestrictionService
}

func NewClinicalHandler(allergies services.AllergyService, conditions services.ConditionService, restrictions services.DietaryRestrictionService) *ClinicalHandler {
	return &ClinicalHandler{allergies: allergies, conditions: conditions, restrictions: restrictions}
}

func requiredResident(c *gin.Context) (uuid.UUID, bool) {
	residentID, ok := queryID(c, "residentId")
	if !ok {
		return uuid.Nil, false
	}
	if residentID == uuid.Nil {
		response.RespondErr(c, apierr.Field("residentId", "is required"))
		return residentID, false
	}
	return residentID, true
}

// GET /allergies?residentId=
func (h *ClinicalHandler) ListAllergies(c *gin.Context) {
	residentID, ok := requiredResident(c)
	if !ok {
		return
	}
	rows, err := h.allergies.ListByResident(dbc(c), residentID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"allergies": rows})
}

// POST /allergies
func (h *ClinicalHandler) CreateAllergy(c *gin.Context) {
	var req services.AllergyInput
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.allergies.Create(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, row)
}

// GET /allergies/:id
func (h *ClinicalHandler) GetAllergy(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, err := h.allergies.Get(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, row)
}

// PATCH /allergies/:id
func (h *ClinicalHandler) UpdateAllergy(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.AllergyPatch
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.allergies.Update(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, row)
}

// GET /conditions?residentId=
func (h *ClinicalHandler) ListConditions(c *gin.Context) {
	residentID, ok := requiredResident(c)
	if !ok {
		return
	}
	rows, err := h.conditions.ListByResident(dbc(c), residentID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conditions": rows})
}

// POST /conditions
func (h *ClinicalHandler) CreateCondition(c *gin.Context) {
	var req services.ConditionInput
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.conditions.Create(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, row)
}

// GET /conditions/:id
func (h *ClinicalHandler) GetCondition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, err := h.conditions.Get(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, row)
}

// PATCH /conditions/:id
func (h *ClinicalHandler) UpdateCondition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.ConditionPatch
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.conditions.Update(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, row)
}

// GET /dietary-restrictions?residentId=
func (h *ClinicalHandler) ListRestrictions(c *gin.Context) {
	residentID, ok := requiredResident(c)
	if !ok {
		return
	}
	rows, err := h.restrictions.ListByResident(dbc(c), residentID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"dietary_restrictions": rows})
}

// POST /dietary-restrictions
func (h *ClinicalHandler) CreateRestriction(c *gin.Context) {
	var req services.DietaryRestrictionInput
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.restrictions.Create(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, row)
}

// GET /dietary-restrictions/:id
func (h *ClinicalHandler) GetRestriction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, err := h.restrictions.Get(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, row)
}

// PATCH /dietary-restrictions/:id
func (h *ClinicalHandler) UpdateRestriction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.DietaryRestrictionPatch
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.restrictions.Update(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, row)
}

func (h *ClinicalHandler) DeleteAllergy() gin.HandlerFunc      { return deleteHandler(h.allergies.Delete) }
func (h *ClinicalHandler) AllergyHistory() gin.HandlerFunc     { return historyHandler(h.allergies) }
func (h *ClinicalHandler) AllergyVersion() gin.HandlerFunc     { return historyVersionHandler(h.allergies) }
func (h *ClinicalHandler) DeleteCondition() gin.HandlerFunc    { return deleteHandler(h.conditions.Delete) }
func (h *ClinicalHandler) ConditionHistory() gin.HandlerFunc   { return historyHandler(h.conditions) }
func (h *ClinicalHandler) ConditionVersion() gin.HandlerFunc   { return historyVersionHandler(h.conditions) }
func (h *ClinicalHandler) DeleteRestriction() gin.HandlerFunc  { return deleteHandler(h.restrictions.Delete) }
func (h *ClinicalHandler) RestrictionHistory() gin.HandlerFunc { return historyHandler(h.restrictions) }
func (h *ClinicalHandler) RestrictionVersion() gin.HandlerFunc { return historyVersionHandler(h.restrictions) }
