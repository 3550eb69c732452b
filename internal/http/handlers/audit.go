package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/audit"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type AuditHandler struct {
	svc services.AuditService
}

func NewAuditHandler(svc services.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.RespondErr(c, apierr.Field(name, "must be an RFC 3339 timestamp"))
		return nil, false
	}
	return &t, true
}

// GET /audit-logs?userId=&action=&resource=&from=&to=&page=&limit=
// Superadmins may add tenantId; it is ignored for tenant administrators.
func (h *AuditHandler) List(c *gin.Context) {
	userID, ok := queryID(c, "userId")
	if !ok {
		return
	}
	tenantID, ok := queryID(c, "tenantId")
	if !ok {
		return
	}
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	page, ok := queryPage(c)
	if !ok {
		return
	}
	var scope *uuid.UUID
	if tenantID != uuid.Nil {
		scope = &tenantID
	}
	rows, meta, err := h.svc.List(dbc(c), scope, auditRepo.AuditLogFilter{
		UserID:   userID,
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
		From:     from,
		To:       to,
		Page:     page,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, rows, meta)
}
