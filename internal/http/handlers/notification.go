package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type NotificationHandler struct {
	svc services.NotificationService
}

func NewNotificationHandler(svc services.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// GET /notifications?unreadOnly=true&page=1&limit=20
func (h *NotificationHandler) List(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	rows, meta, err := h.svc.List(dbc(c), queryBool(c, "unreadOnly"), page)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, rows, meta)
}

// GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(dbc(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"count": n})
}

// PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.MarkRead(dbc(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.svc.MarkAllRead(dbc(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": n})
}
