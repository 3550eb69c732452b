package handlers

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/ctxutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub

	mu      sync.Mutex
	clients map[uuid.UUID]*realtime.SSEClient // key: SessionID (UserToken.ID)
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		log:     log.With("handler", "RealtimeHandler"),
		hub:     hub,
		clients: make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// GET /notifications/stream
// Clients are subscribed to their user channel and, for tenant users, the tenant channel.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondErr(c, apierr.Unauthorized("not authenticated"))
		return
	}
	if rd.SessionID == uuid.Nil {
		response.RespondErr(c, apierr.Unauthorized("missing session id"))
		return
	}

	h.mu.Lock()
	// A reconnect from the same session replaces the previous stream.
	if existing, ok := h.clients[rd.SessionID]; ok {
		h.hub.CloseClient(existing)
		delete(h.clients, rd.SessionID)
	}
	client := h.hub.NewSSEClient(rd.UserID, rd.TenantID)
	h.clients[rd.SessionID] = client
	h.mu.Unlock()

	h.hub.AddChannel(client, realtime.UserChannel(rd.UserID))
	if rd.TenantID != uuid.Nil {
		h.hub.AddChannel(client, realtime.TenantChannel(rd.TenantID))
	}
	h.log.Info("SSE stream open", "user_id", rd.UserID, "tenant_id", rd.TenantID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.mu.Lock()
	if h.clients[rd.SessionID] == client {
		delete(h.clients, rd.SessionID)
	}
	h.mu.Unlock()
	h.hub.CloseClient(client)
}
