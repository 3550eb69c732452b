package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/ctxutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

// AuditLog records every authenticated mutating request after it completes.
func AuditLog(audit services.AuditService) gin.HandlerFunc {
	if audit == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return
		}
		ctx := c.Request.Context()
		if ctxutil.GetRequestData(ctx) == nil {
			return
		}
		// Record failures are logged by the service and never fail the request.
		_ = audit.Record(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, services.AuditEntry{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			Route:      c.FullPath(),
			StatusCode: c.Writer.Status(),
			IP:         c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Duration:   time.Since(start),
			ResourceID: c.Param("id"),
		})
	}
}
