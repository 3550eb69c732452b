package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/ctxutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
	permissions services.PermissionService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, permissions services.PermissionService) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService, permissions: permissions}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			response.RespondErr(c, apierr.Unauthorized("missing or invalid token"))
			return
		}
		rd, err := am.authService.SetContextFromToken(dbctx.Context{Ctx: c.Request.Context()}, tokenString)
		if err != nil {
			am.log.Debug("token rejected", "path", c.Request.URL.Path, "error", err)
			response.RespondErr(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

// RequirePermission aborts with 403 unless the principal holds perm.
func (am *AuthMiddleware) RequirePermission(perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := am.permissions.Require(dbctx.Context{Ctx: c.Request.Context()}, perm); err != nil {
			response.RespondErr(c, err)
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil {
			response.RespondErr(c, apierr.Unauthorized("not authenticated"))
			return
		}
		for _, r := range roles {
			if rd.Role == r {
				c.Next()
				return
			}
		}
		response.RespondErr(c, apierr.Forbidden("role not allowed"))
	}
}

// extractTokenFromAll accepts ?token= for EventSource clients, which cannot set headers.
func extractTokenFromAll(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return c.Query("token")
}
