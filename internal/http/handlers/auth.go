package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	pair, err := ah.authService.Login(dbc(c), req.Email, req.Password)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, pair)
}

// POST /auth/refresh
// body: { "refreshToken": "..." }
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !bindJSON(c, &req) {
		return
	}
	pair, err := ah.authService.Refresh(dbc(c), req.RefreshToken)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, pair)
}

// POST /auth/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(dbc(c)); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
