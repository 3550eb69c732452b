package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(dbc(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, me)
}

// GET /users?activeOnly=true
func (uh *UserHandler) ListUsers(c *gin.Context) {
	rows, err := uh.userService.ListUsers(dbc(c), queryBool(c, "activeOnly"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"users": rows})
}

// POST /users
func (uh *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := uh.userService.CreateUser(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, u)
}

// GET /users/:id
func (uh *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := uh.userService.GetUser(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, u)
}

// PATCH /users/:id
func (uh *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateUserInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := uh.userService.UpdateUser(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, u)
}

// DELETE /users/:id deactivates; users are never hard-deleted.
func (uh *UserHandler) DeactivateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := uh.userService.DeactivateUser(dbc(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /users/:id/permissions
func (uh *UserHandler) GetPermissions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	perms, err := uh.userService.GetPermissions(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"permissions": perms})
}

// PUT /users/:id/permissions
// body: { "overrides": { "financial.read": true, "pops.write": false } }
func (uh *UserHandler) SetPermissions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Overrides map[string]bool `json:"overrides"`
	}
	if !bindJSON(c, &req) {
		return
	}
	perms, err := uh.userService.SetPermissions(dbc(c), id, req.Overrides)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"permissions": perms})
}
