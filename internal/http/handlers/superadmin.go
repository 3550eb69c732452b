package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type SuperadminHandler struct {
	tenants services.TenantService
}

func NewSuperadminHandler(tenants services.TenantService) *SuperadminHandler {
	return &SuperadminHandler{tenants: tenants}
}

// POST /superadmin/tenants creates the tenant, its trial subscription and first admin.
func (h *SuperadminHandler) CreateTenant(c *gin.Context) {
	var req services.CreateTenantInput
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.tenants.CreateTenant(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, out)
}

// GET /superadmin/tenants?status=&search=&page=&limit=
func (h *SuperadminHandler) ListTenants(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	rows, meta, err := h.tenants.ListTenants(dbc(c), c.Query("status"), c.Query("search"), page)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, rows, meta)
}

// GET /superadmin/tenants/:id
func (h *SuperadminHandler) GetTenant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.tenants.GetTenant(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, t)
}

// POST /superadmin/tenants/:id/suspend
func (h *SuperadminHandler) Suspend(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.tenants.SuspendTenant(dbc(c), id, req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, t)
}

// POST /superadmin/tenants/:id/reactivate
func (h *SuperadminHandler) Reactivate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.tenants.ReactivateTenant(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, t)
}

// PUT /superadmin/tenants/:id/plan
func (h *SuperadminHandler) ChangePlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Plan string `json:"plan"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.tenants.ChangePlan(dbc(c), id, req.Plan)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, sub)
}

// POST /superadmin/tenants/:id/cancel
func (h *SuperadminHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.tenants.CancelSubscription(dbc(c), id, req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, sub)
}

// GET /superadmin/metrics
func (h *SuperadminHandler) Metrics(c *gin.Context) {
	m, err := h.tenants.Metrics(dbc(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, m)
}

// GET /superadmin/alerts
func (h *SuperadminHandler) Alerts(c *gin.Context) {
	alerts, err := h.tenants.Alerts(dbc(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"alerts": alerts})
}
