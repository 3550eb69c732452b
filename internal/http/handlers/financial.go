package handlers

import (
	"github.com/gin-gonic/gin"

	financialRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/financial"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type FinancialHandler struct {
	svc services.FinancialService
}

func NewFinancialHandler(svc services.FinancialService) *FinancialHandler {
	return &FinancialHandler{svc: svc}
}

// GET /financial/accounts?activeOnly=
func (h *FinancialHandler) ListAccounts(c *gin.Context) {
	rows, err := h.svc.ListAccounts(dbc(c), queryBool(c, "activeOnly"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"accounts": rows})
}

// POST /financial/accounts
func (h *FinancialHandler) CreateAccount(c *gin.Context) {
	var req services.AccountInput
	if !bindJSON(c, &req) {
		return
	}
	acc, err := h.svc.CreateAccount(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, acc)
}

// GET /financial/accounts/:id
func (h *FinancialHandler) GetAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	acc, err := h.svc.GetAccount(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, acc)
}

// PATCH /financial/accounts/:id
func (h *FinancialHandler) UpdateAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.AccountPatch
	if !bindJSON(c, &req) {
		return
	}
	acc, err := h.svc.UpdateAccount(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, acc)
}

// DELETE /financial/accounts/:id deactivates the account.
func (h *FinancialHandler) DeactivateAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateAccount(dbc(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}

func transactionFilter(c *gin.Context) (financialRepo.TransactionFilter, bool) {
	accountID, ok := queryID(c, "accountId")
	if !ok {
		return financialRepo.TransactionFilter{}, false
	}
	residentID, ok := queryID(c, "residentId")
	if !ok {
		return financialRepo.TransactionFilter{}, false
	}
	page, ok := queryPage(c)
	if !ok {
		return financialRepo.TransactionFilter{}, false
	}
	return financialRepo.TransactionFilter{
		AccountID:  accountID,
		ResidentID: residentID,
		Type:       c.Query("type"),
		Status:     c.Query("status"),
		DueFrom:    c.Query("dueFrom"),
		DueTo:      c.Query("dueTo"),
		Page:       page,
	}, true
}

// GET /financial/transactions?accountId=&residentId=&type=&status=&dueFrom=&dueTo=&page=&limit=
func (h *FinancialHandler) ListTransactions(c *gin.Context) {
	f, ok := transactionFilter(c)
	if !ok {
		return
	}
	rows, meta, err := h.svc.ListTransactions(dbc(c), f)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, rows, meta)
}

// GET /financial/transactions/export takes the list filters and ignores paging.
func (h *FinancialHandler) ExportTransactions(c *gin.Context) {
	f, ok := transactionFilter(c)
	if !ok {
		return
	}
	data, name, err := h.svc.ExportTransactions(dbc(c), f)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondFile(c, xlsxContentType, name, data)
}

// POST /financial/transactions
func (h *FinancialHandler) CreateTransaction(c *gin.Context) {
	var req services.TransactionInput
	if !bindJSON(c, &req) {
		return
	}
	tx, err := h.svc.CreateTransaction(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, tx)
}

// GET /financial/transactions/:id
func (h *FinancialHandler) GetTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tx, err := h.svc.GetTransaction(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, tx)
}

// POST /financial/transactions/:id/pay with an optional {"paidAt": "YYYY-MM-DD"}.
func (h *FinancialHandler) MarkPaid(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		PaidAt string `json:"paidAt"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	tx, err := h.svc.MarkPaid(dbc(c), id, req.PaidAt)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, tx)
}

// POST /financial/transactions/:id/cancel
func (h *FinancialHandler) CancelTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tx, err := h.svc.CancelTransaction(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, tx)
}

// GET /financial/transactions/overdue
func (h *FinancialHandler) ListOverdue(c *gin.Context) {
	rows, err := h.svc.ListOverdue(dbc(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"transactions": rows})
}

// GET /financial/transactions/unreconciled?accountId=&from=&to=
func (h *FinancialHandler) Unreconciled(c *gin.Context) {
	accountID, ok := queryID(c, "accountId")
	if !ok {
		return
	}
	rows, err := h.svc.UnreconciledPaid(dbc(c), accountID, c.Query("from"), c.Query("to"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"transactions": rows})
}

// GET /financial/reconciliations?accountId=
func (h *FinancialHandler) ListReconciliations(c *gin.Context) {
	accountID, ok := queryID(c, "accountId")
	if !ok {
		return
	}
	rows, err := h.svc.ListReconciliations(dbc(c), accountID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reconciliations": rows})
}

// POST /financial/reconciliations
func (h *FinancialHandler) CreateReconciliation(c *gin.Context) {
	var req services.ReconciliationInput
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.svc.CreateReconciliation(dbc(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, rec)
}

// GET /financial/reconciliations/:id
func (h *FinancialHandler) GetReconciliation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.svc.GetReconciliation(dbc(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rec)
}
