package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/response"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type deleteRequest struct {
	DeleteReason string `json:"deleteReason"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func dbc(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

// bindJSON decodes the body and writes a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondErr(c, apierr.Field(name, "must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid query parameter; empty yields uuid.Nil.
func queryID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondErr(c, apierr.Field(name, "must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		response.RespondErr(c, apierr.Field(name, "must be an integer"))
		return 0, false
	}
	return n, true
}

func queryBool(c *gin.Context, name string) bool {
	b, _ := strconv.ParseBool(c.Query(name))
	return b
}

func queryPage(c *gin.Context) (paging.Page, bool) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return paging.Page{}, false
	}
	limit, ok := queryInt(c, "limit", paging.DefaultLimit)
	if !ok {
		return paging.Page{}, false
	}
	return paging.Page{Page: page, Limit: limit}.Normalize(), true
}

// versioned is the read side shared by every entity with a change history.
type versioned interface {
	History(dbc dbctx.Context, id uuid.UUID) ([]*types.RecordHistory, error)
	HistoryVersion(dbc dbctx.Context, id uuid.UUID, version int) (*types.RecordHistory, error)
}

func historyHandler(svc versioned) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		rows, err := svc.History(dbc(c), id)
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		response.RespondOK(c, gin.H{"history": rows})
	}
}

func historyVersionHandler(svc versioned) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		version, err := strconv.Atoi(c.Param("version"))
		if err != nil || version < 1 {
			response.RespondErr(c, apierr.Field("version", "must be a positive integer"))
			return
		}
		row, err := svc.HistoryVersion(dbc(c), id, version)
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		response.RespondOK(c, row)
	}
}

// deleteHandler reads {"deleteReason": "..."} and calls del.
func deleteHandler(del func(dbctx.Context, uuid.UUID, string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req deleteRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := del(dbc(c), id, req.DeleteReason); err != nil {
			response.RespondErr(c, err)
			return
		}
		response.RespondNoContent(c)
	}
}
