package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

type APIError struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type PageEnvelope struct {
	Data any         `json:"data"`
	Meta paging.Meta `json:"meta"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondErr maps service errors to a status code. Unknown errors become 500 without leaking details.
func RespondErr(c *gin.Context, err error) {
	ae, ok := apierr.As(err)
	if !ok {
		_ = c.Error(err)
		RespondError(c, http.StatusInternalServerError, "internal_error", fmt.Errorf("internal server error"))
		return
	}
	msg := "unknown error"
	if ae.Err != nil {
		msg = ae.Err.Error()
	}
	c.AbortWithStatusJSON(ae.Status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    ae.Code,
			Fields:  ae.Fields,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func RespondPage(c *gin.Context, rows any, meta paging.Meta) {
	c.JSON(http.StatusOK, PageEnvelope{Data: rows, Meta: meta})
}

// RespondFile sends data as a download named filename.
func RespondFile(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, data)
}
