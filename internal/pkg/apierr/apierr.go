package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	pkgerrors "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
	// Fields holds per-field validation messages.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(what string) *Error {
	return New(http.StatusNotFound, "not_found", fmt.Errorf("%s: %w", what, pkgerrors.ErrNotFound))
}

func Conflict(code string, msg string) *Error {
	return New(http.StatusConflict, code, fmt.Errorf("%s: %w", msg, pkgerrors.ErrConflict))
}

// Rule reports a violated business rule as 422.
func Rule(code string, msg string) *Error {
	return New(http.StatusUnprocessableEntity, code, fmt.Errorf("%s: %w", msg, pkgerrors.ErrBusinessRule))
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, "forbidden", fmt.Errorf("%s: %w", msg, pkgerrors.ErrForbidden))
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, "unauthorized", fmt.Errorf("%s: %w", msg, pkgerrors.ErrUnauthorized))
}

// Validation builds a 400 error carrying field-level messages.
func Validation(fields map[string]string) *Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return &Error{
		Status: http.StatusBadRequest,
		Code:   "validation_failed",
		Err:    fmt.Errorf("%s: %w", strings.Join(parts, "; "), pkgerrors.ErrInvalidArgument),
		Fields: fields,
	}
}

// Field is shorthand for a single-field validation error.
func Field(name, msg string) *Error {
	return Validation(map[string]string{name: msg})
}

// As extracts an *Error from err, falling back to sentinel mapping.
func As(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err), true
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		return New(http.StatusUnauthorized, "unauthorized", err), true
	case errors.Is(err, pkgerrors.ErrForbidden):
		return New(http.StatusForbidden, "forbidden", err), true
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_argument", err), true
	case errors.Is(err, pkgerrors.ErrConflict):
		return New(http.StatusConflict, "conflict", err), true
	case errors.Is(err, pkgerrors.ErrBusinessRule):
		return New(http.StatusUnprocessableEntity, "business_rule", err), true
	}
	return nil, false
}
