package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/ctxutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/versioning"
)

var nonDigits = regexp.MustCompile(`\D`)

func digitsOnly(s string) string { return nonDigits.ReplaceAllString(s, "") }

func requestData(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("request data not set in context")
	}
	return rd, nil
}

// tenantScope returns the caller's request data, rejecting principals without a tenant.
func tenantScope(ctx context.Context) (*ctxutil.RequestData, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if rd.TenantID == uuid.Nil {
		return nil, apierr.Forbidden("operation requires a tenant user")
	}
	return rd, nil
}

func actorOf(rd *ctxutil.RequestData) versioning.Actor {
	return versioning.Actor{ID: rd.UserID, Name: rd.UserName}
}

// inTx runs fn inside the caller's transaction, or a new one when there is none.
func inTx(dbc dbctx.Context, db *gorm.DB, fn func(inner dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return db.WithContext(ctxutil.Default(dbc.Ctx)).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
	})
}

type fieldErrors map[string]string

func (f fieldErrors) required(name, v string) {
	if strings.TrimSpace(v) == "" {
		f[name] = "is required"
	}
}

func (f fieldErrors) date(name, v string) {
	if !dates.Valid(v) {
		f[name] = "must be a date in YYYY-MM-DD format"
	}
}

func (f fieldErrors) optionalDate(name string, v *string) {
	if v != nil && *v != "" {
		f.date(name, *v)
	}
}

func (f fieldErrors) time(name, v string) {
	if !dates.ValidTime(v) {
		f[name] = "must be a time in HH:MM format"
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apierr.Validation(f)
}

// emptyToNil treats "" as an absent optional date.
func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func nowFunc(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
