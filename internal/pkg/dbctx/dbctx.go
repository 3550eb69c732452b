package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Resolve returns the transaction when set, the fallback db otherwise.
func (c Context) Resolve(fallback *gorm.DB) *gorm.DB {
	if c.Tx != nil {
		return c.Tx.WithContext(c.context())
	}
	return fallback.WithContext(c.context())
}

func (c Context) context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}
