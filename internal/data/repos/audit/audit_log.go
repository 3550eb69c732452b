package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

type AuditLogFilter struct {
	UserID   uuid.UUID
	Action   string
	Resource string
	From     *time.Time
	To       *time.Time
	paging.Page
}

type AuditLogRepo interface {
	Create(dbc dbctx.Context, entry *types.AuditLog) error
	// List scopes to tenantID unless it is nil, which lists across tenants.
	List(dbc dbctx.Context, tenantID *uuid.UUID, f AuditLogFilter) ([]*types.AuditLog, int64, error)
	DeleteBefore(dbc dbctx.Context, before time.Time) (int64, error)
}

type auditLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditLogRepo(db *gorm.DB, baseLog *logger.Logger) AuditLogRepo {
	return &auditLogRepo{db: db, log: baseLog.With("repo", "AuditLogRepo")}
}

func (r *auditLogRepo) Create(dbc dbctx.Context, entry *types.AuditLog) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(entry).Error
}

func (r *auditLogRepo) List(dbc dbctx.Context, tenantID *uuid.UUID, f AuditLogFilter) ([]*types.AuditLog, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.AuditLog{})
	if tenantID != nil {
		q = q.Where("tenant_id = ?", *tenantID)
	}
	if f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Resource != "" {
		q = q.Where("resource = ?", f.Resource)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*types.AuditLog
	if err := f.Page.Apply(q.Order("created_at DESC")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *auditLogRepo) DeleteBefore(dbc dbctx.Context, before time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).Where("created_at < ?", before).Delete(&types.AuditLog{})
	return res.RowsAffected, res.Error
}
