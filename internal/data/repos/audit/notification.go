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

type NotificationFilter struct {
	UnreadOnly bool
	paging.Page
}

type NotificationRepo interface {
	Create(dbc dbctx.Context, n *types.Notification) error
	// ListForUser returns notifications addressed to the user or to the whole tenant.
	ListForUser(dbc dbctx.Context, tenantID, userID uuid.UUID, f NotificationFilter) ([]*types.Notification, int64, error)
	CountUnread(dbc dbctx.Context, tenantID, userID uuid.UUID) (int64, error)
	MarkRead(dbc dbctx.Context, tenantID, userID, id uuid.UUID, at time.Time) (bool, error)
	MarkAllRead(dbc dbctx.Context, tenantID, userID uuid.UUID, at time.Time) (int64, error)
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) Create(dbc dbctx.Context, n *types.Notification) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(n).Error
}

func (r *notificationRepo) visible(q *gorm.DB, tenantID, userID uuid.UUID) *gorm.DB {
	return q.Where("tenant_id = ? AND (user_id IS NULL OR user_id = ?)", tenantID, userID)
}

func (r *notificationRepo) ListForUser(dbc dbctx.Context, tenantID, userID uuid.UUID, f NotificationFilter) ([]*types.Notification, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := r.visible(transaction.WithContext(dbc.Ctx).Model(&types.Notification{}), tenantID, userID)
	if f.UnreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*types.Notification
	if err := f.Page.Apply(q.Order("created_at DESC")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *notificationRepo) CountUnread(dbc dbctx.Context, tenantID, userID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := r.visible(transaction.WithContext(dbc.Ctx).Model(&types.Notification{}), tenantID, userID).
		Where("read_at IS NULL").
		Count(&n).Error
	return n, err
}

func (r *notificationRepo) MarkRead(dbc dbctx.Context, tenantID, userID, id uuid.UUID, at time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := r.visible(transaction.WithContext(dbc.Ctx).Model(&types.Notification{}), tenantID, userID).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at)
	return res.RowsAffected > 0, res.Error
}

func (r *notificationRepo) MarkAllRead(dbc dbctx.Context, tenantID, userID uuid.UUID, at time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := r.visible(transaction.WithContext(dbc.Ctx).Model(&types.Notification{}), tenantID, userID).
		Where("read_at IS NULL").
		Update("read_at", at)
	return res.RowsAffected, res.Error
}
