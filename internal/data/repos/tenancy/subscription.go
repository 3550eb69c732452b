package tenancy

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type SubscriptionRepo interface {
	Create(dbc dbctx.Context, subs []*types.Subscription) ([]*types.Subscription, error)
	GetByTenantID(dbc dbctx.Context, tenantID uuid.UUID) (*types.Subscription, error)
	UpdateFields(dbc dbctx.Context, tenantID uuid.UUID, updates map[string]any) error
	CountByStatus(dbc dbctx.Context) (map[string]int64, error)
	SumActivePriceCents(dbc dbctx.Context) (int64, error)
	ListByStatus(dbc dbctx.Context, status string) ([]*types.Subscription, error)
	ListTrialsEndingBetween(dbc dbctx.Context, from, to time.Time) ([]*types.Subscription, error)
	ExpireTrials(dbc dbctx.Context, now time.Time) (int64, error)
}

type subscriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionRepo {
	repoLog := baseLog.With("repo", "SubscriptionRepo")
	return &subscriptionRepo{db: db, log: repoLog}
}

func (r *subscriptionRepo) Create(dbc dbctx.Context, subs []*types.Subscription) ([]*types.Subscription, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(subs) == 0 {
		return []*types.Subscription{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepo) GetByTenantID(dbc dbctx.Context, tenantID uuid.UUID) (*types.Subscription, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var s types.Subscription
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ?", tenantID).
		Limit(1).
		Find(&s).Error; err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, nil
	}
	return &s, nil
}

func (r *subscriptionRepo) UpdateFields(dbc dbctx.Context, tenantID uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Subscription{}).
		Where("tenant_id = ?", tenantID).
		Updates(updates).Error
}

func (r *subscriptionRepo) CountByStatus(dbc dbctx.Context) (map[string]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []struct {
		Status string
		N      int64
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Subscription{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *subscriptionRepo) SumActivePriceCents(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Subscription{}).
		Where("status = ?", tenancy.SubscriptionActive).
		Select("COALESCE(SUM(price_cents), 0)").
		Scan(&total).Error
	return total, err
}

func (r *subscriptionRepo) ListByStatus(dbc dbctx.Context, status string) ([]*types.Subscription, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Subscription
	if err := transaction.WithContext(dbc.Ctx).
		Where("status = ?", status).
		Order("updated_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *subscriptionRepo) ListTrialsEndingBetween(dbc dbctx.Context, from, to time.Time) ([]*types.Subscription, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Subscription
	if err := transaction.WithContext(dbc.Ctx).
		Where("status = ? AND trial_ends_at >= ? AND trial_ends_at <= ?", tenancy.SubscriptionTrialing, from, to).
		Order("trial_ends_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireTrials moves every trial that ended before now to PAST_DUE.
func (r *subscriptionRepo) ExpireTrials(dbc dbctx.Context, now time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Subscription{}).
		Where("status = ? AND trial_ends_at < ?", tenancy.SubscriptionTrialing, now).
		Updates(map[string]any{"status": tenancy.SubscriptionPastDue, "updated_at": now})
	return res.RowsAffected, res.Error
}
