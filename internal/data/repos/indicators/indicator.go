package indicators

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type IndicatorRepo interface {
	// Upsert writes one row per (tenant, year, month, type), replacing previous values.
	Upsert(dbc dbctx.Context, rows []*types.RdcIndicator) error
	ListByMonth(dbc dbctx.Context, tenantID uuid.UUID, year, month int) ([]*types.RdcIndicator, error)
	// ListSince returns rows from (year, month) onwards, oldest first.
	ListSince(dbc dbctx.Context, tenantID uuid.UUID, year, month int) ([]*types.RdcIndicator, error)
	ListByYear(dbc dbctx.Context, tenantID uuid.UUID, year int) ([]*types.RdcIndicator, error)

	GetClosure(dbc dbctx.Context, tenantID uuid.UUID, year, month int) (*types.RdcMonthClosure, error)
	SaveClosure(dbc dbctx.Context, c *types.RdcMonthClosure) error
	ListClosures(dbc dbctx.Context, tenantID uuid.UUID, year int) ([]*types.RdcMonthClosure, error)
}

type indicatorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIndicatorRepo(db *gorm.DB, baseLog *logger.Logger) IndicatorRepo {
	return &indicatorRepo{db: db, log: baseLog.With("repo", "RdcIndicatorRepo")}
}

func (r *indicatorRepo) Upsert(dbc dbctx.Context, rows []*types.RdcIndicator) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "year"}, {Name: "month"}, {Name: "indicator_type"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"numerator", "denominator", "rate", "incident_ids", "calculated_at", "calculated_by", "updated_at",
			}),
		}).
		Create(&rows).Error
}

func (r *indicatorRepo) ListByMonth(dbc dbctx.Context, tenantID uuid.UUID, year, month int) ([]*types.RdcIndicator, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.RdcIndicator
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND year = ? AND month = ?", tenantID, year, month).
		Order("indicator_type ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *indicatorRepo) ListSince(dbc dbctx.Context, tenantID uuid.UUID, year, month int) ([]*types.RdcIndicator, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.RdcIndicator
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND (year > ? OR (year = ? AND month >= ?))", tenantID, year, year, month).
		Order("year ASC, month ASC, indicator_type ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *indicatorRepo) ListByYear(dbc dbctx.Context, tenantID uuid.UUID, year int) ([]*types.RdcIndicator, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.RdcIndicator
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND year = ?", tenantID, year).
		Order("month ASC, indicator_type ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *indicatorRepo) GetClosure(dbc dbctx.Context, tenantID uuid.UUID, year, month int) (*types.RdcMonthClosure, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.RdcMonthClosure
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND year = ? AND month = ?", tenantID, year, month).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

// SaveClosure inserts c or, when it already has an ID, updates it in full.
func (r *indicatorRepo) SaveClosure(dbc dbctx.Context, c *types.RdcMonthClosure) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if c.ID == uuid.Nil {
		return transaction.WithContext(dbc.Ctx).Create(c).Error
	}
	return transaction.WithContext(dbc.Ctx).Save(c).Error
}

func (r *indicatorRepo) ListClosures(dbc dbctx.Context, tenantID uuid.UUID, year int) ([]*types.RdcMonthClosure, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.RdcMonthClosure
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND year = ?", tenantID, year).
		Order("month ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
