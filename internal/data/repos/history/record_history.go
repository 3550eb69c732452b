package history

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type RecordHistoryRepo interface {
	Create(dbc dbctx.Context, rows []*types.RecordHistory) ([]*types.RecordHistory, error)
	ListByEntity(dbc dbctx.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) ([]*types.RecordHistory, error)
	GetVersion(dbc dbctx.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID, version int) (*types.RecordHistory, error)
	CountByEntity(dbc dbctx.Context, entityType string, entityID uuid.UUID) (int64, error)
}

type recordHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecordHistoryRepo(db *gorm.DB, baseLog *logger.Logger) RecordHistoryRepo {
	return &recordHistoryRepo{db: db, log: baseLog.With("repo", "RecordHistoryRepo")}
}

func (r *recordHistoryRepo) Create(dbc dbctx.Context, rows []*types.RecordHistory) ([]*types.RecordHistory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.RecordHistory{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *recordHistoryRepo) ListByEntity(dbc dbctx.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) ([]*types.RecordHistory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.RecordHistory
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		Order("version_number DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recordHistoryRepo) GetVersion(dbc dbctx.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID, version int) (*types.RecordHistory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.RecordHistory
	err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ? AND version_number = ?", tenantID, entityType, entityID, version).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *recordHistoryRepo) CountByEntity(dbc dbctx.Context, entityType string, entityID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.RecordHistory{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Count(&n).Error
	return n, err
}
