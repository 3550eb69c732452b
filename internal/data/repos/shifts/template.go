package shifts

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type ShiftTemplateRepo interface {
	// Upsert inserts templates keyed by type, refreshing their definition when they exist.
	Upsert(dbc dbctx.Context, templates []*types.ShiftTemplate) error
	ListActive(dbc dbctx.Context) ([]*types.ShiftTemplate, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ShiftTemplate, error)
	ListConfigs(dbc dbctx.Context, tenantID uuid.UUID) ([]*types.TenantShiftConfig, error)
	UpsertConfig(dbc dbctx.Context, cfg *types.TenantShiftConfig) error
}

type shiftTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShiftTemplateRepo(db *gorm.DB, baseLog *logger.Logger) ShiftTemplateRepo {
	return &shiftTemplateRepo{db: db, log: baseLog.With("repo", "ShiftTemplateRepo")}
}

func (r *shiftTemplateRepo) Upsert(dbc dbctx.Context, templates []*types.ShiftTemplate) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(templates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "start_time", "end_time", "duration_hours", "description", "display_order", "updated_at",
			}),
		}).
		Create(&templates).Error
}

func (r *shiftTemplateRepo) ListActive(dbc dbctx.Context) ([]*types.ShiftTemplate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ShiftTemplate
	if err := transaction.WithContext(dbc.Ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *shiftTemplateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ShiftTemplate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.ShiftTemplate
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *shiftTemplateRepo) ListConfigs(dbc dbctx.Context, tenantID uuid.UUID) ([]*types.TenantShiftConfig, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.TenantShiftConfig
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ?", tenantID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *shiftTemplateRepo) UpsertConfig(dbc dbctx.Context, cfg *types.TenantShiftConfig) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "shift_template_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_enabled", "custom_name", "updated_at"}),
		}).
		Create(cfg).Error
}
