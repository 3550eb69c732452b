package clinical

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

// VitalSignFilter bounds measured_at; zero times are open ends.
type VitalSignFilter struct {
	ResidentID uuid.UUID
	From       time.Time
	To         time.Time
}

type VitalSignRepo interface {
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.VitalSign, error)
	List(dbc dbctx.Context, tenantID uuid.UUID, f VitalSignFilter) ([]*types.VitalSign, error)
}

type vitalSignRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVitalSignRepo(db *gorm.DB, baseLog *logger.Logger) VitalSignRepo {
	return &vitalSignRepo{db: db, log: baseLog.With("repo", "VitalSignRepo")}
}

func (r *vitalSignRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.VitalSign, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.VitalSign
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

// List returns measurements newest first.
func (r *vitalSignRepo) List(dbc dbctx.Context, tenantID uuid.UUID, f VitalSignFilter) ([]*types.VitalSign, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Where("tenant_id = ?", tenantID)
	if f.ResidentID != uuid.Nil {
		q = q.Where("resident_id = ?", f.ResidentID)
	}
	if !f.From.IsZero() {
		q = q.Where("measured_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("measured_at <= ?", f.To)
	}
	var out []*types.VitalSign
	if err := q.Order("measured_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
