package medication

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/medication"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type AdministrationRepo interface {
	Create(dbc dbctx.Context, rows []*types.MedicationAdministration) ([]*types.MedicationAdministration, error)
	ListByResidentDate(dbc dbctx.Context, tenantID, residentID uuid.UUID, date string) ([]*types.MedicationAdministration, error)
	CountGiven(dbc dbctx.Context, tenantID, medicationID uuid.UUID, date string) (int64, error)
}

type administrationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdministrationRepo(db *gorm.DB, baseLog *logger.Logger) AdministrationRepo {
	return &administrationRepo{db: db, log: baseLog.With("repo", "AdministrationRepo")}
}

func (r *administrationRepo) Create(dbc dbctx.Context, rows []*types.MedicationAdministration) ([]*types.MedicationAdministration, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.MedicationAdministration{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *administrationRepo) ListByResidentDate(dbc dbctx.Context, tenantID, residentID uuid.UUID, date string) ([]*types.MedicationAdministration, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Where("tenant_id = ? AND resident_id = ?", tenantID, residentID)
	if date != "" {
		q = q.Where("scheduled_date = ?", date)
	}
	var out []*types.MedicationAdministration
	if err := q.Order("scheduled_date DESC, scheduled_time ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *administrationRepo) CountGiven(dbc dbctx.Context, tenantID, medicationID uuid.UUID, date string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).Model(&types.MedicationAdministration{}).
		Where("tenant_id = ? AND medication_id = ? AND scheduled_date = ? AND status = ?", tenantID, medicationID, date, medication.AdministrationGiven).
		Count(&n).Error
	return n, err
}
