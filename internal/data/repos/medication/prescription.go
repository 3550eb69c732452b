package medication

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type PrescriptionFilter struct {
	ResidentID uuid.UUID
	ActiveOnly bool
	Type       string
}

type PrescriptionRepo interface {
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Prescription, error)
	List(dbc dbctx.Context, tenantID uuid.UUID, f PrescriptionFilter) ([]*types.Prescription, error)
	// ListExpiring returns active prescriptions with valid_until in [from, to]. A nil tenant spans all tenants.
	ListExpiring(dbc dbctx.Context, tenantID *uuid.UUID, from, to string) ([]*types.Prescription, error)
	CreateMedications(dbc dbctx.Context, meds []*types.Medication) ([]*types.Medication, error)
	// ReplaceMedications soft-deletes the prescription's current medications and inserts meds.
	ReplaceMedications(dbc dbctx.Context, prescriptionID uuid.UUID, meds []*types.Medication) error
	GetMedication(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Medication, error)
}

type prescriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPrescriptionRepo(db *gorm.DB, baseLog *logger.Logger) PrescriptionRepo {
	return &prescriptionRepo{db: db, log: baseLog.With("repo", "PrescriptionRepo")}
}

func (r *prescriptionRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Prescription, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Prescription
	if err := transaction.WithContext(dbc.Ctx).
		Preload("Medications", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
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

func (r *prescriptionRepo) List(dbc dbctx.Context, tenantID uuid.UUID, f PrescriptionFilter) ([]*types.Prescription, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Where("tenant_id = ?", tenantID)
	if f.ResidentID != uuid.Nil {
		q = q.Where("resident_id = ?", f.ResidentID)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	var out []*types.Prescription
	if err := q.Preload("Medications").Order("prescription_date DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *prescriptionRepo) ListExpiring(dbc dbctx.Context, tenantID *uuid.UUID, from, to string) ([]*types.Prescription, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("is_active = ? AND valid_until IS NOT NULL AND valid_until >= ? AND valid_until <= ?", true, from, to)
	if tenantID != nil {
		q = q.Where("tenant_id = ?", *tenantID)
	}
	var out []*types.Prescription
	if err := q.Order("valid_until ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *prescriptionRepo) CreateMedications(dbc dbctx.Context, meds []*types.Medication) ([]*types.Medication, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(meds) == 0 {
		return []*types.Medication{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&meds).Error; err != nil {
		return nil, err
	}
	return meds, nil
}

func (r *prescriptionRepo) ReplaceMedications(dbc dbctx.Context, prescriptionID uuid.UUID, meds []*types.Medication) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("prescription_id = ?", prescriptionID).
		Delete(&types.Medication{}).Error; err != nil {
		return err
	}
	for _, m := range meds {
		m.PrescriptionID = prescriptionID
	}
	_, err := r.CreateMedications(dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}, meds)
	return err
}

func (r *prescriptionRepo) GetMedication(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Medication, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Medication
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
