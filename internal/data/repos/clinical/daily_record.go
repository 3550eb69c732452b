package clinical

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/clinical"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type DailyRecordFilter struct {
	ResidentID uuid.UUID
	Type       string
	StartDate  string
	EndDate    string
}

type DailyRecordRepo interface {
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.DailyRecord, error)
	List(dbc dbctx.Context, tenantID uuid.UUID, f DailyRecordFilter) ([]*types.DailyRecord, error)
	// ListIncidents returns INTERCORRENCIA records with one of the given subtypes in [start, end].
	ListIncidents(dbc dbctx.Context, tenantID uuid.UUID, start, end string, subtypes []string) ([]clinical.DailyRecord, error)
}

type dailyRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyRecordRepo(db *gorm.DB, baseLog *logger.Logger) DailyRecordRepo {
	return &dailyRecordRepo{db: db, log: baseLog.With("repo", "DailyRecordRepo")}
}

func (r *dailyRecordRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.DailyRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.DailyRecord
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

func (r *dailyRecordRepo) List(dbc dbctx.Context, tenantID uuid.UUID, f DailyRecordFilter) ([]*types.DailyRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Where("tenant_id = ?", tenantID)
	if f.ResidentID != uuid.Nil {
		q = q.Where("resident_id = ?", f.ResidentID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.StartDate != "" {
		q = q.Where("date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q = q.Where("date <= ?", f.EndDate)
	}
	var out []*types.DailyRecord
	if err := q.Order("date DESC, time DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dailyRecordRepo) ListIncidents(dbc dbctx.Context, tenantID uuid.UUID, start, end string, subtypes []string) ([]clinical.DailyRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []clinical.DailyRecord
	if len(subtypes) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND type = ?", tenantID, clinical.RecordIncident).
		Where("date >= ? AND date <= ?", start, end).
		Where("incident_subtype_clinical IN ?", subtypes).
		Order("date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
