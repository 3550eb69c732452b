package residents

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

type ResidentFilter struct {
	Status          string
	DependencyLevel string
	Search          string
	paging.Page
}

type ResidentRepo interface {
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Resident, error)
	List(dbc dbctx.Context, tenantID uuid.UUID, f ResidentFilter) ([]*types.Resident, int64, error)
	// ListPresentOn returns residents admitted on or before date and not discharged before it.
	ListPresentOn(dbc dbctx.Context, tenantID uuid.UUID, date string) ([]types.Resident, error)
	CountActive(dbc dbctx.Context, tenantID uuid.UUID) (int64, error)
	CountActiveAll(dbc dbctx.Context) (int64, error)
	CPFTaken(dbc dbctx.Context, tenantID uuid.UUID, cpf string, excludeID uuid.UUID) (bool, error)
}

type residentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResidentRepo(db *gorm.DB, baseLog *logger.Logger) ResidentRepo {
	return &residentRepo{db: db, log: baseLog.With("repo", "ResidentRepo")}
}

func (r *residentRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Resident, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Resident
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

func (r *residentRepo) List(dbc dbctx.Context, tenantID uuid.UUID, f ResidentFilter) ([]*types.Resident, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.Resident{}).Where("tenant_id = ?", tenantID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DependencyLevel != "" {
		q = q.Where("dependency_level = ?", f.DependencyLevel)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(full_name) LIKE ? OR cpf LIKE ? OR LOWER(room) LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*types.Resident
	if err := f.Page.Apply(q.Order("full_name ASC")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *residentRepo) ListPresentOn(dbc dbctx.Context, tenantID uuid.UUID, date string) ([]types.Resident, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []types.Resident
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND admission_date <= ?", tenantID, date).
		Where("discharge_date IS NULL OR discharge_date > ?", date).
		Order("full_name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *residentRepo) CountActive(dbc dbctx.Context, tenantID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Resident{}).
		Where("tenant_id = ? AND status = ?", tenantID, residents.StatusActive).
		Count(&n).Error
	return n, err
}

func (r *residentRepo) CountActiveAll(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Resident{}).
		Where("status = ?", residents.StatusActive).
		Count(&n).Error
	return n, err
}

func (r *residentRepo) CPFTaken(dbc dbctx.Context, tenantID uuid.UUID, cpf string, excludeID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.Resident{}).
		Where("tenant_id = ? AND cpf = ?", tenantID, cpf)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
