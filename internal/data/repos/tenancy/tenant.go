package tenancy

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

type TenantFilter struct {
	Status string
	Search string
	paging.Page
}

type TenantRepo interface {
	Create(dbc dbctx.Context, tenants []*types.Tenant) ([]*types.Tenant, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tenant, error)
	GetByCNPJ(dbc dbctx.Context, cnpj string) (*types.Tenant, error)
	List(dbc dbctx.Context, f TenantFilter) ([]*types.Tenant, int64, error)
	ListIDsByStatus(dbc dbctx.Context, status string) ([]uuid.UUID, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	CountByStatus(dbc dbctx.Context) (map[string]int64, error)
}

type tenantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTenantRepo(db *gorm.DB, baseLog *logger.Logger) TenantRepo {
	repoLog := baseLog.With("repo", "TenantRepo")
	return &tenantRepo{db: db, log: repoLog}
}

func (r *tenantRepo) Create(dbc dbctx.Context, tenants []*types.Tenant) ([]*types.Tenant, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(tenants) == 0 {
		return []*types.Tenant{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Omit("Subscription").Create(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *tenantRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tenant, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var t types.Tenant
	if err := transaction.WithContext(dbc.Ctx).
		Preload("Subscription").
		Where("id = ?", id).
		Limit(1).
		Find(&t).Error; err != nil {
		return nil, err
	}
	if t.ID == uuid.Nil {
		return nil, nil
	}
	return &t, nil
}

func (r *tenantRepo) GetByCNPJ(dbc dbctx.Context, cnpj string) (*types.Tenant, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var t types.Tenant
	if err := transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("cnpj = ?", cnpj).
		Limit(1).
		Find(&t).Error; err != nil {
		return nil, err
	}
	if t.ID == uuid.Nil {
		return nil, nil
	}
	return &t, nil
}

func (r *tenantRepo) List(dbc dbctx.Context, f TenantFilter) ([]*types.Tenant, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.Tenant{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR cnpj LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*types.Tenant
	if err := f.Page.Apply(q.Preload("Subscription").Order("created_at DESC")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *tenantRepo) ListIDsByStatus(dbc dbctx.Context, status string) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Tenant{}).
		Where("status = ?", status).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *tenantRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Tenant{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *tenantRepo) CountByStatus(dbc dbctx.Context) (map[string]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []struct {
		Status string
		N      int64
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Tenant{}).
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
