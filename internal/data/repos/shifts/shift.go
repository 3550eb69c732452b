package shifts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type ShiftRepo interface {
	// CreateIfAbsent inserts the shift unless (tenant, date, template) exists. It reports whether a row was written.
	CreateIfAbsent(dbc dbctx.Context, s *types.Shift) (bool, error)
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Shift, error)
	ListRange(dbc dbctx.Context, tenantID uuid.UUID, start, end string) ([]*types.Shift, error)
	UpdateFields(dbc dbctx.Context, tenantID, id uuid.UUID, updates map[string]any) error
	AddMembers(dbc dbctx.Context, members []*types.ShiftMember) error
	IsMember(dbc dbctx.Context, shiftID, userID uuid.UUID) (bool, error)
	RemoveMember(dbc dbctx.Context, shiftID, userID, removedBy uuid.UUID, at time.Time) (bool, error)
}

type shiftRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShiftRepo(db *gorm.DB, baseLog *logger.Logger) ShiftRepo {
	return &shiftRepo{db: db, log: baseLog.With("repo", "ShiftRepo")}
}

func (r *shiftRepo) CreateIfAbsent(dbc dbctx.Context, s *types.Shift) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "date"}, {Name: "shift_template_id"}},
			DoNothing: true,
		}).
		Create(s)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func activeShiftMembers(db *gorm.DB) *gorm.DB {
	return db.Where("removed_at IS NULL").Order("created_at ASC")
}

func (r *shiftRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Shift, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Shift
	if err := transaction.WithContext(dbc.Ctx).
		Preload("Template").
		Preload("Members", activeShiftMembers).
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

func (r *shiftRepo) ListRange(dbc dbctx.Context, tenantID uuid.UUID, start, end string) ([]*types.Shift, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Shift
	if err := transaction.WithContext(dbc.Ctx).
		Preload("Template").
		Preload("Members", activeShiftMembers).
		Where("tenant_id = ? AND date >= ? AND date <= ?", tenantID, start, end).
		Order("date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *shiftRepo) UpdateFields(dbc dbctx.Context, tenantID, id uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Shift{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates).Error
}

func (r *shiftRepo) AddMembers(dbc dbctx.Context, members []*types.ShiftMember) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(members) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(&members).Error
}

func (r *shiftRepo) IsMember(dbc dbctx.Context, shiftID, userID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ShiftMember{}).
		Where("shift_id = ? AND user_id = ? AND removed_at IS NULL", shiftID, userID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *shiftRepo) RemoveMember(dbc dbctx.Context, shiftID, userID, removedBy uuid.UUID, at time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.ShiftMember{}).
		Where("shift_id = ? AND user_id = ? AND removed_at IS NULL", shiftID, userID).
		Updates(map[string]any{"removed_at": at, "removed_by": removedBy})
	return res.RowsAffected > 0, res.Error
}
