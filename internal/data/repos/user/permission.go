package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type UserPermissionRepo interface {
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserPermission, error)
	Upsert(dbc dbctx.Context, rows []*types.UserPermission) error
	DeleteByUserAndPermission(dbc dbctx.Context, userID uuid.UUID, permission string) error
}

type userPermissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserPermissionRepo(db *gorm.DB, baseLog *logger.Logger) UserPermissionRepo {
	return &userPermissionRepo{db: db, log: baseLog.With("repo", "UserPermissionRepo")}
}

func (r *userPermissionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserPermission, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.UserPermission
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("permission ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userPermissionRepo) Upsert(dbc dbctx.Context, rows []*types.UserPermission) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "permission"}},
			DoUpdates: clause.AssignmentColumns([]string{"granted", "granted_by", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *userPermissionRepo) DeleteByUserAndPermission(dbc dbctx.Context, userID uuid.UUID, permission string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND permission = ?", userID, permission).
		Delete(&types.UserPermission{}).Error
}
