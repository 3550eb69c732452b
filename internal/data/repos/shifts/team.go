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

type TeamRepo interface {
	Create(dbc dbctx.Context, team *types.Team) error
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Team, error)
	List(dbc dbctx.Context, tenantID uuid.UUID, activeOnly bool) ([]*types.Team, error)
	UpdateFields(dbc dbctx.Context, tenantID, id uuid.UUID, updates map[string]any) error
	SoftDelete(dbc dbctx.Context, tenantID, id uuid.UUID) error
	AddMember(dbc dbctx.Context, m *types.TeamMember) error
	RemoveMember(dbc dbctx.Context, teamID, userID uuid.UUID, at time.Time) (bool, error)
	// ActiveMembers returns members not removed, keyed by team.
	ActiveMembers(dbc dbctx.Context, teamIDs []uuid.UUID) (map[uuid.UUID][]types.TeamMember, error)
	ListPattern(dbc dbctx.Context, tenantID uuid.UUID) ([]*types.WeeklyPatternAssignment, error)
	ReplacePattern(dbc dbctx.Context, tenantID uuid.UUID, rows []*types.WeeklyPatternAssignment) error
}

type teamRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeamRepo(db *gorm.DB, baseLog *logger.Logger) TeamRepo {
	return &teamRepo{db: db, log: baseLog.With("repo", "TeamRepo")}
}

func (r *teamRepo) Create(dbc dbctx.Context, team *types.Team) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Omit(clause.Associations).Create(team).Error
}

func activeMembers(db *gorm.DB) *gorm.DB {
	return db.Where("removed_at IS NULL").Order("created_at ASC")
}

func (r *teamRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Team, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Team
	if err := transaction.WithContext(dbc.Ctx).
		Preload("Members", activeMembers).
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

func (r *teamRepo) List(dbc dbctx.Context, tenantID uuid.UUID, activeOnly bool) ([]*types.Team, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Preload("Members", activeMembers).Where("tenant_id = ?", tenantID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []*types.Team
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *teamRepo) UpdateFields(dbc dbctx.Context, tenantID, id uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Team{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates).Error
}

func (r *teamRepo) SoftDelete(dbc dbctx.Context, tenantID, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&types.Team{}).Error
}

func (r *teamRepo) AddMember(dbc dbctx.Context, m *types.TeamMember) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(m).Error
}

func (r *teamRepo) RemoveMember(dbc dbctx.Context, teamID, userID uuid.UUID, at time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.TeamMember{}).
		Where("team_id = ? AND user_id = ? AND removed_at IS NULL", teamID, userID).
		Update("removed_at", at)
	return res.RowsAffected > 0, res.Error
}

func (r *teamRepo) ActiveMembers(dbc dbctx.Context, teamIDs []uuid.UUID) (map[uuid.UUID][]types.TeamMember, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[uuid.UUID][]types.TeamMember{}
	if len(teamIDs) == 0 {
		return out, nil
	}
	var rows []types.TeamMember
	if err := activeMembers(transaction.WithContext(dbc.Ctx)).
		Where("team_id IN ?", teamIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.TeamID] = append(out[m.TeamID], m)
	}
	return out, nil
}

func (r *teamRepo) ListPattern(dbc dbctx.Context, tenantID uuid.UUID) ([]*types.WeeklyPatternAssignment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.WeeklyPatternAssignment
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ?", tenantID).
		Order("weekday ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ReplacePattern swaps the tenant's whole weekly pattern atomically.
func (r *teamRepo) ReplacePattern(dbc dbctx.Context, tenantID uuid.UUID, rows []*types.WeeklyPatternAssignment) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", tenantID).Delete(&types.WeeklyPatternAssignment{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		for _, row := range rows {
			row.TenantID = tenantID
		}
		return tx.Create(&rows).Error
	})
}
