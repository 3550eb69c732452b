package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/ctxutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Position string `json:"position"`
}

type UpdateUserInput struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	Position *string `json:"position"`
	Password *string `json:"password"`
}

type MeView struct {
	User        *types.User   `json:"user"`
	Tenant      *types.Tenant `json:"tenant,omitempty"`
	Permissions []string      `json:"permissions"`
}

type UserService interface {
	GetMe(dbc dbctx.Context) (*MeView, error)
	CreateUser(dbc dbctx.Context, in CreateUserInput) (*types.User, error)
	ListUsers(dbc dbctx.Context, activeOnly bool) ([]*types.User, error)
	GetUser(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	UpdateUser(dbc dbctx.Context, id uuid.UUID, in UpdateUserInput) (*types.User, error)
	DeactivateUser(dbc dbctx.Context, id uuid.UUID) error
	GetPermissions(dbc dbctx.Context, id uuid.UUID) ([]string, error)
	// SetPermissions grants (true) or revokes (false) permissions on top of the role defaults.
	SetPermissions(dbc dbctx.Context, id uuid.UUID, overrides map[string]bool) ([]string, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	tenantRepo    repos.TenantRepo
	subRepo       repos.SubscriptionRepo
	permRepo      repos.UserPermissionRepo
	userTokenRepo repos.UserTokenRepo
	permissions   PermissionService
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	tenantRepo repos.TenantRepo,
	subRepo repos.SubscriptionRepo,
	permRepo repos.UserPermissionRepo,
	userTokenRepo repos.UserTokenRepo,
	permissions PermissionService,
) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		tenantRepo:    tenantRepo,
		subRepo:       subRepo,
		permRepo:      permRepo,
		userTokenRepo: userTokenRepo,
		permissions:   permissions,
	}
}

func (us *userService) GetMe(dbc dbctx.Context) (*MeView, error) {
	rd, err := requestData(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.userRepo.GetByID(dbc, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user")
	}
	view := &MeView{User: u}
	if u.TenantID != nil {
		if view.Tenant, err = us.tenantRepo.GetByID(dbc, *u.TenantID); err != nil {
			return nil, err
		}
	}
	if view.Permissions, err = us.permissions.Resolve(dbc, u.ID, u.Role); err != nil {
		return nil, err
	}
	return view, nil
}

func (us *userService) CreateUser(dbc dbctx.Context, in CreateUserInput) (*types.User, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	fields := fieldErrors{}
	fields.required("email", in.Email)
	fields.required("name", in.Name)
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		fields["email"] = "must be a valid e-mail address"
	}
	if in.Role == user.RoleSuperadmin || !user.ValidRole(in.Role) {
		fields["role"] = "must be one of ADMIN, MANAGER, NURSE, CAREGIVER, VIEWER"
	}
	if err := fields.err(); err != nil {
		return nil, err
	}
	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var created *types.User
	err = inTx(dbc, us.db, func(inner dbctx.Context) error {
		if err := us.checkUserLimit(inner, rd.TenantID); err != nil {
			return err
		}
		existing, err := us.userRepo.GetByEmail(inner, in.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return apierr.Conflict("email_taken", "e-mail already registered")
		}
		tenantID := rd.TenantID
		u := &types.User{
			TenantID: &tenantID,
			Email:    in.Email,
			Password: hashed,
			Name:     in.Name,
			Role:     in.Role,
			Position: strings.TrimSpace(in.Position),
			IsActive: true,
		}
		rows, err := us.userRepo.Create(inner, []*types.User{u})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		created = rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	us.log.Info("user created", "tenant_id", rd.TenantID, "user_id", created.ID, "role", created.Role)
	return created, nil
}

func (us *userService) checkUserLimit(dbc dbctx.Context, tenantID uuid.UUID) error {
	sub, err := us.subRepo.GetByTenantID(dbc, tenantID)
	if err != nil {
		return err
	}
	if sub == nil {
		return nil
	}
	plan, ok := tenancy.Plans[sub.Plan]
	if !ok || plan.MaxUsers == 0 {
		return nil
	}
	n, err := us.userRepo.CountActiveByTenant(dbc, tenantID)
	if err != nil {
		return err
	}
	if int(n) >= plan.MaxUsers {
		return apierr.Rule("plan_user_limit", fmt.Sprintf("plan %s allows at most %d active users", plan.Code, plan.MaxUsers))
	}
	return nil
}

func (us *userService) ListUsers(dbc dbctx.Context, activeOnly bool) ([]*types.User, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return us.userRepo.ListByTenant(dbc, rd.TenantID, activeOnly)
}

func (us *userService) GetUser(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return us.loadTenantUser(dbc, rd, id)
}

func (us *userService) loadTenantUser(dbc dbctx.Context, rd *ctxutil.RequestData, id uuid.UUID) (*types.User, error) {
	u, err := us.userRepo.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.TenantID == nil || *u.TenantID != rd.TenantID {
		return nil, apierr.NotFound("user")
	}
	return u, nil
}

func (us *userService) UpdateUser(dbc dbctx.Context, id uuid.UUID, in UpdateUserInput) (*types.User, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.loadTenantUser(dbc, rd, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	fields := fieldErrors{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		fields.required("name", name)
		updates["name"] = name
	}
	if in.Role != nil {
		if *in.Role == user.RoleSuperadmin || !user.ValidRole(*in.Role) {
			fields["role"] = "must be one of ADMIN, MANAGER, NURSE, CAREGIVER, VIEWER"
		} else if u.ID == rd.UserID && *in.Role != u.Role {
			fields["role"] = "cannot change your own role"
		}
		updates["role"] = *in.Role
	}
	if in.Position != nil {
		updates["position"] = strings.TrimSpace(*in.Position)
	}
	if err := fields.err(); err != nil {
		return nil, err
	}
	if in.Password != nil {
		hashed, err := HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashed
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := us.userRepo.UpdateFields(dbc, u.ID, updates); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	us.permissions.Invalidate(ctxutil.Default(dbc.Ctx), u.ID)
	return us.userRepo.GetByID(dbc, u.ID)
}

func (us *userService) DeactivateUser(dbc dbctx.Context, id uuid.UUID) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	if id == rd.UserID {
		return apierr.Rule("cannot_deactivate_self", "you cannot deactivate your own user")
	}
	u, err := us.loadTenantUser(dbc, rd, id)
	if err != nil {
		return err
	}
	err = inTx(dbc, us.db, func(inner dbctx.Context) error {
		if err := us.userRepo.UpdateFields(inner, u.ID, map[string]any{"is_active": false}); err != nil {
			return err
		}
		return us.userTokenRepo.SoftDeleteByUserIDs(inner, []uuid.UUID{u.ID})
	})
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	us.permissions.Invalidate(ctxutil.Default(dbc.Ctx), u.ID)
	us.log.Info("user deactivated", "tenant_id", rd.TenantID, "user_id", u.ID)
	return nil
}

func (us *userService) GetPermissions(dbc dbctx.Context, id uuid.UUID) ([]string, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.loadTenantUser(dbc, rd, id)
	if err != nil {
		return nil, err
	}
	return us.permissions.Resolve(dbc, u.ID, u.Role)
}

func (us *userService) SetPermissions(dbc dbctx.Context, id uuid.UUID, overrides map[string]bool) ([]string, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.loadTenantUser(dbc, rd, id)
	if err != nil {
		return nil, err
	}
	fields := fieldErrors{}
	rows := make([]*types.UserPermission, 0, len(overrides))
	for perm, granted := range overrides {
		if !user.ValidPermission(perm) {
			fields["permissions."+perm] = "unknown permission"
			continue
		}
		rows = append(rows, &types.UserPermission{
			TenantID:   rd.TenantID,
			UserID:     u.ID,
			Permission: perm,
			Granted:    granted,
			GrantedBy:  rd.UserID,
		})
	}
	if err := fields.err(); err != nil {
		return nil, err
	}
	if err := us.permRepo.Upsert(dbc, rows); err != nil {
		return nil, fmt.Errorf("save permission overrides: %w", err)
	}
	us.permissions.Invalidate(ctxutil.Default(dbc.Ctx), u.ID)
	return us.permissions.Resolve(dbc, u.ID, u.Role)
}
