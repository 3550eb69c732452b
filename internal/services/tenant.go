package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	tenancyRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/tenancy"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/versioning"
)

const (
	TrialDays       = 30
	AlertWindowDays = 7

	AlertPastDue       = "SUBSCRIPTION_PAST_DUE"
	AlertTrialExpiring = "TRIAL_EXPIRING"
)

type TenantAdminInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateTenantInput struct {
	Name  string           `json:"name"`
	CNPJ  string           `json:"cnpj"`
	Email string           `json:"email"`
	Phone string           `json:"phone"`
	City  string           `json:"city"`
	State string           `json:"state"`
	Plan  string           `json:"plan"`
	Admin TenantAdminInput `json:"admin"`
}

type TenantDetail struct {
	*types.Tenant
	ActiveResidents int64 `json:"active_residents"`
	ActiveUsers     int64 `json:"active_users"`
}

type CreatedTenant struct {
	Tenant *types.Tenant `json:"tenant"`
	Admin  *types.User   `json:"admin"`
}

type PlatformMetrics struct {
	TenantsByStatus       map[string]int64 `json:"tenants_by_status"`
	SubscriptionsByStatus map[string]int64 `json:"subscriptions_by_status"`
	MRRCents              int64            `json:"mrr_cents"`
	ActiveResidents       int64            `json:"active_residents"`
	TrialsEndingSoon      int              `json:"trials_ending_soon"`
}

type PlatformAlert struct {
	Type       string     `json:"type"`
	TenantID   uuid.UUID  `json:"tenant_id"`
	TenantName string     `json:"tenant_name"`
	Message    string     `json:"message"`
	DueAt      *time.Time `json:"due_at,omitempty"`
}

type TenantService interface {
	CreateTenant(dbc dbctx.Context, in CreateTenantInput) (*CreatedTenant, error)
	ListTenants(dbc dbctx.Context, status, search string, page paging.Page) ([]*types.Tenant, paging.Meta, error)
	GetTenant(dbc dbctx.Context, id uuid.UUID) (*TenantDetail, error)
	SuspendTenant(dbc dbctx.Context, id uuid.UUID, reason string) (*types.Tenant, error)
	ReactivateTenant(dbc dbctx.Context, id uuid.UUID) (*types.Tenant, error)
	ChangePlan(dbc dbctx.Context, tenantID uuid.UUID, plan string) (*types.Subscription, error)
	CancelSubscription(dbc dbctx.Context, tenantID uuid.UUID, reason string) (*types.Subscription, error)
	Metrics(dbc dbctx.Context) (*PlatformMetrics, error)
	Alerts(dbc dbctx.Context) ([]PlatformAlert, error)
	// ExpireTrials moves ended trials to PAST_DUE. It runs without a request principal.
	ExpireTrials(dbc dbctx.Context) (int64, error)
}

type tenantService struct {
	db           *gorm.DB
	log          *logger.Logger
	tenantRepo   repos.TenantRepo
	subRepo      repos.SubscriptionRepo
	userRepo     repos.UserRepo
	residentRepo repos.ResidentRepo
	now          func() time.Time
}

func NewTenantService(
	db *gorm.DB,
	log *logger.Logger,
	tenantRepo repos.TenantRepo,
	subRepo repos.SubscriptionRepo,
	userRepo repos.UserRepo,
	residentRepo repos.ResidentRepo,
) TenantService {
	return &tenantService{
		db:           db,
		log:          log.With("service", "TenantService"),
		tenantRepo:   tenantRepo,
		subRepo:      subRepo,
		userRepo:     userRepo,
		residentRepo: residentRepo,
		now:          time.Now,
	}
}

func requireSuperadmin(dbc dbctx.Context) error {
	rd, err := requestData(dbc.Ctx)
	if err != nil {
		return err
	}
	if rd.Role != user.RoleSuperadmin {
		return apierr.Forbidden("superadmin only")
	}
	return nil
}

func (s *tenantService) CreateTenant(dbc dbctx.Context, in CreateTenantInput) (*CreatedTenant, error) {
	if err := requireSuperadmin(dbc); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.CNPJ = digitsOnly(in.CNPJ)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Admin.Email = strings.ToLower(strings.TrimSpace(in.Admin.Email))
	in.Admin.Name = strings.TrimSpace(in.Admin.Name)
	if in.Plan == "" {
		in.Plan = tenancy.PlanBasic
	}

	fields := fieldErrors{}
	fields.required("name", in.Name)
	fields.required("email", in.Email)
	if len(in.CNPJ) != 14 {
		fields["cnpj"] = "must have 14 digits"
	}
	if _, ok := tenancy.Plans[in.Plan]; !ok {
		fields["plan"] = "must be BASIC, PROFESSIONAL or ENTERPRISE"
	}
	if len(in.State) > 2 {
		fields["state"] = "must be a two-letter state code"
	}
	fields.required("admin.name", in.Admin.Name)
	fields.required("admin.email", in.Admin.Email)
	if err := fields.err(); err != nil {
		return nil, err
	}
	hashed, err := HashPassword(in.Admin.Password)
	if err != nil {
		return nil, err
	}

	out := &CreatedTenant{}
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		dup, err := s.tenantRepo.GetByCNPJ(inner, in.CNPJ)
		if err != nil {
			return err
		}
		if dup != nil {
			return apierr.Conflict("cnpj_taken", "a tenant with this CNPJ already exists")
		}
		taken, err := s.userRepo.GetByEmail(inner, in.Admin.Email)
		if err != nil {
			return err
		}
		if taken != nil {
			return apierr.Conflict("email_taken", "admin e-mail already registered")
		}

		tenants, err := s.tenantRepo.Create(inner, []*types.Tenant{{
			Name:   in.Name,
			CNPJ:   in.CNPJ,
			Email:  in.Email,
			Phone:  strings.TrimSpace(in.Phone),
			City:   strings.TrimSpace(in.City),
			State:  strings.ToUpper(strings.TrimSpace(in.State)),
			Status: tenancy.TenantActive,
		}})
		if err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}
		t := tenants[0]

		now := s.now()
		trialEnd := now.AddDate(0, 0, TrialDays)
		subs, err := s.subRepo.Create(inner, []*types.Subscription{{
			TenantID:           t.ID,
			Plan:               in.Plan,
			Status:             tenancy.SubscriptionTrialing,
			PriceCents:         tenancy.Plans[in.Plan].PriceCents,
			TrialEndsAt:        &trialEnd,
			CurrentPeriodStart: &now,
			CurrentPeriodEnd:   &trialEnd,
		}})
		if err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		t.Subscription = subs[0]

		tenantID := t.ID
		users, err := s.userRepo.Create(inner, []*types.User{{
			TenantID: &tenantID,
			Email:    in.Admin.Email,
			Password: hashed,
			Name:     in.Admin.Name,
			Role:     user.RoleAdmin,
			IsActive: true,
		}})
		if err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
		out.Tenant = t
		out.Admin = users[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("tenant created", "tenant_id", out.Tenant.ID, "plan", in.Plan)
	return out, nil
}

func (s *tenantService) ListTenants(dbc dbctx.Context, status, search string, page paging.Page) ([]*types.Tenant, paging.Meta, error) {
	if err := requireSuperadmin(dbc); err != nil {
		return nil, paging.Meta{}, err
	}
	rows, total, err := s.tenantRepo.List(dbc, tenancyRepo.TenantFilter{Status: status, Search: search, Page: page})
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return rows, page.Meta(total), nil
}

func (s *tenantService) GetTenant(dbc dbctx.Context, id uuid.UUID) (*TenantDetail, error) {
	if err := requireSuperadmin(dbc); err != nil {
		return nil, err
	}
	t, err := s.loadTenant(dbc, id)
	if err != nil {
		return nil, err
	}
	out := &TenantDetail{Tenant: t}
	if out.ActiveResidents, err = s.residentRepo.CountActive(dbc, id); err != nil {
		return nil, err
	}
	if out.ActiveUsers, err = s.userRepo.CountActiveByTenant(dbc, id); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *tenantService) loadTenant(dbc dbctx.Context, id uuid.UUID) (*types.Tenant, error) {
	t, err := s.tenantRepo.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apierr.NotFound("tenant")
	}
	return t, nil
}

func (s *tenantService) SuspendTenant(dbc dbctx.Context, id uuid.UUID, reason string) (*types.Tenant, error) {
	if err := requireSuperadmin(dbc); err != nil {
		return nil, err
	}
	reason, err := versioning.ValidateReason("reason", reason)
	if err != nil {
		return nil, err
	}
	t, err := s.loadTenant(dbc, id)
	if err != nil {
		return nil, err
	}
	if t.Status == tenancy.TenantCancelled {
		return nil, apierr.Rule("tenant_cancelled", "cancelled tenants cannot be suspended")
	}
	now := s.now()
	if err := s.tenantRepo.UpdateFields(dbc, id, map[string]any{
		"status":           tenancy.TenantSuspended,
		"suspended_reason": reason,
		"suspended_at":     now,
	}); err != nil {
		return nil, err
	}
	s.log.Warn("tenant suspended", "tenant_id", id)
	return s.loadTenant(dbc, id)
}

func (s *tenantService) ReactivateTenant(dbc dbctx.Context, id uuid.UUID) (*types.Tenant, error) {
	if err := requireSuperadmin(dbc); err != nil {
		return nil, err
	}
	t, err := s.loadTenant(dbc, id)
	if err != nil {
		return nil, err
	}
	if t.Status != tenancy.TenantSuspended {
		return nil, apierr.Rule("tenant_not_suspended", "only suspended tenants can be reactivated")
	}
	if err := s.tenantRepo.UpdateFields(dbc, id, map[string]any{
		"status":           tenancy.TenantActive,
		"suspended_reason": "",
		"suspended_at":     nil,
	}); err != nil {
		return nil, err
	}
	s.log.Info("tenant reactivated", "tenant_id", id)
	return s.loadTenant(dbc, id)
}

func (s *tenantService) loadSubscription(dbc dbctx.Context, tenantID uuid.UUID) (*types.Subscription, error) {
	sub, err := s.subRepo.GetByTenantID(dbc, tenantID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apierr.NotFound("subscription")
	}
	return sub, nil
}

func (s *tenantService) ChangePlan(dbc dbctx.Context, tenantID uuid.UUID, plan string) (*types.Subscription, error) {
	if err := requireSuperadmin(dbc); err != nil {
		return nil, err
	}
	spec, ok := tenancy.Plans[strings.ToUpper(strings.TrimSpace(plan))]
	if !ok {
		return nil, apierr.Field("plan", "must be BASIC, PROFESSIONAL or ENTERPRISE")
	}
	sub, err := s.loadSubscription(dbc, tenantID)
	if err != nil {
		return nil, err
	}
	if sub.Status == tenancy.SubscriptionCancelled {
		return nil, apierr.Rule("subscription_cancelled", "cancelled subscriptions cannot change plan")
	}
	if spec.MaxResidents > 0 {
		n, err := s.residentRepo.CountActive(dbc, tenantID)
		if err != nil {
			return nil, err
		}
		if int(n) > spec.MaxResidents {
			return nil, apierr.Rule("plan_resident_limit", fmt.Sprintf("tenant has %d active residents, plan %s allows %d", n, spec.Code, spec.MaxResidents))
		}
	}
	if err := s.subRepo.UpdateFields(dbc, tenantID, map[string]any{
		"plan":        spec.Code,
		"price_cents": spec.PriceCents,
	}); err != nil {
		return nil, err
	}
	s.log.Info("plan changed", "tenant_id", tenantID, "from", sub.Plan, "to", spec.Code)
	return s.loadSubscription(dbc, tenantID)
}

func (s *tenantService) CancelSubscription(dbc dbctx.Context, tenantID uuid.UUID, reason string) (*types.Subscription, error) {
	if err := requireSuperadmin(dbc); err != nil {
		return nil, err
	}
	reason, err := versioning.ValidateReason("reason", reason)
	if err != nil {
		return nil, err
	}
	sub, err := s.loadSubscription(dbc, tenantID)
	if err != nil {
		return nil, err
	}
	if sub.Status == tenancy.SubscriptionCancelled {
		return nil, apierr.Rule("subscription_cancelled", "subscription already cancelled")
	}
	now := s.now()
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if err := s.subRepo.UpdateFields(inner, tenantID, map[string]any{
			"status":        tenancy.SubscriptionCancelled,
			"cancelled_at":  now,
			"cancel_reason": reason,
		}); err != nil {
			return err
		}
		return s.tenantRepo.UpdateFields(inner, tenantID, map[string]any{"status": tenancy.TenantCancelled})
	})
	if err != nil {
		return nil, err
	}
	s.log.Warn("subscription cancelled", "tenant_id", tenantID)
	return s.loadSubscription(dbc, tenantID)
}

func (s *tenantService) Metrics(dbc dbctx.Context) (*PlatformMetrics, error) {
	if err := requireSuperadmin(dbc); err != nil {
		return nil, err
	}
	out := &PlatformMetrics{}
	now := s.now()
	g := new(errgroup.Group)
	if dbc.Tx != nil {
		// a transaction holds a single connection
		g.SetLimit(1)
	}
	g.Go(func() (err error) {
		out.TenantsByStatus, err = s.tenantRepo.CountByStatus(dbc)
		return err
	})
	g.Go(func() (err error) {
		out.SubscriptionsByStatus, err = s.subRepo.CountByStatus(dbc)
		return err
	})
	g.Go(func() (err error) {
		out.MRRCents, err = s.subRepo.SumActivePriceCents(dbc)
		return err
	})
	g.Go(func() (err error) {
		out.ActiveResidents, err = s.residentRepo.CountActiveAll(dbc)
		return err
	})
	g.Go(func() error {
		trials, err := s.subRepo.ListTrialsEndingBetween(dbc, now, now.AddDate(0, 0, AlertWindowDays))
		out.TrialsEndingSoon = len(trials)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("platform metrics: %w", err)
	}
	return out, nil
}

func (s *tenantService) Alerts(dbc dbctx.Context) ([]PlatformAlert, error) {
	if err := requireSuperadmin(dbc); err != nil {
		return nil, err
	}
	now := s.now()
	pastDue, err := s.subRepo.ListByStatus(dbc, tenancy.SubscriptionPastDue)
	if err != nil {
		return nil, err
	}
	trials, err := s.subRepo.ListTrialsEndingBetween(dbc, now, now.AddDate(0, 0, AlertWindowDays))
	if err != nil {
		return nil, err
	}
	out := make([]PlatformAlert, 0, len(pastDue)+len(trials))
	names := map[uuid.UUID]string{}
	nameOf := func(id uuid.UUID) (string, error) {
		if n, ok := names[id]; ok {
			return n, nil
		}
		t, err := s.tenantRepo.GetByID(dbc, id)
		if err != nil {
			return "", err
		}
		if t != nil {
			names[id] = t.Name
		}
		return names[id], nil
	}
	for _, sub := range pastDue {
		name, err := nameOf(sub.TenantID)
		if err != nil {
			return nil, err
		}
		out = append(out, PlatformAlert{
			Type:       AlertPastDue,
			TenantID:   sub.TenantID,
			TenantName: name,
			Message:    "subscription payment is past due",
			DueAt:      sub.CurrentPeriodEnd,
		})
	}
	for _, sub := range trials {
		name, err := nameOf(sub.TenantID)
		if err != nil {
			return nil, err
		}
		days := int(sub.TrialEndsAt.Sub(now).Hours() / 24)
		out = append(out, PlatformAlert{
			Type:       AlertTrialExpiring,
			TenantID:   sub.TenantID,
			TenantName: name,
			Message:    fmt.Sprintf("trial ends in %d day(s)", days),
			DueAt:      sub.TrialEndsAt,
		})
	}
	return out, nil
}

func (s *tenantService) ExpireTrials(dbc dbctx.Context) (int64, error) {
	n, err := s.subRepo.ExpireTrials(dbc, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire trials: %w", err)
	}
	if n > 0 {
		s.log.Info("trials expired", "count", n)
	}
	return n, nil
}
