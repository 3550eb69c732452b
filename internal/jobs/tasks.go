package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

const (
	JobExpireTrials          = "expire-trials"
	JobPrescriptionsExpiring = "prescriptions-expiring"
	JobShiftGeneration       = "shift-generation"
	JobIndicatorRecompute    = "indicator-recompute"
	JobTokenCleanup          = "token-cleanup"
	JobPopReview             = "pop-review"
	JobAuditPurge            = "audit-purge"

	DefaultShiftGenerationDays = 14
	DefaultAuditRetention      = 365 * 24 * time.Hour
)

// DefaultSchedules are evaluated in the scheduler location (America/Sao_Paulo in production).
var DefaultSchedules = map[string]string{
	JobExpireTrials:          "0 1 * * *",
	JobShiftGeneration:       "0 2 * * *",
	JobIndicatorRecompute:    "0 3 * * *",
	JobTokenCleanup:          "30 3 * * *",
	JobAuditPurge:            "0 4 * * 0",
	JobPopReview:             "0 6 * * 1",
	JobPrescriptionsExpiring: "0 7 * * *",
}

type Deps struct {
	Log           *logger.Logger
	TenantRepo    repos.TenantRepo
	Tenants       services.TenantService
	Auth          services.AuthService
	Prescriptions services.PrescriptionService
	Shifts        services.ShiftService
	Indicators    services.IndicatorService
	Pops          services.PopService
	Audit         services.AuditService
}

type Options struct {
	ShiftGenerationDays int
	AuditRetention      time.Duration

	// Schedules overrides DefaultSchedules per job name.
	Schedules map[string]string
	Now       func() time.Time
}

// Tasks builds the platform's maintenance jobs.
type Tasks struct {
	deps Deps
	opts Options
	log  *logger.Logger
}

func NewTasks(deps Deps, opts Options) *Tasks {
	if opts.ShiftGenerationDays <= 0 {
		opts.ShiftGenerationDays = DefaultShiftGenerationDays
	}
	if opts.AuditRetention <= 0 {
		opts.AuditRetention = DefaultAuditRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Tasks{deps: deps, opts: opts, log: log.With("component", "Tasks")}
}

func (t *Tasks) Jobs() []Job {
	return []Job{
		Func(JobExpireTrials, t.ExpireTrials),
		Func(JobPrescriptionsExpiring, t.PrescriptionsExpiring),
		Func(JobShiftGeneration, t.GenerateShifts),
		Func(JobIndicatorRecompute, t.RecomputeIndicators),
		Func(JobTokenCleanup, t.CleanupTokens),
		Func(JobPopReview, t.PopReview),
		Func(JobAuditPurge, t.PurgeAudit),
	}
}

// RegisterAll registers every job on s with its configured schedule.
func (t *Tasks) RegisterAll(s *Scheduler) error {
	for _, job := range t.Jobs() {
		spec := DefaultSchedules[job.Name()]
		if override, ok := t.opts.Schedules[job.Name()]; ok && override != "" {
			spec = override
		}
		if err := s.Register(spec, job); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tasks) ExpireTrials(ctx context.Context) error {
	n, err := t.deps.Tenants.ExpireTrials(dbctx.Context{Ctx: ctx})
	if err != nil {
		return err
	}
	if n > 0 {
		t.log.Info("trials expired", "count", n)
	}
	return nil
}

func (t *Tasks) PrescriptionsExpiring(ctx context.Context) error {
	n, err := t.deps.Prescriptions.NotifyExpiring(dbctx.Context{Ctx: ctx}, services.ExpiringNoticeDays)
	if err != nil {
		return err
	}
	if n > 0 {
		t.log.Info("expiring prescriptions notified", "count", n)
	}
	return nil
}

// GenerateShifts fills the next ShiftGenerationDays days for every active tenant.
func (t *Tasks) GenerateShifts(ctx context.Context) error {
	start := dates.Today(t.opts.Now())
	end, err := dates.AddDays(start, t.opts.ShiftGenerationDays-1)
	if err != nil {
		return err
	}
	return t.eachActiveTenant(ctx, func(dbc dbctx.Context, tenantID uuid.UUID) error {
		res, err := t.deps.Shifts.GenerateForTenant(dbc, tenantID, start, end)
		if err != nil {
			return err
		}
		if res.Created > 0 {
			t.log.Info("shifts generated", "tenant_id", tenantID, "created", res.Created, "skipped", res.Skipped)
		}
		return nil
	})
}

func (t *Tasks) RecomputeIndicators(ctx context.Context) error {
	sum, err := t.deps.Indicators.RecomputeCurrentMonth(dbctx.Context{Ctx: ctx})
	if err != nil {
		return err
	}
	t.log.Info("indicators recomputed",
		"year", sum.Year, "month", sum.Month,
		"calculated", sum.Calculated, "skipped", sum.Skipped, "failed", sum.Failed,
	)
	if sum.Failed > 0 {
		return fmt.Errorf("indicator recompute failed for %d tenants", sum.Failed)
	}
	return nil
}

func (t *Tasks) CleanupTokens(ctx context.Context) error {
	n, err := t.deps.Auth.CleanupExpiredTokens(dbctx.Context{Ctx: ctx})
	if err != nil {
		return err
	}
	if n > 0 {
		t.log.Info("expired tokens removed", "count", n)
	}
	return nil
}

func (t *Tasks) PopReview(ctx context.Context) error {
	return t.eachActiveTenant(ctx, func(dbc dbctx.Context, tenantID uuid.UUID) error {
		n, err := t.deps.Pops.NotifyReviewDue(dbc, tenantID)
		if err != nil {
			return err
		}
		if n > 0 {
			t.log.Info("pop reviews due", "tenant_id", tenantID, "count", n)
		}
		return nil
	})
}

func (t *Tasks) PurgeAudit(ctx context.Context) error {
	_, err := t.deps.Audit.Purge(dbctx.Context{Ctx: ctx}, t.opts.AuditRetention)
	return err
}

// eachActiveTenant runs fn per active tenant; one tenant failing does not stop the rest.
func (t *Tasks) eachActiveTenant(ctx context.Context, fn func(dbc dbctx.Context, tenantID uuid.UUID) error) error {
	dbc := dbctx.Context{Ctx: ctx}
	ids, err := t.deps.TenantRepo.ListIDsByStatus(dbc, tenancy.TenantActive)
	if err != nil {
		return fmt.Errorf("list active tenants: %w", err)
	}
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(dbc, id); err != nil {
			t.log.Warn("tenant job step failed", "tenant_id", id, "error", err)
			errs = append(errs, fmt.Errorf("tenant %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
