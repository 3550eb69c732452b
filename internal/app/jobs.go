package app

import (
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/jobs"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/observability"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

func wireTasks(log *logger.Logger, cfg Config, repos Repos, services Services) *jobs.Tasks {
	return jobs.NewTasks(
		jobs.Deps{
			Log:           log,
			TenantRepo:    repos.Tenant,
			Tenants:       services.Tenant,
			Auth:          services.Auth,
			Prescriptions: services.Prescription,
			Shifts:        services.Shift,
			Indicators:    services.Indicator,
			Pops:          services.Pop,
			Audit:         services.Audit,
		},
		jobs.Options{
			ShiftGenerationDays: cfg.ShiftGenerationDays,
			AuditRetention:      cfg.AuditRetention,
			Schedules:           cfg.JobSchedules,
		},
	)
}

func wireScheduler(log *logger.Logger, metrics *observability.Metrics, tasks *jobs.Tasks) (*jobs.Scheduler, error) {
	log.Info("Wiring scheduler...")
	s := jobs.NewScheduler(log, metrics, dates.Location())
	if err := tasks.RegisterAll(s); err != nil {
		return nil, err
	}
	return s, nil
}
