package app

import (
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http"
	httpH "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/handlers"
	httpMW "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/middleware"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/observability"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/realtime"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	LoginRate *httpMW.RateLimiter
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	User         *httpH.UserHandler
	Realtime     *httpH.RealtimeHandler
	Notification *httpH.NotificationHandler

	Resident     *httpH.ResidentHandler
	Clinical     *httpH.ClinicalHandler
	VitalSign    *httpH.VitalSignHandler
	Prescription *httpH.PrescriptionHandler
	DailyRecord  *httpH.DailyRecordHandler
	Pop          *httpH.PopHandler
	Contract     *httpH.ContractHandler

	Compliance *httpH.ComplianceHandler
	Shift      *httpH.ShiftHandler
	Indicator  *httpH.IndicatorHandler
	Financial  *httpH.FinancialHandler
	Audit      *httpH.AuditHandler
	Superadmin *httpH.SuperadminHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(db),
		Auth:         httpH.NewAuthHandler(services.Auth),
		User:         httpH.NewUserHandler(services.User),
		Realtime:     httpH.NewRealtimeHandler(log, sseHub),
		Notification: httpH.NewNotificationHandler(services.Notification),

		Resident:     httpH.NewResidentHandler(services.Resident),
		Clinical:     httpH.NewClinicalHandler(services.Allergy, services.Condition, services.DietaryRestriction),
		VitalSign:    httpH.NewVitalSignHandler(services.VitalSign),
		Prescription: httpH.NewPrescriptionHandler(services.Prescription),
		DailyRecord:  httpH.NewDailyRecordHandler(services.DailyRecord),
		Pop:          httpH.NewPopHandler(services.Pop),
		Contract:     httpH.NewContractHandler(services.Contract),

		Compliance: httpH.NewComplianceHandler(services.Compliance),
		Shift:      httpH.NewShiftHandler(services.Shift),
		Indicator:  httpH.NewIndicatorHandler(services.Indicator),
		Financial:  httpH.NewFinancialHandler(services.Financial),
		Audit:      httpH.NewAuditHandler(services.Audit),
		Superadmin: httpH.NewSuperadminHandler(services.Tenant),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:      httpMW.NewAuthMiddleware(log, services.Auth, services.Permissions),
		LoginRate: httpMW.NewLoginRateLimiter(cfg.LoginRatePerMinute, log),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, services Services, handlers Handlers, middleware Middleware) http.RouterConfig {
	rc := http.RouterConfig{
		Log:              log,
		CORSOrigins:      cfg.CORSOrigins,
		AuthMiddleware:   middleware.Auth,
		LoginRateLimiter: middleware.LoginRate,
		Audit:            services.Audit,

		HealthHandler:       handlers.Health,
		AuthHandler:         handlers.Auth,
		UserHandler:         handlers.User,
		RealtimeHandler:     handlers.Realtime,
		NotificationHandler: handlers.Notification,

		ResidentHandler:     handlers.Resident,
		ClinicalHandler:     handlers.Clinical,
		VitalSignHandler:    handlers.VitalSign,
		PrescriptionHandler: handlers.Prescription,
		DailyRecordHandler:  handlers.DailyRecord,
		PopHandler:          handlers.Pop,
		ContractHandler:     handlers.Contract,

		ComplianceHandler: handlers.Compliance,
		ShiftHandler:      handlers.Shift,
		IndicatorHandler:  handlers.Indicator,
		FinancialHandler:  handlers.Financial,
		AuditHandler:      handlers.Audit,
		SuperadminHandler: handlers.Superadmin,
	}
	if cfg.MetricsEnabled {
		rc.Metrics = metrics
	}
	if cfg.Otel.Enabled {
		rc.TracingService = cfg.Otel.ServiceName
	}
	return rc
}
