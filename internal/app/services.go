package app

import (
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/observability"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/realtime"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/versioning"
)

type Services struct {
	// Identity + platform
	Auth        services.AuthService
	Permissions services.PermissionService
	User        services.UserService
	Tenant      services.TenantService
	Audit       services.AuditService

	Notification services.NotificationService

	// Care
	Resident           services.ResidentService
	Allergy            services.AllergyService
	Condition          services.ConditionService
	DietaryRestriction services.DietaryRestrictionService
	VitalSign          services.VitalSignService
	Prescription       services.PrescriptionService
	DailyRecord        services.DailyRecordService
	Pop                services.PopService
	Contract           services.ContractService

	// Compliance + operations
	Compliance services.ComplianceService
	Shift      services.ShiftService
	Indicator  services.IndicatorService
	Financial  services.FinancialService

	Recorder *versioning.Recorder
	Emitter  services.SSEEmitter
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, sseHub *realtime.SSEHub, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	// Replicas share realtime delivery through Redis; a single process delivers locally.
	var emitter services.SSEEmitter
	if clients.SSEBus != nil {
		emitter = &services.RedisEmitter{Bus: clients.SSEBus, Log: log}
	} else {
		emitter = &services.HubEmitter{Hub: sseHub}
	}

	var permCache services.PermissionCache
	if clients.Redis != nil {
		permCache = services.NewRedisPermissionCache(clients.Redis, cfg.PermissionsCacheTTL, log)
	} else {
		permCache = services.NewMemoryPermissionCache(cfg.PermissionsCacheTTL)
	}

	recorder := versioning.NewRecorder(db, log, repos.RecordHistory, metrics)

	authService := services.NewAuthService(
		db, log,
		repos.User,
		repos.Tenant,
		repos.UserToken,
		cfg.JWTSecretKey,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)
	permissionService := services.NewPermissionService(log, repos.UserPermission, permCache)
	userService := services.NewUserService(
		db, log,
		repos.User,
		repos.Tenant,
		repos.Subscription,
		repos.UserPermission,
		repos.UserToken,
		permissionService,
	)
	tenantService := services.NewTenantService(db, log, repos.Tenant, repos.Subscription, repos.User, repos.Resident)
	auditService := services.NewAuditService(log, repos.AuditLog)
	notificationService := services.NewNotificationService(db, log, repos.Notification, emitter, metrics)

	residentService := services.NewResidentService(db, log, repos.Resident, repos.Subscription, recorder)
	allergyService := services.NewAllergyService(db, log, repos.Allergy, repos.Resident, recorder)
	conditionService := services.NewConditionService(db, log, repos.Condition, repos.Resident, recorder)
	dietaryRestrictionService := services.NewDietaryRestrictionService(db, log, repos.DietaryRestriction, repos.Resident, recorder)
	vitalSignService := services.NewVitalSignService(db, log, repos.VitalSign, repos.Resident, recorder, notificationService)
	prescriptionService := services.NewPrescriptionService(
		db, log,
		repos.Prescription,
		repos.Administration,
		repos.Resident,
		recorder,
		notificationService,
	)
	dailyRecordService := services.NewDailyRecordService(db, log, repos.DailyRecord, repos.Resident, recorder, notificationService)
	popService := services.NewPopService(db, log, repos.Pop, recorder, notificationService)
	contractService := services.NewContractService(db, log, repos.Contract, repos.Resident, recorder)

	complianceService := services.NewComplianceService(db, log, repos.Question, repos.Assessment, metrics)
	shiftService := services.NewShiftService(
		db, log,
		repos.ShiftTemplate,
		repos.Team,
		repos.Shift,
		repos.Resident,
		repos.User,
	)
	indicatorService := services.NewIndicatorService(
		db, log,
		repos.Indicator,
		repos.DailyRecord,
		repos.Resident,
		repos.Tenant,
	)
	financialService := services.NewFinancialService(
		db, log,
		repos.Account,
		repos.Transaction,
		repos.Reconciliation,
		repos.Resident,
	)

	return Services{
		Auth:         authService,
		Permissions:  permissionService,
		User:         userService,
		Tenant:       tenantService,
		Audit:        auditService,
		Notification: notificationService,

		Resident:           residentService,
		Allergy:            allergyService,
		Condition:          conditionService,
		DietaryRestriction: dietaryRestrictionService,
		VitalSign:          vitalSignService,
		Prescription:       prescriptionService,
		DailyRecord:        dailyRecordService,
		Pop:                popService,
		Contract:           contractService,

		Compliance: complianceService,
		Shift:      shiftService,
		Indicator:  indicatorService,
		Financial:  financialService,

		Recorder: recorder,
		Emitter:  emitter,
	}
}
