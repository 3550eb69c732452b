package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
	httpH "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/handlers"
	httpMW "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http/middleware"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/observability"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	// TracingService enables otelgin spans when non-empty.
	TracingService string

	AuthMiddleware   *httpMW.AuthMiddleware
	LoginRateLimiter *httpMW.RateLimiter
	Audit            services.AuditService

	AuthHandler         *httpH.AuthHandler
	UserHandler         *httpH.UserHandler
	RealtimeHandler     *httpH.RealtimeHandler
	NotificationHandler *httpH.NotificationHandler

	ResidentHandler     *httpH.ResidentHandler
	ClinicalHandler     *httpH.ClinicalHandler
	VitalSignHandler    *httpH.VitalSignHandler
	PrescriptionHandler *httpH.PrescriptionHandler
	DailyRecordHandler  *httpH.DailyRecordHandler
	PopHandler          *httpH.PopHandler
	ContractHandler     *httpH.ContractHandler
	ComplianceHandler   *httpH.ComplianceHandler
	ShiftHandler        *httpH.ShiftHandler
	IndicatorHandler    *httpH.IndicatorHandler
	FinancialHandler    *httpH.FinancialHandler
	AuditHandler        *httpH.AuditHandler
	SuperadminHandler   *httpH.SuperadminHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/api/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			login := []gin.HandlerFunc{}
			if cfg.LoginRateLimiter != nil {
				login = append(login, cfg.LoginRateLimiter.Handler())
			}
			api.POST("/auth/login", append(login, cfg.AuthHandler.Login)...)
			api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
		}
	}

	if cfg.AuthMiddleware == nil {
		return r
	}
	am := cfg.AuthMiddleware
	perm := am.RequirePermission

	protected := api.Group("/")
	protected.Use(am.RequireAuth())
	protected.Use(httpMW.AuditLog(cfg.Audit))
	{
		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)

			users := protected.Group("/users", perm(user.PermUsersManage))
			users.GET("", cfg.UserHandler.ListUsers)
			users.POST("", cfg.UserHandler.CreateUser)
			users.GET("/:id", cfg.UserHandler.GetUser)
			users.PATCH("/:id", cfg.UserHandler.UpdateUser)
			users.DELETE("/:id", cfg.UserHandler.DeactivateUser)
			users.GET("/:id/permissions", cfg.UserHandler.GetPermissions)
			users.PUT("/:id/permissions", cfg.UserHandler.SetPermissions)
		}

		// Notifications + realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/notifications/stream", cfg.RealtimeHandler.SSEStream)
		}
		if cfg.NotificationHandler != nil {
			n := protected.Group("/notifications")
			n.GET("", cfg.NotificationHandler.List)
			n.GET("/unread-count", cfg.NotificationHandler.UnreadCount)
			n.PATCH("/:id/read", cfg.NotificationHandler.MarkRead)
			n.POST("/read-all", cfg.NotificationHandler.MarkAllRead)
		}

		// Residents
		if h := cfg.ResidentHandler; h != nil {
			read := perm(user.PermResidentsRead)
			write := perm(user.PermResidentsWrite)
			g := protected.Group("/residents")
			g.GET("", read, h.List)
			g.POST("", write, h.Create)
			g.GET("/:id", read, h.Get)
			g.PATCH("/:id", write, h.Update)
			g.DELETE("/:id", write, h.Delete())
			g.GET("/:id/history", read, h.History())
			g.GET("/:id/history/:version", read, h.HistoryVersion())
		}

		// Clinical profile
		if h := cfg.ClinicalHandler; h != nil {
			read := perm(user.PermClinicalRead)
			write := perm(user.PermClinicalWrite)
			a := protected.Group("/allergies")
			a.GET("", read, h.ListAllergies)
			a.POST("", write, h.CreateAllergy)
			a.GET("/:id", read, h.GetAllergy)
			a.PATCH("/:id", write, h.UpdateAllergy)
			a.DELETE("/:id", write, h.DeleteAllergy())
			a.GET("/:id/history", read, h.AllergyHistory())
			a.GET("/:id/history/:version", read, h.AllergyVersion())

			cd := protected.Group("/conditions")
			cd.GET("", read, h.ListConditions)
			cd.POST("", write, h.CreateCondition)
			cd.GET("/:id", read, h.GetCondition)
			cd.PATCH("/:id", write, h.UpdateCondition)
			cd.DELETE("/:id", write, h.DeleteCondition())
			cd.GET("/:id/history", read, h.ConditionHistory())
			cd.GET("/:id/history/:version", read, h.ConditionVersion())

			dr := protected.Group("/dietary-restrictions")
			dr.GET("", read, h.ListRestrictions)
			dr.POST("", write, h.CreateRestriction)
			dr.GET("/:id", read, h.GetRestriction)
			dr.PATCH("/:id", write, h.UpdateRestriction)
			dr.DELETE("/:id", write, h.DeleteRestriction())
			dr.GET("/:id/history", read, h.RestrictionHistory())
			dr.GET("/:id/history/:version", read, h.RestrictionVersion())
		}

		// Vital signs are recorded by the care team alongside daily records.
		if h := cfg.VitalSignHandler; h != nil {
			read := perm(user.PermClinicalRead)
			write := perm(user.PermDailyRecordsWrite)
			g := protected.Group("/vital-signs")
			g.GET("", read, h.List)
			g.POST("", write, h.Create)
			g.GET("/:id", read, h.Get)
			g.PATCH("/:id", write, h.Update)
			g.DELETE("/:id", write, h.Delete())
			g.GET("/:id/history", read, h.History())
			g.GET("/:id/history/:version", read, h.HistoryVersion())
		}

		// Prescriptions + administrations
		if h := cfg.PrescriptionHandler; h != nil {
			read := perm(user.PermClinicalRead)
			write := perm(user.PermPrescriptionsWrite)
			g := protected.Group("/prescriptions")
			g.GET("", read, h.List)
			g.GET("/expiring", read, h.Expiring)
			g.POST("", write, h.Create)
			g.GET("/:id", read, h.Get)
			g.PATCH("/:id", write, h.Update)
			g.DELETE("/:id", write, h.Delete())
			g.GET("/:id/history", read, h.History())
			g.GET("/:id/history/:version", read, h.HistoryVersion())

			protected.GET("/medication-administrations", read, h.ListAdministrations)
			protected.POST("/medication-administrations", perm(user.PermMedicationAdmin), h.RecordAdministration)
		}

		// Daily records
		if h := cfg.DailyRecordHandler; h != nil {
			read := perm(user.PermResidentsRead)
			write := perm(user.PermDailyRecordsWrite)
			g := protected.Group("/daily-records")
			g.GET("", read, h.List)
			g.POST("", write, h.Create)
			g.GET("/:id", read, h.Get)
			g.PATCH("/:id", write, h.Update)
			g.DELETE("/:id", write, h.Delete())
			g.GET("/:id/history", read, h.History())
			g.GET("/:id/history/:version", read, h.HistoryVersion())
		}

		// POPs
		if h := cfg.PopHandler; h != nil {
			read := perm(user.PermPopsRead)
			write := perm(user.PermPopsWrite)
			publish := perm(user.PermPopsPublish)
			g := protected.Group("/pops")
			g.GET("", read, h.List)
			g.POST("", write, h.Create)
			g.GET("/:id", read, h.Get)
			g.PATCH("/:id", write, h.Update)
			g.DELETE("/:id", write, h.Delete())
			g.POST("/:id/publish", publish, h.Publish)
			g.POST("/:id/obsolete", publish, h.Obsolete)
			g.POST("/:id/new-version", write, h.NewVersion)
			g.GET("/:id/history", read, h.History())
			g.GET("/:id/history/:version", read, h.HistoryVersion())
		}

		// Resident contracts
		if h := cfg.ContractHandler; h != nil {
			g := protected.Group("/resident-contracts", perm(user.PermContractsManage))
			g.GET("", h.List)
			g.POST("", h.Create)
			g.GET("/:id", h.Get)
			g.PATCH("/:id", h.Update)
			g.DELETE("/:id", h.Delete())
			g.POST("/:id/rescind", h.Rescind)
			g.GET("/:id/history", h.History())
			g.GET("/:id/history/:version", h.HistoryVersion())
		}

		// Compliance self-assessment
		if h := cfg.ComplianceHandler; h != nil {
			read := perm(user.PermComplianceRead)
			write := perm(user.PermComplianceWrite)
			g := protected.Group("/compliance-assessments")
			g.GET("/questions", read, h.Questions)
			g.GET("/history/comparison", read, h.Compare)
			g.GET("", read, h.List)
			g.POST("", write, h.Create)
			g.GET("/:id", read, h.Get)
			g.DELETE("/:id", write, h.Delete)
			g.POST("/:id/responses", write, h.SaveResponse)
			g.POST("/:id/complete", write, h.Complete)
			g.GET("/:id/report", read, h.Report)
			g.GET("/:id/export", read, h.Export)
		}

		// Care shifts
		if h := cfg.ShiftHandler; h != nil {
			read := perm(user.PermShiftsRead)
			manage := perm(user.PermShiftsManage)
			g := protected.Group("/care-shifts")
			g.GET("/templates", read, h.ListTemplates)
			g.PATCH("/templates/:id", manage, h.ConfigureTemplate)
			g.GET("/teams", read, h.ListTeams)
			g.POST("/teams", manage, h.CreateTeam)
			g.GET("/teams/:id", read, h.GetTeam)
			g.PATCH("/teams/:id", manage, h.UpdateTeam)
			g.DELETE("/teams/:id", manage, h.DeleteTeam)
			g.POST("/teams/:id/members", manage, h.AddTeamMember)
			g.DELETE("/teams/:id/members/:userId", manage, h.RemoveTeamMember)
			g.GET("/weekly-pattern", read, h.GetWeeklyPattern)
			g.PUT("/weekly-pattern", manage, h.SetWeeklyPattern)
			g.POST("/generate", manage, h.Generate)
			g.GET("/rdc-calculation", read, h.RdcCalculation)
			g.GET("/coverage-report", read, h.CoverageReport)
			g.GET("", read, h.ListShifts)
			g.GET("/:id", read, h.GetShift)
			g.PATCH("/:id", manage, h.UpdateShift)
			g.POST("/:id/members", manage, h.AssignMember)
			g.DELETE("/:id/members/:userId", manage, h.RemoveMember)
		}

		// RDC indicators
		if h := cfg.IndicatorHandler; h != nil {
			read := perm(user.PermIndicatorsRead)
			manage := perm(user.PermIndicatorsManage)
			g := protected.Group("/rdc-indicators")
			g.GET("", read, h.ByMonth)
			g.GET("/history", read, h.History)
			g.GET("/annual", read, h.Annual)
			g.POST("/calculate", manage, h.Calculate)
			g.POST("/close", manage, h.Close)
			g.POST("/reopen", manage, h.Reopen)
		}

		// Financial
		if h := cfg.FinancialHandler; h != nil {
			read := perm(user.PermFinancialRead)
			manage := perm(user.PermFinancialManage)
			g := protected.Group("/financial")
			g.GET("/accounts", read, h.ListAccounts)
			g.POST("/accounts", manage, h.CreateAccount)
			g.GET("/accounts/:id", read, h.GetAccount)
			g.PATCH("/accounts/:id", manage, h.UpdateAccount)
			g.DELETE("/accounts/:id", manage, h.DeactivateAccount)

			g.GET("/transactions", read, h.ListTransactions)
			g.GET("/transactions/export", read, h.ExportTransactions)
			g.GET("/transactions/overdue", read, h.ListOverdue)
			g.GET("/transactions/unreconciled", read, h.Unreconciled)
			g.POST("/transactions", manage, h.CreateTransaction)
			g.GET("/transactions/:id", read, h.GetTransaction)
			g.POST("/transactions/:id/pay", manage, h.MarkPaid)
			g.POST("/transactions/:id/cancel", manage, h.CancelTransaction)

			g.GET("/reconciliations", read, h.ListReconciliations)
			g.POST("/reconciliations", manage, h.CreateReconciliation)
			g.GET("/reconciliations/:id", read, h.GetReconciliation)
		}

		// Audit
		if cfg.AuditHandler != nil {
			protected.GET("/audit-logs", perm(user.PermAuditRead), cfg.AuditHandler.List)
		}

		// Platform administration
		if h := cfg.SuperadminHandler; h != nil {
			g := protected.Group("/superadmin", am.RequireRole(user.RoleSuperadmin))
			g.GET("/tenants", h.ListTenants)
			g.POST("/tenants", h.CreateTenant)
			g.GET("/tenants/:id", h.GetTenant)
			g.POST("/tenants/:id/suspend", h.Suspend)
			g.POST("/tenants/:id/reactivate", h.Reactivate)
			g.PUT("/tenants/:id/plan", h.ChangePlan)
			g.POST("/tenants/:id/cancel", h.Cancel)
			g.GET("/metrics", h.Metrics)
			g.GET("/alerts", h.Alerts)
		}
	}

	return r
}
