package app

import (
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type Repos struct {
	Tenant         repos.TenantRepo
	Subscription   repos.SubscriptionRepo
	User           repos.UserRepo
	UserPermission repos.UserPermissionRepo
	UserToken      repos.UserTokenRepo
	RecordHistory  repos.RecordHistoryRepo

	Resident           repos.ResidentRepo
	Allergy            repos.AllergyRepo
	Condition          repos.ConditionRepo
	DietaryRestriction repos.DietaryRestrictionRepo
	VitalSign          repos.VitalSignRepo
	DailyRecord        repos.DailyRecordRepo

	Prescription   repos.PrescriptionRepo
	Administration repos.AdministrationRepo
	Pop            repos.PopRepo
	Contract       repos.ContractRepo

	Question   repos.QuestionRepo
	Assessment repos.AssessmentRepo

	ShiftTemplate repos.ShiftTemplateRepo
	Team          repos.TeamRepo
	Shift         repos.ShiftRepo

	Indicator      repos.IndicatorRepo
	Account        repos.AccountRepo
	Transaction    repos.TransactionRepo
	Reconciliation repos.ReconciliationRepo

	AuditLog     repos.AuditLogRepo
	Notification repos.NotificationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tenant:         repos.NewTenantRepo(db, log),
		Subscription:   repos.NewSubscriptionRepo(db, log),
		User:           repos.NewUserRepo(db, log),
		UserPermission: repos.NewUserPermissionRepo(db, log),
		UserToken:      repos.NewUserTokenRepo(db, log),
		RecordHistory:  repos.NewRecordHistoryRepo(db, log),

		Resident:           repos.NewResidentRepo(db, log),
		Allergy:            repos.NewAllergyRepo(db, log),
		Condition:          repos.NewConditionRepo(db, log),
		DietaryRestriction: repos.NewDietaryRestrictionRepo(db, log),
		VitalSign:          repos.NewVitalSignRepo(db, log),
		DailyRecord:        repos.NewDailyRecordRepo(db, log),

		Prescription:   repos.NewPrescriptionRepo(db, log),
		Administration: repos.NewAdministrationRepo(db, log),
		Pop:            repos.NewPopRepo(db, log),
		Contract:       repos.NewContractRepo(db, log),

		Question:   repos.NewQuestionRepo(db, log),
		Assessment: repos.NewAssessmentRepo(db, log),

		ShiftTemplate: repos.NewShiftTemplateRepo(db, log),
		Team:          repos.NewTeamRepo(db, log),
		Shift:         repos.NewShiftRepo(db, log),

		Indicator:      repos.NewIndicatorRepo(db, log),
		Account:        repos.NewAccountRepo(db, log),
		Transaction:    repos.NewTransactionRepo(db, log),
		Reconciliation: repos.NewReconciliationRepo(db, log),

		AuditLog:     repos.NewAuditLogRepo(db, log),
		Notification: repos.NewNotificationRepo(db, log),
	}
}
