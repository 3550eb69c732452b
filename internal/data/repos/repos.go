package repos

import (
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/audit"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/auth"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/clinical"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/compliance"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/contracts"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/financial"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/history"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/indicators"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/medication"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/pops"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/shifts"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/user"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type TenantRepo = tenancy.TenantRepo
type SubscriptionRepo = tenancy.SubscriptionRepo

type UserRepo = user.UserRepo
type UserPermissionRepo = user.UserPermissionRepo
type UserTokenRepo = auth.UserTokenRepo

type RecordHistoryRepo = history.RecordHistoryRepo

type ResidentRepo = residents.ResidentRepo
type AllergyRepo = clinical.AllergyRepo
type ConditionRepo = clinical.ConditionRepo
type DietaryRestrictionRepo = clinical.DietaryRestrictionRepo
type VitalSignRepo = clinical.VitalSignRepo
type DailyRecordRepo = clinical.DailyRecordRepo

type PrescriptionRepo = medication.PrescriptionRepo
type AdministrationRepo = medication.AdministrationRepo

type PopRepo = pops.PopRepo
type ContractRepo = contracts.ContractRepo

type QuestionRepo = compliance.QuestionRepo
type AssessmentRepo = compliance.AssessmentRepo

type ShiftTemplateRepo = shifts.ShiftTemplateRepo
type TeamRepo = shifts.TeamRepo
type ShiftRepo = shifts.ShiftRepo

type IndicatorRepo = indicators.IndicatorRepo

type AccountRepo = financial.AccountRepo
type TransactionRepo = financial.TransactionRepo
type ReconciliationRepo = financial.ReconciliationRepo

type AuditLogRepo = audit.AuditLogRepo
type NotificationRepo = audit.NotificationRepo

func NewTenantRepo(db *gorm.DB, baseLog *logger.Logger) TenantRepo {
	return tenancy.NewTenantRepo(db, baseLog)
}
func NewSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionRepo {
	return tenancy.NewSubscriptionRepo(db, baseLog)
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserPermissionRepo(db *gorm.DB, baseLog *logger.Logger) UserPermissionRepo {
	return user.NewUserPermissionRepo(db, baseLog)
}
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewRecordHistoryRepo(db *gorm.DB, baseLog *logger.Logger) RecordHistoryRepo {
	return history.NewRecordHistoryRepo(db, baseLog)
}

func NewResidentRepo(db *gorm.DB, baseLog *logger.Logger) ResidentRepo {
	return residents.NewResidentRepo(db, baseLog)
}
func NewAllergyRepo(db *gorm.DB, baseLog *logger.Logger) AllergyRepo {
	return clinical.NewAllergyRepo(db, baseLog)
}
func NewConditionRepo(db *gorm.DB, baseLog *logger.Logger) ConditionRepo {
	return clinical.NewConditionRepo(db, baseLog)
}
func NewDietaryRestrictionRepo(db *gorm.DB, baseLog *logger.Logger) DietaryRestrictionRepo {
	return clinical.NewDietaryRestrictionRepo(db, baseLog)
}
func NewVitalSignRepo(db *gorm.DB, baseLog *logger.Logger) VitalSignRepo {
	return clinical.NewVitalSignRepo(db, baseLog)
}
func NewDailyRecordRepo(db *gorm.DB, baseLog *logger.Logger) DailyRecordRepo {
	return clinical.NewDailyRecordRepo(db, baseLog)
}

func NewPrescriptionRepo(db *gorm.DB, baseLog *logger.Logger) PrescriptionRepo {
	return medication.NewPrescriptionRepo(db, baseLog)
}
func NewAdministrationRepo(db *gorm.DB, baseLog *logger.Logger) AdministrationRepo {
	return medication.NewAdministrationRepo(db, baseLog)
}

func NewPopRepo(db *gorm.DB, baseLog *logger.Logger) PopRepo { return pops.NewPopRepo(db, baseLog) }
func NewContractRepo(db *gorm.DB, baseLog *logger.Logger) ContractRepo {
	return contracts.NewContractRepo(db, baseLog)
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return compliance.NewQuestionRepo(db, baseLog)
}
func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return compliance.NewAssessmentRepo(db, baseLog)
}

func NewShiftTemplateRepo(db *gorm.DB, baseLog *logger.Logger) ShiftTemplateRepo {
	return shifts.NewShiftTemplateRepo(db, baseLog)
}
func NewTeamRepo(db *gorm.DB, baseLog *logger.Logger) TeamRepo { return shifts.NewTeamRepo(db, baseLog) }
func NewShiftRepo(db *gorm.DB, baseLog *logger.Logger) ShiftRepo {
	return shifts.NewShiftRepo(db, baseLog)
}

func NewIndicatorRepo(db *gorm.DB, baseLog *logger.Logger) IndicatorRepo {
	return indicators.NewIndicatorRepo(db, baseLog)
}

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return financial.NewAccountRepo(db, baseLog)
}
func NewTransactionRepo(db *gorm.DB, baseLog *logger.Logger) TransactionRepo {
	return financial.NewTransactionRepo(db, baseLog)
}
func NewReconciliationRepo(db *gorm.DB, baseLog *logger.Logger) ReconciliationRepo {
	return financial.NewReconciliationRepo(db, baseLog)
}

func NewAuditLogRepo(db *gorm.DB, baseLog *logger.Logger) AuditLogRepo {
	return audit.NewAuditLogRepo(db, baseLog)
}
func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return audit.NewNotificationRepo(db, baseLog)
}
