package domain

import (
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/audit"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/auth"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/clinical"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/compliance"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/contracts"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/financial"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/history"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/indicators"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/medication"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/pops"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/shifts"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
)

type Tenant = tenancy.Tenant
type Subscription = tenancy.Subscription

type User = user.User
type UserPermission = user.UserPermission
type UserToken = auth.UserToken

type RecordHistory = history.RecordHistory
type Versioning = history.Versioning

type Resident = residents.Resident
type Allergy = clinical.Allergy
type Condition = clinical.Condition
type DietaryRestriction = clinical.DietaryRestriction
type VitalSign = clinical.VitalSign
type DailyRecord = clinical.DailyRecord

type Prescription = medication.Prescription
type Medication = medication.Medication
type MedicationAdministration = medication.MedicationAdministration

type Pop = pops.Pop
type Contract = contracts.Contract

type ComplianceQuestionVersion = compliance.QuestionVersion
type ComplianceQuestion = compliance.Question
type ComplianceAssessment = compliance.Assessment
type ComplianceResponse = compliance.Response

type ShiftTemplate = shifts.ShiftTemplate
type TenantShiftConfig = shifts.TenantShiftConfig
type Team = shifts.Team
type TeamMember = shifts.TeamMember
type WeeklyPatternAssignment = shifts.WeeklyPatternAssignment
type Shift = shifts.Shift
type ShiftMember = shifts.ShiftMember

type RdcIndicator = indicators.Indicator
type RdcMonthClosure = indicators.MonthClosure

type FinancialAccount = financial.Account
type FinancialTransaction = financial.Transaction
type FinancialReconciliation = financial.Reconciliation

type AuditLog = audit.AuditLog
type Notification = audit.Notification

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&Tenant{},
		&Subscription{},
		&User{},
		&UserPermission{},
		&UserToken{},

		&RecordHistory{},

		&Resident{},
		&Allergy{},
		&Condition{},
		&DietaryRestriction{},
		&VitalSign{},
		&DailyRecord{},
		&Prescription{},
		&Medication{},
		&MedicationAdministration{},
		&Pop{},
		&Contract{},

		&ComplianceQuestionVersion{},
		&ComplianceQuestion{},
		&ComplianceAssessment{},
		&ComplianceResponse{},

		&ShiftTemplate{},
		&TenantShiftConfig{},
		&Team{},
		&TeamMember{},
		&WeeklyPatternAssignment{},
		&Shift{},
		&ShiftMember{},

		&RdcIndicator{},
		&RdcMonthClosure{},

		&FinancialAccount{},
		&FinancialTransaction{},
		&FinancialReconciliation{},

		&AuditLog{},
		&Notification{},
	}
}
