package user

const (
	RoleSuperadmin = "SUPERADMIN"
	RoleAdmin      = "ADMIN"
	RoleManager    = "MANAGER"
	RoleNurse      = "NURSE"
	RoleCaregiver  = "CAREGIVER"
	RoleViewer     = "VIEWER"
)

const (
	PermResidentsRead      = "residents.read"
	PermResidentsWrite     = "residents.write"
	PermClinicalRead       = "clinical.read"
	PermClinicalWrite      = "clinical.write"
	PermPrescriptionsWrite = "prescriptions.write"
	PermMedicationAdmin    = "medications.administer"
	PermDailyRecordsWrite  = "daily_records.write"
	PermPopsRead           = "pops.read"
	PermPopsWrite          = "pops.write"
	PermPopsPublish        = "pops.publish"
	PermContractsManage    = "contracts.manage"
	PermComplianceRead     = "compliance.read"
	PermComplianceWrite    = "compliance.write"
	PermShiftsRead         = "shifts.read"
	PermShiftsManage       = "shifts.manage"
	PermIndicatorsRead     = "indicators.read"
	PermIndicatorsManage   = "indicators.manage"
	PermFinancialRead      = "financial.read"
	PermFinancialManage    = "financial.manage"
	PermAuditRead          = "audit.read"
	PermUsersManage        = "users.manage"
)

var AllPermissions = []string{
	PermResidentsRead, PermResidentsWrite,
	PermClinicalRead, PermClinicalWrite,
	PermPrescriptionsWrite, PermMedicationAdmin, PermDailyRecordsWrite,
	PermPopsRead, PermPopsWrite, PermPopsPublish,
	PermContractsManage,
	PermComplianceRead, PermComplianceWrite,
	PermShiftsRead, PermShiftsManage,
	PermIndicatorsRead, PermIndicatorsManage,
	PermFinancialRead, PermFinancialManage,
	PermAuditRead, PermUsersManage,
}

// RolePermissions are the defaults before per-user overrides.
var RolePermissions = map[string][]string{
	RoleAdmin: AllPermissions,
	RoleManager: {
		PermResidentsRead, PermResidentsWrite, PermClinicalRead, PermClinicalWrite,
		PermDailyRecordsWrite, PermPopsRead, PermPopsWrite, PermPopsPublish,
		PermContractsManage, PermComplianceRead, PermComplianceWrite,
		PermShiftsRead, PermShiftsManage, PermIndicatorsRead, PermIndicatorsManage,
		PermFinancialRead, PermFinancialManage, PermAuditRead,
	},
	RoleNurse: {
		PermResidentsRead, PermResidentsWrite, PermClinicalRead, PermClinicalWrite,
		PermPrescriptionsWrite, PermMedicationAdmin, PermDailyRecordsWrite,
		PermPopsRead, PermComplianceRead, PermShiftsRead, PermIndicatorsRead,
	},
	RoleCaregiver: {
		PermResidentsRead, PermClinicalRead, PermMedicationAdmin,
		PermDailyRecordsWrite, PermPopsRead, PermShiftsRead,
	},
	RoleViewer: {
		PermResidentsRead, PermClinicalRead, PermPopsRead, PermComplianceRead,
		PermShiftsRead, PermIndicatorsRead,
	},
}

func ValidRole(role string) bool {
	if role == RoleSuperadmin {
		return true
	}
	_, ok := RolePermissions[role]
	return ok
}

func ValidPermission(p string) bool {
	for _, known := range AllPermissions {
		if known == p {
			return true
		}
	}
	return false
}
