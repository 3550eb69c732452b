package medication

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/testutil"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/medication"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
)

func TestPrescriptionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()

	repo := NewPrescriptionRepo(db, testutil.Logger(t))
	tenant := testutil.SeedTenant(t, ctx, tx, "Casa")
	res := testutil.SeedResident(t, ctx, tx, tenant.ID, "Maria", "2024-01-01", residents.DependencyGrauI)

	soon := "2025-03-12"
	later := "2025-06-01"
	p1 := &types.Prescription{TenantID: tenant.ID, ResidentID: res.ID, DoctorName: "Dr. A", PrescriptionDate: "2025-03-01", ValidUntil: &soon, Type: medication.TypeAntibiotic, IsActive: true}
	p2 := &types.Prescription{TenantID: tenant.ID, ResidentID: res.ID, DoctorName: "Dr. B", PrescriptionDate: "2025-02-01", ValidUntil: &later, Type: medication.TypeRoutine, IsActive: true}
	if err := tx.Omit("Medications").Create([]*types.Prescription{p1, p2}).Error; err != nil {
		t.Fatalf("seed prescriptions: %v", err)
	}

	meds, err := repo.CreateMedications(dbc, []*types.Medication{
		{TenantID: tenant.ID, PrescriptionID: p1.ID, Name: "Amoxicilina", Dose: "500mg", Route: "VO", StartDate: "2025-03-01", ScheduledTimes: datatypes.JSON(`["08:00","20:00"]`)},
	})
	if err != nil || len(meds) != 1 {
		t.Fatalf("CreateMedications: err=%v len=%d", err, len(meds))
	}

	got, err := repo.GetByID(dbc, tenant.ID, p1.ID)
	if err != nil || got == nil || len(got.Medications) != 1 {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	if m, err := repo.GetMedication(dbc, tenant.ID, meds[0].ID); err != nil || m == nil {
		t.Fatalf("GetMedication: err=%v m=%v", err, m)
	}

	if err := repo.ReplaceMedications(dbc, p1.ID, []*types.Medication{
		{TenantID: tenant.ID, Name: "Azitromicina", Dose: "500mg", Route: "VO", StartDate: "2025-03-02"},
		{TenantID: tenant.ID, Name: "Dipirona", Dose: "1g", Route: "VO", StartDate: "2025-03-02"},
	}); err != nil {
		t.Fatalf("ReplaceMedications: %v", err)
	}
	got, err = repo.GetByID(dbc, tenant.ID, p1.ID)
	if err != nil || len(got.Medications) != 2 || got.Medications[0].Name != "Azitromicina" {
		t.Fatalf("after ReplaceMedications: err=%v meds=%v", err, got.Medications)
	}

	rows, err := repo.List(dbc, tenant.ID, PrescriptionFilter{ResidentID: res.ID, ActiveOnly: true})
	if err != nil || len(rows) != 2 || rows[0].ID != p1.ID {
		t.Fatalf("List: err=%v len=%d", err, len(rows))
	}

	expiring, err := repo.ListExpiring(dbc, &tenant.ID, "2025-03-10", "2025-03-15")
	if err != nil || len(expiring) != 1 || expiring[0].ID != p1.ID {
		t.Fatalf("ListExpiring: err=%v len=%d", err, len(expiring))
	}
	if all, err := repo.ListExpiring(dbc, nil, "2025-01-01", "2025-12-31"); err != nil || len(all) != 2 {
		t.Fatalf("ListExpiring(all tenants): err=%v len=%d", err, len(all))
	}
}

func TestAdministrationRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()

	repo := NewAdministrationRepo(db, testutil.Logger(t))
	tenant := testutil.SeedTenant(t, ctx, tx, "Casa")
	res := testutil.SeedResident(t, ctx, tx, tenant.ID, "Maria", "2024-01-01", residents.DependencyGrauI)
	nurse := testutil.SeedUser(t, ctx, tx, tenant.ID, "enf@casa.com", "NURSE")

	rows := []*types.MedicationAdministration{
		{TenantID: tenant.ID, MedicationID: uuid.New(), PrescriptionID: uuid.New(), ResidentID: res.ID, ScheduledDate: "2025-03-02", ScheduledTime: "20:00", Status: medication.AdministrationGiven, AdministeredBy: nurse.ID},
		{TenantID: tenant.ID, MedicationID: uuid.New(), PrescriptionID: uuid.New(), ResidentID: res.ID, ScheduledDate: "2025-03-02", ScheduledTime: "08:00", Status: medication.AdministrationRefused, AdministeredBy: nurse.ID},
		{TenantID: tenant.ID, MedicationID: uuid.New(), PrescriptionID: uuid.New(), ResidentID: res.ID, ScheduledDate: "2025-03-03", ScheduledTime: "08:00", Status: medication.AdministrationGiven, AdministeredBy: nurse.ID},
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}
	day, err := repo.ListByResidentDate(dbc, tenant.ID, res.ID, "2025-03-02")
	if err != nil || len(day) != 2 || day[0].ScheduledTime != "08:00" {
		t.Fatalf("ListByResidentDate: err=%v len=%d", err, len(day))
	}
	if all, err := repo.ListByResidentDate(dbc, tenant.ID, res.ID, ""); err != nil || len(all) != 3 {
		t.Fatalf("ListByResidentDate(all): err=%v len=%d", err, len(all))
	}
	if n, err := repo.CountGiven(dbc, tenant.ID, rows[0].MedicationID, "2025-03-02"); err != nil || n != 1 {
		t.Fatalf("CountGiven: err=%v n=%d", err, n)
	}
	if n, err := repo.CountGiven(dbc, tenant.ID, rows[1].MedicationID, "2025-03-02"); err != nil || n != 0 {
		t.Fatalf("CountGiven(refused): err=%v n=%d", err, n)
	}
}
