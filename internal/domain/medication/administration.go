package medication

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AdministrationGiven    = "GIVEN"
	AdministrationRefused  = "REFUSED"
	AdministrationNotGiven = "NOT_GIVEN"
)

// MedicationAdministration is append-only.
type MedicationAdministration struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	MedicationID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"medication_id"`
	PrescriptionID     uuid.UUID  `gorm:"type:uuid;not null" json:"prescription_id"`
	ResidentID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_med_admin_resident_date,priority:1" json:"resident_id"`
	ScheduledDate      string     `gorm:"size:10;not null;index:idx_med_admin_resident_date,priority:2" json:"scheduled_date"`
	ScheduledTime      string     `gorm:"size:5;not null" json:"scheduled_time"`
	Status             string     `gorm:"not null" json:"status"`
	AdministeredAt     *time.Time `json:"administered_at,omitempty"`
	AdministeredBy     uuid.UUID  `gorm:"type:uuid;not null" json:"administered_by"`
	AdministeredByName string     `json:"administered_by_name,omitempty"`
	Notes              string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (MedicationAdministration) TableName() string { return "medication_administration" }

func (a *MedicationAdministration) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
