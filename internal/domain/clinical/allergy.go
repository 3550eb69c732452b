package clinical

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/history"
)

const (
	SeverityMild        = "LEVE"
	SeverityModerate    = "MODERADA"
	SeveritySevere      = "GRAVE"
	SeverityAnaphylaxis = "ANAFILAXIA"
)

func ValidAllergySeverity(s string) bool {
	switch s {
	case "", SeverityMild, SeverityModerate, SeveritySevere, SeverityAnaphylaxis:
		return true
	}
	return false
}

type Allergy struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ResidentID uuid.UUID `gorm:"type:uuid;not null;index" json:"resident_id"`
	Substance  string    `gorm:"not null" json:"substance"`
	Reaction   string    `gorm:"type:text" json:"reaction,omitempty"`
	Severity   string    `json:"severity,omitempty"`
	Notes      string    `gorm:"type:text" json:"notes,omitempty"`
	history.Versioning
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Allergy) TableName() string { return "allergy" }

func (a *Allergy) RecordType() string        { return "allergy" }
func (a *Allergy) RecordID() uuid.UUID       { return a.ID }
func (a *Allergy) RecordTenantID() uuid.UUID { return a.TenantID }

func (a *Allergy) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
