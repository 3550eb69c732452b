package residents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/history"
)

const (
	StatusActive   = "ATIVO"
	StatusInactive = "INATIVO"
	StatusDeceased = "FALECIDO"

	DependencyGrauI   = "GRAU_I"
	DependencyGrauII  = "GRAU_II"
	DependencyGrauIII = "GRAU_III"
)

func ValidDependencyLevel(level string) bool {
	switch level {
	case "", DependencyGrauI, DependencyGrauII, DependencyGrauIII:
		return true
	}
	return false
}

type Resident struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_resident_cpf,priority:1" json:"tenant_id"`
	FullName        string    `gorm:"not null" json:"full_name"`
	SocialName      string    `json:"social_name,omitempty"`
	CPF             string    `gorm:"size:11;uniqueIndex:idx_resident_cpf,priority:2;column:cpf" json:"cpf"`
	Gender          string    `json:"gender,omitempty"`
	BirthDate       string    `gorm:"size:10;not null" json:"birth_date"`
	AdmissionDate   string    `gorm:"size:10;not null;index" json:"admission_date"`
	DischargeDate   *string   `gorm:"size:10" json:"discharge_date,omitempty"`
	DischargeReason string    `json:"discharge_reason,omitempty"`
	DependencyLevel string    `gorm:"index" json:"dependency_level,omitempty"`
	Status          string    `gorm:"not null;default:ATIVO;index" json:"status"`
	Room            string    `json:"room,omitempty"`
	Bed             string    `json:"bed,omitempty"`
	EmergencyName   string    `json:"emergency_contact_name,omitempty"`
	EmergencyPhone  string    `json:"emergency_contact_phone,omitempty"`
	Notes           string    `gorm:"type:text" json:"notes,omitempty"`
	history.Versioning
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Resident) TableName() string { return "resident" }

func (r *Resident) RecordType() string        { return "resident" }
func (r *Resident) RecordID() uuid.UUID       { return r.ID }
func (r *Resident) RecordTenantID() uuid.UUID { return r.TenantID }

func (r *Resident) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PresentOn reports whether the resident was housed on the given date.
func (r *Resident) PresentOn(date string) bool {
	if r.AdmissionDate == "" || r.AdmissionDate > date {
		return false
	}
	return r.DischargeDate == nil || *r.DischargeDate > date
}
