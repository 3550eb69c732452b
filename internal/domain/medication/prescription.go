package medication

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/history"
)

const (
	TypeRoutine     = "ROTINA"
	TypeControlled  = "CONTROLADO"
	TypeAntibiotic  = "ANTIBIOTICO"
	TypeOneOffShift = "ALTERACAO_PONTUAL"
)

func ValidPrescriptionType(t string) bool {
	switch t {
	case TypeRoutine, TypeControlled, TypeAntibiotic, TypeOneOffShift:
		return true
	}
	return false
}

type Prescription struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID         uuid.UUID    `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ResidentID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"resident_id"`
	DoctorName       string       `gorm:"not null" json:"doctor_name"`
	DoctorCRM        string       `gorm:"column:doctor_crm" json:"doctor_crm,omitempty"`
	PrescriptionDate string       `gorm:"size:10;not null" json:"prescription_date"`
	ValidUntil       *string      `gorm:"size:10;index" json:"valid_until,omitempty"`
	Type             string       `gorm:"not null" json:"type"`
	IsActive         bool         `gorm:"not null;default:true;index" json:"is_active"`
	Notes            string       `gorm:"type:text" json:"notes,omitempty"`
	Medications      []Medication `gorm:"foreignKey:PrescriptionID" json:"medications"`
	history.Versioning
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Prescription) TableName() string { return "prescription" }

func (p *Prescription) RecordType() string        { return "prescription" }
func (p *Prescription) RecordID() uuid.UUID       { return p.ID }
func (p *Prescription) RecordTenantID() uuid.UUID { return p.TenantID }

func (p *Prescription) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

const (
	IndicationPain      = "DOR"
	IndicationFever     = "FEBRE"
	IndicationAnxiety   = "ANSIEDADE"
	IndicationAgitation = "AGITACAO"
	IndicationNausea    = "NAUSEA"
	IndicationInsomnia  = "INSONIA"
	IndicationOther     = "OUTRO"
)

func ValidIndication(v string) bool {
	switch v {
	case IndicationPain, IndicationFever, IndicationAnxiety, IndicationAgitation,
		IndicationNausea, IndicationInsomnia, IndicationOther:
		return true
	}
	return false
}

// Medication with IsSOS set is given on demand, bounded by MaxDailyDoses, and has no scheduled times.
type Medication struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	PrescriptionID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"prescription_id"`
	Name              string         `gorm:"not null" json:"name"`
	Presentation      string         `json:"presentation,omitempty"`
	Concentration     string         `json:"concentration,omitempty"`
	Dose              string         `gorm:"not null" json:"dose"`
	Route             string         `gorm:"not null" json:"route"`
	Frequency         string         `json:"frequency,omitempty"`
	ScheduledTimes    datatypes.JSON `gorm:"type:jsonb" json:"scheduled_times"`
	StartDate         string         `gorm:"size:10;not null" json:"start_date"`
	EndDate           *string        `gorm:"size:10" json:"end_date,omitempty"`
	IsControlled      bool           `gorm:"not null;default:false" json:"is_controlled"`
	IsSOS             bool           `gorm:"column:is_sos;not null;default:false" json:"is_sos"`
	Indication        string         `json:"indication,omitempty"`
	IndicationDetails string         `gorm:"type:text" json:"indication_details,omitempty"`
	MinInterval       string         `json:"min_interval,omitempty"`
	MaxDailyDoses     *int           `json:"max_daily_doses,omitempty"`
	Instructions      string         `gorm:"type:text" json:"instructions,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Medication) TableName() string { return "medication" }

func (m *Medication) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
