package indicators

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	Mortality     = "MORTALIDADE"
	AcuteDiarrhea = "DIARREIA_AGUDA"
	Scabies       = "ESCABIOSE"
	Dehydration   = "DESIDRATACAO"
	PressureUlcer = "ULCERA_DECUBITO"
	Malnutrition  = "DESNUTRICAO"

	MonthOpen   = "OPEN"
	MonthClosed = "CLOSED"

	// DenominatorDay is the census day used as the monthly population.
	DenominatorDay = 15
)

var Types = []string{Mortality, AcuteDiarrhea, Scabies, Dehydration, PressureUlcer, Malnutrition}

type Indicator struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_indicator_month,priority:1" json:"tenant_id"`
	Year          int            `gorm:"not null;uniqueIndex:idx_indicator_month,priority:2" json:"year"`
	Month         int            `gorm:"not null;uniqueIndex:idx_indicator_month,priority:3" json:"month"`
	IndicatorType string         `gorm:"not null;uniqueIndex:idx_indicator_month,priority:4" json:"indicator_type"`
	Numerator     int            `gorm:"not null" json:"numerator"`
	Denominator   int            `gorm:"not null" json:"denominator"`
	Rate          float64        `gorm:"not null" json:"rate"`
	IncidentIDs   datatypes.JSON `gorm:"type:jsonb" json:"incident_ids"`
	CalculatedAt  time.Time      `gorm:"not null" json:"calculated_at"`
	CalculatedBy  *uuid.UUID     `gorm:"type:uuid" json:"calculated_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (Indicator) TableName() string { return "rdc_indicator" }

func (i *Indicator) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// MonthClosure tracks whether a month's indicators are frozen.
type MonthClosure struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_month_closure,priority:1" json:"tenant_id"`
	Year         int        `gorm:"not null;uniqueIndex:idx_month_closure,priority:2" json:"year"`
	Month        int        `gorm:"not null;uniqueIndex:idx_month_closure,priority:3" json:"month"`
	Status       string     `gorm:"not null" json:"status"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	ClosedBy     *uuid.UUID `gorm:"type:uuid" json:"closed_by,omitempty"`
	CloseNote    string     `gorm:"type:text" json:"close_note,omitempty"`
	ReopenedAt   *time.Time `json:"reopened_at,omitempty"`
	ReopenedBy   *uuid.UUID `gorm:"type:uuid" json:"reopened_by,omitempty"`
	ReopenReason string     `gorm:"type:text" json:"reopen_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (MonthClosure) TableName() string { return "rdc_month_closure" }

func (m *MonthClosure) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
