package shifts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TemplateDay8h    = "DIA_8H"
	TemplateAfter8h  = "TARDE_8H"
	TemplateNight8h  = "NOITE_8H"
	TemplateDay12h   = "DIA_12H"
	TemplateNight12h = "NOITE_12H"
)

// ShiftTemplate is a global shift definition shared by every tenant.
type ShiftTemplate struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Type          string    `gorm:"not null;uniqueIndex" json:"type" yaml:"type"`
	Name          string    `gorm:"not null" json:"name" yaml:"name"`
	StartTime     string    `gorm:"size:5;not null" json:"start_time" yaml:"start_time"`
	EndTime       string    `gorm:"size:5;not null" json:"end_time" yaml:"end_time"`
	DurationHours int       `gorm:"not null" json:"duration_hours" yaml:"duration_hours"`
	Description   string    `json:"description,omitempty" yaml:"description"`
	DisplayOrder  int       `gorm:"not null;default:0" json:"display_order" yaml:"display_order"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active" yaml:"is_active"`
	CreatedAt     time.Time `json:"created_at" yaml:"-"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"-"`
}

func (ShiftTemplate) TableName() string { return "shift_template" }

func (t *ShiftTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TenantShiftConfig overrides a template per tenant. Missing rows mean enabled.
type TenantShiftConfig struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tenant_shift_config,priority:1" json:"tenant_id"`
	ShiftTemplateID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tenant_shift_config,priority:2" json:"shift_template_id"`
	IsEnabled       bool      `gorm:"not null" json:"is_enabled"`
	CustomName      string    `json:"custom_name,omitempty"`
	CreatedBy       uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (TenantShiftConfig) TableName() string { return "tenant_shift_config" }

func (c *TenantShiftConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
