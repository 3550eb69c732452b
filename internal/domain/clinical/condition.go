package clinical

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/history"
)

type Condition struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ResidentID  uuid.UUID `gorm:"type:uuid;not null;index" json:"resident_id"`
	Name        string    `gorm:"not null" json:"name"`
	ICD10Code   string    `gorm:"column:icd10_code" json:"icd10_code,omitempty"`
	DiagnosedAt *string   `gorm:"size:10" json:"diagnosed_at,omitempty"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`
	history.Versioning
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Condition) TableName() string { return "condition" }

func (c *Condition) RecordType() string        { return "condition" }
func (c *Condition) RecordID() uuid.UUID       { return c.ID }
func (c *Condition) RecordTenantID() uuid.UUID { return c.TenantID }

func (c *Condition) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
