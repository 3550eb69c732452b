package tenancy

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TenantActive    = "ACTIVE"
	TenantSuspended = "SUSPENDED"
	TenantCancelled = "CANCELLED"
)

type Tenant struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string         `gorm:"not null" json:"name"`
	CNPJ            string         `gorm:"uniqueIndex;not null;column:cnpj" json:"cnpj"`
	Email           string         `gorm:"not null" json:"email"`
	Phone           string         `json:"phone,omitempty"`
	City            string         `json:"city,omitempty"`
	State           string         `gorm:"size:2" json:"state,omitempty"`
	Status          string         `gorm:"not null;default:ACTIVE;index" json:"status"`
	SuspendedReason string         `gorm:"type:text" json:"suspended_reason,omitempty"`
	SuspendedAt     *time.Time     `json:"suspended_at,omitempty"`
	Subscription    *Subscription  `gorm:"foreignKey:TenantID" json:"subscription,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Tenant) TableName() string { return "tenant" }

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
