package contracts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/history"
)

const (
	StatusActive    = "VIGENTE"
	StatusExpiring  = "VENCENDO"
	StatusExpired   = "VENCIDO"
	StatusRescinded = "RESCINDIDO"
)

// ExpiringWindowDays is how far ahead an end date flags a contract as expiring.
const ExpiringWindowDays = 30

type Contract struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID           uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_contract_number,priority:1" json:"tenant_id"`
	ResidentID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"resident_id"`
	ContractNumber     string     `gorm:"not null;uniqueIndex:idx_contract_number,priority:2" json:"contract_number"`
	StartDate          string     `gorm:"size:10;not null" json:"start_date"`
	EndDate            *string    `gorm:"size:10" json:"end_date,omitempty"`
	MonthlyAmountCents int64      `gorm:"not null" json:"monthly_amount_cents"`
	DueDay             int        `gorm:"not null" json:"due_day"`
	Status             string     `gorm:"not null;index" json:"status"`
	ResponsibleName    string     `json:"responsible_name,omitempty"`
	RescindedAt        *time.Time `json:"rescinded_at,omitempty"`
	RescindReason      string     `gorm:"type:text" json:"rescind_reason,omitempty"`
	Notes              string     `gorm:"type:text" json:"notes,omitempty"`
	history.Versioning
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Contract) TableName() string { return "resident_contract" }

func (c *Contract) RecordType() string        { return "resident_contract" }
func (c *Contract) RecordID() uuid.UUID       { return c.ID }
func (c *Contract) RecordTenantID() uuid.UUID { return c.TenantID }

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ComputeStatus derives the status from dates; rescission is sticky.
func ComputeStatus(c *Contract, today string, expiringLimit string) string {
	if c.Status == StatusRescinded {
		return StatusRescinded
	}
	if c.EndDate == nil {
		return StatusActive
	}
	switch {
	case *c.EndDate < today:
		return StatusExpired
	case *c.EndDate <= expiringLimit:
		return StatusExpiring
	default:
		return StatusActive
	}
}
