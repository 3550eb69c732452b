package tenancy

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlanBasic        = "BASIC"
	PlanProfessional = "PROFESSIONAL"
	PlanEnterprise   = "ENTERPRISE"

	SubscriptionTrialing  = "TRIALING"
	SubscriptionActive    = "ACTIVE"
	SubscriptionPastDue   = "PAST_DUE"
	SubscriptionCancelled = "CANCELLED"
)

// PlanSpec is the commercial definition of a plan. MaxResidents 0 means unlimited.
type PlanSpec struct {
	Code         string `json:"code"`
	PriceCents   int64  `json:"price_cents"`
	MaxResidents int    `json:"max_residents"`
	MaxUsers     int    `json:"max_users"`
}

var Plans = map[string]PlanSpec{
	PlanBasic:        {Code: PlanBasic, PriceCents: 29900, MaxResidents: 30, MaxUsers: 10},
	PlanProfessional: {Code: PlanProfessional, PriceCents: 59900, MaxResidents: 80, MaxUsers: 30},
	PlanEnterprise:   {Code: PlanEnterprise, PriceCents: 119900},
}

type Subscription struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"tenant_id"`
	Plan               string     `gorm:"not null" json:"plan"`
	Status             string     `gorm:"not null;index" json:"status"`
	PriceCents         int64      `gorm:"not null" json:"price_cents"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelReason       string     `gorm:"type:text" json:"cancel_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string { return "subscription" }

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
