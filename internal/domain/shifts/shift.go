package shifts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ShiftScheduled  = "SCHEDULED"
	ShiftInProgress = "IN_PROGRESS"
	ShiftCompleted  = "COMPLETED"
	ShiftCancelled  = "CANCELLED"
)

func ValidShiftStatus(s string) bool {
	switch s {
	case ShiftScheduled, ShiftInProgress, ShiftCompleted, ShiftCancelled:
		return true
	}
	return false
}

type Shift struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID        uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_shift_slot,priority:1" json:"tenant_id"`
	Date            string         `gorm:"size:10;not null;index;uniqueIndex:idx_shift_slot,priority:2" json:"date"`
	ShiftTemplateID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_shift_slot,priority:3" json:"shift_template_id"`
	TeamID          *uuid.UUID     `gorm:"type:uuid;index" json:"team_id,omitempty"`
	Status          string         `gorm:"not null;default:SCHEDULED" json:"status"`
	IsFromPattern   bool           `gorm:"not null;default:false" json:"is_from_pattern"`
	Notes           string         `gorm:"type:text" json:"notes,omitempty"`
	Template        *ShiftTemplate `gorm:"foreignKey:ShiftTemplateID" json:"template,omitempty"`
	Members         []ShiftMember  `gorm:"foreignKey:ShiftID" json:"members,omitempty"`
	CreatedBy       uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Shift) TableName() string { return "shift" }

func (s *Shift) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ShiftMember is an assignment. Removal is recorded, not deleted.
type ShiftMember struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ShiftID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"shift_id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	AssignedBy uuid.UUID  `gorm:"type:uuid" json:"assigned_by"`
	RemovedAt  *time.Time `json:"removed_at,omitempty"`
	RemovedBy  *uuid.UUID `gorm:"type:uuid" json:"removed_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (ShiftMember) TableName() string { return "shift_member" }

func (m *ShiftMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
