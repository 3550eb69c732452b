package shifts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Team struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Color       string         `gorm:"size:7" json:"color,omitempty"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	Members     []TeamMember   `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	CreatedBy   uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Team) TableName() string { return "team" }

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type TeamMember struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	TeamID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"team_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Role      string     `json:"role,omitempty"`
	AddedBy   uuid.UUID  `gorm:"type:uuid" json:"added_by"`
	RemovedAt *time.Time `json:"removed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (TeamMember) TableName() string { return "team_member" }

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// WeeklyPatternAssignment binds a team to a template on a weekday (0 = Sunday).
type WeeklyPatternAssignment struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_weekly_pattern,priority:1" json:"tenant_id"`
	Weekday         int       `gorm:"not null;uniqueIndex:idx_weekly_pattern,priority:2" json:"weekday"`
	ShiftTemplateID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_weekly_pattern,priority:3" json:"shift_template_id"`
	TeamID          uuid.UUID `gorm:"type:uuid;not null" json:"team_id"`
	CreatedBy       uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (WeeklyPatternAssignment) TableName() string { return "weekly_pattern_assignment" }

func (w *WeeklyPatternAssignment) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
