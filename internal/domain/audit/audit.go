package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionOther  = "ACTION"
)

type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   *uuid.UUID `gorm:"type:uuid;index:idx_audit_tenant_created,priority:1" json:"tenant_id,omitempty"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	UserName   string     `json:"user_name,omitempty"`
	Action     string     `gorm:"not null;index" json:"action"`
	Resource   string     `gorm:"not null;index" json:"resource"`
	ResourceID string     `json:"resource_id,omitempty"`
	Method     string     `gorm:"not null" json:"method"`
	Path       string     `gorm:"not null" json:"path"`
	StatusCode int        `gorm:"not null" json:"status_code"`
	IP         string     `gorm:"column:ip" json:"ip,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	DurationMs int64      `gorm:"not null" json:"duration_ms"`
	RequestID  string     `json:"request_id,omitempty"`
	CreatedAt  time.Time  `gorm:"index:idx_audit_tenant_created,priority:2" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_log" }

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// Notification with a nil UserID is addressed to the whole tenant.
type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_notification_tenant,priority:1" json:"tenant_id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Type       string     `gorm:"not null;index" json:"type"`
	Severity   string     `gorm:"not null" json:"severity"`
	Title      string     `gorm:"not null" json:"title"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	EntityType string     `json:"entity_type,omitempty"`
	EntityID   *uuid.UUID `gorm:"type:uuid" json:"entity_id,omitempty"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `gorm:"index:idx_notification_tenant,priority:2" json:"created_at"`
}

func (Notification) TableName() string { return "notification" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
