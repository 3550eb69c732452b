package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    *uuid.UUID     `gorm:"type:uuid;index;column:tenant_id" json:"tenant_id,omitempty"`
	Email       string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password    string         `gorm:"not null;column:password" json:"-"`
	Name        string         `gorm:"not null;column:name" json:"name"`
	Role        string         `gorm:"not null;column:role" json:"role"`
	Position    string         `gorm:"column:position" json:"position,omitempty"`
	IsActive    bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserPermission grants or revokes a single permission on top of the role defaults.
type UserPermission struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_permission,priority:1" json:"user_id"`
	Permission string    `gorm:"not null;uniqueIndex:idx_user_permission,priority:2" json:"permission"`
	Granted    bool      `gorm:"not null" json:"granted"`
	GrantedBy  uuid.UUID `gorm:"type:uuid" json:"granted_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (UserPermission) TableName() string { return "user_permission" }

func (p *UserPermission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
