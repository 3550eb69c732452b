package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ChangeCreate = "CREATE"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// Versioning is embedded by every entity whose writes are audited.
type Versioning struct {
	VersionNumber int        `gorm:"not null;default:1;column:version_number" json:"version_number"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid;column:created_by" json:"created_by"`
	UpdatedBy     *uuid.UUID `gorm:"type:uuid;column:updated_by" json:"updated_by,omitempty"`
}

func (v *Versioning) GetVersion() int  { return v.VersionNumber }
func (v *Versioning) SetVersion(n int) { v.VersionNumber = n }
func (v *Versioning) SetCreatedBy(id uuid.UUID) {
	v.CreatedBy = id
}
func (v *Versioning) SetUpdatedBy(id uuid.UUID) {
	v.UpdatedBy = &id
}

// RecordHistory is one immutable row per update or delete of a versioned entity.
type RecordHistory struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	EntityType    string         `gorm:"not null;uniqueIndex:idx_record_history_version,priority:1;index:idx_record_history_entity,priority:1" json:"entity_type"`
	EntityID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_record_history_version,priority:2;index:idx_record_history_entity,priority:2" json:"entity_id"`
	VersionNumber int            `gorm:"not null;uniqueIndex:idx_record_history_version,priority:3" json:"version_number"`
	ChangeType    string         `gorm:"not null" json:"change_type"`
	ChangeReason  string         `gorm:"type:text;not null" json:"change_reason"`
	PreviousData  datatypes.JSON `gorm:"type:jsonb" json:"previous_data,omitempty"`
	NewData       datatypes.JSON `gorm:"type:jsonb" json:"new_data,omitempty"`
	ChangedFields datatypes.JSON `gorm:"type:jsonb" json:"changed_fields"`
	ChangedBy     uuid.UUID      `gorm:"type:uuid;not null" json:"changed_by"`
	ChangedByName string         `gorm:"column:changed_by_name" json:"changed_by_name,omitempty"`
	ChangedAt     time.Time      `gorm:"not null;index" json:"changed_at"`
}

func (RecordHistory) TableName() string { return "record_history" }

func (h *RecordHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
