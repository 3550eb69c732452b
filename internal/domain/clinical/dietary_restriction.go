package clinical

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/history"
)

const (
	RestrictionFoodAllergy  = "ALERGIA_ALIMENTAR"
	RestrictionIntolerance  = "INTOLERANCIA"
	RestrictionMedical      = "RESTRICAO_MEDICA"
	RestrictionReligious    = "RESTRICAO_RELIGIOSA"
	RestrictionDysphagia    = "DISFAGIA"
	RestrictionDiabetes     = "DIABETES"
	RestrictionHypertension = "HIPERTENSAO"
	RestrictionOther        = "OUTRA"
)

func ValidRestrictionType(s string) bool {
	switch s {
	case RestrictionFoodAllergy, RestrictionIntolerance, RestrictionMedical, RestrictionReligious,
		RestrictionDysphagia, RestrictionDiabetes, RestrictionHypertension, RestrictionOther:
		return true
	}
	return false
}

type DietaryRestriction struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ResidentID      uuid.UUID `gorm:"type:uuid;not null;index" json:"resident_id"`
	RestrictionType string    `gorm:"not null" json:"restriction_type"`
	Description     string    `gorm:"type:text;not null" json:"description"`
	Notes           string    `gorm:"type:text" json:"notes,omitempty"`
	history.Versioning
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DietaryRestriction) TableName() string { return "dietary_restriction" }

func (d *DietaryRestriction) RecordType() string        { return "dietary_restriction" }
func (d *DietaryRestriction) RecordID() uuid.UUID       { return d.ID }
func (d *DietaryRestriction) RecordTenantID() uuid.UUID { return d.TenantID }

func (d *DietaryRestriction) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
