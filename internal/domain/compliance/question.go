package compliance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CriticalityCritical    = "C"
	CriticalityNonCritical = "NC"
)

// QuestionVersion groups the question bank of one regulation revision.
type QuestionVersion struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RegulationName string     `gorm:"not null;uniqueIndex:idx_question_version,priority:1" json:"regulation_name"`
	VersionNumber  int        `gorm:"not null;uniqueIndex:idx_question_version,priority:2" json:"version_number"`
	EffectiveDate  string     `gorm:"size:10;not null" json:"effective_date"`
	ExpiresAt      *string    `gorm:"size:10" json:"expires_at,omitempty"`
	Description    string     `gorm:"type:text" json:"description,omitempty"`
	Questions      []Question `gorm:"foreignKey:VersionID" json:"questions,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (QuestionVersion) TableName() string { return "compliance_question_version" }

func (v *QuestionVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

type ResponseOption struct {
	Points int    `json:"points" yaml:"points"`
	Text   string `json:"text" yaml:"text"`
}

type Question struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	VersionID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_question_number,priority:1" json:"version_id"`
	QuestionNumber   int            `gorm:"not null;uniqueIndex:idx_question_number,priority:2" json:"question_number"`
	QuestionText     string         `gorm:"type:text;not null" json:"question_text"`
	CriticalityLevel string         `gorm:"size:2;not null" json:"criticality_level"`
	LegalReference   string         `json:"legal_reference,omitempty"`
	Category         string         `gorm:"not null" json:"category"`
	ResponseOptions  datatypes.JSON `gorm:"type:jsonb" json:"response_options"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (Question) TableName() string { return "compliance_question" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
