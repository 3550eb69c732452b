package compliance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusDraft     = "DRAFT"
	StatusCompleted = "COMPLETED"

	LevelRegular   = "REGULAR"
	LevelPartial   = "PARCIAL"
	LevelIrregular = "IRREGULAR"

	TotalQuestions = 37
	MaxPoints      = 5
)

type Assessment struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID             uuid.UUID      `gorm:"type:uuid;not null;index:idx_assessment_tenant_date,priority:1" json:"tenant_id"`
	VersionID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"version_id"`
	AssessmentDate       time.Time      `gorm:"not null;index:idx_assessment_tenant_date,priority:2" json:"assessment_date"`
	PerformedBy          uuid.UUID      `gorm:"type:uuid;not null;index" json:"performed_by"`
	PerformedByName      string         `json:"performed_by_name,omitempty"`
	Status               string         `gorm:"not null;default:DRAFT;index" json:"status"`
	TotalQuestions       int            `gorm:"not null;default:37" json:"total_questions"`
	QuestionsAnswered    int            `gorm:"not null;default:0" json:"questions_answered"`
	QuestionsNA          int            `gorm:"not null;default:0;column:questions_na" json:"questions_na"`
	ApplicableQuestions  int            `gorm:"not null;default:0" json:"applicable_questions"`
	TotalPointsObtained  float64        `gorm:"not null;default:0" json:"total_points_obtained"`
	TotalPointsPossible  float64        `gorm:"not null;default:0" json:"total_points_possible"`
	CompliancePercentage float64        `gorm:"not null;default:0" json:"compliance_percentage"`
	ComplianceLevel      string         `json:"compliance_level,omitempty"`
	CriticalNonCompliant datatypes.JSON `gorm:"type:jsonb" json:"critical_non_compliant,omitempty"`
	Notes                string         `gorm:"type:text" json:"notes,omitempty"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`

	Version   *QuestionVersion `gorm:"foreignKey:VersionID" json:"version,omitempty"`
	Responses []Response       `gorm:"foreignKey:AssessmentID" json:"responses,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Assessment) TableName() string { return "compliance_assessment" }

func (a *Assessment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// CriticalItem is one critical question scored below the compliance floor.
type CriticalItem struct {
	QuestionNumber int    `json:"question_number"`
	QuestionText   string `json:"question_text"`
	PointsObtained int    `json:"points_obtained"`
}

// Response snapshots question text and criticality at answer time.
type Response struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_response_question,priority:1" json:"assessment_id"`
	QuestionID           uuid.UUID `gorm:"type:uuid;not null" json:"question_id"`
	QuestionNumber       int       `gorm:"not null;uniqueIndex:idx_response_question,priority:2" json:"question_number"`
	SelectedPoints       *int      `json:"selected_points"`
	SelectedText         string    `gorm:"type:text" json:"selected_text,omitempty"`
	IsNotApplicable      bool      `gorm:"not null;default:false" json:"is_not_applicable"`
	QuestionTextSnapshot string    `gorm:"type:text;not null" json:"question_text_snapshot"`
	CriticalityLevel     string    `gorm:"size:2;not null" json:"criticality_level"`
	Observations         string    `gorm:"type:text" json:"observations,omitempty"`
	RespondedBy          uuid.UUID `gorm:"type:uuid" json:"responded_by"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (Response) TableName() string { return "compliance_assessment_response" }

func (r *Response) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
