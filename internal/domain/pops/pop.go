package pops

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/history"
)

const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusObsolete  = "OBSOLETE"
)

var Categories = []string{"GESTAO_PESSOAL", "ENFERMAGEM", "NUTRICAO", "LIMPEZA", "OUTRO"}

func ValidCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Pop is a standard operating procedure document.
type Pop struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID             uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Title                string     `gorm:"not null" json:"title"`
	Category             string     `gorm:"not null;index" json:"category"`
	Content              string     `gorm:"type:text;not null" json:"content"`
	Status               string     `gorm:"not null;default:DRAFT;index" json:"status"`
	ReviewIntervalMonths int        `gorm:"not null;default:12" json:"review_interval_months"`
	NextReviewDate       *string    `gorm:"size:10" json:"next_review_date,omitempty"`
	PublishedAt          *time.Time `json:"published_at,omitempty"`
	PublishedBy          *uuid.UUID `gorm:"type:uuid" json:"published_by,omitempty"`
	ObsoletedAt          *time.Time `json:"obsoleted_at,omitempty"`
	ObsoleteReason       string     `gorm:"type:text" json:"obsolete_reason,omitempty"`
	PreviousVersionID    *uuid.UUID `gorm:"type:uuid;index" json:"previous_version_id,omitempty"`
	DocumentVersion      int        `gorm:"not null;default:1" json:"document_version"`
	history.Versioning
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Pop) TableName() string { return "pop" }

func (p *Pop) RecordType() string        { return "pop" }
func (p *Pop) RecordID() uuid.UUID       { return p.ID }
func (p *Pop) RecordTenantID() uuid.UUID { return p.TenantID }

func (p *Pop) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
