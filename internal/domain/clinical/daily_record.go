package clinical

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/history"
)

const (
	RecordHygiene     = "HIGIENE"
	RecordFeeding     = "ALIMENTACAO"
	RecordHydration   = "HIDRATACAO"
	RecordMonitoring  = "MONITORAMENTO"
	RecordElimination = "ELIMINACAO"
	RecordBehavior    = "COMPORTAMENTO"
	RecordIncident    = "INTERCORRENCIA"
	RecordActivities  = "ATIVIDADES"
	RecordVisit       = "VISITA"
	RecordOther       = "OUTROS"
)

var RecordTypes = []string{
	RecordHygiene, RecordFeeding, RecordHydration, RecordMonitoring, RecordElimination,
	RecordBehavior, RecordIncident, RecordActivities, RecordVisit, RecordOther,
}

// Clinical incident subtypes. The first six feed the RDC monthly indicators.
const (
	IncidentDeath         = "OBITO"
	IncidentAcuteDiarrhea = "DOENCA_DIARREICA_AGUDA"
	IncidentScabies       = "ESCABIOSE"
	IncidentDehydration   = "DESIDRATACAO"
	IncidentPressureUlcer = "ULCERA_DECUBITO"
	IncidentMalnutrition  = "DESNUTRICAO"
	IncidentFall          = "QUEDA"
	IncidentOther         = "OUTRO"
)

var IncidentSubtypes = []string{
	IncidentDeath, IncidentAcuteDiarrhea, IncidentScabies, IncidentDehydration,
	IncidentPressureUlcer, IncidentMalnutrition, IncidentFall, IncidentOther,
}

const (
	IncidentMild     = "LEVE"
	IncidentModerate = "MODERADA"
	IncidentSevere   = "GRAVE"
)

type DailyRecord struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_daily_record_tenant_date,priority:1" json:"tenant_id"`
	ResidentID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"resident_id"`
	Type             string         `gorm:"not null;index" json:"type"`
	Date             string         `gorm:"size:10;not null;index:idx_daily_record_tenant_date,priority:2" json:"date"`
	Time             string         `gorm:"size:5;not null" json:"time"`
	RecordedBy       string         `gorm:"not null" json:"recorded_by"`
	Data             datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"`
	Notes            string         `gorm:"type:text" json:"notes,omitempty"`
	IncidentSubtype  *string        `gorm:"column:incident_subtype_clinical;index" json:"incident_subtype_clinical,omitempty"`
	IncidentSeverity *string        `gorm:"column:incident_severity" json:"incident_severity,omitempty"`
	IsSentinelEvent  bool           `gorm:"not null;default:false" json:"is_sentinel_event"`
	history.Versioning
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DailyRecord) TableName() string { return "daily_record" }

func (d *DailyRecord) RecordType() string        { return "daily_record" }
func (d *DailyRecord) RecordID() uuid.UUID       { return d.ID }
func (d *DailyRecord) RecordTenantID() uuid.UUID { return d.TenantID }

func (d *DailyRecord) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
