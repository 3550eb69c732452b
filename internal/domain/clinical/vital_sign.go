package clinical

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/history"
)

const (
	AlertPressure    = "VITAL_SIGN_ABNORMAL_BP"
	AlertGlucose     = "VITAL_SIGN_ABNORMAL_GLUCOSE"
	AlertTemperature = "VITAL_SIGN_ABNORMAL_TEMPERATURE"
	AlertHeartRate   = "VITAL_SIGN_ABNORMAL_HEART_RATE"
	AlertOxygen      = "VITAL_SIGN_LOW_OXYGEN"

	AlertWarning  = "WARNING"
	AlertCritical = "CRITICAL"
)

// VitalSign is one measurement round for a resident. Every reading is optional
// but at least one must be present.
type VitalSign struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID               uuid.UUID `gorm:"type:uuid;not null;index:idx_vital_sign_resident_time,priority:1" json:"tenant_id"`
	ResidentID             uuid.UUID `gorm:"type:uuid;not null;index:idx_vital_sign_resident_time,priority:2" json:"resident_id"`
	MeasuredAt             time.Time `gorm:"not null;index:idx_vital_sign_resident_time,priority:3" json:"measured_at"`
	RecordedBy             uuid.UUID `gorm:"type:uuid;not null" json:"recorded_by"`
	SystolicBloodPressure  *int      `json:"systolic_blood_pressure,omitempty"`
	DiastolicBloodPressure *int      `json:"diastolic_blood_pressure,omitempty"`
	Temperature            *float64  `json:"temperature,omitempty"`
	HeartRate              *int      `json:"heart_rate,omitempty"`
	OxygenSaturation       *int      `json:"oxygen_saturation,omitempty"`
	BloodGlucose           *int      `json:"blood_glucose,omitempty"`
	Notes                  string    `gorm:"type:text" json:"notes,omitempty"`
	history.Versioning
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (VitalSign) TableName() string { return "vital_sign" }

func (v *VitalSign) RecordType() string        { return "vital_sign" }
func (v *VitalSign) RecordID() uuid.UUID       { return v.ID }
func (v *VitalSign) RecordTenantID() uuid.UUID { return v.TenantID }

func (v *VitalSign) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (v *VitalSign) HasReading() bool {
	return v.SystolicBloodPressure != nil || v.DiastolicBloodPressure != nil || v.Temperature != nil ||
		v.HeartRate != nil || v.OxygenSaturation != nil || v.BloodGlucose != nil
}

// VitalAlert is a reading outside its reference range.
type VitalAlert struct {
	Type     string
	Severity string
	Label    string
	Value    string
}

// Alerts checks each reading against the reference ranges. A reading outside the
// warning range is WARNING; outside the critical range it is CRITICAL.
func (v *VitalSign) Alerts() []VitalAlert {
	var out []VitalAlert
	if p := v.SystolicBloodPressure; p != nil && (*p >= 140 || *p < 90) {
		out = append(out, VitalAlert{
			Type:     AlertPressure,
			Severity: severity(*p >= 160 || *p < 80),
			Label:    "Pressão arterial sistólica",
			Value:    fmt.Sprintf("%d mmHg", *p),
		})
	}
	if g := v.BloodGlucose; g != nil && (*g >= 200 || *g < 70) {
		out = append(out, VitalAlert{
			Type:     AlertGlucose,
			Severity: severity(*g >= 250 || *g < 50),
			Label:    "Glicemia",
			Value:    fmt.Sprintf("%d mg/dL", *g),
		})
	}
	if t := v.Temperature; t != nil && (*t >= 37.5 || *t < 35.5) {
		out = append(out, VitalAlert{
			Type:     AlertTemperature,
			Severity: severity(*t >= 38.5 || *t < 35),
			Label:    "Temperatura",
			Value:    fmt.Sprintf("%.1f°C", *t),
		})
	}
	if hr := v.HeartRate; hr != nil && (*hr >= 100 || *hr < 60) {
		out = append(out, VitalAlert{
			Type:     AlertHeartRate,
			Severity: severity(*hr >= 120 || *hr < 50),
			Label:    "Frequência cardíaca",
			Value:    fmt.Sprintf("%d bpm", *hr),
		})
	}
	if o := v.OxygenSaturation; o != nil && *o < 92 {
		out = append(out, VitalAlert{
			Type:     AlertOxygen,
			Severity: severity(*o < 88),
			Label:    "Saturação de oxigênio",
			Value:    fmt.Sprintf("%d%%", *o),
		})
	}
	return out
}

func severity(critical bool) string {
	if critical {
		return AlertCritical
	}
	return AlertWarning
}
