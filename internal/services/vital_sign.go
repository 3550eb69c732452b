package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	clinicalRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/clinical"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/clinical"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/versioning"
)

// maxClockSkew is how far in the future a measurement time may be.
const maxClockSkew = 5 * time.Minute

type VitalSignInput struct {
	ResidentID             uuid.UUID `json:"residentId"`
	MeasuredAt             time.Time `json:"measuredAt"`
	SystolicBloodPressure  *int      `json:"systolicBloodPressure"`
	DiastolicBloodPressure *int      `json:"diastolicBloodPressure"`
	Temperature            *float64  `json:"temperature"`
	HeartRate              *int      `json:"heartRate"`
	OxygenSaturation       *int      `json:"oxygenSaturation"`
	BloodGlucose           *int      `json:"bloodGlucose"`
	Notes                  string    `json:"notes"`
}

type VitalSignPatch struct {
	MeasuredAt             *time.Time `json:"measuredAt"`
	SystolicBloodPressure  *int       `json:"systolicBloodPressure"`
	DiastolicBloodPressure *int       `json:"diastolicBloodPressure"`
	Temperature            *float64   `json:"temperature"`
	HeartRate              *int       `json:"heartRate"`
	OxygenSaturation       *int       `json:"oxygenSaturation"`
	BloodGlucose           *int       `json:"bloodGlucose"`
	Notes                  *string    `json:"notes"`
	ChangeReason           string     `json:"changeReason"`
}

type VitalSignService interface {
	// Create records a measurement and notifies the tenant about readings out of range.
	Create(dbc dbctx.Context, in VitalSignInput) (*types.VitalSign, error)
	// ListByResident filters by facility-local dates; empty bounds are open.
	ListByResident(dbc dbctx.Context, residentID uuid.UUID, startDate, endDate string) ([]*types.VitalSign, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.VitalSign, error)
	Update(dbc dbctx.Context, id uuid.UUID, in VitalSignPatch) (*types.VitalSign, error)
	Delete(dbc dbctx.Context, id uuid.UUID, reason string) error
	History(dbc dbctx.Context, id uuid.UUID) ([]*types.RecordHistory, error)
	HistoryVersion(dbc dbctx.Context, id uuid.UUID, version int) (*types.RecordHistory, error)
}

type vitalSignService struct {
	versionedReads
	db           *gorm.DB
	log          *logger.Logger
	repo         repos.VitalSignRepo
	residentRepo repos.ResidentRepo
	notifier     NotificationService
	now          func() time.Time
}

func NewVitalSignService(db *gorm.DB, log *logger.Logger, repo repos.VitalSignRepo, residentRepo repos.ResidentRepo, recorder *versioning.Recorder, notifier NotificationService) VitalSignService {
	return &vitalSignService{
		versionedReads: versionedReads{recorder: recorder, entityType: (&types.VitalSign{}).RecordType()},
		db:             db,
		log:            log.With("service", "VitalSignService"),
		repo:           repo,
		residentRepo:   residentRepo,
		notifier:       notifier,
		now:            time.Now,
	}
}

func intRange(fields fieldErrors, name string, v *int, lo, hi int) {
	if v != nil && (*v < lo || *v > hi) {
		fields[name] = fmt.Sprintf("must be between %d and %d", lo, hi)
	}
}

func (s *vitalSignService) validate(v *types.VitalSign) error {
	fields := fieldErrors{}
	if v.MeasuredAt.IsZero() {
		fields["measuredAt"] = "is required"
	} else if v.MeasuredAt.After(s.now().Add(maxClockSkew)) {
		fields["measuredAt"] = "must not be in the future"
	}
	if !v.HasReading() {
		fields["readings"] = "at least one reading is required"
	}
	intRange(fields, "systolicBloodPressure", v.SystolicBloodPressure, 40, 300)
	intRange(fields, "diastolicBloodPressure", v.DiastolicBloodPressure, 20, 200)
	intRange(fields, "heartRate", v.HeartRate, 20, 250)
	intRange(fields, "oxygenSaturation", v.OxygenSaturation, 50, 100)
	intRange(fields, "bloodGlucose", v.BloodGlucose, 10, 1000)
	if t := v.Temperature; t != nil && (*t < 30 || *t > 45) {
		fields["temperature"] = "must be between 30 and 45"
	}
	return fields.err()
}

func (s *vitalSignService) Create(dbc dbctx.Context, in VitalSignInput) (*types.VitalSign, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	v := &types.VitalSign{
		TenantID:               rd.TenantID,
		ResidentID:             in.ResidentID,
		MeasuredAt:             in.MeasuredAt.UTC(),
		RecordedBy:             rd.UserID,
		SystolicBloodPressure:  in.SystolicBloodPressure,
		DiastolicBloodPressure: in.DiastolicBloodPressure,
		Temperature:            in.Temperature,
		HeartRate:              in.HeartRate,
		OxygenSaturation:       in.OxygenSaturation,
		BloodGlucose:           in.BloodGlucose,
		Notes:                  in.Notes,
	}
	if err := s.validate(v); err != nil {
		return nil, err
	}
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		resident, err := loadResident(inner, s.residentRepo, rd.TenantID, in.ResidentID)
		if err != nil {
			return err
		}
		if err := s.recorder.Create(inner, v, actorOf(rd)); err != nil {
			return err
		}
		return s.raiseAlerts(inner, v, resident, v.Alerts())
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// raiseAlerts sends one tenant notification per alert.
func (s *vitalSignService) raiseAlerts(dbc dbctx.Context, v *types.VitalSign, resident *types.Resident, alerts []clinical.VitalAlert) error {
	id := v.ID
	for _, a := range alerts {
		_, err := s.notifier.Notify(dbc, NotifyInput{
			TenantID:   v.TenantID,
			Type:       a.Type,
			Severity:   a.Severity,
			Title:      a.Label + " fora da faixa",
			Message:    fmt.Sprintf("%s: %s de %s em %s.", resident.FullName, a.Label, a.Value, dates.Format(v.MeasuredAt)),
			EntityType: v.RecordType(),
			EntityID:   &id,
		})
		if err != nil {
			return fmt.Errorf("notify %s: %w", a.Type, err)
		}
	}
	if len(alerts) > 0 {
		s.log.Warn("abnormal vital signs", "tenant_id", v.TenantID, "vital_sign_id", v.ID, "alerts", len(alerts))
	}
	return nil
}

func (s *vitalSignService) ListByResident(dbc dbctx.Context, residentID uuid.UUID, startDate, endDate string) ([]*types.VitalSign, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	fields := fieldErrors{}
	fields.optionalDate("startDate", &startDate)
	fields.optionalDate("endDate", &endDate)
	if err := fields.err(); err != nil {
		return nil, err
	}
	// measured_at is stored in UTC.
	f := clinicalRepo.VitalSignFilter{ResidentID: residentID}
	if startDate != "" {
		start, err := dates.Parse(startDate)
		if err != nil {
			return nil, err
		}
		f.From = start.UTC()
	}
	if endDate != "" {
		end, err := dates.Parse(endDate)
		if err != nil {
			return nil, err
		}
		f.To = end.AddDate(0, 0, 1).Add(-time.Nanosecond).UTC()
	}
	return s.repo.List(dbc, rd.TenantID, f)
}

func (s *vitalSignService) Get(dbc dbctx.Context, id uuid.UUID) (*types.VitalSign, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.load(dbc, rd.TenantID, id)
}

func (s *vitalSignService) load(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.VitalSign, error) {
	v, err := s.repo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apierr.NotFound("vital sign")
	}
	return v, nil
}

// Update re-checks the readings and notifies only about alert types the previous version did not raise.
func (s *vitalSignService) Update(dbc dbctx.Context, id uuid.UUID, in VitalSignPatch) (*types.VitalSign, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	var v *types.VitalSign
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if v, err = s.load(inner, rd.TenantID, id); err != nil {
			return err
		}
		before := map[string]bool{}
		for _, a := range v.Alerts() {
			before[a.Type] = true
		}
		_, err := s.recorder.Update(inner, v, in.ChangeReason, actorOf(rd), func() error {
			if in.MeasuredAt != nil {
				v.MeasuredAt = in.MeasuredAt.UTC()
			}
			if in.SystolicBloodPressure != nil {
				v.SystolicBloodPressure = in.SystolicBloodPressure
			}
			if in.DiastolicBloodPressure != nil {
				v.DiastolicBloodPressure = in.DiastolicBloodPressure
			}
			if in.Temperature != nil {
				v.Temperature = in.Temperature
			}
			if in.HeartRate != nil {
				v.HeartRate = in.HeartRate
			}
			if in.OxygenSaturation != nil {
				v.OxygenSaturation = in.OxygenSaturation
			}
			if in.BloodGlucose != nil {
				v.BloodGlucose = in.BloodGlucose
			}
			if in.Notes != nil {
				v.Notes = *in.Notes
			}
			return s.validate(v)
		})
		if err != nil {
			return err
		}
		var fresh []clinical.VitalAlert
		for _, a := range v.Alerts() {
			if !before[a.Type] {
				fresh = append(fresh, a)
			}
		}
		if len(fresh) == 0 {
			return nil
		}
		resident, err := loadResident(inner, s.residentRepo, rd.TenantID, v.ResidentID)
		if err != nil {
			return err
		}
		return s.raiseAlerts(inner, v, resident, fresh)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *vitalSignService) Delete(dbc dbctx.Context, id uuid.UUID, reason string) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	v, err := s.load(dbc, rd.TenantID, id)
	if err != nil {
		return err
	}
	_, err = s.recorder.SoftDelete(dbc, v, reason, actorOf(rd))
	return err
}
