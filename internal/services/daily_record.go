package services

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	clinicalRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/clinical"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/audit"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/clinical"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/versioning"
)

type DailyRecordInput struct {
	ResidentID       uuid.UUID       `json:"residentId"`
	Type             string          `json:"type"`
	Date             string          `json:"date"`
	Time             string          `json:"time"`
	RecordedBy       string          `json:"recordedBy"`
	Data             json.RawMessage `json:"data"`
	Notes            string          `json:"notes"`
	IncidentSubtype  *string         `json:"incidentSubtypeClinical"`
	IncidentSeverity *string         `json:"incidentSeverity"`
}

type DailyRecordPatch struct {
	Type             *string          `json:"type"`
	Date             *string          `json:"date"`
	Time             *string          `json:"time"`
	RecordedBy       *string          `json:"recordedBy"`
	Data             *json.RawMessage `json:"data"`
	Notes            *string          `json:"notes"`
	IncidentSubtype  *string          `json:"incidentSubtypeClinical"`
	IncidentSeverity *string          `json:"incidentSeverity"`
	ChangeReason     string           `json:"changeReason"`
}

type DailyRecordService interface {
	Create(dbc dbctx.Context, in DailyRecordInput) (*types.DailyRecord, error)
	ListByResident(dbc dbctx.Context, residentID uuid.UUID, start, end string) ([]*types.DailyRecord, error)
	ListByDate(dbc dbctx.Context, date string) ([]*types.DailyRecord, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.DailyRecord, error)
	Update(dbc dbctx.Context, id uuid.UUID, in DailyRecordPatch) (*types.DailyRecord, error)
	Delete(dbc dbctx.Context, id uuid.UUID, reason string) error
	History(dbc dbctx.Context, id uuid.UUID) ([]*types.RecordHistory, error)
	HistoryVersion(dbc dbctx.Context, id uuid.UUID, version int) (*types.RecordHistory, error)
}

type dailyRecordService struct {
	versionedReads
	db           *gorm.DB
	log          *logger.Logger
	repo         repos.DailyRecordRepo
	residentRepo repos.ResidentRepo
	notifier     NotificationService
}

func NewDailyRecordService(db *gorm.DB, log *logger.Logger, repo repos.DailyRecordRepo, residentRepo repos.ResidentRepo, recorder *versioning.Recorder, notifier NotificationService) DailyRecordService {
	return &dailyRecordService{
		versionedReads: versionedReads{recorder: recorder, entityType: (&types.DailyRecord{}).RecordType()},
		db:             db,
		log:            log.With("service", "DailyRecordService"),
		repo:           repo,
		residentRepo:   residentRepo,
		notifier:       notifier,
	}
}

// IsSentinel reports whether an incident must be escalated to the whole tenant.
func IsSentinel(recordType string, subtype, severity *string) bool {
	if recordType != clinical.RecordIncident {
		return false
	}
	if severity != nil && *severity == clinical.IncidentSevere {
		return true
	}
	return subtype != nil && (*subtype == clinical.IncidentFall || *subtype == clinical.IncidentDeath)
}

func normalizeEnum(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.ToUpper(strings.TrimSpace(*v))
	if s == "" {
		return nil
	}
	return &s
}

func validateDailyRecord(d *types.DailyRecord) error {
	fields := fieldErrors{}
	if !slices.Contains(clinical.RecordTypes, d.Type) {
		fields["type"] = "is not a known record type"
	}
	fields.date("date", d.Date)
	fields.time("time", d.Time)
	fields.required("recordedBy", d.RecordedBy)
	if d.Type == clinical.RecordIncident {
		if d.IncidentSubtype == nil {
			fields["incidentSubtypeClinical"] = "is required for INTERCORRENCIA"
		} else if !slices.Contains(clinical.IncidentSubtypes, *d.IncidentSubtype) {
			fields["incidentSubtypeClinical"] = "is not a known incident subtype"
		}
		if d.IncidentSeverity == nil {
			fields["incidentSeverity"] = "is required for INTERCORRENCIA"
		} else {
			switch *d.IncidentSeverity {
			case clinical.IncidentMild, clinical.IncidentModerate, clinical.IncidentSevere:
			default:
				fields["incidentSeverity"] = "must be LEVE, MODERADA or GRAVE"
			}
		}
	} else {
		if d.IncidentSubtype != nil {
			fields["incidentSubtypeClinical"] = "is only allowed for INTERCORRENCIA"
		}
		if d.IncidentSeverity != nil {
			fields["incidentSeverity"] = "is only allowed for INTERCORRENCIA"
		}
	}
	return fields.err()
}

func recordData(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, apierr.Field("data", "must be valid JSON")
	}
	return datatypes.JSON(raw), nil
}

func (s *dailyRecordService) Create(dbc dbctx.Context, in DailyRecordInput) (*types.DailyRecord, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	data, err := recordData(in.Data)
	if err != nil {
		return nil, err
	}
	d := &types.DailyRecord{
		TenantID:         rd.TenantID,
		ResidentID:       in.ResidentID,
		Type:             strings.ToUpper(strings.TrimSpace(in.Type)),
		Date:             in.Date,
		Time:             in.Time,
		RecordedBy:       strings.TrimSpace(in.RecordedBy),
		Data:             data,
		Notes:            in.Notes,
		IncidentSubtype:  normalizeEnum(in.IncidentSubtype),
		IncidentSeverity: normalizeEnum(in.IncidentSeverity),
	}
	if d.RecordedBy == "" {
		d.RecordedBy = rd.UserName
	}
	if err := validateDailyRecord(d); err != nil {
		return nil, err
	}
	d.IsSentinelEvent = IsSentinel(d.Type, d.IncidentSubtype, d.IncidentSeverity)

	var resident *types.Resident
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		var err error
		if resident, err = loadResident(inner, s.residentRepo, rd.TenantID, in.ResidentID); err != nil {
			return err
		}
		if err := s.recorder.Create(inner, d, actorOf(rd)); err != nil {
			return err
		}
		if d.IsSentinelEvent {
			return s.raiseSentinel(inner, d, resident)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *dailyRecordService) raiseSentinel(dbc dbctx.Context, d *types.DailyRecord, resident *types.Resident) error {
	id := d.ID
	_, err := s.notifier.Notify(dbc, NotifyInput{
		TenantID:   d.TenantID,
		Type:       NotificationSentinelEvent,
		Severity:   audit.SeverityCritical,
		Title:      "Evento sentinela registrado",
		Message:    fmt.Sprintf("%s: intercorrência %s (%s) em %s às %s.", resident.FullName, *d.IncidentSubtype, *d.IncidentSeverity, d.Date, d.Time),
		EntityType: d.RecordType(),
		EntityID:   &id,
	})
	if err != nil {
		return fmt.Errorf("notify sentinel event: %w", err)
	}
	s.log.Warn("sentinel event", "tenant_id", d.TenantID, "daily_record_id", d.ID, "subtype", *d.IncidentSubtype)
	return nil
}

func (s *dailyRecordService) ListByResident(dbc dbctx.Context, residentID uuid.UUID, start, end string) ([]*types.DailyRecord, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	fields := fieldErrors{}
	fields.optionalDate("startDate", &start)
	fields.optionalDate("endDate", &end)
	if err := fields.err(); err != nil {
		return nil, err
	}
	return s.repo.List(dbc, rd.TenantID, clinicalRepo.DailyRecordFilter{ResidentID: residentID, StartDate: start, EndDate: end})
}

func (s *dailyRecordService) ListByDate(dbc dbctx.Context, date string) ([]*types.DailyRecord, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if !dates.Valid(date) {
		return nil, apierr.Field("date", "must be a date in YYYY-MM-DD format")
	}
	return s.repo.List(dbc, rd.TenantID, clinicalRepo.DailyRecordFilter{StartDate: date, EndDate: date})
}

func (s *dailyRecordService) Get(dbc dbctx.Context, id uuid.UUID) (*types.DailyRecord, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.load(dbc, rd.TenantID, id)
}

func (s *dailyRecordService) load(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.DailyRecord, error) {
	d, err := s.repo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apierr.NotFound("daily record")
	}
	return d, nil
}

func (s *dailyRecordService) Update(dbc dbctx.Context, id uuid.UUID, in DailyRecordPatch) (*types.DailyRecord, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	var d *types.DailyRecord
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if d, err = s.load(inner, rd.TenantID, id); err != nil {
			return err
		}
		wasSentinel := d.IsSentinelEvent
		_, err := s.recorder.Update(inner, d, in.ChangeReason, actorOf(rd), func() error {
			if in.Type != nil {
				d.Type = strings.ToUpper(strings.TrimSpace(*in.Type))
			}
			if in.Date != nil {
				d.Date = *in.Date
			}
			if in.Time != nil {
				d.Time = *in.Time
			}
			if in.RecordedBy != nil {
				d.RecordedBy = strings.TrimSpace(*in.RecordedBy)
			}
			if in.Data != nil {
				data, err := recordData(*in.Data)
				if err != nil {
					return err
				}
				d.Data = data
			}
			if in.Notes != nil {
				d.Notes = *in.Notes
			}
			if in.IncidentSubtype != nil {
				d.IncidentSubtype = normalizeEnum(in.IncidentSubtype)
			}
			if in.IncidentSeverity != nil {
				d.IncidentSeverity = normalizeEnum(in.IncidentSeverity)
			}
			if d.Type != clinical.RecordIncident && in.Type != nil {
				// Reclassifying away from INTERCORRENCIA drops the incident fields.
				if in.IncidentSubtype == nil {
					d.IncidentSubtype = nil
				}
				if in.IncidentSeverity == nil {
					d.IncidentSeverity = nil
				}
			}
			if err := validateDailyRecord(d); err != nil {
				return err
			}
			d.IsSentinelEvent = IsSentinel(d.Type, d.IncidentSubtype, d.IncidentSeverity)
			return nil
		})
		if err != nil {
			return err
		}
		if d.IsSentinelEvent && !wasSentinel {
			resident, err := loadResident(inner, s.residentRepo, rd.TenantID, d.ResidentID)
			if err != nil {
				return err
			}
			return s.raiseSentinel(inner, d, resident)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *dailyRecordService) Delete(dbc dbctx.Context, id uuid.UUID, reason string) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	return inTx(dbc, s.db, func(inner dbctx.Context) error {
		d, err := s.load(inner, rd.TenantID, id)
		if err != nil {
			return err
		}
		_, err = s.recorder.SoftDelete(inner, d, reason, actorOf(rd))
		return err
	})
}
