package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	medicationRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/medication"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/audit"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/medication"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/versioning"
)

// ExpiringNoticeDays is how far ahead the daily job warns about prescriptions.
const ExpiringNoticeDays = 5

type MedicationInput struct {
	Name              string   `json:"name"`
	Presentation      string   `json:"presentation"`
	Concentration     string   `json:"concentration"`
	Dose              string   `json:"dose"`
	Route             string   `json:"route"`
	Frequency         string   `json:"frequency"`
	ScheduledTimes    []string `json:"scheduledTimes"`
	StartDate         string   `json:"startDate"`
	EndDate           *string  `json:"endDate"`
	IsControlled      bool     `json:"isControlled"`
	IsSOS             bool     `json:"isSos"`
	Indication        string   `json:"indication"`
	IndicationDetails string   `json:"indicationDetails"`
	MinInterval       string   `json:"minInterval"`
	MaxDailyDoses     *int     `json:"maxDailyDoses"`
	Instructions      string   `json:"instructions"`
}

type PrescriptionInput struct {
	ResidentID       uuid.UUID         `json:"residentId"`
	DoctorName       string            `json:"doctorName"`
	DoctorCRM        string            `json:"doctorCrm"`
	PrescriptionDate string            `json:"prescriptionDate"`
	ValidUntil       *string           `json:"validUntil"`
	Type             string            `json:"type"`
	Notes            string            `json:"notes"`
	Medications      []MedicationInput `json:"medications"`
}

// PrescriptionPatch replaces the medication list when Medications is non-nil.
type PrescriptionPatch struct {
	DoctorName       *string            `json:"doctorName"`
	DoctorCRM        *string            `json:"doctorCrm"`
	PrescriptionDate *string            `json:"prescriptionDate"`
	ValidUntil       *string            `json:"validUntil"`
	Type             *string            `json:"type"`
	IsActive         *bool              `json:"isActive"`
	Notes            *string            `json:"notes"`
	Medications      *[]MedicationInput `json:"medications"`
	ChangeReason     string             `json:"changeReason"`
}

type AdministrationInput struct {
	MedicationID  uuid.UUID `json:"medicationId"`
	ScheduledDate string    `json:"scheduledDate"`
	ScheduledTime string    `json:"scheduledTime"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes"`
}

type PrescriptionService interface {
	Create(dbc dbctx.Context, in PrescriptionInput) (*types.Prescription, error)
	List(dbc dbctx.Context, f medicationRepo.PrescriptionFilter) ([]*types.Prescription, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Prescription, error)
	Update(dbc dbctx.Context, id uuid.UUID, in PrescriptionPatch) (*types.Prescription, error)
	Delete(dbc dbctx.Context, id uuid.UUID, reason string) error
	History(dbc dbctx.Context, id uuid.UUID) ([]*types.RecordHistory, error)
	HistoryVersion(dbc dbctx.Context, id uuid.UUID, version int) (*types.RecordHistory, error)
	Expiring(dbc dbctx.Context, days int) ([]*types.Prescription, error)
	RecordAdministration(dbc dbctx.Context, in AdministrationInput) (*types.MedicationAdministration, error)
	ListAdministrations(dbc dbctx.Context, residentID uuid.UUID, date string) ([]*types.MedicationAdministration, error)
	// NotifyExpiring warns every tenant about active prescriptions ending within days.
	NotifyExpiring(dbc dbctx.Context, days int) (int, error)
}

type prescriptionService struct {
	versionedReads
	db           *gorm.DB
	log          *logger.Logger
	repo         repos.PrescriptionRepo
	adminRepo    repos.AdministrationRepo
	residentRepo repos.ResidentRepo
	notifier     NotificationService
	now          func() time.Time
}

func NewPrescriptionService(
	db *gorm.DB,
	log *logger.Logger,
	repo repos.PrescriptionRepo,
	adminRepo repos.AdministrationRepo,
	residentRepo repos.ResidentRepo,
	recorder *versioning.Recorder,
	notifier NotificationService,
) PrescriptionService {
	return &prescriptionService{
		versionedReads: versionedReads{recorder: recorder, entityType: (&types.Prescription{}).RecordType()},
		db:             db,
		log:            log.With("service", "PrescriptionService"),
		repo:           repo,
		adminRepo:      adminRepo,
		residentRepo:   residentRepo,
		notifier:       notifier,
		now:            time.Now,
	}
}

func buildMedications(tenantID uuid.UUID, in []MedicationInput) ([]*types.Medication, error) {
	fields := fieldErrors{}
	if len(in) == 0 {
		fields["medications"] = "at least one medication is required"
		return nil, fields.err()
	}
	out := make([]*types.Medication, 0, len(in))
	for i, m := range in {
		key := fmt.Sprintf("medications[%d]", i)
		fields.required(key+".name", m.Name)
		fields.required(key+".dose", m.Dose)
		fields.required(key+".route", m.Route)
		fields.date(key+".startDate", m.StartDate)
		fields.optionalDate(key+".endDate", m.EndDate)
		end := emptyToNil(m.EndDate)
		if end != nil && dates.Valid(m.StartDate) && *end < m.StartDate {
			fields[key+".endDate"] = "must not be before the start date"
		}
		times := make([]string, 0, len(m.ScheduledTimes))
		for _, t := range m.ScheduledTimes {
			t = strings.TrimSpace(t)
			if !dates.ValidTime(t) {
				fields[key+".scheduledTimes"] = "must contain times in HH:MM format"
				break
			}
			times = append(times, t)
		}
		sort.Strings(times)
		indication := strings.ToUpper(strings.TrimSpace(m.Indication))
		if m.IsSOS {
			if len(times) > 0 {
				fields[key+".scheduledTimes"] = "must be empty for an SOS medication"
			}
			if !medication.ValidIndication(indication) {
				fields[key+".indication"] = "is not a valid indication"
			}
			fields.required(key+".minInterval", m.MinInterval)
			if m.MaxDailyDoses == nil || *m.MaxDailyDoses < 1 || *m.MaxDailyDoses > 24 {
				fields[key+".maxDailyDoses"] = "must be between 1 and 24"
			}
		}
		raw, err := json.Marshal(times)
		if err != nil {
			return nil, err
		}
		med := &types.Medication{
			TenantID:       tenantID,
			Name:           strings.TrimSpace(m.Name),
			Presentation:   m.Presentation,
			Concentration:  m.Concentration,
			Dose:           strings.TrimSpace(m.Dose),
			Route:          strings.TrimSpace(m.Route),
			Frequency:      m.Frequency,
			ScheduledTimes: datatypes.JSON(raw),
			StartDate:      m.StartDate,
			EndDate:        end,
			IsControlled:   m.IsControlled,
			Instructions:   m.Instructions,
		}
		if m.IsSOS {
			med.IsSOS = true
			med.Indication = indication
			med.IndicationDetails = m.IndicationDetails
			med.MinInterval = strings.TrimSpace(m.MinInterval)
			med.MaxDailyDoses = m.MaxDailyDoses
		}
		out = append(out, med)
	}
	if err := fields.err(); err != nil {
		return nil, err
	}
	return out, nil
}

func validatePrescription(p *types.Prescription) error {
	fields := fieldErrors{}
	fields.required("doctorName", p.DoctorName)
	fields.date("prescriptionDate", p.PrescriptionDate)
	fields.optionalDate("validUntil", p.ValidUntil)
	if !medication.ValidPrescriptionType(p.Type) {
		fields["type"] = "must be ROTINA, CONTROLADO, ANTIBIOTICO or ALTERACAO_PONTUAL"
	}
	if len(fields) == 0 && p.ValidUntil != nil && *p.ValidUntil < p.PrescriptionDate {
		fields["validUntil"] = "must not be before the prescription date"
	}
	return fields.err()
}

func (s *prescriptionService) Create(dbc dbctx.Context, in PrescriptionInput) (*types.Prescription, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	p := &types.Prescription{
		TenantID:         rd.TenantID,
		ResidentID:       in.ResidentID,
		DoctorName:       strings.TrimSpace(in.DoctorName),
		DoctorCRM:        strings.TrimSpace(in.DoctorCRM),
		PrescriptionDate: in.PrescriptionDate,
		ValidUntil:       emptyToNil(in.ValidUntil),
		Type:             strings.ToUpper(strings.TrimSpace(in.Type)),
		IsActive:         true,
		Notes:            in.Notes,
	}
	if err := validatePrescription(p); err != nil {
		return nil, err
	}
	meds, err := buildMedications(rd.TenantID, in.Medications)
	if err != nil {
		return nil, err
	}
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if _, err := loadResident(inner, s.residentRepo, rd.TenantID, in.ResidentID); err != nil {
			return err
		}
		if err := s.recorder.Create(inner, p, actorOf(rd)); err != nil {
			return err
		}
		for _, m := range meds {
			m.PrescriptionID = p.ID
		}
		created, err := s.repo.CreateMedications(inner, meds)
		if err != nil {
			return fmt.Errorf("create medications: %w", err)
		}
		p.Medications = derefMedications(created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("prescription created", "tenant_id", rd.TenantID, "prescription_id", p.ID, "medications", len(meds))
	return p, nil
}

func derefMedications(in []*types.Medication) []types.Medication {
	out := make([]types.Medication, 0, len(in))
	for _, m := range in {
		out = append(out, *m)
	}
	return out
}

func (s *prescriptionService) List(dbc dbctx.Context, f medicationRepo.PrescriptionFilter) ([]*types.Prescription, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(dbc, rd.TenantID, f)
}

func (s *prescriptionService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Prescription, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.load(dbc, rd.TenantID, id)
}

func (s *prescriptionService) load(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Prescription, error) {
	p, err := s.repo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound("prescription")
	}
	return p, nil
}

func (s *prescriptionService) Update(dbc dbctx.Context, id uuid.UUID, in PrescriptionPatch) (*types.Prescription, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	var meds []*types.Medication
	if in.Medications != nil {
		if meds, err = buildMedications(rd.TenantID, *in.Medications); err != nil {
			return nil, err
		}
	}
	var p *types.Prescription
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if p, err = s.load(inner, rd.TenantID, id); err != nil {
			return err
		}
		_, err := s.recorder.Update(inner, p, in.ChangeReason, actorOf(rd), func() error {
			if in.DoctorName != nil {
				p.DoctorName = strings.TrimSpace(*in.DoctorName)
			}
			if in.DoctorCRM != nil {
				p.DoctorCRM = strings.TrimSpace(*in.DoctorCRM)
			}
			if in.PrescriptionDate != nil {
				p.PrescriptionDate = *in.PrescriptionDate
			}
			if in.ValidUntil != nil {
				p.ValidUntil = emptyToNil(in.ValidUntil)
			}
			if in.Type != nil {
				p.Type = strings.ToUpper(strings.TrimSpace(*in.Type))
			}
			if in.IsActive != nil {
				p.IsActive = *in.IsActive
			}
			if in.Notes != nil {
				p.Notes = *in.Notes
			}
			if err := validatePrescription(p); err != nil {
				return err
			}
			if meds == nil {
				return nil
			}
			if err := s.repo.ReplaceMedications(inner, p.ID, meds); err != nil {
				return fmt.Errorf("replace medications: %w", err)
			}
			p.Medications = derefMedications(meds)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *prescriptionService) Delete(dbc dbctx.Context, id uuid.UUID, reason string) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	return inTx(dbc, s.db, func(inner dbctx.Context) error {
		p, err := s.load(inner, rd.TenantID, id)
		if err != nil {
			return err
		}
		_, err = s.recorder.SoftDelete(inner, p, reason, actorOf(rd))
		return err
	})
}

func (s *prescriptionService) Expiring(dbc dbctx.Context, days int) ([]*types.Prescription, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if days < 0 {
		return nil, apierr.Field("days", "must not be negative")
	}
	until, err := dates.AddDays(dates.Today(s.now()), days)
	if err != nil {
		return nil, err
	}
	return s.repo.ListExpiring(dbc, &rd.TenantID, "0001-01-01", until)
}

func (s *prescriptionService) RecordAdministration(dbc dbctx.Context, in AdministrationInput) (*types.MedicationAdministration, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	fields := fieldErrors{}
	fields.date("scheduledDate", in.ScheduledDate)
	fields.time("scheduledTime", in.ScheduledTime)
	status := strings.ToUpper(strings.TrimSpace(in.Status))
	switch status {
	case medication.AdministrationGiven, medication.AdministrationRefused, medication.AdministrationNotGiven:
	default:
		fields["status"] = "must be GIVEN, REFUSED or NOT_GIVEN"
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	var row *types.MedicationAdministration
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		med, err := s.repo.GetMedication(inner, rd.TenantID, in.MedicationID)
		if err != nil {
			return err
		}
		if med == nil {
			return apierr.NotFound("medication")
		}
		p, err := s.repo.GetByID(inner, rd.TenantID, med.PrescriptionID)
		if err != nil {
			return err
		}
		if p == nil || !p.IsActive {
			return apierr.Rule("prescription_inactive", "medication does not belong to an active prescription")
		}
		if med.IsSOS && status == medication.AdministrationGiven && med.MaxDailyDoses != nil {
			given, err := s.adminRepo.CountGiven(inner, rd.TenantID, med.ID, in.ScheduledDate)
			if err != nil {
				return err
			}
			if given >= int64(*med.MaxDailyDoses) {
				return apierr.Rule("sos_daily_limit", fmt.Sprintf("%s already given %d time(s) on %s", med.Name, given, in.ScheduledDate))
			}
		}
		row = &types.MedicationAdministration{
			TenantID:           rd.TenantID,
			MedicationID:       med.ID,
			PrescriptionID:     p.ID,
			ResidentID:         p.ResidentID,
			ScheduledDate:      in.ScheduledDate,
			ScheduledTime:      in.ScheduledTime,
			Status:             status,
			AdministeredBy:     rd.UserID,
			AdministeredByName: rd.UserName,
			Notes:              in.Notes,
		}
		if status == medication.AdministrationGiven {
			at := s.now()
			row.AdministeredAt = &at
		}
		_, err = s.adminRepo.Create(inner, []*types.MedicationAdministration{row})
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *prescriptionService) ListAdministrations(dbc dbctx.Context, residentID uuid.UUID, date string) ([]*types.MedicationAdministration, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if date != "" && !dates.Valid(date) {
		return nil, apierr.Field("date", "must be a date in YYYY-MM-DD format")
	}
	return s.adminRepo.ListByResidentDate(dbc, rd.TenantID, residentID, date)
}

func (s *prescriptionService) NotifyExpiring(dbc dbctx.Context, days int) (int, error) {
	today := dates.Today(s.now())
	until, err := dates.AddDays(today, days)
	if err != nil {
		return 0, err
	}
	rows, err := s.repo.ListExpiring(dbc, nil, today, until)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, p := range rows {
		id := p.ID
		_, err := s.notifier.Notify(dbc, NotifyInput{
			TenantID:   p.TenantID,
			Type:       NotificationPrescriptionExpiring,
			Severity:   audit.SeverityWarning,
			Title:      "Prescrição próxima do vencimento",
			Message:    fmt.Sprintf("A prescrição do Dr(a). %s vence em %s.", p.DoctorName, *p.ValidUntil),
			EntityType: p.RecordType(),
			EntityID:   &id,
		})
		if err != nil {
			s.log.Warn("expiring prescription notification failed", "prescription_id", p.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}
