package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	residentRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/residents"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/versioning"
)

type ResidentInput struct {
	FullName        string  `json:"fullName"`
	SocialName      string  `json:"socialName"`
	CPF             string  `json:"cpf"`
	Gender          string  `json:"gender"`
	BirthDate       string  `json:"birthDate"`
	AdmissionDate   string  `json:"admissionDate"`
	DependencyLevel string  `json:"dependencyLevel"`
	Room            string  `json:"room"`
	Bed             string  `json:"bed"`
	EmergencyName   string  `json:"emergencyContactName"`
	EmergencyPhone  string  `json:"emergencyContactPhone"`
	Notes           string  `json:"notes"`
	DischargeDate   *string `json:"dischargeDate"`
}

// ResidentPatch carries only the fields being changed plus the mandatory reason.
type ResidentPatch struct {
	FullName        *string `json:"fullName"`
	SocialName      *string `json:"socialName"`
	CPF             *string `json:"cpf"`
	Gender          *string `json:"gender"`
	BirthDate       *string `json:"birthDate"`
	AdmissionDate   *string `json:"admissionDate"`
	DischargeDate   *string `json:"dischargeDate"`
	DischargeReason *string `json:"dischargeReason"`
	DependencyLevel *string `json:"dependencyLevel"`
	Status          *string `json:"status"`
	Room            *string `json:"room"`
	Bed             *string `json:"bed"`
	EmergencyName   *string `json:"emergencyContactName"`
	EmergencyPhone  *string `json:"emergencyContactPhone"`
	Notes           *string `json:"notes"`
	ChangeReason    string  `json:"changeReason"`
}

type ResidentService interface {
	Create(dbc dbctx.Context, in ResidentInput) (*types.Resident, error)
	List(dbc dbctx.Context, f residentRepo.ResidentFilter) ([]*types.Resident, paging.Meta, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Resident, error)
	Update(dbc dbctx.Context, id uuid.UUID, in ResidentPatch) (*types.Resident, error)
	Delete(dbc dbctx.Context, id uuid.UUID, reason string) error
	History(dbc dbctx.Context, id uuid.UUID) ([]*types.RecordHistory, error)
	HistoryVersion(dbc dbctx.Context, id uuid.UUID, version int) (*types.RecordHistory, error)
}

type residentService struct {
	versionedReads
	db           *gorm.DB
	log          *logger.Logger
	residentRepo repos.ResidentRepo
	subRepo      repos.SubscriptionRepo
}

func NewResidentService(db *gorm.DB, log *logger.Logger, residentRepo repos.ResidentRepo, subRepo repos.SubscriptionRepo, recorder *versioning.Recorder) ResidentService {
	return &residentService{
		versionedReads: versionedReads{recorder: recorder, entityType: (&types.Resident{}).RecordType()},
		db:             db,
		log:            log.With("service", "ResidentService"),
		residentRepo:   residentRepo,
		subRepo:        subRepo,
	}
}

func validResidentStatus(s string) bool {
	switch s {
	case residents.StatusActive, residents.StatusInactive, residents.StatusDeceased:
		return true
	}
	return false
}

func validateResident(r *types.Resident) error {
	fields := fieldErrors{}
	fields.required("fullName", r.FullName)
	if len(r.CPF) != 11 {
		fields["cpf"] = "must have 11 digits"
	}
	fields.date("birthDate", r.BirthDate)
	fields.date("admissionDate", r.AdmissionDate)
	fields.optionalDate("dischargeDate", r.DischargeDate)
	if !residents.ValidDependencyLevel(r.DependencyLevel) {
		fields["dependencyLevel"] = "must be GRAU_I, GRAU_II or GRAU_III"
	}
	if !validResidentStatus(r.Status) {
		fields["status"] = "must be ATIVO, INATIVO or FALECIDO"
	}
	if len(fields) == 0 {
		if r.BirthDate > r.AdmissionDate {
			fields["admissionDate"] = "must not be before the birth date"
		}
		if r.DischargeDate != nil && *r.DischargeDate < r.AdmissionDate {
			fields["dischargeDate"] = "must not be before the admission date"
		}
	}
	return fields.err()
}

func (s *residentService) Create(dbc dbctx.Context, in ResidentInput) (*types.Resident, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	r := &types.Resident{
		TenantID:        rd.TenantID,
		FullName:        strings.TrimSpace(in.FullName),
		SocialName:      strings.TrimSpace(in.SocialName),
		CPF:             digitsOnly(in.CPF),
		Gender:          in.Gender,
		BirthDate:       in.BirthDate,
		AdmissionDate:   in.AdmissionDate,
		DischargeDate:   emptyToNil(in.DischargeDate),
		DependencyLevel: in.DependencyLevel,
		Status:          residents.StatusActive,
		Room:            in.Room,
		Bed:             in.Bed,
		EmergencyName:   in.EmergencyName,
		EmergencyPhone:  in.EmergencyPhone,
		Notes:           in.Notes,
	}
	if err := validateResident(r); err != nil {
		return nil, err
	}
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if err := s.checkResidentLimit(inner, rd.TenantID); err != nil {
			return err
		}
		taken, err := s.residentRepo.CPFTaken(inner, rd.TenantID, r.CPF, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return apierr.Conflict("cpf_taken", "a resident with this CPF already exists")
		}
		return s.recorder.Create(inner, r, actorOf(rd))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("resident created", "tenant_id", rd.TenantID, "resident_id", r.ID)
	return r, nil
}

func (s *residentService) checkResidentLimit(dbc dbctx.Context, tenantID uuid.UUID) error {
	sub, err := s.subRepo.GetByTenantID(dbc, tenantID)
	if err != nil || sub == nil {
		return err
	}
	plan, ok := tenancy.Plans[sub.Plan]
	if !ok || plan.MaxResidents == 0 {
		return nil
	}
	n, err := s.residentRepo.CountActive(dbc, tenantID)
	if err != nil {
		return err
	}
	if int(n) >= plan.MaxResidents {
		return apierr.Rule("plan_resident_limit", fmt.Sprintf("plan %s allows at most %d active residents", plan.Code, plan.MaxResidents))
	}
	return nil
}

func (s *residentService) List(dbc dbctx.Context, f residentRepo.ResidentFilter) ([]*types.Resident, paging.Meta, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	rows, total, err := s.residentRepo.List(dbc, rd.TenantID, f)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return rows, f.Page.Meta(total), nil
}

func (s *residentService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Resident, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return loadResident(dbc, s.residentRepo, rd.TenantID, id)
}

func loadResident(dbc dbctx.Context, repo repos.ResidentRepo, tenantID, id uuid.UUID) (*types.Resident, error) {
	r, err := repo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apierr.NotFound("resident")
	}
	return r, nil
}

func (s *residentService) Update(dbc dbctx.Context, id uuid.UUID, in ResidentPatch) (*types.Resident, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if _, err := versioning.ValidateReason("changeReason", in.ChangeReason); err != nil {
		return nil, err
	}
	var r *types.Resident
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if r, err = loadResident(inner, s.residentRepo, rd.TenantID, id); err != nil {
			return err
		}
		_, err := s.recorder.Update(inner, r, in.ChangeReason, actorOf(rd), func() error {
			applyResidentPatch(r, in)
			if err := validateResident(r); err != nil {
				return err
			}
			if in.CPF == nil {
				return nil
			}
			taken, err := s.residentRepo.CPFTaken(inner, rd.TenantID, r.CPF, r.ID)
			if err != nil {
				return err
			}
			if taken {
				return apierr.Conflict("cpf_taken", "a resident with this CPF already exists")
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func applyResidentPatch(r *types.Resident, in ResidentPatch) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&r.FullName, in.FullName)
	set(&r.SocialName, in.SocialName)
	if in.CPF != nil {
		r.CPF = digitsOnly(*in.CPF)
	}
	set(&r.Gender, in.Gender)
	set(&r.BirthDate, in.BirthDate)
	set(&r.AdmissionDate, in.AdmissionDate)
	if in.DischargeDate != nil {
		r.DischargeDate = emptyToNil(in.DischargeDate)
	}
	set(&r.DischargeReason, in.DischargeReason)
	set(&r.DependencyLevel, in.DependencyLevel)
	set(&r.Status, in.Status)
	set(&r.Room, in.Room)
	set(&r.Bed, in.Bed)
	set(&r.EmergencyName, in.EmergencyName)
	set(&r.EmergencyPhone, in.EmergencyPhone)
	if in.Notes != nil {
		r.Notes = *in.Notes
	}
}

func (s *residentService) Delete(dbc dbctx.Context, id uuid.UUID, reason string) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	return inTx(dbc, s.db, func(inner dbctx.Context) error {
		r, err := loadResident(inner, s.residentRepo, rd.TenantID, id)
		if err != nil {
			return err
		}
		_, err = s.recorder.SoftDelete(inner, r, reason, actorOf(rd))
		return err
	})
}
