package services

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/clinical"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/versioning"
)

type AllergyInput struct {
	ResidentID uuid.UUID `json:"residentId"`
	Substance  string    `json:"substance"`
	Reaction   string    `json:"reaction"`
	Severity   string    `json:"severity"`
	Notes      string    `json:"notes"`
}

type AllergyPatch struct {
	Substance    *string `json:"substance"`
	Reaction     *string `json:"reaction"`
	Severity     *string `json:"severity"`
	Notes        *string `json:"notes"`
	ChangeReason string  `json:"changeReason"`
}

type ConditionInput struct {
	ResidentID  uuid.UUID `json:"residentId"`
	Name        string    `json:"name"`
	ICD10Code   string    `json:"icd10Code"`
	DiagnosedAt *string   `json:"diagnosedAt"`
	Notes       string    `json:"notes"`
}

type ConditionPatch struct {
	Name         *string `json:"name"`
	ICD10Code    *string `json:"icd10Code"`
	DiagnosedAt  *string `json:"diagnosedAt"`
	Notes        *string `json:"notes"`
	ChangeReason string  `json:"changeReason"`
}

type AllergyService interface {
	Create(dbc dbctx.Context, in AllergyInput) (*types.Allergy, error)
	ListByResident(dbc dbctx.Context, residentID uuid.UUID) ([]*types.Allergy, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Allergy, error)
	Update(dbc dbctx.Context, id uuid.UUID, in AllergyPatch) (*types.Allergy, error)
	Delete(dbc dbctx.Context, id uuid.UUID, reason string) error
	History(dbc dbctx.Context, id uuid.UUID) ([]*types.RecordHistory, error)
	HistoryVersion(dbc dbctx.Context, id uuid.UUID, version int) (*types.RecordHistory, error)
}

type ConditionService interface {
	Create(dbc dbctx.Context, in ConditionInput) (*types.Condition, error)
	ListByResident(dbc dbctx.Context, residentID uuid.UUID) ([]*types.Condition, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Condition, error)
	Update(dbc dbctx.Context, id uuid.UUID, in ConditionPatch) (*types.Condition, error)
	Delete(dbc dbctx.Context, id uuid.UUID, reason string) error
	History(dbc dbctx.Context, id uuid.UUID) ([]*types.RecordHistory, error)
	HistoryVersion(dbc dbctx.Context, id uuid.UUID, version int) (*types.RecordHistory, error)
}

// versionedReads serves the history endpoints shared by every versioned entity.
type versionedReads struct {
	recorder   *versioning.Recorder
	entityType string
}

func (v versionedReads) History(dbc dbctx.Context, id uuid.UUID) ([]*types.RecordHistory, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return v.recorder.History(dbc, rd.TenantID, v.entityType, id)
}

func (v versionedReads) HistoryVersion(dbc dbctx.Context, id uuid.UUID, version int) (*types.RecordHistory, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return v.recorder.Version(dbc, rd.TenantID, v.entityType, id, version)
}

type allergyService struct {
	versionedReads
	db           *gorm.DB
	log          *logger.Logger
	repo         repos.AllergyRepo
	residentRepo repos.ResidentRepo
}

func NewAllergyService(db *gorm.DB, log *logger.Logger, repo repos.AllergyRepo, residentRepo repos.ResidentRepo, recorder *versioning.Recorder) AllergyService {
	return &allergyService{
		versionedReads: versionedReads{recorder: recorder, entityType: (&types.Allergy{}).RecordType()},
		db:             db,
		log:            log.With("service", "AllergyService"),
		repo:           repo,
		residentRepo:   residentRepo,
	}
}

func validateAllergy(a *types.Allergy) error {
	fields := fieldErrors{}
	fields.required("substance", a.Substance)
	if !clinical.ValidAllergySeverity(a.Severity) {
		fields["severity"] = "must be LEVE, MODERADA, GRAVE or ANAFILAXIA"
	}
	return fields.err()
}

func (s *allergyService) Create(dbc dbctx.Context, in AllergyInput) (*types.Allergy, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	a := &types.Allergy{
		TenantID:   rd.TenantID,
		ResidentID: in.ResidentID,
		Substance:  strings.TrimSpace(in.Substance),
		Reaction:   in.Reaction,
		Severity:   strings.ToUpper(strings.TrimSpace(in.Severity)),
		Notes:      in.Notes,
	}
	if err := validateAllergy(a); err != nil {
		return nil, err
	}
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if _, err := loadResident(inner, s.residentRepo, rd.TenantID, in.ResidentID); err != nil {
			return err
		}
		return s.recorder.Create(inner, a, actorOf(rd))
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *allergyService) ListByResident(dbc dbctx.Context, residentID uuid.UUID) ([]*types.Allergy, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByResident(dbc, rd.TenantID, residentID)
}

func (s *allergyService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Allergy, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.load(dbc, rd.TenantID, id)
}

func (s *allergyService) load(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Allergy, error) {
	a, err := s.repo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apierr.NotFound("allergy")
	}
	return a, nil
}

func (s *allergyService) Update(dbc dbctx.Context, id uuid.UUID, in AllergyPatch) (*types.Allergy, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.load(dbc, rd.TenantID, id)
	if err != nil {
		return nil, err
	}
	_, err = s.recorder.Update(dbc, a, in.ChangeReason, actorOf(rd), func() error {
		if in.Substance != nil {
			a.Substance = strings.TrimSpace(*in.Substance)
		}
		if in.Reaction != nil {
			a.Reaction = *in.Reaction
		}
		if in.Severity != nil {
			a.Severity = strings.ToUpper(strings.TrimSpace(*in.Severity))
		}
		if in.Notes != nil {
			a.Notes = *in.Notes
		}
		return validateAllergy(a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *allergyService) Delete(dbc dbctx.Context, id uuid.UUID, reason string) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	a, err := s.load(dbc, rd.TenantID, id)
	if err != nil {
		return err
	}
	_, err = s.recorder.SoftDelete(dbc, a, reason, actorOf(rd))
	return err
}

type conditionService struct {
	versionedReads
	db           *gorm.DB
	log          *logger.Logger
	repo         repos.ConditionRepo
	residentRepo repos.ResidentRepo
}

func NewConditionService(db *gorm.DB, log *logger.Logger, repo repos.ConditionRepo, residentRepo repos.ResidentRepo, recorder *versioning.Recorder) ConditionService {
	return &conditionService{
		versionedReads: versionedReads{recorder: recorder, entityType: (&types.Condition{}).RecordType()},
		db:             db,
		log:            log.With("service", "ConditionService"),
		repo:           repo,
		residentRepo:   residentRepo,
	}
}

func validateCondition(c *types.Condition) error {
	fields := fieldErrors{}
	fields.required("name", c.Name)
	fields.optionalDate("diagnosedAt", c.DiagnosedAt)
	return fields.err()
}

func (s *conditionService) Create(dbc dbctx.Context, in ConditionInput) (*types.Condition, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	c := &types.Condition{
		TenantID:    rd.TenantID,
		ResidentID:  in.ResidentID,
		Name:        strings.TrimSpace(in.Name),
		ICD10Code:   strings.ToUpper(strings.TrimSpace(in.ICD10Code)),
		DiagnosedAt: emptyToNil(in.DiagnosedAt),
		Notes:       in.Notes,
	}
	if err := validateCondition(c); err != nil {
		return nil, err
	}
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if _, err := loadResident(inner, s.residentRepo, rd.TenantID, in.ResidentID); err != nil {
			return err
		}
		return s.recorder.Create(inner, c, actorOf(rd))
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *conditionService) ListByResident(dbc dbctx.Context, residentID uuid.UUID) ([]*types.Condition, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByResident(dbc, rd.TenantID, residentID)
}

func (s *conditionService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Condition, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.load(dbc, rd.TenantID, id)
}

func (s *conditionService) load(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Condition, error) {
	c, err := s.repo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apierr.NotFound("condition")
	}
	return c, nil
}

func (s *conditionService) Update(dbc dbctx.Context, id uuid.UUID, in ConditionPatch) (*types.Condition, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.load(dbc, rd.TenantID, id)
	if err != nil {
		return nil, err
	}
	_, err = s.recorder.Update(dbc, c, in.ChangeReason, actorOf(rd), func() error {
		if in.Name != nil {
			c.Name = strings.TrimSpace(*in.Name)
		}
		if in.ICD10Code != nil {
			c.ICD10Code = strings.ToUpper(strings.TrimSpace(*in.ICD10Code))
		}
		if in.DiagnosedAt != nil {
			c.DiagnosedAt = emptyToNil(in.DiagnosedAt)
		}
		if in.Notes != nil {
			c.Notes = *in.Notes
		}
		return validateCondition(c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *conditionService) Delete(dbc dbctx.Context, id uuid.UUID, reason string) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	c, err := s.load(dbc, rd.TenantID, id)
	if err != nil {
		return err
	}
	_, err = s.recorder.SoftDelete(dbc, c, reason, actorOf(rd))
	return err
}
