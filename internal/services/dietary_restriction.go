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

type DietaryRestrictionInput struct {
	ResidentID      uuid.UUID `json:"residentId"`
	RestrictionType string    `json:"restrictionType"`
	Description     string    `json:"description"`
	Notes           string    `json:"notes"`
}

type DietaryRestrictionPatch struct {
	RestrictionType *string `json:"restrictionType"`
	Description     *string `json:"description"`
	Notes           *string `json:"notes"`
	ChangeReason    string  `json:"changeReason"`
}

type DietaryRestrictionService interface {
	Create(dbc dbctx.Context, in DietaryRestrictionInput) (*types.DietaryRestriction, error)
	ListByResident(dbc dbctx.Context, residentID uuid.UUID) ([]*types.DietaryRestriction, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.DietaryRestriction, error)
	Update(dbc dbctx.Context, id uuid.UUID, in DietaryRestrictionPatch) (*types.DietaryRestriction, error)
	Delete(dbc dbctx.Context, id uuid.UUID, reason string) error
	History(dbc dbctx.Context, id uuid.UUID) ([]*types.RecordHistory, error)
	HistoryVersion(dbc dbctx.Context, id uuid.UUID, version int) (*types.RecordHistory, error)
}

type dietaryRestrictionService struct {
	versionedReads
	db           *gorm.DB
	log          *logger.Logger
	repo         repos.DietaryRestrictionRepo
	residentRepo repos.ResidentRepo
}

func NewDietaryRestrictionService(db *gorm.DB, log *logger.Logger, repo repos.DietaryRestrictionRepo, residentRepo repos.ResidentRepo, recorder *versioning.Recorder) DietaryRestrictionService {
	return &dietaryRestrictionService{
		versionedReads: versionedReads{recorder: recorder, entityType: (&types.DietaryRestriction{}).RecordType()},
		db:             db,
		log:            log.With("service", "DietaryRestrictionService"),
		repo:           repo,
		residentRepo:   residentRepo,
	}
}

func validateDietaryRestriction(d *types.DietaryRestriction) error {
	fields := fieldErrors{}
	fields.required("description", d.Description)
	if !clinical.ValidRestrictionType(d.RestrictionType) {
		fields["restrictionType"] = "must be ALERGIA_ALIMENTAR, INTOLERANCIA, RESTRICAO_MEDICA, RESTRICAO_RELIGIOSA, DISFAGIA, DIABETES, HIPERTENSAO or OUTRA"
	}
	return fields.err()
}

func (s *dietaryRestrictionService) Create(dbc dbctx.Context, in DietaryRestrictionInput) (*types.DietaryRestriction, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	d := &types.DietaryRestriction{
		TenantID:        rd.TenantID,
		ResidentID:      in.ResidentID,
		RestrictionType: strings.ToUpper(strings.TrimSpace(in.RestrictionType)),
		Description:     strings.TrimSpace(in.Description),
		Notes:           in.Notes,
	}
	if err := validateDietaryRestriction(d); err != nil {
		return nil, err
	}
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if _, err := loadResident(inner, s.residentRepo, rd.TenantID, in.ResidentID); err != nil {
			return err
		}
		return s.recorder.Create(inner, d, actorOf(rd))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("dietary restriction recorded", "tenant_id", rd.TenantID, "resident_id", d.ResidentID, "restriction_type", d.RestrictionType)
	return d, nil
}

func (s *dietaryRestrictionService) ListByResident(dbc dbctx.Context, residentID uuid.UUID) ([]*types.DietaryRestriction, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByResident(dbc, rd.TenantID, residentID)
}

func (s *dietaryRestrictionService) Get(dbc dbctx.Context, id uuid.UUID) (*types.DietaryRestriction, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.load(dbc, rd.TenantID, id)
}

func (s *dietaryRestrictionService) load(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.DietaryRestriction, error) {
	d, err := s.repo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apierr.NotFound("dietary restriction")
	}
	return d, nil
}

func (s *dietaryRestrictionService) Update(dbc dbctx.Context, id uuid.UUID, in DietaryRestrictionPatch) (*types.DietaryRestriction, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.load(dbc, rd.TenantID, id)
	if err != nil {
		return nil, err
	}
	_, err = s.recorder.Update(dbc, d, in.ChangeReason, actorOf(rd), func() error {
		if in.RestrictionType != nil {
			d.RestrictionType = strings.ToUpper(strings.TrimSpace(*in.RestrictionType))
		}
		if in.Description != nil {
			d.Description = strings.TrimSpace(*in.Description)
		}
		if in.Notes != nil {
			d.Notes = *in.Notes
		}
		return validateDietaryRestriction(d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *dietaryRestrictionService) Delete(dbc dbctx.Context, id uuid.UUID, reason string) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	d, err := s.load(dbc, rd.TenantID, id)
	if err != nil {
		return err
	}
	_, err = s.recorder.SoftDelete(dbc, d, reason, actorOf(rd))
	return err
}
