package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	contractRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/contracts"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/contracts"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/versioning"
)

type ContractInput struct {
	ResidentID         uuid.UUID `json:"residentId"`
	ContractNumber     string    `json:"contractNumber"`
	StartDate          string    `json:"startDate"`
	EndDate            *string   `json:"endDate"`
	MonthlyAmountCents int64     `json:"monthlyAmountCents"`
	DueDay             int       `json:"dueDay"`
	ResponsibleName    string    `json:"responsibleName"`
	Notes              string    `json:"notes"`
}

type ContractPatch struct {
	ContractNumber     *string `json:"contractNumber"`
	StartDate          *string `json:"startDate"`
	EndDate            *string `json:"endDate"`
	MonthlyAmountCents *int64  `json:"monthlyAmountCents"`
	DueDay             *int    `json:"dueDay"`
	ResponsibleName    *string `json:"responsibleName"`
	Notes              *string `json:"notes"`
	ChangeReason       string  `json:"changeReason"`
}

type ContractFilter struct {
	ResidentID uuid.UUID
	Status     string
}

type ContractService interface {
	Create(dbc dbctx.Context, in ContractInput) (*types.Contract, error)
	List(dbc dbctx.Context, f ContractFilter) ([]*types.Contract, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Contract, error)
	Update(dbc dbctx.Context, id uuid.UUID, in ContractPatch) (*types.Contract, error)
	Rescind(dbc dbctx.Context, id uuid.UUID, reason string) (*types.Contract, error)
	Delete(dbc dbctx.Context, id uuid.UUID, reason string) error
	History(dbc dbctx.Context, id uuid.UUID) ([]*types.RecordHistory, error)
	HistoryVersion(dbc dbctx.Context, id uuid.UUID, version int) (*types.RecordHistory, error)
}

type contractService struct {
	versionedReads
	db           *gorm.DB
	log          *logger.Logger
	repo         repos.ContractRepo
	residentRepo repos.ResidentRepo
	now          func() time.Time
}

func NewContractService(db *gorm.DB, log *logger.Logger, repo repos.ContractRepo, residentRepo repos.ResidentRepo, recorder *versioning.Recorder) ContractService {
	return &contractService{
		versionedReads: versionedReads{recorder: recorder, entityType: (&types.Contract{}).RecordType()},
		db:             db,
		log:            log.With("service", "ContractService"),
		repo:           repo,
		residentRepo:   residentRepo,
		now:            time.Now,
	}
}

func validateContract(c *types.Contract) error {
	fields := fieldErrors{}
	fields.required("contractNumber", c.ContractNumber)
	fields.date("startDate", c.StartDate)
	fields.optionalDate("endDate", c.EndDate)
	if c.MonthlyAmountCents <= 0 {
		fields["monthlyAmountCents"] = "must be greater than zero"
	}
	if c.DueDay < 1 || c.DueDay > 28 {
		fields["dueDay"] = "must be between 1 and 28"
	}
	if len(fields) == 0 && c.EndDate != nil && *c.EndDate < c.StartDate {
		fields["endDate"] = "must not be before the start date"
	}
	return fields.err()
}

// expiringLimit is the last date that still counts as expiring when today is the given date.
func expiringLimit(today string) (string, error) {
	limit, err := dates.AddDays(today, contracts.ExpiringWindowDays)
	if err != nil {
		return "", fmt.Errorf("expiring window: %w", err)
	}
	return limit, nil
}

// statusWindow returns today and the last date that still counts as expiring.
func (s *contractService) statusWindow() (string, string, error) {
	today := dates.Today(s.now())
	limit, err := expiringLimit(today)
	if err != nil {
		return "", "", err
	}
	return today, limit, nil
}

// refreshStatus recomputes the derived status and persists it when it drifted.
func (s *contractService) refreshStatus(dbc dbctx.Context, c *types.Contract) error {
	today, limit, err := s.statusWindow()
	if err != nil {
		return err
	}
	status := contracts.ComputeStatus(c, today, limit)
	if status == c.Status {
		return nil
	}
	if err := s.repo.SetStatus(dbc, c.ID, status); err != nil {
		return err
	}
	c.Status = status
	return nil
}

func (s *contractService) checkNumber(dbc dbctx.Context, tenantID uuid.UUID, number string, excludeID uuid.UUID) error {
	taken, err := s.repo.NumberTaken(dbc, tenantID, number, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apierr.Conflict("contract_number_taken", "contract number already in use")
	}
	return nil
}

func (s *contractService) Create(dbc dbctx.Context, in ContractInput) (*types.Contract, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	c := &types.Contract{
		TenantID:           rd.TenantID,
		ResidentID:         in.ResidentID,
		ContractNumber:     strings.TrimSpace(in.ContractNumber),
		StartDate:          in.StartDate,
		EndDate:            emptyToNil(in.EndDate),
		MonthlyAmountCents: in.MonthlyAmountCents,
		DueDay:             in.DueDay,
		ResponsibleName:    strings.TrimSpace(in.ResponsibleName),
		Notes:              in.Notes,
	}
	if err := validateContract(c); err != nil {
		return nil, err
	}
	today, limit, err := s.statusWindow()
	if err != nil {
		return nil, err
	}
	c.Status = contracts.ComputeStatus(c, today, limit)

	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if _, err := loadResident(inner, s.residentRepo, rd.TenantID, in.ResidentID); err != nil {
			return err
		}
		if err := s.checkNumber(inner, rd.TenantID, c.ContractNumber, uuid.Nil); err != nil {
			return err
		}
		return s.recorder.Create(inner, c, actorOf(rd))
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *contractService) List(dbc dbctx.Context, f ContractFilter) ([]*types.Contract, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.List(dbc, rd.TenantID, contractRepo.ContractFilter{ResidentID: f.ResidentID})
	if err != nil {
		return nil, err
	}
	out := make([]*types.Contract, 0, len(rows))
	for _, c := range rows {
		if err := s.refreshStatus(dbc, c); err != nil {
			return nil, err
		}
		if f.Status == "" || c.Status == f.Status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *contractService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Contract, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.load(dbc, rd.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.refreshStatus(dbc, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *contractService) load(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Contract, error) {
	c, err := s.repo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apierr.NotFound("contract")
	}
	return c, nil
}

func (s *contractService) Update(dbc dbctx.Context, id uuid.UUID, in ContractPatch) (*types.Contract, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	var c *types.Contract
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if c, err = s.load(inner, rd.TenantID, id); err != nil {
			return err
		}
		if c.Status == contracts.StatusRescinded {
			return apierr.Conflict("contract_rescinded", "rescinded contracts cannot be edited")
		}
		_, err := s.recorder.Update(inner, c, in.ChangeReason, actorOf(rd), func() error {
			if in.ContractNumber != nil {
				c.ContractNumber = strings.TrimSpace(*in.ContractNumber)
			}
			if in.StartDate != nil {
				c.StartDate = *in.StartDate
			}
			if in.EndDate != nil {
				c.EndDate = emptyToNil(in.EndDate)
			}
			if in.MonthlyAmountCents != nil {
				c.MonthlyAmountCents = *in.MonthlyAmountCents
			}
			if in.DueDay != nil {
				c.DueDay = *in.DueDay
			}
			if in.ResponsibleName != nil {
				c.ResponsibleName = strings.TrimSpace(*in.ResponsibleName)
			}
			if in.Notes != nil {
				c.Notes = *in.Notes
			}
			if err := validateContract(c); err != nil {
				return err
			}
			if in.ContractNumber != nil {
				if err := s.checkNumber(inner, rd.TenantID, c.ContractNumber, c.ID); err != nil {
					return err
				}
			}
			today, limit, err := s.statusWindow()
			if err != nil {
				return err
			}
			c.Status = contracts.ComputeStatus(c, today, limit)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *contractService) Rescind(dbc dbctx.Context, id uuid.UUID, reason string) (*types.Contract, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	reason, err = versioning.ValidateReason("reason", reason)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var c *types.Contract
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if c, err = s.load(inner, rd.TenantID, id); err != nil {
			return err
		}
		if c.Status == contracts.StatusRescinded {
			return apierr.Conflict("contract_rescinded", "contract is already rescinded")
		}
		_, err := s.recorder.Update(inner, c, reason, actorOf(rd), func() error {
			c.Status = contracts.StatusRescinded
			c.RescindedAt = &now
			c.RescindReason = reason
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *contractService) Delete(dbc dbctx.Context, id uuid.UUID, reason string) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	return inTx(dbc, s.db, func(inner dbctx.Context) error {
		c, err := s.load(inner, rd.TenantID, id)
		if err != nil {
			return err
		}
		_, err = s.recorder.SoftDelete(inner, c, reason, actorOf(rd))
		return err
	})
}
