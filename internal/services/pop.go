package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	popRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/pops"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/audit"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/pops"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/versioning"
)

const defaultReviewIntervalMonths = 12

type PopInput struct {
	Title                string `json:"title"`
	Category             string `json:"category"`
	Content              string `json:"content"`
	ReviewIntervalMonths int    `json:"reviewIntervalMonths"`
}

type PopPatch struct {
	Title                *string `json:"title"`
	Category             *string `json:"category"`
	Content              *string `json:"content"`
	ReviewIntervalMonths *int    `json:"reviewIntervalMonths"`
	ChangeReason         string  `json:"changeReason"`
}

type PopService interface {
	CreateDraft(dbc dbctx.Context, in PopInput) (*types.Pop, error)
	List(dbc dbctx.Context, f popRepo.PopFilter) ([]*types.Pop, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Pop, error)
	Update(dbc dbctx.Context, id uuid.UUID, in PopPatch) (*types.Pop, error)
	Publish(dbc dbctx.Context, id uuid.UUID) (*types.Pop, error)
	Obsolete(dbc dbctx.Context, id uuid.UUID, reason string) (*types.Pop, error)
	NewVersion(dbc dbctx.Context, id uuid.UUID) (*types.Pop, error)
	Delete(dbc dbctx.Context, id uuid.UUID, reason string) error
	History(dbc dbctx.Context, id uuid.UUID) ([]*types.RecordHistory, error)
	HistoryVersion(dbc dbctx.Context, id uuid.UUID, version int) (*types.RecordHistory, error)
	// NotifyReviewDue raises one notification per published POP past its review date.
	NotifyReviewDue(dbc dbctx.Context, tenantID uuid.UUID) (int, error)
}

type popService struct {
	versionedReads
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.PopRepo
	notifier NotificationService
	now      func() time.Time
}

func NewPopService(db *gorm.DB, log *logger.Logger, repo repos.PopRepo, recorder *versioning.Recorder, notifier NotificationService) PopService {
	return &popService{
		versionedReads: versionedReads{recorder: recorder, entityType: (&types.Pop{}).RecordType()},
		db:             db,
		log:            log.With("service", "PopService"),
		repo:           repo,
		notifier:       notifier,
		now:            time.Now,
	}
}

func validatePop(p *types.Pop) error {
	fields := fieldErrors{}
	fields.required("title", p.Title)
	fields.required("content", p.Content)
	if !pops.ValidCategory(p.Category) {
		fields["category"] = "must be one of " + strings.Join(pops.Categories, ", ")
	}
	if p.ReviewIntervalMonths < 1 || p.ReviewIntervalMonths > 60 {
		fields["reviewIntervalMonths"] = "must be between 1 and 60"
	}
	return fields.err()
}

func (s *popService) CreateDraft(dbc dbctx.Context, in PopInput) (*types.Pop, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	p := &types.Pop{
		TenantID:             rd.TenantID,
		Title:                strings.TrimSpace(in.Title),
		Category:             strings.ToUpper(strings.TrimSpace(in.Category)),
		Content:              in.Content,
		Status:               pops.StatusDraft,
		ReviewIntervalMonths: in.ReviewIntervalMonths,
		DocumentVersion:      1,
	}
	if p.ReviewIntervalMonths == 0 {
		p.ReviewIntervalMonths = defaultReviewIntervalMonths
	}
	if err := validatePop(p); err != nil {
		return nil, err
	}
	if err := s.recorder.Create(dbc, p, actorOf(rd)); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *popService) List(dbc dbctx.Context, f popRepo.PopFilter) ([]*types.Pop, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(dbc, rd.TenantID, f)
}

func (s *popService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Pop, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.load(dbc, rd.TenantID, id)
}

func (s *popService) load(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Pop, error) {
	p, err := s.repo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound("pop")
	}
	return p, nil
}

func (s *popService) Update(dbc dbctx.Context, id uuid.UUID, in PopPatch) (*types.Pop, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	var p *types.Pop
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if p, err = s.load(inner, rd.TenantID, id); err != nil {
			return err
		}
		if p.Status != pops.StatusDraft {
			return apierr.Conflict("pop_not_editable", "only DRAFT POPs can be edited")
		}
		_, err := s.recorder.Update(inner, p, in.ChangeReason, actorOf(rd), func() error {
			if in.Title != nil {
				p.Title = strings.TrimSpace(*in.Title)
			}
			if in.Category != nil {
				p.Category = strings.ToUpper(strings.TrimSpace(*in.Category))
			}
			if in.Content != nil {
				p.Content = *in.Content
			}
			if in.ReviewIntervalMonths != nil {
				p.ReviewIntervalMonths = *in.ReviewIntervalMonths
			}
			return validatePop(p)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func addMonths(date string, months int) (string, error) {
	t, err := dates.Parse(date)
	if err != nil {
		return "", err
	}
	return dates.Format(t.AddDate(0, months, 0)), nil
}

func (s *popService) Publish(dbc dbctx.Context, id uuid.UUID) (*types.Pop, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var p *types.Pop
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if p, err = s.load(inner, rd.TenantID, id); err != nil {
			return err
		}
		if p.Status != pops.StatusDraft {
			return apierr.Conflict("pop_not_draft", "only DRAFT POPs can be published")
		}
		next, err := addMonths(dates.Today(now), p.ReviewIntervalMonths)
		if err != nil {
			return err
		}
		reason := fmt.Sprintf("Publicação da versão %d do POP", p.DocumentVersion)
		if _, err := s.recorder.Update(inner, p, reason, actorOf(rd), func() error {
			p.Status = pops.StatusPublished
			p.PublishedAt = &now
			p.PublishedBy = &rd.UserID
			p.NextReviewDate = &next
			return nil
		}); err != nil {
			return err
		}
		if p.PreviousVersionID == nil {
			return nil
		}
		prev, err := s.repo.GetByID(inner, rd.TenantID, *p.PreviousVersionID)
		if err != nil || prev == nil || prev.Status != pops.StatusPublished {
			return err
		}
		reason = fmt.Sprintf("Substituído pela versão %d do POP", p.DocumentVersion)
		_, err = s.recorder.Update(inner, prev, reason, actorOf(rd), func() error {
			prev.Status = pops.StatusObsolete
			prev.ObsoletedAt = &now
			prev.ObsoleteReason = reason
			prev.NextReviewDate = nil
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("pop published", "tenant_id", rd.TenantID, "pop_id", p.ID, "document_version", p.DocumentVersion)
	return p, nil
}

func (s *popService) Obsolete(dbc dbctx.Context, id uuid.UUID, reason string) (*types.Pop, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	reason, err = versioning.ValidateReason("reason", reason)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var p *types.Pop
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		if p, err = s.load(inner, rd.TenantID, id); err != nil {
			return err
		}
		if p.Status != pops.StatusPublished {
			return apierr.Conflict("pop_not_published", "only PUBLISHED POPs can be made obsolete")
		}
		_, err := s.recorder.Update(inner, p, reason, actorOf(rd), func() error {
			p.Status = pops.StatusObsolete
			p.ObsoletedAt = &now
			p.ObsoleteReason = reason
			p.NextReviewDate = nil
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *popService) NewVersion(dbc dbctx.Context, id uuid.UUID) (*types.Pop, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	var draft *types.Pop
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		src, err := s.load(inner, rd.TenantID, id)
		if err != nil {
			return err
		}
		if src.Status != pops.StatusPublished {
			return apierr.Conflict("pop_not_published", "new versions can only be created from a PUBLISHED POP")
		}
		exists, err := s.repo.HasDraftSuccessor(inner, rd.TenantID, src.ID)
		if err != nil {
			return err
		}
		if exists {
			return apierr.Conflict("pop_draft_exists", "a draft of the next version already exists")
		}
		prevID := src.ID
		draft = &types.Pop{
			TenantID:             rd.TenantID,
			Title:                src.Title,
			Category:             src.Category,
			Content:              src.Content,
			Status:               pops.StatusDraft,
			ReviewIntervalMonths: src.ReviewIntervalMonths,
			PreviousVersionID:    &prevID,
			DocumentVersion:      src.DocumentVersion + 1,
		}
		return s.recorder.Create(inner, draft, actorOf(rd))
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *popService) Delete(dbc dbctx.Context, id uuid.UUID, reason string) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	return inTx(dbc, s.db, func(inner dbctx.Context) error {
		p, err := s.load(inner, rd.TenantID, id)
		if err != nil {
			return err
		}
		if p.Status != pops.StatusDraft {
			return apierr.Conflict("pop_not_editable", "only DRAFT POPs can be deleted")
		}
		_, err = s.recorder.SoftDelete(inner, p, reason, actorOf(rd))
		return err
	})
}

func (s *popService) NotifyReviewDue(dbc dbctx.Context, tenantID uuid.UUID) (int, error) {
	due, err := s.repo.ListDueForReview(dbc, tenantID, dates.Today(s.now()))
	if err != nil {
		return 0, err
	}
	for _, p := range due {
		id := p.ID
		if _, err := s.notifier.Notify(dbc, NotifyInput{
			TenantID:   tenantID,
			Type:       NotificationPopReviewDue,
			Severity:   audit.SeverityWarning,
			Title:      "POP com revisão pendente",
			Message:    fmt.Sprintf("O POP \"%s\" deveria ter sido revisado em %s.", p.Title, *p.NextReviewDate),
			EntityType: p.RecordType(),
			EntityID:   &id,
		}); err != nil {
			return 0, err
		}
	}
	return len(due), nil
}
