package compliance

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type QuestionRepo interface {
	CreateVersion(dbc dbctx.Context, v *types.ComplianceQuestionVersion, questions []*types.ComplianceQuestion) error
	GetVersion(dbc dbctx.Context, id uuid.UUID) (*types.ComplianceQuestionVersion, error)
	GetVersionByNumber(dbc dbctx.Context, regulation string, number int) (*types.ComplianceQuestionVersion, error)
	// GetCurrentVersion returns the non-expired version with the latest effective date.
	GetCurrentVersion(dbc dbctx.Context) (*types.ComplianceQuestionVersion, error)
	ListVersions(dbc dbctx.Context) ([]*types.ComplianceQuestionVersion, error)
	ListByVersion(dbc dbctx.Context, versionID uuid.UUID) ([]*types.ComplianceQuestion, error)
	GetByNumber(dbc dbctx.Context, versionID uuid.UUID, number int) (*types.ComplianceQuestion, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "ComplianceQuestionRepo")}
}

func (r *questionRepo) CreateVersion(dbc dbctx.Context, v *types.ComplianceQuestionVersion, questions []*types.ComplianceQuestion) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Questions").Create(v).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		for _, q := range questions {
			q.VersionID = v.ID
		}
		return tx.Create(&questions).Error
	})
}

func (r *questionRepo) GetVersion(dbc dbctx.Context, id uuid.UUID) (*types.ComplianceQuestionVersion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.ComplianceQuestionVersion
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *questionRepo) GetVersionByNumber(dbc dbctx.Context, regulation string, number int) (*types.ComplianceQuestionVersion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.ComplianceQuestionVersion
	if err := transaction.WithContext(dbc.Ctx).
		Where("regulation_name = ? AND version_number = ?", regulation, number).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *questionRepo) GetCurrentVersion(dbc dbctx.Context) (*types.ComplianceQuestionVersion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.ComplianceQuestionVersion
	if err := transaction.WithContext(dbc.Ctx).
		Where("expires_at IS NULL").
		Order("effective_date DESC, version_number DESC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *questionRepo) ListVersions(dbc dbctx.Context) ([]*types.ComplianceQuestionVersion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ComplianceQuestionVersion
	if err := transaction.WithContext(dbc.Ctx).
		Order("effective_date DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) ListByVersion(dbc dbctx.Context, versionID uuid.UUID) ([]*types.ComplianceQuestion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ComplianceQuestion
	if err := transaction.WithContext(dbc.Ctx).
		Where("version_id = ?", versionID).
		Order("question_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) GetByNumber(dbc dbctx.Context, versionID uuid.UUID, number int) (*types.ComplianceQuestion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.ComplianceQuestion
	if err := transaction.WithContext(dbc.Ctx).
		Where("version_id = ? AND question_number = ?", versionID, number).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}
