// Package versioning implements the audited write path shared by clinical,
// legal and administrative records: every update or delete requires a reason
// and leaves an immutable history row holding the pre-change snapshot.
package versioning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	historyRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/history"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/history"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/ctxutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

// MinReasonLength is the minimum length of a change reason after trimming.
const MinReasonLength = 10

// Record is implemented by entities embedding history.Versioning.
type Record interface {
	RecordType() string
	RecordID() uuid.UUID
	RecordTenantID() uuid.UUID
	GetVersion() int
	SetVersion(n int)
	SetCreatedBy(id uuid.UUID)
	SetUpdatedBy(id uuid.UUID)
}

// Actor identifies who performs a write.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// Observer receives one call per committed versioned write.
type Observer interface {
	ObserveVersionedWrite(entityType, changeType string)
}

type Recorder struct {
	db       *gorm.DB
	log      *logger.Logger
	history  historyRepo.RecordHistoryRepo
	observer Observer
	now      func() time.Time
}

func NewRecorder(db *gorm.DB, baseLog *logger.Logger, history historyRepo.RecordHistoryRepo, observer Observer) *Recorder {
	return &Recorder{
		db:       db,
		log:      baseLog.With("component", "VersioningRecorder"),
		history:  history,
		observer: observer,
		now:      time.Now,
	}
}

// ValidateReason trims the reason and enforces the minimum length.
func ValidateReason(field, reason string) (string, error) {
	trimmed := strings.TrimSpace(reason)
	if utf8.RuneCountInString(trimmed) < MinReasonLength {
		return "", apierr.Field(field, fmt.Sprintf("must have at least %d characters", MinReasonLength))
	}
	return trimmed, nil
}

// Create inserts rec as version 1. No history row is written.
func (r *Recorder) Create(dbc dbctx.Context, rec Record, actor Actor) error {
	rec.SetVersion(1)
	rec.SetCreatedBy(actor.ID)
	if err := dbc.Resolve(r.db).Omit(clause.Associations).Create(rec).Error; err != nil {
		return fmt.Errorf("create %s: %w", rec.RecordType(), err)
	}
	r.observe(rec.RecordType(), history.ChangeCreate)
	return nil
}

// Update applies mutate to rec and persists it with an incremented version.
// The history row and the row update commit together or not at all.
func (r *Recorder) Update(dbc dbctx.Context, rec Record, reason string, actor Actor, mutate func() error) (*types.RecordHistory, error) {
	reason, err := ValidateReason("changeReason", reason)
	if err != nil {
		return nil, err
	}
	var row *types.RecordHistory
	err = r.inTx(dbc, func(tx *gorm.DB) error {
		prev, err := Snapshot(rec)
		if err != nil {
			return err
		}
		prevVersion := rec.GetVersion()
		if mutate != nil {
			if err := mutate(); err != nil {
				return err
			}
		}
		rec.SetVersion(prevVersion + 1)
		rec.SetUpdatedBy(actor.ID)

		res := tx.Model(rec).
			Where("version_number = ?", prevVersion).
			Omit(clause.Associations).
			Select("*").
			Updates(rec)
		if res.Error != nil {
			return fmt.Errorf("update %s: %w", rec.RecordType(), res.Error)
		}
		if res.RowsAffected == 0 {
			return apierr.Conflict("version_conflict", fmt.Sprintf("%s was modified concurrently", rec.RecordType()))
		}

		next, err := Snapshot(rec)
		if err != nil {
			return err
		}
		row, err = r.writeHistory(tx, rec, history.ChangeUpdate, reason, actor, prev, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.observe(rec.RecordType(), history.ChangeUpdate)
	return row, nil
}

// SoftDelete bumps the version, writes a DELETE history row and soft-deletes rec.
func (r *Recorder) SoftDelete(dbc dbctx.Context, rec Record, reason string, actor Actor) (*types.RecordHistory, error) {
	reason, err := ValidateReason("deleteReason", reason)
	if err != nil {
		return nil, err
	}
	var row *types.RecordHistory
	err = r.inTx(dbc, func(tx *gorm.DB) error {
		prev, err := Snapshot(rec)
		if err != nil {
			return err
		}
		prevVersion := rec.GetVersion()
		rec.SetVersion(prevVersion + 1)
		rec.SetUpdatedBy(actor.ID)

		res := tx.Model(rec).
			Where("version_number = ?", prevVersion).
			Updates(map[string]any{
				"version_number": prevVersion + 1,
				"updated_by":     actor.ID,
			})
		if res.Error != nil {
			return fmt.Errorf("delete %s: %w", rec.RecordType(), res.Error)
		}
		if res.RowsAffected == 0 {
			return apierr.Conflict("version_conflict", fmt.Sprintf("%s was modified concurrently", rec.RecordType()))
		}
		if err := tx.Delete(rec).Error; err != nil {
			return fmt.Errorf("delete %s: %w", rec.RecordType(), err)
		}

		next, err := Snapshot(rec)
		if err != nil {
			return err
		}
		next["deleted_at"] = r.now().UTC().Format(time.RFC3339)
		row, err = r.writeHistory(tx, rec, history.ChangeDelete, reason, actor, prev, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.observe(rec.RecordType(), history.ChangeDelete)
	return row, nil
}

// History returns every history row of an entity, newest version first.
func (r *Recorder) History(dbc dbctx.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) ([]*types.RecordHistory, error) {
	return r.history.ListByEntity(dbc, tenantID, entityType, entityID)
}

// Version returns the history row tagged with the given version.
func (r *Recorder) Version(dbc dbctx.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID, version int) (*types.RecordHistory, error) {
	if version < 1 {
		return nil, apierr.Field("version", "must be a positive integer")
	}
	row, err := r.history.GetVersion(dbc, tenantID, entityType, entityID, version)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apierr.NotFound(fmt.Sprintf("%s version %d", entityType, version))
	}
	return row, nil
}

func (r *Recorder) inTx(dbc dbctx.Context, fn func(tx *gorm.DB) error) error {
	if dbc.Tx != nil {
		return fn(dbc.Resolve(r.db))
	}
	return dbc.Resolve(r.db).Transaction(fn)
}

func (r *Recorder) writeHistory(tx *gorm.DB, rec Record, changeType, reason string, actor Actor, prev, next map[string]any) (*types.RecordHistory, error) {
	prevRaw, err := json.Marshal(prev)
	if err != nil {
		return nil, err
	}
	nextRaw, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	fieldsRaw, err := json.Marshal(ChangedFields(prev, next))
	if err != nil {
		return nil, err
	}
	row := &types.RecordHistory{
		TenantID:      rec.RecordTenantID(),
		EntityType:    rec.RecordType(),
		EntityID:      rec.RecordID(),
		VersionNumber: rec.GetVersion(),
		ChangeType:    changeType,
		ChangeReason:  reason,
		PreviousData:  datatypes.JSON(prevRaw),
		NewData:       datatypes.JSON(nextRaw),
		ChangedFields: datatypes.JSON(fieldsRaw),
		ChangedBy:     actor.ID,
		ChangedByName: actor.Name,
		ChangedAt:     r.now(),
	}
	if _, err := r.history.Create(dbctx.Context{Ctx: ctxutil.Default(tx.Statement.Context), Tx: tx}, []*types.RecordHistory{row}); err != nil {
		return nil, fmt.Errorf("write %s history: %w", rec.RecordType(), err)
	}
	r.log.Debug("versioned write", "entity_type", row.EntityType, "entity", row.EntityID, "version", row.VersionNumber, "change_type", changeType)
	return row, nil
}

func (r *Recorder) observe(entityType, changeType string) {
	if r.observer != nil {
		r.observer.ObserveVersionedWrite(entityType, changeType)
	}
}
