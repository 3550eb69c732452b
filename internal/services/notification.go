package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	auditRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/audit"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/audit"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/ctxutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/realtime"
)

const (
	NotificationSentinelEvent        = "SENTINEL_EVENT"
	NotificationPrescriptionExpiring = "PRESCRIPTION_EXPIRING"
	NotificationPopReviewDue         = "POP_REVIEW_DUE"
	NotificationTrialEnded           = "TRIAL_ENDED"
)

type NotifyInput struct {
	TenantID   uuid.UUID
	UserID     *uuid.UUID
	Type       string
	Severity   string
	Title      string
	Message    string
	EntityType string
	EntityID   *uuid.UUID
}

type NotificationObserver interface {
	ObserveNotification(kind, severity string)
}

type NotificationService interface {
	// Notify persists and publishes a notification. It needs no request principal.
	Notify(dbc dbctx.Context, in NotifyInput) (*types.Notification, error)
	List(dbc dbctx.Context, unreadOnly bool, page paging.Page) ([]*types.Notification, paging.Meta, error)
	UnreadCount(dbc dbctx.Context) (int64, error)
	MarkRead(dbc dbctx.Context, id uuid.UUID) error
	MarkAllRead(dbc dbctx.Context) (int64, error)
}

type notificationService struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.NotificationRepo
	emit     SSEEmitter
	observer NotificationObserver
	now      func() time.Time
}

func NewNotificationService(db *gorm.DB, log *logger.Logger, repo repos.NotificationRepo, emit SSEEmitter, observer NotificationObserver) NotificationService {
	return &notificationService{
		db:       db,
		log:      log.With("service", "NotificationService"),
		repo:     repo,
		emit:     emit,
		observer: observer,
		now:      time.Now,
	}
}

func (s *notificationService) Notify(dbc dbctx.Context, in NotifyInput) (*types.Notification, error) {
	if in.TenantID == uuid.Nil {
		return nil, fmt.Errorf("notify: tenant id is required")
	}
	severity := strings.ToUpper(strings.TrimSpace(in.Severity))
	switch severity {
	case "":
		severity = audit.SeverityInfo
	case audit.SeverityInfo, audit.SeverityWarning, audit.SeverityCritical:
	default:
		return nil, apierr.Field("severity", "must be INFO, WARNING or CRITICAL")
	}
	n := &types.Notification{
		TenantID:   in.TenantID,
		UserID:     in.UserID,
		Type:       in.Type,
		Severity:   severity,
		Title:      in.Title,
		Message:    in.Message,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		CreatedAt:  s.now(),
	}
	if err := s.repo.Create(dbc, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}
	if s.observer != nil {
		s.observer.ObserveNotification(n.Type, n.Severity)
	}

	channel := realtime.TenantChannel(n.TenantID)
	if n.UserID != nil {
		channel = realtime.UserChannel(*n.UserID)
	}
	event := realtime.SSEEventNotificationCreated
	if n.Type == NotificationSentinelEvent {
		event = realtime.SSEEventSentinelEvent
	}
	if s.emit != nil {
		s.emit.Emit(ctxutil.Default(dbc.Ctx), realtime.SSEMessage{
			Channel: channel,
			Event:   event,
			Data:    map[string]any{"notification": n},
		})
	}
	s.log.Debug("notification sent", "tenant_id", n.TenantID, "type", n.Type, "severity", n.Severity)
	return n, nil
}

func (s *notificationService) List(dbc dbctx.Context, unreadOnly bool, page paging.Page) ([]*types.Notification, paging.Meta, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	rows, total, err := s.repo.ListForUser(dbc, rd.TenantID, rd.UserID, auditRepo.NotificationFilter{UnreadOnly: unreadOnly, Page: page})
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return rows, page.Meta(total), nil
}

func (s *notificationService) UnreadCount(dbc dbctx.Context) (int64, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return 0, err
	}
	return s.repo.CountUnread(dbc, rd.TenantID, rd.UserID)
}

func (s *notificationService) MarkRead(dbc dbctx.Context, id uuid.UUID) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	ok, err := s.repo.MarkRead(dbc, rd.TenantID, rd.UserID, id, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NotFound("notification")
	}
	if s.emit != nil {
		s.emit.Emit(ctxutil.Default(dbc.Ctx), realtime.SSEMessage{
			Channel: realtime.UserChannel(rd.UserID),
			Event:   realtime.SSEEventNotificationRead,
			Data:    map[string]any{"id": id},
		})
	}
	return nil
}

func (s *notificationService) MarkAllRead(dbc dbctx.Context) (int64, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllRead(dbc, rd.TenantID, rd.UserID, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 && s.emit != nil {
		s.emit.Emit(ctxutil.Default(dbc.Ctx), realtime.SSEMessage{
			Channel: realtime.UserChannel(rd.UserID),
			Event:   realtime.SSEEventNotificationRead,
			Data:    map[string]any{"all": true, "count": n},
		})
	}
	return n, nil
}
