package services

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	auditRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/audit"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/audit"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/ctxutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

// AuditEntry describes one handled request. Route is the matched pattern, e.g. /api/pops/:id/publish.
type AuditEntry struct {
	Method     string
	Path       string
	Route      string
	StatusCode int
	IP         string
	UserAgent  string
	Duration   time.Duration
	ResourceID string
}

type AuditService interface {
	// Record stores entry for the principal in ctx. Anonymous requests are ignored.
	Record(dbc dbctx.Context, entry AuditEntry) error
	// List returns the caller tenant's log. Superadmins may pass a tenant or nil for all tenants.
	List(dbc dbctx.Context, tenantID *uuid.UUID, f auditRepo.AuditLogFilter) ([]*types.AuditLog, paging.Meta, error)
	Purge(dbc dbctx.Context, olderThan time.Duration) (int64, error)
}

type auditService struct {
	log  *logger.Logger
	repo repos.AuditLogRepo
	now  func() time.Time
}

func NewAuditService(log *logger.Logger, repo repos.AuditLogRepo) AuditService {
	return &auditService{log: log.With("service", "AuditService"), repo: repo, now: time.Now}
}

// AuditAction classifies a request. POSTs to a sub-path of a single record
// (publish, rescind, complete) are actions rather than creations.
func AuditAction(method, route string) string {
	switch method {
	case http.MethodPut, http.MethodPatch:
		return audit.ActionUpdate
	case http.MethodDelete:
		return audit.ActionDelete
	case http.MethodPost:
		segs := routeSegments(route)
		if len(segs) >= 2 && strings.HasPrefix(segs[len(segs)-2], ":") {
			return audit.ActionOther
		}
		if len(segs) >= 2 && !strings.HasPrefix(segs[len(segs)-1], ":") && isVerbSegment(segs[len(segs)-1]) {
			return audit.ActionOther
		}
		return audit.ActionCreate
	}
	return audit.ActionOther
}

var verbSegments = map[string]bool{
	"generate": true, "calculate": true, "close": true, "reopen": true,
	"logout": true, "refresh": true, "read-all": true, "seed": true,
}

func isVerbSegment(s string) bool { return verbSegments[s] }

func routeSegments(route string) []string {
	route = strings.TrimPrefix(route, "/api")
	var out []string
	for _, s := range strings.Split(route, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// AuditResource is the top-level collection of a route, e.g. "pops" or "superadmin/tenants".
func AuditResource(route string) string {
	segs := routeSegments(route)
	switch {
	case len(segs) == 0:
		return "root"
	case segs[0] == "superadmin" && len(segs) > 1:
		return segs[0] + "/" + segs[1]
	}
	return segs[0]
}

func (s *auditService) Record(dbc dbctx.Context, e AuditEntry) error {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil
	}
	route := e.Route
	if route == "" {
		route = e.Path
	}
	userID := rd.UserID
	entry := &types.AuditLog{
		UserID:     &userID,
		UserName:   rd.UserName,
		Action:     AuditAction(e.Method, route),
		Resource:   AuditResource(route),
		ResourceID: e.ResourceID,
		Method:     e.Method,
		Path:       e.Path,
		StatusCode: e.StatusCode,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		DurationMs: e.Duration.Milliseconds(),
		CreatedAt:  s.now(),
	}
	if rd.TenantID != uuid.Nil {
		tenantID := rd.TenantID
		entry.TenantID = &tenantID
	}
	if td := ctxutil.GetTraceData(dbc.Ctx); td != nil {
		entry.RequestID = td.RequestID
	}
	if err := s.repo.Create(dbc, entry); err != nil {
		s.log.Warn("audit log write failed", "path", e.Path, "error", err)
		return err
	}
	return nil
}

func (s *auditService) List(dbc dbctx.Context, tenantID *uuid.UUID, f auditRepo.AuditLogFilter) ([]*types.AuditLog, paging.Meta, error) {
	rd, err := requestData(dbc.Ctx)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	scope := tenantID
	switch rd.Role {
	case user.RoleSuperadmin:
	case user.RoleAdmin:
		if rd.TenantID == uuid.Nil {
			return nil, paging.Meta{}, apierr.Forbidden("operation requires a tenant user")
		}
		own := rd.TenantID
		scope = &own
	default:
		return nil, paging.Meta{}, apierr.Forbidden("audit logs are restricted to administrators")
	}
	f.Page = f.Page.Normalize()
	f.Action = strings.ToUpper(f.Action)
	rows, total, err := s.repo.List(dbc, scope, f)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return rows, f.Page.Meta(total), nil
}

func (s *auditService) Purge(dbc dbctx.Context, olderThan time.Duration) (int64, error) {
	n, err := s.repo.DeleteBefore(dbc, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("audit logs purged", "deleted", n)
	}
	return n, nil
}
