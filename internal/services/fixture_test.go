package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/testutil"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/ctxutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/realtime"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/versioning"
)

// fixture bundles a rolled-back transaction, one tenant with an admin user,
// and the repos most services need.
type fixture struct {
	t      *testing.T
	db     *gorm.DB
	tx     *gorm.DB
	log    *logger.Logger
	tenant *types.Tenant
	admin  *types.User

	residents     repos.ResidentRepo
	subscriptions repos.SubscriptionRepo
	tenants       repos.TenantRepo
	users         repos.UserRepo
	history       repos.RecordHistoryRepo
	notifications repos.NotificationRepo
	recorder      *versioning.Recorder
	emitter       *recordingEmitter
	notifier      NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	ctx := context.Background()

	f := &fixture{t: t, db: db, tx: tx, log: log}
	f.tenant = testutil.SeedTenant(t, ctx, tx, "Casa Repouso")
	f.admin = testutil.SeedUser(t, ctx, tx, f.tenant.ID, "admin+"+uuid.NewString()[:6]+"@casa.com.br", user.RoleAdmin)

	f.residents = repos.NewResidentRepo(db, log)
	f.subscriptions = repos.NewSubscriptionRepo(db, log)
	f.tenants = repos.NewTenantRepo(db, log)
	f.users = repos.NewUserRepo(db, log)
	f.history = repos.NewRecordHistoryRepo(db, log)
	f.notifications = repos.NewNotificationRepo(db, log)
	f.recorder = versioning.NewRecorder(db, log, f.history, nil)
	f.emitter = &recordingEmitter{}
	f.notifier = NewNotificationService(db, log, f.notifications, f.emitter, nil)
	return f
}

// as returns a dbctx bound to the fixture transaction with u as principal.
func (f *fixture) as(u *types.User) dbctx.Context {
	rd := &ctxutil.RequestData{UserID: u.ID, Role: u.Role, UserName: u.Name}
	if u.TenantID != nil {
		rd.TenantID = *u.TenantID
	}
	return dbctx.Context{Ctx: ctxutil.WithRequestData(context.Background(), rd), Tx: f.tx}
}

func (f *fixture) adminCtx() dbctx.Context { return f.as(f.admin) }

// system is a principal-less context, as used by scheduled jobs.
func (f *fixture) system() dbctx.Context {
	return dbctx.Context{Ctx: context.Background(), Tx: f.tx}
}

func (f *fixture) seedResident(name, admission, level string) *types.Resident {
	f.t.Helper()
	return testutil.SeedResident(f.t, context.Background(), f.tx, f.tenant.ID, name, admission, level)
}

func (f *fixture) seedUser(role string) *types.User {
	f.t.Helper()
	return testutil.SeedUser(f.t, context.Background(), f.tx, f.tenant.ID, role+"+"+uuid.NewString()[:6]+"@casa.com.br", role)
}

func fixedClock(s string) func() time.Time {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts }
}

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func (e *recordingEmitter) events() []realtime.SSEEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]realtime.SSEEvent, 0, len(e.msgs))
	for _, m := range e.msgs {
		out = append(out, m.Event)
	}
	return out
}

func requireAPIError(t *testing.T, err error, status int, code string) *apierr.Error {
	t.Helper()
	require.Error(t, err)
	ae, ok := apierr.As(err)
	require.True(t, ok, "expected api error, got %v", err)
	require.Equal(t, status, ae.Status, "status for %v", err)
	if code != "" {
		require.Equal(t, code, ae.Code, "code for %v", err)
	}
	return ae
}
