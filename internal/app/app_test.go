package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/testutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/jobs"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/observability"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/realtime"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cfg := LoadConfig(logger.Nop())

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.PermissionsCacheTTL)
	assert.Equal(t, jobs.DefaultShiftGenerationDays, cfg.ShiftGenerationDays)
	assert.Equal(t, jobs.DefaultAuditRetention, cfg.AuditRetention)
	assert.True(t, cfg.CronEnabled)
	assert.Empty(t, cfg.JobSchedules)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "port: \"9000\"\nlogin_rate_per_minute: 3\ncors_origins: \"https://a.example, https://b.example\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	t.Setenv("CONFIG_PATH", dir)
	t.Setenv("PORT", "9100")
	t.Setenv("CRON_ENABLED", "false")
	t.Setenv("CRON_SHIFT_GENERATION", "0 5 * * *")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-api-key=abc")

	cfg := LoadConfig(logger.Nop())
	assert.Equal(t, "9100", cfg.Port, "env wins over file")
	assert.Equal(t, 3, cfg.LoginRatePerMinute)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.CronEnabled)
	assert.Equal(t, map[string]string{jobs.JobShiftGeneration: "0 5 * * *"}, cfg.JobSchedules)
	assert.Equal(t, "abc", cfg.Otel.Headers["x-api-key"])
}

// newTestApp wires everything except Postgres and the HTTP server onto a SQLite database.
func newTestApp(t *testing.T) *App {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	cfg := Config{PermissionsCacheTTL: time.Minute, AccessTokenTTL: time.Hour, RefreshTokenTTL: time.Hour, JWTSecretKey: "test"}
	metrics := observability.NewMetrics()
	hub := realtime.NewSSEHub(log)
	reposet := wireRepos(db, log)
	serviceset := wireServices(db, log, cfg, reposet, hub, Clients{}, metrics)
	return &App{Log: log, DB: db, Cfg: cfg, Repos: reposet, Services: serviceset, Metrics: metrics, SSEHub: hub}
}

func TestWireServicesWithoutRedisDeliversLocally(t *testing.T) {
	a := newTestApp(t)
	_, ok := a.Services.Emitter.(*services.HubEmitter)
	assert.True(t, ok, "expected HubEmitter, got %T", a.Services.Emitter)
}

func TestSeedIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	first, err := a.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, first.QuestionsLoaded)
	assert.Positive(t, first.ShiftTemplates)

	second, err := a.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, second.QuestionsLoaded)
	assert.Equal(t, first.QuestionVersion, second.QuestionVersion)
	assert.Equal(t, first.ShiftTemplates, second.ShiftTemplates)
}

func TestCreateSuperadmin(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	u, err := a.CreateSuperadmin(ctx, " Root@Ilpi.com.br ", "Root", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "root@ilpi.com.br", u.Email)
	assert.Equal(t, user.RoleSuperadmin, u.Role)
	assert.Nil(t, u.TenantID)
	assert.NotEqual(t, "s3cret-pass", u.Password)

	_, err = a.CreateSuperadmin(ctx, "root@ilpi.com.br", "Other", "s3cret-pass")
	ae, ok := apierr.As(err)
	require.True(t, ok, "expected apierr, got %v", err)
	assert.Equal(t, http.StatusConflict, ae.Status)

	_, err = a.CreateSuperadmin(ctx, "not-an-email", "", "s3cret-pass")
	ae, ok = apierr.As(err)
	require.True(t, ok)
	assert.Contains(t, ae.Fields, "email")
	assert.Contains(t, ae.Fields, "name")
}

func TestWireRouterGatesMetricsAndTracing(t *testing.T) {
	log := logger.Nop()
	metrics := observability.NewMetrics()

	rc := wireRouter(log, Config{}, metrics, Services{}, Handlers{}, Middleware{})
	assert.Nil(t, rc.Metrics)
	assert.Empty(t, rc.TracingService)

	cfg := Config{MetricsEnabled: true}
	cfg.Otel.Enabled = true
	cfg.Otel.ServiceName = "ilpi-api"
	rc = wireRouter(log, cfg, metrics, Services{}, Handlers{}, Middleware{})
	assert.Same(t, metrics, rc.Metrics)
	assert.Equal(t, "ilpi-api", rc.TracingService)
}
