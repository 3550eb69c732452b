package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/db"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/http"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/jobs"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/observability"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/realtime"
)

type App struct {
	Log       *logger.Logger
	DB        *gorm.DB
	Server    *http.Server
	Cfg       Config
	Repos     Repos
	Services  Services
	Clients   Clients
	Metrics   *observability.Metrics
	SSEHub    *realtime.SSEHub
	Tasks     *jobs.Tasks
	Scheduler *jobs.Scheduler

	pg           *db.PostgresService
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	pg, err := db.NewPostgresService(log, cfg.Postgres)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	theDB := pg.DB()

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	metrics := observability.NewMetrics()
	sseHub := realtime.NewSSEHub(log)

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, sseHub, clients, metrics)
	tasks := wireTasks(log, cfg, reposet, serviceset)
	scheduler, err := wireScheduler(log, metrics, tasks)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	handlerset := wireHandlers(theDB, log, serviceset, sseHub)
	middleware := wireMiddleware(log, cfg, serviceset)
	server := http.NewServer(wireRouter(log, cfg, metrics, serviceset, handlerset, middleware))
	server.OnShutdown = append(server.OnShutdown, sseHub.CloseAll)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		SSEHub:       sseHub,
		Tasks:        tasks,
		Scheduler:    scheduler,
		pg:           pg,
		otelShutdown: otelShutdown,
	}, nil
}

// Migrate creates or updates the schema, then the Postgres-only indexes.
func (a *App) Migrate() error {
	a.Log.Info("Running migrations...")
	if err := db.AutoMigrateAll(a.DB); err != nil {
		return err
	}
	return db.EnsureIndexes(a.DB)
}

// Start launches background work: the Redis forwarder and, when enabled, the scheduler.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Clients.SSEBus != nil {
		if err := a.Clients.SSEBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start realtime forwarder: %w", err)
		}
	}
	if a.Cfg.CronEnabled {
		a.Scheduler.Start()
	} else {
		a.Log.Info("CRON_ENABLED=false, scheduler not started")
	}
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(ctx); err != nil {
			a.Log.Warn("scheduler stop", "error", err)
		}
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("postgres close", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
	}
	a.Log.Sync()
}
