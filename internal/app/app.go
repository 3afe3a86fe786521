package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/db"
	apphttp "github.com/fpda/academy-backend/internal/http"
	httpH "github.com/fpda/academy-backend/internal/http/handlers"
	"github.com/fpda/academy-backend/internal/jobs"
	"github.com/fpda/academy-backend/internal/observability"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Jobs     *jobs.Scheduler

	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	loadDotEnv(nil)
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	theDB, err := openDB(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, err
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	if err := httpH.RegisterValidators(); err != nil {
		clients.Close()
		log.Sync()
		return nil, fmt.Errorf("register validators: %w", err)
	}
	handlerset := wireHandlers(log, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, handlerset, middleware)

	scheduler, err := wireJobs(log, cfg, serviceset)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Jobs:         scheduler,
		otelShutdown: otelShutdown,
	}, nil
}

func openDB(log *logger.Logger, cfg DBConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		theDB, err := db.OpenSQLite(log, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		return theDB, nil
	case DriverPostgres, "":
		pg, err := db.NewPostgresService(log, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return pg.DB(), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}
}

// Start launches background work. It is a no-op when jobs are disabled.
func (a *App) Start() {
	if a == nil || a.Jobs == nil {
		return
	}
	a.Jobs.Start()
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run()
}

// Shutdown drains HTTP, stops the sweeps and flushes telemetry within ctx.
func (a *App) Shutdown(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("HTTP shutdown", "error", err)
		}
	}
	a.Close(ctx)
}

// Close releases everything except the HTTP server.
func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Jobs != nil {
		a.Jobs.Stop(ctx)
	}
	a.Clients.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OTel shutdown", "error", err)
		}
	}
	a.Log.Sync()
}
