// Package app wires configuration, storage and services into a runnable application.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/mellowboard/internal/grid"
	"github.com/noah-isme/mellowboard/internal/repository"
	"github.com/noah-isme/mellowboard/internal/service"
	"github.com/noah-isme/mellowboard/internal/sheets"
	"github.com/noah-isme/mellowboard/pkg/cache"
	"github.com/noah-isme/mellowboard/pkg/config"
	"github.com/noah-isme/mellowboard/pkg/database"
	"github.com/noah-isme/mellowboard/pkg/export"
)

// App holds the long-lived dependencies shared by the server and the CLI.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Metrics *service.MetricsService
	Cache   *service.CacheService

	Participants *repository.ParticipantRepository
	ActivityLogs *repository.ActivityLogRepository
	Runs         *repository.IngestionRunRepository
	Store        *repository.IngestionRepository

	Leaderboard *service.LeaderboardService
}

// New connects to Postgres and, when enabled, Redis and builds the read-side services.
func New(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*App, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Leaderboard.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, leaderboard cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	metrics := service.NewMetricsService()
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Leaderboard.CacheTTL, logr, redisClient != nil)

	a := &App{
		Config:       cfg,
		Logger:       logr,
		DB:           db,
		Redis:        redisClient,
		Metrics:      metrics,
		Cache:        cacheSvc,
		Participants: repository.NewParticipantRepository(db),
		ActivityLogs: repository.NewActivityLogRepository(db),
		Runs:         repository.NewIngestionRunRepository(db),
		Store:        repository.NewIngestionRepository(db),
	}

	exporter := service.NewExportService(logr, export.NewCSVExporter(), export.NewPDFExporter())
	a.Leaderboard = service.NewLeaderboardService(a.Participants, a.ActivityLogs, cacheSvc, exporter, cfg.Leaderboard.CacheTTL, logr)
	return a, nil
}

// Ingestion builds the ingestion service backed by the configured spreadsheet.
func (a *App) Ingestion(ctx context.Context) (*service.IngestionService, error) {
	if err := a.Config.ValidateSource(); err != nil {
		return nil, err
	}
	client, err := sheets.New(ctx, a.Config.Sheets, a.Logger.Named("sheets"))
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return service.NewIngestionService(client, a.Store, a.Runs, a.Cache, a.Metrics, a.Logger.Named("ingestion"), IngestionOptions(a.Config.Ingestion)), nil
}

// Close releases database and cache connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("close database", zap.Error(err))
		}
	}
}

// IngestionOptions translates ingestion settings into grid layouts and run options.
func IngestionOptions(cfg config.IngestionConfig) service.IngestionOptions {
	return service.IngestionOptions{
		Location:    cfg.Location,
		DateLayouts: cfg.DateLayouts,
		TaskLayout: grid.Layout{
			NameAxis: grid.AxisRow,
			NameLine: cfg.TaskNameRow,
			DateLine: cfg.TaskDateColumn,
		},
		MeetingLayout: grid.Layout{
			NameAxis: grid.AxisColumn,
			NameLine: cfg.MeetingNameColumn,
			DateLine: cfg.MeetingDateRow,
		},
		IdentityLayout: grid.IdentityLayout{
			HeaderRows:   cfg.IdentityHeaderRows,
			NameColumn:   cfg.IdentityNameColumn,
			HandleColumn: cfg.IdentityHandleColumn,
			ActiveColumn: cfg.IdentityActiveColumn,
		},
		StreakWindow: cfg.StreakWindow,
		RunTimeout:   cfg.RunTimeout,
	}
}
