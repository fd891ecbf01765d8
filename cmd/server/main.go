package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/noah-isme/mellowboard/api/swagger"
	"github.com/noah-isme/mellowboard/internal/app"
	"github.com/noah-isme/mellowboard/internal/handler"
	"github.com/noah-isme/mellowboard/internal/service"
	"github.com/noah-isme/mellowboard/pkg/config"
	"github.com/noah-isme/mellowboard/pkg/database"
	"github.com/noah-isme/mellowboard/pkg/jobs"
	"github.com/noah-isme/mellowboard/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// @title Mellowboard API
// @version 1.0.0
// @description Activity log ingestion, scoring and leaderboard service
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Error("server exited", zap.Error(err))
		_ = logr.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := database.Migrate(ctx, a.DB); err != nil {
		return err
	}

	ingestion, err := a.Ingestion(ctx)
	if err != nil {
		return err
	}

	worker := service.NewIngestionWorker(ingestion, logr.Named("worker"))
	queue := jobs.NewQueue("ingestion", worker.Handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.Ingestion.QueueSize,
		MaxRetries: cfg.Ingestion.MaxRetries,
		Logger:     logr,
	})
	dispatcher := service.NewIngestionDispatcher(queue, logr)
	scheduler := service.NewIngestionScheduler(dispatcher, cfg.Ingestion.Interval, logr.Named("scheduler"))

	router := handler.NewRouter(cfg, logr, a.Metrics, handler.Handlers{
		Leaderboard: handler.NewLeaderboardHandler(a.Leaderboard),
		Ingestion:   handler.NewIngestionHandler(ingestion, dispatcher),
		Metrics:     handler.NewMetricsHandler(a.Metrics, a.DB),
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	queue.Start(ctx)
	defer queue.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logr.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
