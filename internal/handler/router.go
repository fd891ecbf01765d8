package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/mellowboard/internal/middleware"
	"github.com/noah-isme/mellowboard/internal/service"
	"github.com/noah-isme/mellowboard/pkg/config"
	"github.com/noah-isme/mellowboard/pkg/logger"
	corsmiddleware "github.com/noah-isme/mellowboard/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/mellowboard/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Leaderboard *LeaderboardHandler
	Ingestion   *IngestionHandler
	Metrics     *MetricsHandler
}

// NewRouter builds the gin engine with the shared middleware chain and all routes.
func NewRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", h.Metrics.Summary)

	board := api.Group("/leaderboard")
	board.GET("", h.Leaderboard.List)
	board.GET("/export", h.Leaderboard.Export)
	board.GET("/:id", h.Leaderboard.Detail)

	ingestion := api.Group("/ingestion", middleware.CronSecret(cfg.Ingestion.CronSecret))
	ingestion.POST("/run", h.Ingestion.Trigger)
	ingestion.GET("/runs", h.Ingestion.ListRuns)

	return r
}
