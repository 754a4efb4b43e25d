package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/schedule-api/internal/handler"
	"github.com/noah-isme/schedule-api/internal/middleware"
	"github.com/noah-isme/schedule-api/internal/service"
	"github.com/noah-isme/schedule-api/pkg/config"
	"github.com/noah-isme/schedule-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/schedule-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/schedule-api/pkg/middleware/requestid"
)

// handlers groups everything the router mounts. imports is nil when the import API is off.
type handlers struct {
	auth     *service.AuthService
	metrics  *service.MetricsService
	health   *handler.HealthHandler
	schedule *handler.ScheduleHandler
	base     *handler.BaseHandler
	edits    *handler.EditHandler
	login    *handler.AuthHandler
	imports  *handler.ImportHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(h.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.health.Health)
	r.GET("/ready", h.health.Ready)
	r.GET("/metrics", h.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/healthz", h.health.Healthz)

	api.GET("/schedule", h.schedule.Day)
	api.GET("/schedule/week", h.schedule.Week)
	api.GET("/schedule/teacher", h.schedule.TeacherWeek)
	api.GET("/schedule/export", h.schedule.Export)
	api.GET("/groups", h.schedule.Groups)
	api.GET("/legacy/schedule", h.schedule.LegacyDay)

	api.POST("/auth/login", h.login.Login)
	api.GET("/auth/me", middleware.JWT(h.auth), h.login.Me)

	base := api.Group("/base", middleware.JWT(h.auth), middleware.AdminOnly(), middleware.Audit(logr, "base_schedule"))
	base.GET("", h.base.List)
	base.GET("/:id", h.base.Get)
	base.POST("", h.base.Create)
	base.PUT("/:id", h.base.Update)
	base.DELETE("/:id", h.base.Delete)

	edits := api.Group("/edits", middleware.JWT(h.auth), middleware.Editors())
	weekly := edits.Group("/weekly", middleware.Audit(logr, "weekly_edit"))
	weekly.GET("", h.edits.ListWeekly)
	weekly.GET("/:id", h.edits.GetWeekly)
	weekly.POST("", h.edits.PutWeekly)
	weekly.PUT("/:id", h.edits.UpdateWeekly)
	weekly.DELETE("/:id", h.edits.DeleteWeekly)

	once := edits.Group("/once", middleware.Audit(logr, "once_edit"))
	once.GET("", h.edits.ListOnce)
	once.GET("/:id", h.edits.GetOnce)
	once.POST("", h.edits.PutOnce)
	once.PUT("/:id", h.edits.UpdateOnce)
	once.DELETE("/:id", h.edits.DeleteOnce)
	once.POST("/purge", middleware.AdminOnly(), h.edits.PurgeOnce)

	if h.imports != nil {
		imports := api.Group("/admin/import", middleware.JWT(h.auth), middleware.AdminOnly(), middleware.Audit(logr, "import"))
		imports.POST("/schedule", h.imports.Schedule)
		imports.POST("/teachers", h.imports.Teachers)
		imports.GET("/jobs", h.imports.Jobs)
		imports.GET("/jobs/:id", h.imports.Job)
		imports.POST("/jobs/:id/retry", h.imports.Retry)
	}

	return r
}
