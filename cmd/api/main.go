package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/schedule-api/api/swagger"
	"github.com/noah-isme/schedule-api/internal/handler"
	"github.com/noah-isme/schedule-api/internal/migrations"
	"github.com/noah-isme/schedule-api/internal/repository"
	"github.com/noah-isme/schedule-api/internal/service"
	"github.com/noah-isme/schedule-api/pkg/cache"
	"github.com/noah-isme/schedule-api/pkg/config"
	"github.com/noah-isme/schedule-api/pkg/database"
	"github.com/noah-isme/schedule-api/pkg/logger"
	"github.com/noah-isme/schedule-api/pkg/storage"
)

// @title College Schedule API
// @version 1.0.0
// @description Base weekday timetable with weekly and once-off edits
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const (
	shutdownTimeout   = 15 * time.Second
	healthTimeout     = 2 * time.Second
	importMaxRetries  = 2
	importRetryDelay  = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Workers > 0 {
		runtime.GOMAXPROCS(cfg.Workers)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	anchor, err := service.ParseWeekAnchor(cfg.Schedule.OddWeekAnchor)
	if err != nil {
		return fmt.Errorf("ODD_WEEK_ANCHOR: %w", err)
	}

	db, err := database.Connect(ctx, cfg.Database, logr)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.NewMigrator(db, logr).Apply(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	metrics := service.NewMetricsService()
	metrics.RegisterDBStats(db.DB, "schedule")

	var cacheRepo *repository.CacheRepository
	if cfg.Schedule.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("schedule cache disabled, redis unreachable", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	// a nil *CacheRepository must not reach the interfaces below
	cacheSvc := service.NewCacheService(nil, metrics, cfg.Schedule.CacheTTL, logr, false)
	var pinger interface {
		Ping(ctx context.Context) error
	}
	if cacheRepo != nil {
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Schedule.CacheTTL, logr, true)
		pinger = cacheRepo
	}

	validate := validator.New()
	baseRepo := repository.NewWeekdayScheduleRepository(db)
	weeklyRepo := repository.NewWeeklyEditRepository(db)
	onceRepo := repository.NewOnceEditRepository(db)
	legacyRepo := repository.NewDateScheduleRepository(db)
	userRepo := repository.NewUserRepository(db)

	scheduleSvc := service.NewScheduleService(baseRepo, weeklyRepo, onceRepo, legacyRepo, cacheSvc, metrics, logr, service.ScheduleServiceConfig{
		Anchor:   anchor,
		CacheTTL: cfg.Schedule.CacheTTL,
	})
	baseSvc := service.NewBaseScheduleService(baseRepo, cacheSvc, validate, logr)
	editSvc := service.NewEditService(weeklyRepo, onceRepo, cacheSvc, validate, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "schedule-api",
	})
	exportSvc := service.NewExportService(scheduleSvc, cfg.Export.FontPath, logr)
	healthSvc := service.NewHealthService(db, pinger, metrics, logr, healthTimeout)

	h := handlers{
		auth:     authSvc,
		metrics:  metrics,
		health:   handler.NewHealthHandler(healthSvc, metrics),
		schedule: handler.NewScheduleHandler(scheduleSvc, exportSvc),
		base:     handler.NewBaseHandler(baseSvc),
		edits:    handler.NewEditHandler(editSvc),
		login:    handler.NewAuthHandler(authSvc),
	}

	if cfg.Import.APIEnabled {
		importSvc := service.NewImportService(baseRepo, weeklyRepo, userRepo, cacheSvc, metrics, logr, service.ImportServiceConfig{
			BulkPageSize: cfg.Import.BulkPageSize,
			Workers:      cfg.Import.Workers,
			MaxRetries:   importMaxRetries,
			RetryDelay:   importRetryDelay,
			ArchiveTTL:   cfg.Import.ArchiveTTL,
		})
		if cfg.Import.ArchiveDir != "" {
			archive, err := storage.NewLocalStorage(cfg.Import.ArchiveDir)
			if err != nil {
				return fmt.Errorf("import archive: %w", err)
			}
			importSvc.UseArchive(archive)
		}
		importSvc.Start(ctx)
		defer importSvc.Stop()
		h.imports = handler.NewImportHandler(importSvc)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, h),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "gomaxprocs", runtime.GOMAXPROCS(0), "cache", cacheSvc.Enabled(), "import_api", cfg.Import.APIEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
