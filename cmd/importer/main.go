package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/noah-isme/schedule-api/internal/migrations"
	"github.com/noah-isme/schedule-api/internal/models"
	"github.com/noah-isme/schedule-api/internal/repository"
	"github.com/noah-isme/schedule-api/internal/service"
	"github.com/noah-isme/schedule-api/pkg/cache"
	"github.com/noah-isme/schedule-api/pkg/config"
	"github.com/noah-isme/schedule-api/pkg/database"
	"github.com/noah-isme/schedule-api/pkg/logger"
)

func main() {
	kind := flag.String("kind", string(models.ImportSchedule), "schedule or teachers")
	file := flag.String("file", "", "workbook path; defaults to EXCEL_PATH or TEACHERS_EXCEL_PATH")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr, models.ImportKind(*kind), *file); err != nil {
		logr.Sugar().Fatalw("import failed", "kind", *kind, "error", err)
	}
}

func workbookPath(cfg config.ImportConfig, kind models.ImportKind, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	switch kind {
	case models.ImportSchedule:
		return cfg.ScheduleExcelPath, nil
	case models.ImportTeachers:
		return cfg.TeachersExcelPath, nil
	}
	return "", fmt.Errorf("unknown kind %q", kind)
}

func run(cfg *config.Config, logr *zap.Logger, kind models.ImportKind, override string) error {
	path, err := workbookPath(cfg.Import, kind, override)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database, logr)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrations.NewMigrator(db, logr).Apply(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	// the API may be serving cached views of the old timetable
	cacheSvc := service.NewCacheService(nil, nil, cfg.Schedule.CacheTTL, logr, false)
	if cfg.Schedule.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("cannot reach redis, cached schedules will expire on their own", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(repo, nil, cfg.Schedule.CacheTTL, logr, true)
		}
	}

	importSvc := service.NewImportService(
		repository.NewWeekdayScheduleRepository(db),
		repository.NewWeeklyEditRepository(db),
		repository.NewUserRepository(db),
		cacheSvc, nil, logr,
		service.ImportServiceConfig{BulkPageSize: cfg.Import.BulkPageSize},
	)
	result, err := importSvc.Import(ctx, kind, f)
	if err != nil {
		return err
	}
	logr.Sugar().Infow("import finished",
		"kind", kind,
		"file", path,
		"format", result.Format,
		"rows_read", result.RowsRead,
		"base_rows", result.BaseRows,
		"weekly_edits", result.WeeklyEdits,
		"users", result.UsersUpdated,
		"skipped", result.Skipped,
	)
	return nil
}
