package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/noah-isme/schedule-api/internal/migrations"
	"github.com/noah-isme/schedule-api/pkg/config"
	"github.com/noah-isme/schedule-api/pkg/database"
	"github.com/noah-isme/schedule-api/pkg/logger"
)

func main() {
	seed := flag.Bool("seed", false, "load demo data after the schema")
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database, logr)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	migrator := migrations.NewMigrator(db, logr)
	if err := migrator.Apply(ctx); err != nil {
		logr.Sugar().Fatalw("migration failed", "error", err)
	}
	if *seed {
		if err := migrator.Seed(ctx); err != nil {
			logr.Sugar().Fatalw("seed failed", "error", err)
		}
	}
	logr.Sugar().Infow("schema is up to date", "seeded", *seed)
}
