package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/schedule-api/pkg/config"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// WaitFor pings until the database answers or the configured timeout runs out.
func WaitFor(ctx context.Context, db Pinger, cfg config.DatabaseConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.WaitTimeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	interval := cfg.RetryEvery
	if interval <= 0 {
		interval = 5 * time.Second
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = interval / 4
	policy.MaxInterval = interval
	policy.MaxElapsedTime = timeout

	attempt := 0
	start := time.Now()
	operation := func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		return db.PingContext(pingCtx)
	}
	notify := func(err error, next time.Duration) {
		logger.Warn("database not ready yet", zap.Int("attempt", attempt), zap.Duration("retry_in", next), zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		return fmt.Errorf("database not ready after %s: %w", time.Since(start).Round(time.Second), err)
	}
	logger.Info("database ready", zap.Int("attempts", attempt))
	return nil
}

// Connect opens the pool and blocks until the server accepts connections.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := WaitFor(ctx, db, cfg, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
