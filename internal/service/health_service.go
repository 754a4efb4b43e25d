package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
)

type sqlProbe interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type cachePinger interface {
	Ping(ctx context.Context) error
}

// HealthReport is the readiness view of every dependency.
type HealthReport struct {
	Status   string               `json:"status"`
	Database string               `json:"database"`
	Cache    string               `json:"cache"`
	Metrics  models.SystemMetrics `json:"metrics"`
}

// HealthService probes the database and cache for the health endpoints.
type HealthService struct {
	db      sqlProbe
	cache   cachePinger
	metrics *MetricsService
	logger  *zap.Logger
	timeout time.Duration
}

// NewHealthService constructs a HealthService. cache may be nil when caching is off.
func NewHealthService(db sqlProbe, cache cachePinger, metrics *MetricsService, logger *zap.Logger, timeout time.Duration) *HealthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthService{db: db, cache: cache, metrics: metrics, logger: logger, timeout: timeout}
}

// Database runs SELECT 1 through the pool.
func (s *HealthService) Database(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	var one int
	err := s.db.GetContext(ctx, &one, "SELECT 1")
	s.metrics.ObserveDBQuery("healthz", time.Since(start))
	if err != nil {
		s.logger.Warn("database health check failed", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "database unavailable")
	}
	return nil
}

// Report checks every dependency. Only the database decides readiness; a broken
// cache degrades to uncached reads.
func (s *HealthService) Report(ctx context.Context) (*HealthReport, error) {
	report := &HealthReport{Status: "ok", Database: "ok", Cache: "disabled", Metrics: s.metrics.Snapshot()}
	var dbErr error
	if dbErr = s.Database(ctx); dbErr != nil {
		report.Status = "unavailable"
		report.Database = "down"
	}
	if s.cache != nil {
		pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if err := s.cache.Ping(pingCtx); err != nil {
			s.logger.Warn("cache health check failed", zap.Error(err))
			report.Cache = "down"
			if report.Status == "ok" {
				report.Status = "degraded"
			}
		} else {
			report.Cache = "ok"
		}
	}
	return report, dbErr
}
