package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedule-api/internal/dto"
	"github.com/noah-isme/schedule-api/internal/service"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
)

type healthChecker interface {
	Database(ctx context.Context) error
	Report(ctx context.Context) (*service.HealthReport, error)
}

// HealthHandler exposes probes and the Prometheus scrape endpoint.
type HealthHandler struct {
	health  healthChecker
	metrics *service.MetricsService
}

// NewHealthHandler constructs a health handler.
func NewHealthHandler(health healthChecker, metrics *service.MetricsService) *HealthHandler {
	return &HealthHandler{health: health, metrics: metrics}
}

// Healthz godoc
// @Summary Database round-trip probe
// @Description Runs SELECT 1 through the connection pool. Used by the load test.
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthStatus
// @Failure 503 {object} dto.HealthStatus
// @Router /healthz [get]
func (h *HealthHandler) Healthz(c *gin.Context) {
	if err := h.health.Database(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.HealthStatus{Status: "unavailable", Detail: appErrors.FromError(err).Message})
		return
	}
	c.JSON(http.StatusOK, dto.HealthStatus{Status: "ok"})
}

// Health responds with a generic OK payload for liveness usage.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthStatus{Status: "ok"})
}

// Ready reports every dependency; only a dead database fails readiness.
func (h *HealthHandler) Ready(c *gin.Context) {
	report, err := h.health.Report(c.Request.Context())
	status := http.StatusOK
	if err != nil {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *HealthHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
