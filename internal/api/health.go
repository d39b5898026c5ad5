package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// HealthStatus represents the status of a health check.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// Checker reports whether a dependency is usable.
type Checker func(ctx context.Context) error

// HealthResponse is the /health body.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version,omitempty"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult represents the result of an individual health check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency"`
}

type healthHandler struct {
	version string
	started time.Time
	checks  map[string]Checker
}

func newHealthHandler(version string, checks map[string]Checker) *healthHandler {
	return &healthHandler{version: version, started: time.Now(), checks: checks}
}

func (h *healthHandler) get(c *gin.Context) {
	resp := HealthResponse{
		Status:  HealthStatusHealthy,
		Service: "webetl",
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	}

	if len(h.checks) > 0 {
		resp.Checks = make(map[string]CheckResult, len(h.checks))
	}
	for name, check := range h.checks {
		result := run(c.Request.Context(), check)
		if result.Status != HealthStatusHealthy {
			resp.Status = HealthStatusUnhealthy
		}
		resp.Checks[name] = result
	}

	code := http.StatusOK
	if resp.Status != HealthStatusHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func (h *healthHandler) head(c *gin.Context) {
	c.Status(http.StatusOK)
}

func run(ctx context.Context, check Checker) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := check(ctx)
	result := CheckResult{Status: HealthStatusHealthy, Latency: time.Since(start).String()}
	if err != nil {
		result.Status = HealthStatusUnhealthy
		result.Message = err.Error()
	}
	return result
}
