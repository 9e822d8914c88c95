// Package handler provides HTTP handlers for the airsight API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/api/models"
	"github.com/airsight/airsight/internal/api/response"
	"github.com/airsight/airsight/internal/provider/resilience"
)

// readinessTimeout bounds every dependency check.
const readinessTimeout = 2 * time.Second

// DependencyCheck is a named readiness check, e.g. a database ping.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// CacheReporter exposes the assessment cache state.
type CacheReporter interface {
	CacheStatus() airquality.CacheStatus
}

// OpsConfig holds the dependencies of the ops endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Registry is optional; without it no providers are reported.
	Registry *resilience.Registry

	// Checks run on every readiness and status request.
	Checks []DependencyCheck

	// Cache is optional.
	Cache CacheReporter
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	checks    []DependencyCheck
	cache     CacheReporter
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		registry:  cfg.Registry,
		checks:    cfg.Checks,
		cache:     cfg.Cache,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems, ok := h.runChecks(r.Context())

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	status := http.StatusOK
	if !ok {
		health.Status = models.HealthStatusFail
		status = http.StatusServiceUnavailable
	}
	if len(subsystems) > 0 {
		details := make(map[string]interface{}, len(subsystems))
		for _, s := range subsystems {
			details[s.Name] = s.Status
		}
		health.Details = details
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	subsystems, ok := h.runChecks(r.Context())

	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: subsystems,
		Providers:  h.providerStatuses(),
	}

	for _, p := range status.Providers {
		if p.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
		}
	}
	if !ok {
		status.Status = models.HealthStatusFail
	}

	if h.cache != nil {
		cs := h.cache.CacheStatus()
		status.Cache = &models.CacheStatus{
			Entries:      cs.Entries,
			FreshEntries: cs.FreshEntries,
			HasIndoor:    cs.HasIndoor,
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) runChecks(ctx context.Context) ([]models.SubsystemStatus, bool) {
	subsystems := make([]models.SubsystemStatus, 0, len(h.checks))
	ok := true

	for _, c := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		err := c.Check(checkCtx)
		cancel()

		s := models.SubsystemStatus{Name: c.Name, Status: models.HealthStatusOK}
		if err != nil {
			ok = false
			detail := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &detail
		}
		subsystems = append(subsystems, s)
	}

	return subsystems, ok
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	providers := []models.ProviderStatus{}
	if h.registry == nil {
		return providers
	}

	for _, health := range h.registry.GetAllHealth() {
		p := models.ProviderStatus{
			Provider:            health.Name,
			Status:              healthStatus(health.Status()),
			CircuitState:        health.CircuitState.String(),
			ConsecutiveFailures: health.Counts.ConsecutiveFailures,
			LastSuccessAt:       models.TimestampPtr(health.LastSuccessAt),
			LastFailureAt:       models.TimestampPtr(health.LastFailureAt),
		}
		if health.LastError != "" {
			msg := health.LastError
			p.Message = &msg
		}
		providers = append(providers, p)
	}
	return providers
}

func healthStatus(s string) models.HealthStatus {
	switch s {
	case resilience.StatusUnhealthy:
		return models.HealthStatusFail
	case resilience.StatusDegraded:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}
