package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessCheckTimeout = 2 * time.Second

// ReadinessCheck probes a single downstream dependency.
type ReadinessCheck func(ctx context.Context) error

type readinessProbe struct {
	name  string
	check ReadinessCheck
}

// HealthHandler serves liveness and readiness endpoints.
type HealthHandler struct {
	startedAt time.Time
	probes    []readinessProbe
}

// HealthOption customizes the health handler.
type HealthOption func(*HealthHandler)

// WithReadinessCheck registers a named dependency probe for the readiness endpoint.
func WithReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandler) {
		if name == "" || check == nil {
			return
		}
		h.probes = append(h.probes, readinessProbe{name: name, check: check})
	}
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{startedAt: time.Now().UTC()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health reports process liveness.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Readiness runs all registered probes and reports per-dependency results.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := make(map[string]string, len(h.probes))
	ready := true

	for _, probe := range h.probes {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessCheckTimeout)
		err := probe.check(ctx)
		cancel()

		if err != nil {
			ready = false
			checks[probe.name] = err.Error()
			continue
		}
		checks[probe.name] = "ok"
	}

	status := http.StatusOK
	resp := ReadinessResponse{Status: "ready", Checks: checks}
	if !ready {
		status = http.StatusServiceUnavailable
		resp.Status = "not ready"
	}

	c.JSON(status, resp)
}
