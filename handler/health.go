package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

type HealthResponse struct {
	Status       string            `json:"status"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

type HealthHandler struct {
	checks  map[string]CheckFunc
	timeout time.Duration
	started time.Time
}

func NewHealthHandler(checks map[string]CheckFunc, timeout time.Duration) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: timeout,
		started: time.Now(),
	}
}

func (hh HealthHandler) Handle(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), hh.timeout)
	defer cancel()

	status := "healthy"
	deps := make(map[string]string, len(hh.checks))
	for name, check := range hh.checks {
		if err := check(ctx); err != nil {
			deps[name] = fmt.Sprintf("unhealthy: %v", err)
			status = "degraded"
			continue
		}
		deps[name] = "healthy"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	respond(r.Context(), rw, code, HealthResponse{
		Status:       status,
		Uptime:       time.Since(hh.started).Round(time.Second).String(),
		Dependencies: deps,
	})
}
