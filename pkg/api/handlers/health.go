package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker reports readiness of one backend dependency.
type HealthChecker struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
}

// NewHealthHandler creates a health handler over the given dependency
// checks. Liveness ignores them; readiness requires all to pass.
func NewHealthHandler(checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, healthResponse{Status: "healthy", Timestamp: time.Now().UTC()})
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checkers))
	healthy := true
	for _, checker := range h.checkers {
		if err := checker.Check(ctx); err != nil {
			checks[checker.Name] = err.Error()
			healthy = false
			continue
		}
		checks[checker.Name] = "ok"
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, healthResponse{Status: status, Timestamp: time.Now().UTC(), Checks: checks})
}
