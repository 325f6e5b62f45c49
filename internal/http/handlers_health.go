package httpx

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gradebench/gradebench/internal/core"
	"github.com/gradebench/gradebench/internal/domain/model"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandlers reports process liveness and dependency reachability.
type HealthHandlers struct {
	DB    *sql.DB
	Queue core.QueueClient
}

// Healthz handles GET/HEAD /healthz. The database and broker are both
// probed; either failing degrades the response to 503.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			checks["database"] = "unreachable"
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}

	if h.Queue != nil {
		if _, err := h.Queue.Depth(ctx, model.KindGrade); err != nil {
			checks["queue"] = "unreachable"
			healthy = false
		} else {
			checks["queue"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}
	WriteJSON(w, status, map[string]any{"status": state, "checks": checks})
}
