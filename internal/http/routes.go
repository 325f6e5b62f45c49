package httpx

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gradebench/gradebench/internal/core"
	"github.com/gradebench/gradebench/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Evaluations *service.EvaluationService // Required
	Share       *service.ShareService      // Required
	Telemetry   *service.TelemetryService  // Optional: request/audit capture
	DB          *sql.DB                    // Optional: health probe
	Queue       core.QueueClient           // Optional: health probe
	Logger      *slog.Logger               // Optional: request logging
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	evalHandlers := &EvaluationHandlers{Svc: services.Evaluations}
	workerHandlers := &WorkerHandlers{Svc: services.Evaluations}
	shareHandlers := &ShareHandlers{Svc: services.Share}
	healthHandlers := &HealthHandlers{DB: services.DB, Queue: services.Queue}

	mux.HandleFunc("POST /api/evaluations", evalHandlers.Submit)
	mux.HandleFunc("GET /api/evaluations/{id}", evalHandlers.Get)
	mux.HandleFunc("GET /api/evaluations/stats/{kind}", evalHandlers.Stats)

	mux.HandleFunc("POST /api/worker/evaluations/{id}/start", workerHandlers.Start)
	mux.HandleFunc("POST /api/worker/evaluations/{id}/complete", workerHandlers.Complete)
	mux.HandleFunc("POST /api/worker/evaluations/{id}/fail", workerHandlers.Fail)

	mux.HandleFunc("GET /api/shared/{token}", shareHandlers.Get)
	mux.HandleFunc("GET /api/shared/{token}/pdf", shareHandlers.GetPDF)

	mux.HandleFunc("GET /healthz", healthHandlers.Healthz)
	mux.HandleFunc("HEAD /healthz", healthHandlers.Healthz)

	var handler http.Handler = mux
	handler = Telemetry(services.Telemetry)(handler)
	handler = Identity()(handler)
	if services.Logger != nil {
		handler = Logging(services.Logger)(handler)
		handler = Recover(services.Logger)(handler)
	}
	return handler
}
