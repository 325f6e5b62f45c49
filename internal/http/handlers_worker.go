package httpx

import (
	"net/http"

	"github.com/gradebench/gradebench/internal/domain/model"
	"github.com/gradebench/gradebench/internal/service"
)

// WorkerHandlers provides the callback surface the external worker pool uses
// to report job progress. Every callback is idempotent: repeating a terminal
// report is acknowledged as a no-op, never an error.
type WorkerHandlers struct {
	Svc *service.EvaluationService
}

type transitionResponse struct {
	Advanced bool `json:"advanced"`
}

// Start handles POST /api/worker/evaluations/{id}/start.
func (h *WorkerHandlers) Start(w http.ResponseWriter, r *http.Request) {
	advanced, err := h.Svc.Start(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, transitionResponse{Advanced: advanced})
}

// Complete handles POST /api/worker/evaluations/{id}/complete. The body is
// the raw worker result; it is stored as-is and validated on read.
func (h *WorkerHandlers) Complete(w http.ResponseWriter, r *http.Request) {
	var result model.RawResult
	if !DecodeJSON(w, r, &result) {
		return
	}

	advanced, err := h.Svc.Complete(r.Context(), r.PathValue("id"), &result)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, transitionResponse{Advanced: advanced})
}

type failRequest struct {
	Reason string `json:"reason"`
}

// Fail handles POST /api/worker/evaluations/{id}/fail.
func (h *WorkerHandlers) Fail(w http.ResponseWriter, r *http.Request) {
	var req failRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	advanced, err := h.Svc.Fail(r.Context(), r.PathValue("id"), req.Reason)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, transitionResponse{Advanced: advanced})
}
