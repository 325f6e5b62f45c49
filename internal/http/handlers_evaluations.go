// Package httpx provides the HTTP surface of the gradebench evaluation API.
package httpx

import (
	"errors"
	"net/http"

	"github.com/gradebench/gradebench/internal/domain/model"
	"github.com/gradebench/gradebench/internal/service"
)

// EvaluationHandlers provides HTTP handlers for evaluation operations.
type EvaluationHandlers struct {
	Svc *service.EvaluationService
}

type submitEvaluationRequest struct {
	VersionID string               `json:"version_id"`
	Kind      model.EvaluationKind `json:"kind"`
}

// Submit handles POST /api/evaluations. The response is the created record:
// pending on a successful enqueue, failed when the broker was unavailable.
func (h *EvaluationHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	var req submitEvaluationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	report, err := h.Svc.Submit(r.Context(), userID, req.VersionID, req.Kind)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, report)
}

// Get handles GET /api/evaluations/{id} (owner-only).
func (h *EvaluationHandlers) Get(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	report, err := h.Svc.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// Stats handles GET /api/evaluations/stats/{kind}.
func (h *EvaluationHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	var kind model.EvaluationKind
	if err := kind.UnmarshalText([]byte(r.PathValue("kind"))); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: err})
		return
	}

	stats, depth, err := h.Svc.Stats(r.Context(), kind)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"kind":        kind,
		"counts":      stats,
		"queue_depth": depth,
	})
}
