package httpx

import (
	"fmt"
	"net/http"

	"github.com/gradebench/gradebench/internal/service"
)

// ShareHandlers serves the unauthenticated shared-report surface. Token
// possession is the authorization; no identity header is consulted.
type ShareHandlers struct {
	Svc *service.ShareService
}

// Get handles GET /api/shared/{token}.
func (h *ShareHandlers) Get(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Svc.Resolve(r.Context(), r.PathValue("token"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

// GetPDF handles GET /api/shared/{token}/pdf and streams the rendered report
// as an attachment with a sanitized filename.
func (h *ShareHandlers) GetPDF(w http.ResponseWriter, r *http.Request) {
	doc, filename, err := h.Svc.RenderPDF(r.Context(), r.PathValue("token"))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(doc)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		// Client disconnects are not recoverable here.
		return
	}
}
