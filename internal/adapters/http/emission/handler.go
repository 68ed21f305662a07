// Package emission exposes document submission over REST and legacy SOAP.
package emission

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	appsubmission "3tcapital/ms_emision_dian/internal/application/submission"
	"3tcapital/ms_emision_dian/internal/core/submission"
	httperrors "3tcapital/ms_emision_dian/internal/infrastructure/http"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 10 << 20

// Submitter is the application service behind both surfaces.
type Submitter interface {
	SubmitPath(ctx context.Context, rawTypeID string, req appsubmission.Request) submission.Response
	SubmitCode(ctx context.Context, code string, req appsubmission.Request) submission.Response
	Reject(documentNumber string, err error) submission.Response
}

// Handler bridges HTTP traffic with the submission service.
type Handler struct {
	service Submitter
	log     *slog.Logger
}

func NewHandler(service Submitter, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Submit handles POST /api/v1/documentos/{typeDocumentId}.
// The HTTP status always mirrors Response.Code.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req appsubmission.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.log.WarnContext(r.Context(), "rejected undecodable submission", "error", err)
		resp := h.service.Reject("", submission.NewValidationError("invalid request body: "+err.Error()))
		httperrors.WriteJSON(w, resp.Code, resp, h.log)
		return
	}

	resp := h.service.SubmitPath(r.Context(), chi.URLParam(r, "typeDocumentId"), req)
	httperrors.WriteJSON(w, resp.Code, resp, h.log)
}
