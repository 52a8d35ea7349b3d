package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"patchdesk/internal/patch/models"
	"patchdesk/internal/patch/service"
	"patchdesk/internal/platform/middleware"
	"patchdesk/internal/transport/http/shared"
	dErrors "patchdesk/pkg/domain-errors"
)

// PatchRequestHandler exposes the patch request lifecycle over HTTP. The
// acting user and role always come from the token, never the body.
type PatchRequestHandler struct {
	service *service.Service
	logger  *slog.Logger
}

func NewPatchRequestHandler(svc *service.Service, logger *slog.Logger) *PatchRequestHandler {
	return &PatchRequestHandler{service: svc, logger: logger}
}

// Create handles POST /patch-requests.
func (h *PatchRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input models.CreateRequest
	if err := shared.DecodeJSON(r, &input); err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	input.Author = middleware.GetDisplayName(r.Context())
	input.AuthorRole = models.Role(middleware.GetRole(r.Context()))

	req, err := h.service.Create(r.Context(), &input)
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, req)
}

// Get handles GET /patch-requests/{id}.
func (h *PatchRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, req)
}

type listResponse struct {
	Requests []*models.PatchRequest `json:"requests"`
	Total    int                    `json:"total"`
}

// List handles GET /patch-requests.
func (h *PatchRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.List(r.Context())
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, listResponse{Requests: reqs, Total: len(reqs)})
}

// Submit handles POST /patch-requests/{id}/submit, the Draft to Submitted
// shortcut.
func (h *PatchRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetDisplayName(r.Context())
	role := models.Role(middleware.GetRole(r.Context()))

	req, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"), actor, role)
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, req)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles POST /patch-requests/{id}/status.
func (h *PatchRequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	if body.Status == "" {
		shared.WriteError(w, r, h.logger,
			dErrors.New(dErrors.CodeValidation, "status is required"))
		return
	}
	if !models.KnownStatus(models.Status(body.Status)) {
		shared.WriteError(w, r, h.logger,
			dErrors.New(dErrors.CodeValidation, "unknown status: "+body.Status))
		return
	}
	actor := middleware.GetDisplayName(r.Context())
	role := models.Role(middleware.GetRole(r.Context()))

	req, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), models.Status(body.Status), actor, role)
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, req)
}
