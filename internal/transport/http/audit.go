package http

import (
	"log/slog"
	"net/http"

	"patchdesk/internal/audit"
	"patchdesk/internal/transport/http/shared"
)

// AuditHandler exposes read access to the governance timeline.
type AuditHandler struct {
	timeline *audit.Timeline
	logger   *slog.Logger
}

func NewAuditHandler(timeline *audit.Timeline, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{timeline: timeline, logger: logger}
}

type auditListResponse struct {
	Events []audit.Event `json:"events"`
	Total  int           `json:"total"`
}

// List handles GET /audit-events. Events come back in timeline order.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.timeline.List(r.Context())
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, auditListResponse{Events: events, Total: len(events)})
}
