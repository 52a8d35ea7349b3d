// Package shared holds response helpers used by every API handler.
package shared

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "patchdesk/pkg/domain-errors"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// WriteError maps a domain error onto an HTTP status and body. Non-domain
// errors become opaque 500s so internals never leak to clients.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	var dErr *dErrors.DomainError
	resp := ErrorResponse{Error: string(code)}
	if errors.As(err, &dErr) {
		resp.Message = dErr.Message
		resp.Details = dErr.Meta()
	} else {
		resp.Message = "internal error"
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"error", err,
			"path", r.URL.Path,
		)
		resp.Message = "internal error"
		resp.Details = nil
	}
	WriteJSON(w, status, resp)
}

// DecodeJSON decodes the request body, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed JSON body")
	}
	return nil
}
