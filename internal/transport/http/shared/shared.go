// Package shared centralizes the JSON envelope used by every HTTP handler so
// error translation stays consistent across domains.
package shared

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "bloodlink/pkg/domain-errors"
)

// ErrorResponse is the wire shape for all error statuses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes v with the given status. Encoding failures are swallowed;
// the status line has already been committed by then.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error to its HTTP envelope. Errors without a
// code render as 500 internal; server-side causes are logged, never exposed.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	var de *dErrors.DomainError
	if errors.As(err, &de) {
		resp.Message = de.Message
		resp.Details = de.Details
	}

	status := dErrors.ToHTTPStatus(code)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "code", code, "error", err)
	}
	WriteJSON(w, status, resp)
}
