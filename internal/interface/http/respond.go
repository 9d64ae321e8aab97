package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps the domain error taxonomy onto HTTP status
// codes. Conflicts (duplicate enrollment, second submit) are 409,
// precondition failures (closed session, terminal attempt) are 422,
// upstream outages are 503.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case shared.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case shared.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	case shared.IsPreconditionFailure(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, shared.ErrServiceUnavailable), errors.Is(err, shared.ErrTimeout):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON parses the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// actorID returns the authenticated caller forwarded by the gateway.
// Falls back to the given default, typically the trainee acting on
// their own resources.
func actorID(r *http.Request, fallback string) string {
	if actor := r.Header.Get("X-Actor-ID"); actor != "" {
		return actor
	}
	return fallback
}
