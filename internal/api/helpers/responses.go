package helpers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/faiyaz7283/dashtam-authcore/internal/apperr"
)

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// RespondError writes an error response with the given status code and message.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps an apperr.Kind to its HTTP status, the single switch
// spec.md §7 requires ("never by string comparison").
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalid:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// RespondAppError maps err's apperr.Kind to a status code and writes its
// message. Internal-kind errors never leak err's wrapped cause to the
// client; callers are expected to have logged it already.
func RespondAppError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	message := err.Error()
	if kind == apperr.KindInternal {
		message = apperr.MsgGeneric500
	}
	RespondError(w, status, message)
}
