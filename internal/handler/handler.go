package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookorder/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies read by the handlers.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes a {"detail": message} response with the given status code.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("detail", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.NewErrorResponse(message))
}

// decodeJSON reads a JSON body into dst and rejects unknown trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// statusFor maps a domain error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeTooManyAttempts:
		return http.StatusTooManyRequests
	case model.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// writeServiceError renders err from a service call. Domain errors carry
// their own message; anything else is reported as fallback.
func writeServiceError(w http.ResponseWriter, err error, fallback string, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, statusFor(domainErr.Code), domainErr.Message, logger)
		return
	}

	logger.Error().Err(err).Msg(fallback)
	writeError(w, http.StatusInternalServerError, fallback, logger)
}
