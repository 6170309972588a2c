package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/agrilink/agrilink/internal/apperr"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	TraceID string            `json:"trace_id,omitempty"`
}

// respond writes the success envelope.
func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]any{"data": data}); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError maps an application error onto a status code and the error
// envelope. Internal detail goes to the log, never to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	traceID := requestIDFrom(r.Context())

	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal server error"
	var fields map[string]string

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status, code = http.StatusUnprocessableEntity, "validation_error"
		message = err.Error()
		fields = apperr.FieldsOf(err)
	case apperr.KindUnauthorized:
		status, code = http.StatusUnauthorized, "unauthorized"
		message = err.Error()
	case apperr.KindForbidden:
		status, code = http.StatusForbidden, "forbidden"
		message = err.Error()
	case apperr.KindNotFound:
		status, code = http.StatusNotFound, "not_found"
		message = err.Error()
	case apperr.KindConflict:
		status, code = http.StatusConflict, "conflict"
		message = err.Error()
	default:
		log.Error().
			Err(err).
			Str("request_id", traceID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]errorBody{"error": {
		Code:    code,
		Message: message,
		Fields:  fields,
		TraceID: traceID,
	}}
	if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
		log.Error().Err(encErr).Msg("failed to encode error response")
	}
}
