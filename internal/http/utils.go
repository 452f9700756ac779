package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/encanta/encanta/internal/domain"
)

const (
	msgInvalidRequestBody = "Invalid request body"
	maxRequestBody        = 1 << 20
)

// WriteJSONError writes a JSON error response with the given message and status code.
// It sets the Content-Type header to application/json and automatically formats
// the response as {"error": "message"}.
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON writes a JSON response with the given status code and data.
// It sets the Content-Type header to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a failure kind to its HTTP status
func statusFor(kind domain.FailureKind) int {
	switch kind {
	case domain.FailureUnauthenticated:
		return http.StatusUnauthorized
	case domain.FailureUnauthorized:
		return http.StatusForbidden
	case domain.FailureNotFound:
		return http.StatusNotFound
	case domain.FailureValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeResult writes the data of a successful result with status, or the
// mapped error of a failed one
func writeResult[T any](w http.ResponseWriter, status int, result domain.ActionResult[T]) {
	if !result.Ok {
		WriteJSONError(w, result.Message, statusFor(result.Kind))
		return
	}
	writeJSON(w, status, result.Data)
}

// writeDeleted writes the {"success":true,"message":...} body of a delete
func writeDeleted(w http.ResponseWriter, result domain.ActionResult[string]) {
	if !result.Ok {
		WriteJSONError(w, result.Message, statusFor(result.Kind))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": result.Message,
	})
}

// decodeJSON reads a JSON body into v. An empty body is accepted when
// optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, optional bool) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	WriteJSONError(w, msgInvalidRequestBody, http.StatusBadRequest)
	return false
}
