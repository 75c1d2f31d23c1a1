package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorResponse is the JSON envelope written for every failed request.
type ErrorResponse struct {
	Error *StandardError `json:"error"`
}

// AsStandardError coerces any error into a StandardError, wrapping
// unclassified errors as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// WriteError writes the structured JSON error envelope with the HTTP status
// mapped from the error code. All request failures are surfaced through here;
// nothing is retried.
func WriteError(w http.ResponseWriter, err error) {
	stdErr := AsStandardError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: stdErr})
}

// WriteJSON writes a success payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
