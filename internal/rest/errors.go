package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finzhq/finz/internal/auth"
	log "github.com/sirupsen/logrus"
)

// ValidationError is a bad-input failure surfaced as a 400 with its message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Invalid(message string) *ValidationError {
	return &ValidationError{Message: message}
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// WriteError maps domain errors to HTTP responses: auth errors keep their
// status code, validation errors become 400, anything else is a 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	var authErr *auth.Error
	var validationErr *ValidationError
	switch {
	case errors.As(err, &authErr):
		status = authErr.StatusCode
		message = authErr.Message
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		message = validationErr.Message
	}

	if status >= http.StatusInternalServerError {
		log.Errorf("request %s failed: %v", RequestIDFrom(r.Context()), err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: message, RequestID: RequestIDFrom(r.Context())}); err != nil {
		log.Errorf("could not encode error response: %v", err)
	}
}
