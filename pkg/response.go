package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// APIResponse is the envelope of every REST response. Clients reconcile their
// optimistic state on Success alone; Message is meant for humans.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a successful response.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error writes a failure response, mapping domain errors to status codes.
func Error(w http.ResponseWriter, err error) {
	write(w, mapErrorToStatus(err), APIResponse{
		Success: false,
		Message: publicMessage(err),
	})
}

// ErrorWithMessage writes a failure response with a custom message.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	write(w, status, APIResponse{
		Success: false,
		Message: message,
	})
}

func write(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// publicMessage hides internal error chains from clients. Domain errors keep
// their wrapped context ("bad request: comment can't be empty").
func publicMessage(err error) string {
	if mapErrorToStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
