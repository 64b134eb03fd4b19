package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ms-reservations/internal/apperror"
)

type APIResponse struct {
	Success   bool                  `json:"success"`
	Message   string                `json:"message"`
	Data      interface{}           `json:"data,omitempty"`
	Error     string                `json:"error,omitempty"`
	Details   []apperror.FieldError `json:"details,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	WriteJSON(w, status, SuccessResponse(message, data))
}

// WriteError maps err to its HTTP status. Internal failures never leak the
// wrapped cause to the client.
func WriteError(w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)

	message := "internal server error"
	var appErr *apperror.Error
	if errors.As(err, &appErr) && kind != apperror.KindInternal {
		message = appErr.Message
	}

	resp := ErrorResponse(message, string(kind))
	resp.Details = apperror.FieldsOf(err)
	WriteJSON(w, apperror.HTTPStatus(kind), resp)
}
