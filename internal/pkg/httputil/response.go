// Package httputil provides HTTP helpers shared by all handlers: the
// {"data": ...} and {"error": ...} envelopes, request validation and middleware.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type errorBody struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// JSON writes v as a JSON body without an envelope.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	writeJSON(w, status, v)
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Success writes data inside a {"data": ...} envelope.
func Success(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"data": data})
}

// Error writes a {"error": {"message": ...}} envelope.
func Error(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Message: message}})
}

// ValidationError writes a 400 response. Validator errors are listed per
// field; any other error is reported as a single details string.
func ValidationError(w http.ResponseWriter, err error) {
	body := errorBody{Message: "validation error", Details: err.Error()}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]FieldError, 0, len(validationErrors))
		for _, e := range validationErrors {
			fields = append(fields, FieldError{Field: e.Field(), Message: e.Tag()})
		}
		body.Details = fields
	}

	writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": body})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
