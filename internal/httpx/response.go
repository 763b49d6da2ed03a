// Package httpx holds the JSON response envelope and request plumbing shared
// by every HTTP handler.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"little-lemon/internal/apperr"
	"little-lemon/internal/logger"
)

// Response is the success envelope.
type Response struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Status    int    `json:"status"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

// maxBodyBytes bounds request bodies; the API only accepts small documents.
const maxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteMessage writes the success envelope.
func WriteMessage(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{Message: message, Data: data})
}

// WriteStatus writes a failure envelope with an explicit status.
func WriteStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteJSON(w, status, ErrorResponse{
		Message:   message,
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: logger.RequestID(r.Context()),
	})
}

// WriteError maps err onto the response contract. Errors outside the
// apperr taxonomy are logged and hidden behind a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, log *logger.Logger, action string, err error) {
	requestID := logger.RequestID(r.Context())
	status := apperr.HTTPStatus(err)

	resp := ErrorResponse{
		Message:   err.Error(),
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}

	var verr apperr.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
		resp.Message = verr.Message
	}

	if status == http.StatusInternalServerError {
		log.Error(action, "Request failed", requestID, err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		resp.Message = "Internal server error"
	} else {
		log.Debug(action, err.Error(), requestID, map[string]interface{}{
			"status": status,
		})
	}

	WriteJSON(w, status, resp)
}

// DecodeJSON reads a JSON body into v, rejecting unknown fields and
// non-JSON content types with an apperr.ValidationError.
func DecodeJSON(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return apperr.ValidationError{Field: "Content-Type", Message: "Content-Type must be application/json"}
		}
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.ValidationError{Field: "body", Message: "request body is required"}
		}
		return apperr.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}
