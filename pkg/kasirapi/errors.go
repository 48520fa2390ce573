package kasirapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
)

// APIError is a non-2xx answer from the Kasir backend.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// StatusCode exposes the backend HTTP status to error dumps.
func (e *APIError) StatusCode() int {
	return e.Status
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	return &APIError{Method: method, Path: path, Status: status, Message: backendMessage(body)}
}

// backendMessage pulls the {message} field out of an error payload, falling
// back to the trimmed raw body.
func backendMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	raw := strings.TrimSpace(string(body))
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "<") {
		return ""
	}
	return raw
}

// mapAPIError converts a backend rejection into the service's typed error.
// Validation failures keep the backend message so the cashier sees why.
func mapAPIError(apiErr *APIError, action string) error {
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		msg := apiErr.Message
		if msg == "" {
			msg = action + " rejected by backend"
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, apiErr, msg)
	case http.StatusUnauthorized:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, apiErr, "backend rejected the cashier credential")
	case http.StatusForbidden:
		return pkgerrors.Wrap(pkgerrors.CodeForbidden, apiErr, "cashier is not allowed to "+action)
	case http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, apiErr, action+": not found")
	case http.StatusConflict:
		msg := apiErr.Message
		if msg == "" {
			msg = action + " conflicts with backend state"
		}
		return pkgerrors.Wrap(pkgerrors.CodeConflict, apiErr, msg)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, apiErr, action+" failed")
	}
}
