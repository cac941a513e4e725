package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON error envelope. Detail repeats Message for
// browser clients that read the "detail" key.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Detail  string      `json:"detail"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput             = "INVALID_INPUT"
	ErrCodeOrganizationExists       = "ORGANIZATION_EXISTS"
	ErrCodeOrganizationCreateFailed = "ORGANIZATION_CREATE_FAILED"
	ErrCodeUserCreateFailed         = "USER_CREATE_FAILED"
	ErrCodeUpstreamUnavailable      = "UPSTREAM_UNAVAILABLE"
	ErrCodeMethodNotAllowed         = "METHOD_NOT_ALLOWED"
	ErrCodeNotFound                 = "NOT_FOUND"
	ErrCodeRateLimitExceeded        = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal                 = "INTERNAL_ERROR"
)

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	WriteJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Detail:  message,
		Code:    code,
		Details: details,
	})
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
