// Package httputil provides the JSON request/response helpers shared by
// the quota API handlers and middleware.
package httputil

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/platinummonkey/quotahub/pkg/quota"
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteErrorMessage writes the `{"error": ...}` envelope every failing
// endpoint uses.
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{
		"error": message,
	})
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes an unauthorized error (401)
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusUnauthorized, message)
}

// WriteForbidden writes a forbidden error (403)
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusForbidden, message)
}

// WriteNotFoundError writes a not found error response (404 Not Found)
func WriteNotFoundError(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusNotFound, message)
}

// WriteInternalError writes an internal server error response (500 Internal Server Error)
func WriteInternalError(w http.ResponseWriter, err error) {
	WriteErrorMessage(w, http.StatusInternalServerError, err.Error())
}

// ReasonQuotaExceeded is the machine-readable reason carried by every
// quota denial body.
const ReasonQuotaExceeded = "QUOTA_EXCEEDED"

// QuotaDeniedResponse is the 429 body for a quota denial: the outcome
// flag, the denial reason, and the current quota state so callers can
// back off until resetAt without issuing a second request.
type QuotaDeniedResponse struct {
	OK      bool         `json:"ok"`
	Reason  string       `json:"reason"`
	Error   string       `json:"error"`
	Quota   quota.Status `json:"quota"`
	ResetAt time.Time    `json:"resetAt"`
}

// WriteQuotaExceeded writes a quota denial (429).
func WriteQuotaExceeded(w http.ResponseWriter, message string, status quota.Status) {
	WriteJSON(w, http.StatusTooManyRequests, QuotaDeniedResponse{
		Reason:  ReasonQuotaExceeded,
		Error:   message,
		Quota:   status,
		ResetAt: status.ResetAt,
	})
}
