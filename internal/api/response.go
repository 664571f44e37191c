// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

// Package api contains the HTTP surface of the lifecycle service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
)

// errorResponse is the JSON shape of every error the API returns.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForError maps the semantic error type onto an HTTP status.
func statusForError(err error) int {
	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeConflict:
		return http.StatusConflict
	case domain.ErrorTypeProvider:
		return http.StatusInternalServerError
	case domain.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a structured JSON error: the short domain
// message plus the underlying detail when one exists.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		resp.Error = domainErr.Message
		if domainErr.Err != nil {
			resp.Details = domainErr.Err.Error()
		}
	}

	writeJSON(w, statusForError(err), resp)
}
