// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/justicehub/platform/internal/service"
	"github.com/justicehub/platform/pkg/logger"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps a service error onto a status code. Client errors
// carry the service message; anything else is logged and reported as
// fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, ok := statusFor(err)
	if ok {
		writeError(w, status, clientMessage(err))
		return
	}

	logger.FromContext(r.Context()).Error(fallback, zap.Error(err))
	writeError(w, status, fallback)
}

func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, true
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, true
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, true
	default:
		return http.StatusInternalServerError, false
	}
}

// clientMessage strips the sentinel prefix so "not found: lawyer" reads
// "lawyer not found".
func clientMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, service.ErrNotFound) {
		what := strings.TrimPrefix(msg, service.ErrNotFound.Error()+": ")
		if what != msg {
			return what + " not found"
		}
		return msg
	}
	for _, sentinel := range []error{service.ErrValidation, service.ErrConflict, service.ErrRateLimited} {
		if errors.Is(err, sentinel) {
			return strings.TrimPrefix(msg, sentinel.Error()+": ")
		}
	}
	return msg
}

// uintParam parses a positive integer URL parameter.
func uintParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(n), nil
}
