package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tabx/internal/services"
	"github.com/desertthunder/tabx/internal/shared"
)

const maxBodyBytes = 1 << 20

func errorBody(msg string) services.ErrorResponse {
	return services.ErrorResponse{Error: msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", "error", err)
	}
}

// StatusFor maps an error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, shared.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the JSON error body for err. Server-side failures are logged and their details hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := services.ErrorResponse{Error: err.Error()}

	switch status {
	case http.StatusBadRequest:
		body.Fields = shared.FieldErrors(err)
		if body.Fields != nil {
			body.Error = shared.ErrValidation.Error()
		}
	case http.StatusBadGateway:
		log.FromContext(r.Context()).Error("upstream failure", "error", err)
		body.Error = "Failed to search for songs. Please try again."
	case http.StatusInternalServerError:
		log.FromContext(r.Context()).Error("request failed", "error", err)
		body.Error = "internal server error"
	}

	writeJSON(w, status, body)
}

// decodeJSON reads a single JSON object from the request body, rejecting unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", shared.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", shared.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON object", shared.ErrInvalidInput)
	}
	return nil
}
