package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/modgate/modgate/pkg/api"
)

// HTTPStatusFromError maps an api.Error type to the corresponding HTTP
// status code. Unknown types map to 500.
func HTTPStatusFromError(err *api.Error) int {
	switch err.Type {
	case api.ErrorTypeValidation, api.ErrorTypeInvalidConfig:
		return http.StatusBadRequest
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeUnresolvableModule, api.ErrorTypeUnresolvableAttribute,
		api.ErrorTypeBackendContract, api.ErrorTypeServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes a JSON error response with an explicit status code.
func writeError(w http.ResponseWriter, apiErr *api.Error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// writeAPIError writes an error response, deriving the status code from the
// error type. Non-api errors are wrapped as server errors.
func writeAPIError(w http.ResponseWriter, err error) {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		apiErr = api.NewServerError(err.Error())
	}
	writeError(w, apiErr, HTTPStatusFromError(apiErr))
}

// writeJSON writes a 200 JSON response.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing useful to do beyond logging
		// at the caller. Encoding a plain map cannot fail in practice.
		return
	}
}
