package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// JSON writes data as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error response with an explicit status and kind.
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, ErrorResponse{Error: message, Kind: kind})
}

// StatusFor maps a pipeline error onto an HTTP status code.
func StatusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict
	}

	switch core.Kind(err) {
	case "validation":
		return http.StatusBadRequest
	case "project_not_found", "document_not_found":
		return http.StatusNotFound
	case "unsupported_format":
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client. Server side failures are logged.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusFor(err)
	kind := core.Kind(err)
	switch status {
	case http.StatusConflict:
		kind = "conflict"
	case http.StatusRequestEntityTooLarge:
		kind = "validation"
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFrom(r.Context()),
			"kind", kind,
			"err", err)
	}
	Error(w, status, kind, err.Error())
}
