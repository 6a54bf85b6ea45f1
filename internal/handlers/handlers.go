package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// writeEngineError maps engine error kinds to HTTP statuses. Internal
// detail stays in the log; the client sees the sanitized message.
func writeEngineError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrValidation):
		writeError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrAuthorization):
		writeError(w, logger, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrOracle):
		logger.Error("Oracle failure", "error", err)
		writeError(w, logger, http.StatusBadGateway, "The narrator is unavailable, please retry")
	case errors.Is(err, storage.ErrVersionConflict):
		writeError(w, logger, http.StatusConflict, "The turn changed underneath this request, please retry")
	default:
		logger.Error("Unhandled engine error", "error", err)
		writeError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}
