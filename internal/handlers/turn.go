package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/storage"
)

type TurnHandler struct {
	store  storage.Store
	engine *engine.Engine
	logger *slog.Logger
}

func NewTurnHandler(store storage.Store, eng *engine.Engine, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		store:  store,
		engine: eng,
		logger: logger,
	}
}

// ActionRequest submits a character's freeform action for a turn.
type ActionRequest struct {
	CharacterID string `json:"character_id"`
	UserID      string `json:"user_id"`
	Action      string `json:"action"`
}

// RollRequest resolves a pending roll with the player's physical or
// client-side die result.
type RollRequest struct {
	CharacterID string `json:"character_id"`
	BaseRoll    int    `json:"base_roll"`
}

// ServeHTTP handles HTTP requests for turns.
// Routes:
// GET /v1/turns/{id}          - Read turn by ID
// POST /v1/turns/{id}/action  - Submit a player action
// POST /v1/turns/{id}/roll    - Resolve a pending roll
// POST /v1/turns/{id}/advance - Evaluate the encounter transition
func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/turns"), "/")
	if path == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Turn ID is required")
		return
	}

	idStr, verb, _ := strings.Cut(path, "/")
	turnID, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid turn ID", "id", idStr, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid turn ID format")
		return
	}

	switch {
	case r.Method == http.MethodGet && verb == "":
		h.handleRead(w, r, turnID)

	case r.Method == http.MethodPost && verb == "action":
		h.handleAction(w, r, turnID)

	case r.Method == http.MethodPost && verb == "roll":
		h.handleRoll(w, r, turnID)

	case r.Method == http.MethodPost && verb == "advance":
		h.handleAdvance(w, r, turnID)

	default:
		h.logger.Warn("Unsupported turn route", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Unsupported method or action for turn endpoint")
	}
}

func (h *TurnHandler) handleRead(w http.ResponseWriter, r *http.Request, turnID uuid.UUID) {
	t, err := h.store.GetTurn(r.Context(), turnID)
	if err != nil {
		h.logger.Error("Failed to load turn", "error", err, "id", turnID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load turn")
		return
	}
	if t == nil {
		writeError(w, h.logger, http.StatusNotFound, "Turn not found")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, t)
}

func (h *TurnHandler) handleAction(w http.ResponseWriter, r *http.Request, turnID uuid.UUID) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in action request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.CharacterID == "" || req.UserID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "character_id and user_id are required")
		return
	}
	if strings.TrimSpace(req.Action) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "action text is required")
		return
	}

	result, err := h.engine.SubmitAction(r.Context(), turnID, req.CharacterID, req.UserID, req.Action)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.ActionImplausible {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, h.logger, status, result)
}

func (h *TurnHandler) handleRoll(w http.ResponseWriter, r *http.Request, turnID uuid.UUID) {
	var req RollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in roll request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.CharacterID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "character_id is required")
		return
	}

	t, err := h.engine.ResolveRoll(r.Context(), turnID, req.CharacterID, req.BaseRoll)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, t)
}

func (h *TurnHandler) handleAdvance(w http.ResponseWriter, r *http.Request, turnID uuid.UUID) {
	result, err := h.engine.AdvanceTurn(r.Context(), turnID)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, result)
}
