package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/adventure"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

type AdventureHandler struct {
	store  storage.Store
	engine *engine.Engine
	logger *slog.Logger
}

func NewAdventureHandler(store storage.Store, eng *engine.Engine, logger *slog.Logger) *AdventureHandler {
	return &AdventureHandler{
		store:  store,
		engine: eng,
		logger: logger,
	}
}

// CreateAdventureRequest defines the request body for starting a new
// adventure. Each character entry becomes a player character in the
// opening turn and its user a party member.
type CreateAdventureRequest struct {
	SettingID  string                `json:"setting_id"`
	PlanID     string                `json:"plan_id"`
	UserID     string                `json:"user_id"`
	Characters []CharacterDefinition `json:"characters"`
}

type CharacterDefinition struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Archetype string     `json:"archetype,omitempty"`
	Race      string     `json:"race,omitempty"`
	Stats     plan.Stats `json:"stats"`
	Image     string     `json:"image,omitempty"`
	Equipment []string   `json:"equipment,omitempty"`
	Skills    []string   `json:"skills,omitempty"`
	Spells    []string   `json:"spells,omitempty"`
}

// CreateAdventureResponse pairs the new adventure with its opening turn.
type CreateAdventureResponse struct {
	Adventure *adventure.Adventure `json:"adventure"`
	Turn      *turn.Turn           `json:"turn"`
}

// ServeHTTP handles HTTP requests for adventures.
// Routes:
// POST /v1/adventures     - Create and start a new adventure
// GET /v1/adventures/{id} - Read adventure by ID
func (h *AdventureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/v1/adventures")
	var adventureID uuid.UUID
	var err error

	if path != "" && path != "/" {
		idStr := strings.Trim(path, "/")
		adventureID, err = uuid.Parse(idStr)
		if err != nil {
			h.logger.Warn("Invalid adventure ID", "id", idStr, "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid adventure ID format")
			return
		}
	}

	switch r.Method {
	case http.MethodPost:
		if adventureID != uuid.Nil {
			writeError(w, h.logger, http.StatusBadRequest, "POST does not take an adventure ID")
			return
		}
		h.handleCreate(w, r)

	case http.MethodGet:
		if adventureID == uuid.Nil {
			writeError(w, h.logger, http.StatusBadRequest, "Adventure ID is required for GET requests")
			return
		}
		h.handleRead(w, r, adventureID)

	default:
		h.logger.Warn("Method not allowed for adventure endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
	}
}

func (h *AdventureHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateAdventureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if req.SettingID == "" || req.PlanID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "setting_id and plan_id are required")
		return
	}
	if req.UserID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "user_id is required")
		return
	}
	if len(req.Characters) == 0 {
		writeError(w, h.logger, http.StatusBadRequest, "at least one character is required")
		return
	}

	adv := adventure.New(req.SettingID, req.PlanID, req.UserID)
	pcs := make([]*turn.Character, 0, len(req.Characters))
	for _, def := range req.Characters {
		if def.ID == "" || def.Name == "" {
			writeError(w, h.logger, http.StatusBadRequest, "every character needs an id and a name")
			return
		}
		userID := def.UserID
		if userID == "" {
			userID = req.UserID
		}
		adv.Players = append(adv.Players, adventure.Player{
			UserID:      userID,
			CharacterID: def.ID,
			Name:        def.Name,
		})
		pcs = append(pcs, &turn.Character{
			ID:            def.ID,
			Type:          turn.TypePC,
			UserID:        userID,
			Name:          def.Name,
			Archetype:     def.Archetype,
			Race:          def.Race,
			Stats:         def.Stats,
			Image:         def.Image,
			Equipment:     def.Equipment,
			Skills:        def.Skills,
			Spells:        def.Spells,
			HealthPercent: 100,
		})
	}

	first, err := h.engine.StartAdventure(r.Context(), adv, pcs)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	h.logger.Info("Adventure created", "id", adv.ID.String(), "plan", adv.PlanID, "turn_id", first.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, CreateAdventureResponse{Adventure: adv, Turn: first})
}

func (h *AdventureHandler) handleRead(w http.ResponseWriter, r *http.Request, adventureID uuid.UUID) {
	adv, err := h.store.GetAdventure(r.Context(), adventureID)
	if err != nil {
		h.logger.Error("Failed to load adventure", "error", err, "id", adventureID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load adventure")
		return
	}
	if adv == nil {
		writeError(w, h.logger, http.StatusNotFound, "Adventure not found")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, adv)
}
