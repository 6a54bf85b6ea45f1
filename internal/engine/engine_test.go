package engine

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/adventure"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

// scriptedSource feeds fixed d20 results (values are the die faces).
type scriptedSource struct {
	faces []int
	i     int
}

func (s *scriptedSource) Intn(n int) int {
	face := 10
	if s.i < len(s.faces) {
		face = s.faces[s.i]
		s.i++
	}
	return (face - 1) % n
}

// world is a seeded engine plus its collaborators.
type world struct {
	engine *Engine
	store  *storage.MemoryStore
	oracle *services.MockOracle
	adv    *adventure.Adventure
	turn   *turn.Turn
	plan   *plan.Plan
}

func testWorldPlan() *plan.Plan {
	return &plan.Plan{
		ID:    "plan1",
		Title: "Test Plan",
		Sections: []plan.Section{{
			ID: "s1", Title: "Section",
			Scenes: []plan.Scene{{
				ID: "sc1", Title: "Scene",
				Encounters: []plan.Encounter{
					{
						ID: "enc_gate", Title: "The Gate",
						Intro:        "A rusted gate bars the way.",
						Instructions: "Guards patrol the gate.",
						Transitions: []plan.Transition{
							{Condition: "The party gets past the guards", Encounter: "enc_courtyard"},
							{Condition: "The party retreats", Encounter: "enc_road"},
						},
					},
					{
						ID: "enc_courtyard", Title: "The Courtyard",
						Intro:       "The courtyard is silent.",
						ResetHealth: true,
						NPCs: []plan.NPCRef{
							{ID: "npc_captain", Name: "Watch Captain", Behavior: "aggressive"},
						},
					},
					{
						ID: "enc_road", Title: "The Road",
						Intro:               "The road stretches south.",
						SkipInitialNPCTurns: true,
						NPCs: []plan.NPCRef{
							{ID: "npc_bandit", Name: "Bandit", Behavior: "aggressive", InitialInitiative: intPtr(20)},
						},
						Transitions: []plan.Transition{
							{Condition: "The party walks on", Encounter: "enc_nowhere"},
						},
					},
				},
			}},
		}},
	}
}

// newWorld seeds a memory store with a plan, an active adventure, and a
// first turn holding one PC and one NPC. Die faces script the roller.
func newWorld(t *testing.T, faces ...int) *world {
	t.Helper()

	store := storage.NewMemoryStore()
	p := testWorldPlan()
	store.AddPlan("setting1", p)

	adv := adventure.New("setting1", "plan1", "owner")
	adv.Status = adventure.StatusActive
	adv.Players = []adventure.Player{{UserID: "alice", CharacterID: "pc_mira"}}

	tn := turn.New(adv.ID, "enc_gate", "The Gate", 1)
	tn.Characters = []*turn.Character{
		{
			ID: "pc_mira", Type: turn.TypePC, UserID: "alice", Name: "Mira",
			Archetype: "Rogue", Race: "Human",
			Stats:         plan.Stats{Strength: 10, Dexterity: 16, Constitution: 12, Intelligence: 13, Wisdom: 12, Charisma: 11},
			HealthPercent: 100, Initiative: 10,
		},
		{
			ID: "npc_guard", Type: turn.TypeNPC, Name: "Gate Guard", Behavior: "wary",
			Stats:         plan.Stats{Strength: 14, Dexterity: 10, Constitution: 12, Intelligence: 8, Wisdom: 10, Charisma: 8},
			HealthPercent: 100, Initiative: 5,
		},
	}
	tn.Narrative = "The party stands before the gate."

	ctx := context.Background()
	if err := store.SaveAdventure(ctx, adv); err != nil {
		t.Fatalf("SaveAdventure: %v", err)
	}
	if err := store.CreateTurn(ctx, tn); err != nil {
		t.Fatalf("CreateTurn: %v", err)
	}
	if err := store.PatchAdventure(ctx, adv.ID, storage.AdventurePatch{CurrentTurnID: &tn.ID}); err != nil {
		t.Fatalf("PatchAdventure: %v", err)
	}

	oracle := services.NewMockOracle()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	if len(faces) == 0 {
		faces = []int{10}
	}
	roller := dice.NewRoller(&scriptedSource{faces: faces})

	return &world{
		engine: New(store, store, oracle, roller, logger),
		store:  store,
		oracle: oracle,
		adv:    adv,
		turn:   tn,
		plan:   p,
	}
}

// promptRouter builds a GenerateObjectFunc that dispatches on prompt
// substrings to JSON responses. Prompts with no matching route get
// ErrNoObject.
func promptRouter(routes map[string]string) func(ctx context.Context, prompt string, out any) error {
	return func(ctx context.Context, prompt string, out any) error {
		for marker, response := range routes {
			if strings.Contains(prompt, marker) {
				return services.RespondJSON(response, out)
			}
		}
		return services.ErrNoObject
	}
}

// Prompt markers for the router, one distinctive phrase per call site.
const (
	markPlausibility = "Judge only whether the action is plausible"
	markAssess       = "requires a randomized check"
	markSituational  = "ADDITIONAL situational modifier"
	markReconcile    = "decide whether it implies a change"
	markNPCAction    = "Choose its next action"
	markNPCOutcome   = "resolved with a dice roll"
	markTransition   = "Decide which encounter comes next"
)

func (w *world) freshTurn(t *testing.T) *turn.Turn {
	t.Helper()
	tn, err := w.store.GetTurn(context.Background(), w.turn.ID)
	if err != nil {
		t.Fatalf("GetTurn: %v", err)
	}
	if tn == nil {
		t.Fatalf("turn %s vanished", w.turn.ID)
	}
	return tn
}

func (w *world) freshAdventure(t *testing.T) *adventure.Adventure {
	return w.freshAdventureByID(t, w.adv.ID)
}

func (w *world) freshAdventureByID(t *testing.T, id uuid.UUID) *adventure.Adventure {
	t.Helper()
	adv, err := w.store.GetAdventure(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAdventure: %v", err)
	}
	return adv
}

// seedTurn replaces the world's turn roster and persists it.
func (w *world) seedTurn(t *testing.T, characters []*turn.Character) {
	t.Helper()
	tn := w.freshTurn(t)
	_, err := w.store.PatchTurn(context.Background(), tn.ID, storage.TurnPatch{
		Characters: characters,
		Version:    tn.Version,
	})
	if err != nil {
		t.Fatalf("PatchTurn: %v", err)
	}
}

func completeAll(characters []*turn.Character) []*turn.Character {
	for _, c := range characters {
		c.HasReplied = true
		c.IsComplete = true
	}
	return characters
}

func intPtr(v int) *int { return &v }

func adventurePlayer(userID, characterID string) adventure.Player {
	return adventure.Player{UserID: userID, CharacterID: characterID}
}

func statsWithStrength(str int) plan.Stats {
	return plan.Stats{Strength: str, Dexterity: 10, Constitution: 10, Intelligence: 10, Wisdom: 10, Charisma: 10}
}
