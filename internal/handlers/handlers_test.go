package handlers

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/adventure"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

type fixture struct {
	store  *storage.MemoryStore
	oracle *services.MockOracle
	engine *engine.Engine
	logger *slog.Logger
}

type fixedSource struct{ face int }

func (s fixedSource) Intn(n int) int { return (s.face - 1) % n }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := storage.NewMemoryStore()
	store.AddPlan("setting1", &plan.Plan{
		ID:    "plan1",
		Title: "Test Plan",
		Sections: []plan.Section{{
			ID: "s1", Title: "Section",
			Scenes: []plan.Scene{{
				ID: "sc1", Title: "Scene",
				Encounters: []plan.Encounter{{
					ID: "enc_gate", Title: "The Gate",
					Intro:        "A rusted gate bars the way.",
					Instructions: "Guards patrol the gate.",
					Transitions: []plan.Transition{
						{Condition: "The party keeps trying", Encounter: "enc_gate"},
					},
				}},
			}},
		}},
	})

	oracle := services.NewMockOracle()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	eng := engine.New(store, store, oracle, dice.NewRoller(fixedSource{face: 10}), logger)

	return &fixture{store: store, oracle: oracle, engine: eng, logger: logger}
}

// startAdventure seeds a running adventure and returns it with its
// opening turn.
func (f *fixture) startAdventure(t *testing.T) (*adventure.Adventure, *turn.Turn) {
	t.Helper()

	adv := adventure.New("setting1", "plan1", "owner")
	adv.Players = []adventure.Player{{UserID: "alice", CharacterID: "pc_mira"}}
	pcs := []*turn.Character{
		{
			ID: "pc_mira", Type: turn.TypePC, UserID: "alice", Name: "Mira",
			Stats:         plan.Stats{Strength: 10, Dexterity: 16, Constitution: 12, Intelligence: 13, Wisdom: 12, Charisma: 11},
			HealthPercent: 100,
		},
	}

	first, err := f.engine.StartAdventure(context.Background(), adv, pcs)
	if err != nil {
		t.Fatalf("StartAdventure: %v", err)
	}
	return adv, first
}
