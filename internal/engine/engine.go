// Package engine implements the turn progression engine: per-character
// action state within a turn, roll requirement assessment and resolution,
// autonomous NPC turns, and encounter transitions. Every entry point runs
// as one sequential operation; correctness relies on single-writer
// execution per turn plus the roll idempotency guard and the store's
// optimistic turn version.
package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/adventure"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

// Engine orchestrates turn progression against the store, the plan
// repository, and the narrative oracle.
type Engine struct {
	store  storage.Store
	plans  storage.PlanRepository
	oracle services.Oracle
	roller *dice.Roller
	logger *slog.Logger
}

// New creates an engine. All collaborators are required; pass a
// dice.NewRandomRoller outside tests.
func New(store storage.Store, plans storage.PlanRepository, oracle services.Oracle, roller *dice.Roller, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		plans:  plans,
		oracle: oracle,
		roller: roller,
		logger: logger,
	}
}

// loadTurnContext fetches the turn, its adventure, the plan, and the
// current encounter, failing NotFound on any miss.
type turnContext struct {
	turn      *turn.Turn
	adventure *adventure.Adventure
	plan      *plan.Plan
	encounter *plan.Encounter
}

func (e *Engine) loadTurnContext(ctx context.Context, turnID uuid.UUID) (*turnContext, error) {
	t, err := e.store.GetTurn(ctx, turnID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, notFoundf("turn %s", turnID)
	}

	adv, err := e.store.GetAdventure(ctx, t.AdventureID)
	if err != nil {
		return nil, err
	}
	if adv == nil {
		return nil, notFoundf("adventure %s", t.AdventureID)
	}

	p, err := e.plans.GetPlan(ctx, adv.SettingID, adv.PlanID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFoundf("plan %s/%s", adv.SettingID, adv.PlanID)
	}

	enc, ok := p.FindEncounter(t.EncounterID)
	if !ok {
		return nil, notFoundf("encounter %s", t.EncounterID)
	}

	return &turnContext{turn: t, adventure: adv, plan: p, encounter: enc}, nil
}

// patchTurn persists the mutated turn as a whole-document patch.
func (e *Engine) patchTurn(ctx context.Context, t *turn.Turn) (*turn.Turn, error) {
	narrative := t.Narrative
	return e.store.PatchTurn(ctx, t.ID, storage.TurnPatch{
		Narrative:  &narrative,
		Characters: t.Characters,
		RollEvents: t.RollEvents,
		Version:    t.Version,
	})
}
