package engine

import (
	"context"
	"fmt"

	"github.com/jwebster45206/adventure-engine/pkg/adventure"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

// StartAdventure activates an adventure and creates its first turn from
// the plan's opening encounter. The player characters are supplied by the
// caller; NPCs come from the encounter's roster. Initiative is rolled for
// every character without an authored value.
func (e *Engine) StartAdventure(ctx context.Context, adv *adventure.Adventure, pcs []*turn.Character) (*turn.Turn, error) {
	p, err := e.plans.GetPlan(ctx, adv.SettingID, adv.PlanID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFoundf("plan %s/%s", adv.SettingID, adv.PlanID)
	}

	enc, ok := p.FirstEncounter()
	if !ok {
		return nil, validationf("plan %s has no encounters", adv.PlanID)
	}

	roster := make([]*turn.Character, 0, len(pcs)+len(enc.NPCs))
	for _, pc := range pcs {
		cp := *pc
		cp.Type = turn.TypePC
		if cp.HealthPercent == 0 {
			cp.HealthPercent = 100
		}
		cp.Initiative = e.roller.Initiative()
		roster = append(roster, &cp)
	}
	for _, ref := range enc.NPCs {
		npc := turn.NewNPCFromRef(ref)
		if ref.InitialInitiative == nil {
			npc.Initiative = e.roller.Initiative()
		}
		roster = append(roster, npc)
	}

	first := turn.New(adv.ID, enc.ID, enc.Title, 1)
	first.Characters = roster
	first.IsFinalEncounter = enc.IsTerminal()
	first.Narrative = enc.Intro

	if err := e.store.CreateTurn(ctx, first); err != nil {
		return nil, fmt.Errorf("failed to create opening turn: %w", err)
	}

	adv.Status = adventure.StatusActive
	adv.CurrentTurnID = first.ID
	if err := e.store.SaveAdventure(ctx, adv); err != nil {
		return nil, fmt.Errorf("failed to save adventure: %w", err)
	}

	e.logger.Info("Adventure started",
		"adventure_id", adv.ID, "turn_id", first.ID, "encounter_id", enc.ID)

	if !enc.SkipInitialNPCTurns {
		if err := e.AdvanceNPCs(ctx, first.ID); err != nil {
			return nil, err
		}
	}

	final, err := e.store.GetTurn(ctx, first.ID)
	if err != nil {
		return nil, err
	}
	if final == nil {
		final = first
	}
	return final, nil
}
