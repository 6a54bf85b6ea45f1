package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/adventure"
	"github.com/jwebster45206/adventure-engine/pkg/narrative"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

func advPatchCurrentTurn(id uuid.UUID) storage.AdventurePatch {
	return storage.AdventurePatch{CurrentTurnID: &id}
}

func advPatch(status adventure.Status, endedAt *time.Time) storage.AdventurePatch {
	return storage.AdventurePatch{Status: &status, EndedAt: endedAt}
}

// Advance statuses.
const (
	StatusTurnAdvanced      = "turn_advanced"
	StatusAdventureComplete = "adventure_complete"
)

// AdvanceResult is the outcome of a turn advance: either a new turn or
// the end of the adventure.
type AdvanceResult struct {
	Status string     `json:"status"`
	Turn   *turn.Turn `json:"turn,omitempty"`
}

// transitionDecision is the schema for the oracle's encounter choice.
type transitionDecision struct {
	NextEncounterID string `json:"next_encounter_id"`
	Narrative       string `json:"narrative"`
}

const transitionPromptFormat = `A turn of a narrative adventure has ended. Decide which encounter comes next.

Current encounter: %s (id %s)
%s
Recent narrative:
%s
%s
Tie-break policy: prefer a condition tied to the most recent roll's success or failure; otherwise the first applicable option in list order; if no condition is satisfied, stay in the current encounter by returning its id.

Respond with {"next_encounter_id": "...", "narrative": "a short bridging paragraph, present tense"}.`

// AdvanceTurn evaluates the encounter transition for a completed turn and
// builds the next turn's roster, or ends the adventure when the chosen
// transition leads nowhere. It is triggered externally, not automatically
// on completion.
func (e *Engine) AdvanceTurn(ctx context.Context, turnID uuid.UUID) (*AdvanceResult, error) {
	tc, err := e.loadTurnContext(ctx, turnID)
	if err != nil {
		return nil, err
	}
	if !tc.turn.IsComplete() {
		return nil, validationf("turn %s is not complete", turnID)
	}
	if tc.adventure.IsEnded() {
		return nil, validationf("adventure %s has already ended", tc.adventure.ID)
	}

	// A terminal encounter has no way forward: completing its turn ends
	// the adventure without consulting the oracle.
	if tc.encounter.IsTerminal() {
		return e.completeAdventure(ctx, tc)
	}

	decision, err := e.decideTransition(ctx, tc)
	if err != nil {
		return nil, err
	}

	// Hardening: only a declared transition target or the current
	// encounter is accepted. An oracle hallucination falls back to
	// staying put rather than silently ending the adventure.
	nextID := decision.NextEncounterID
	if !isDeclaredTarget(tc.encounter, nextID) {
		e.logger.Warn("Oracle chose an undeclared encounter, staying",
			"turn_id", turnID, "chosen", nextID, "current", tc.encounter.ID)
		nextID = tc.encounter.ID
	}

	if nextID == tc.encounter.ID {
		return e.advanceSameEncounter(ctx, tc, decision.Narrative)
	}

	target, ok := tc.plan.FindEncounter(nextID)
	if !ok {
		// A declared transition pointing outside the plan means the
		// story has run out: the adventure ends here.
		return e.completeAdventure(ctx, tc)
	}
	return e.advanceToEncounter(ctx, tc, target, decision.Narrative)
}

// decideTransition asks the oracle to pick the next encounter. Fatal on
// oracle failure: the turn stays advanceable and the caller retries.
func (e *Engine) decideTransition(ctx context.Context, tc *turnContext) (*transitionDecision, error) {
	options := "This encounter has no transitions."
	if len(tc.encounter.Transitions) > 0 {
		var sb strings.Builder
		sb.WriteString("Transition options:\n")
		for _, tr := range tc.encounter.Transitions {
			fmt.Fprintf(&sb, "- condition: %s -> encounter id %s\n", tr.Condition, tr.Encounter)
		}
		options = sb.String()
	}

	rollSummary := ""
	if roll, ok := tc.turn.LatestRoll(); ok {
		rollSummary = fmt.Sprintf("Most recent roll: %s by %s, total %d vs difficulty %d, success=%t.",
			roll.RollType, roll.Character, roll.Result, roll.Difficulty, roll.Success)
	}

	prompt := fmt.Sprintf(transitionPromptFormat,
		tc.encounter.Title, tc.encounter.ID,
		options, tailOf(tc.turn.Narrative, 2000), rollSummary)

	var decision transitionDecision
	if err := e.oracle.GenerateObject(ctx, prompt, &decision); err != nil {
		return nil, oraclef("transition decision for turn %s failed: %v", tc.turn.ID, err)
	}
	return &decision, nil
}

func isDeclaredTarget(enc *plan.Encounter, id string) bool {
	if id == enc.ID {
		return true
	}
	for _, tr := range enc.Transitions {
		if tr.Encounter == id {
			return true
		}
	}
	return false
}

// advanceSameEncounter builds the next turn in the same encounter:
// dead and fled characters are dropped, survivors re-roll initiative.
func (e *Engine) advanceSameEncounter(ctx context.Context, tc *turnContext, bridge string) (*AdvanceResult, error) {
	roster := make([]*turn.Character, 0, len(tc.turn.Characters))
	for _, c := range tc.turn.Characters {
		if c.IsOut() {
			continue
		}
		roster = append(roster, e.resetForNewTurn(c))
	}

	next := turn.New(tc.adventure.ID, tc.encounter.ID, tc.turn.Title, tc.turn.Order+1)
	next.Characters = roster
	next.IsFinalEncounter = tc.encounter.IsTerminal()
	next.Narrative = bridge

	return e.persistNextTurn(ctx, tc, next, tc.encounter)
}

// advanceToEncounter builds the next turn in a new encounter: surviving
// PCs carry over, NPCs are freshly instantiated from the target's refs.
func (e *Engine) advanceToEncounter(ctx context.Context, tc *turnContext, target *plan.Encounter, bridge string) (*AdvanceResult, error) {
	roster := make([]*turn.Character, 0, len(tc.turn.Characters)+len(target.NPCs))
	for _, c := range tc.turn.Characters {
		if !c.IsPC() || c.IsOut() {
			continue
		}
		pc := e.resetForNewTurn(c)
		if target.ResetHealth {
			pc.HealthPercent = 100
			if pc.Status == turn.StatusDead {
				pc.Status = ""
			}
		}
		roster = append(roster, pc)
	}

	for _, ref := range target.NPCs {
		npc := turn.NewNPCFromRef(ref)
		if ref.InitialInitiative == nil {
			npc.Initiative = e.roller.Initiative()
		}
		roster = append(roster, npc)
	}

	next := turn.New(tc.adventure.ID, target.ID, target.Title, tc.turn.Order+1)
	next.Characters = roster
	next.IsFinalEncounter = target.IsTerminal()
	next.Narrative = narrative.Join(bridge, target.Intro)

	return e.persistNextTurn(ctx, tc, next, target)
}

// resetForNewTurn copies a character into a fresh turn: action flags and
// roll state cleared, initiative re-rolled.
func (e *Engine) resetForNewTurn(c *turn.Character) *turn.Character {
	cp := *c
	cp.HasReplied = false
	cp.IsComplete = false
	cp.RollRequired = nil
	cp.RollResult = nil
	cp.Initiative = e.roller.Initiative()
	cp.Equipment = append([]string(nil), c.Equipment...)
	cp.Skills = append([]string(nil), c.Skills...)
	cp.Spells = append([]string(nil), c.Spells...)
	return &cp
}

// persistNextTurn stores the new turn, points the adventure at it, and
// drives initial NPC turns unless the encounter opts out.
func (e *Engine) persistNextTurn(ctx context.Context, tc *turnContext, next *turn.Turn, enc *plan.Encounter) (*AdvanceResult, error) {
	if err := e.store.CreateTurn(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to create turn: %w", err)
	}
	if err := e.store.PatchAdventure(ctx, tc.adventure.ID, advPatchCurrentTurn(next.ID)); err != nil {
		return nil, fmt.Errorf("failed to update adventure: %w", err)
	}

	e.logger.Info("Turn advanced",
		"adventure_id", tc.adventure.ID, "turn_id", next.ID,
		"encounter_id", next.EncounterID, "order", next.Order,
		"final", next.IsFinalEncounter)

	if !enc.SkipInitialNPCTurns {
		if err := e.AdvanceNPCs(ctx, next.ID); err != nil {
			return nil, err
		}
	}

	final, err := e.store.GetTurn(ctx, next.ID)
	if err != nil {
		return nil, err
	}
	if final == nil {
		final = next
	}
	return &AdvanceResult{Status: StatusTurnAdvanced, Turn: final}, nil
}

// completeAdventure marks the adventure finished. EndedAt is set exactly
// once; no new turn is created.
func (e *Engine) completeAdventure(ctx context.Context, tc *turnContext) (*AdvanceResult, error) {
	now := time.Now()
	completed := adventure.StatusCompleted
	err := e.store.PatchAdventure(ctx, tc.adventure.ID, advPatch(completed, &now))
	if err != nil {
		return nil, fmt.Errorf("failed to complete adventure: %w", err)
	}

	e.logger.Info("Adventure complete", "adventure_id", tc.adventure.ID, "final_turn", tc.turn.ID)
	return &AdvanceResult{Status: StatusAdventureComplete}, nil
}
