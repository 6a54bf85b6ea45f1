package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/narrative"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

// npcAction is the schema for an NPC's chosen action.
type npcAction struct {
	ActionSummary string        `json:"action_summary"`
	Narrative     string        `json:"narrative"`
	Effects       []turn.Effect `json:"effects,omitempty"`
}

const npcActionPromptFormat = `You are playing an NPC in a narrative adventure. Choose its next action for this turn.

NPC: %s (%s %s). Behavior: %s. Health: %d%%. Equipment: %s.
Encounter: %s
Other characters:
%s
Recent narrative:
%s

Respond with {"action_summary": "one-line summary of what the NPC attempts", "narrative": "one or two present-tense sentences", "effects": [{"target_id": "...", "health_percent_delta": N, "status": "...", "equipment_to_add": ["..."]}]}. Include effects only for immediate non-combat consequences such as handing over an item; leave it empty otherwise.`

// npcOutcome is the schema for a rolled NPC action's result.
type npcOutcome struct {
	Narrative string        `json:"narrative"`
	Effects   []turn.Effect `json:"effects,omitempty"`
}

const npcOutcomePromptFormat = `An NPC's action was resolved with a dice roll.

NPC: %s. Action: %s
Roll: %s, base roll %d, modifier %+d, total %d against difficulty %d. %s
Characters:
%s
Recent narrative:
%s

Respond with {"narrative": "two present-tense sentences describing the outcome", "effects": [{"target_id": "...", "health_percent_delta": N, "status": "...", "equipment_to_add": ["..."]}]} targeting any affected characters. Use negative health deltas for damage.`

// AdvanceNPCs drives pending NPCs through their turns in initiative
// order, stopping as soon as the next pending actor is a player
// character. Each NPC is processed strictly sequentially against fresh
// turn state, because an NPC's action may change the turn the next NPC
// acts in.
func (e *Engine) AdvanceNPCs(ctx context.Context, turnID uuid.UUID) error {
	tc, err := e.loadTurnContext(ctx, turnID)
	if err != nil {
		return err
	}

	snapshot := tc.turn.PendingByInitiative()
	for _, snap := range snapshot {
		if snap.Type != turn.TypeNPC {
			// The turn passes to a player.
			return nil
		}

		// Re-fetch: prior NPCs may have mutated the turn.
		fresh, err := e.loadTurnContext(ctx, turnID)
		if err != nil {
			return err
		}
		c, ok := fresh.turn.Character(snap.ID)
		if !ok || c.HasReplied || c.IsComplete {
			continue
		}
		if c.IsOut() {
			c.HasReplied = true
			c.IsComplete = true
			if _, err := e.patchTurn(ctx, fresh.turn); err != nil {
				return fmt.Errorf("failed to skip downed npc %s: %w", c.ID, err)
			}
			continue
		}

		if err := e.processNPC(ctx, fresh, c); err != nil {
			return err
		}
	}
	return nil
}

// processNPC runs one NPC's action against the freshly loaded turn and
// persists the result.
func (e *Engine) processNPC(ctx context.Context, tc *turnContext, c *turn.Character) error {
	action := e.chooseNPCAction(ctx, tc, c)

	req, err := e.AssessRoll(ctx, action.ActionSummary, c, tc.encounter)
	if err != nil {
		return oraclef("npc roll assessment for %s failed: %v", c.ID, err)
	}

	if req == nil {
		// No check: the action lands as narrated, effects applied
		// directly with no reconciliation pass.
		tc.turn.AppendNarrative(action.Narrative)
		for _, eff := range action.Effects {
			tc.turn.ApplyEffect(eff)
		}
	} else {
		modifier := e.ComputeModifier(ctx, c, req, tc.encounter, tc.turn.Narrative)
		baseRoll := e.roller.D20()
		total := baseRoll + modifier
		success := total >= req.Difficulty

		tc.turn.RecordRoll(narrative.Shortcode{
			RollType:   req.RollType,
			BaseRoll:   baseRoll,
			Modifier:   modifier,
			Result:     total,
			Difficulty: req.Difficulty,
			Character:  c.Name,
			Image:      c.Image,
			Success:    success,
		})

		outcome := e.narrateNPCOutcome(ctx, tc, c, action, req, baseRoll, modifier, total, success)
		tc.turn.AppendNarrative(outcome.Narrative)
		for _, eff := range outcome.Effects {
			tc.turn.ApplyEffect(eff)
		}

		// Reconciliation merges over the applied effects.
		e.reconcileHealth(ctx, tc.turn)
	}

	c.HasReplied = true
	c.IsComplete = true

	if _, err := e.patchTurn(ctx, tc.turn); err != nil {
		return fmt.Errorf("failed to persist npc action for %s: %w", c.ID, err)
	}

	e.logger.Info("NPC acted",
		"turn_id", tc.turn.ID, "npc", c.ID, "action", action.ActionSummary,
		"rolled", req != nil)
	return nil
}

// chooseNPCAction asks the oracle what the NPC does. If the oracle is
// unavailable the NPC holds its ground so the turn can still progress.
func (e *Engine) chooseNPCAction(ctx context.Context, tc *turnContext, c *turn.Character) npcAction {
	roster := ""
	for _, other := range tc.turn.Characters {
		if other.ID == c.ID {
			continue
		}
		roster += fmt.Sprintf("- id=%s name=%s type=%s health=%d%%\n", other.ID, other.Name, other.Type, other.HealthPercent)
	}

	prompt := fmt.Sprintf(npcActionPromptFormat,
		c.Name, c.Race, c.Archetype, c.Behavior, c.HealthPercent,
		joinOrNone(c.Equipment),
		tc.encounter.Instructions, roster, tailOf(tc.turn.Narrative, 2000))

	var action npcAction
	if err := e.oracle.GenerateObject(ctx, prompt, &action); err != nil || action.ActionSummary == "" {
		e.logger.Warn("NPC action oracle failed, holding position", "error", err, "npc", c.ID)
		return npcAction{
			ActionSummary: fmt.Sprintf("%s holds position, watching the party", c.Name),
			Narrative:     fmt.Sprintf("%s holds position, watching the party warily.", c.Name),
		}
	}
	return action
}

// narrateNPCOutcome asks the oracle for the rolled action's narrative and
// effects. Non-fatal: a failure yields a minimal outcome line and no
// effects.
func (e *Engine) narrateNPCOutcome(ctx context.Context, tc *turnContext, c *turn.Character, action npcAction, req *turn.RollRequirement, baseRoll, modifier, total int, success bool) npcOutcome {
	roster := ""
	for _, other := range tc.turn.Characters {
		roster += fmt.Sprintf("- id=%s name=%s type=%s health=%d%%\n", other.ID, other.Name, other.Type, other.HealthPercent)
	}

	prompt := fmt.Sprintf(npcOutcomePromptFormat,
		c.Name, action.ActionSummary,
		req.RollType, baseRoll, modifier, total, req.Difficulty, successWord(success),
		roster, tailOf(tc.turn.Narrative, 2000))

	var outcome npcOutcome
	if err := e.oracle.GenerateObject(ctx, prompt, &outcome); err != nil {
		e.logger.Warn("NPC outcome oracle failed", "error", err, "npc", c.ID)
		if success {
			return npcOutcome{Narrative: fmt.Sprintf("%s succeeds.", c.Name)}
		}
		return npcOutcome{Narrative: fmt.Sprintf("%s fails.", c.Name)}
	}
	return outcome
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	out := items[0]
	for _, s := range items[1:] {
		out += ", " + s
	}
	return out
}
