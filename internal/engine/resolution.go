package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/narrative"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

const outcomePromptFormat = `Narrate the outcome of a dice roll in an adventure.

Character: %s
Encounter: %s
Recent narrative:
%s

Roll: %s, base roll %d, modifier %+d, total %d against difficulty %d. %s

Write exactly two sentences, present tense, describing what happens. %s`

// outcomeGuidance frames the narration by roll quality.
func outcomeGuidance(baseRoll, margin int) string {
	switch {
	case baseRoll == 1:
		return "This is a natural 1: frame it as a catastrophic failure."
	case baseRoll == 20:
		return "This is a natural 20: frame it as a spectacular success."
	case margin >= 5:
		return "A comfortable success: things go clearly the character's way."
	case margin >= 0:
		return "A narrow success: it works, barely."
	case margin >= -4:
		return "A narrow failure: it almost works."
	default:
		return "A clear failure: it goes wrong."
	}
}

// healthReconciliation is the schema for the post-roll health/status
// pass. At most one character may be adjusted.
type healthReconciliation struct {
	CharacterID   string `json:"character_id"`
	HealthPercent *int   `json:"health_percent,omitempty"`
	Status        string `json:"status,omitempty"`
}

const reconcilePromptFormat = `Read the narrative below and decide whether it implies a change to any single character's health or status.

Narrative:
%s

Characters:
%s

If one character was hurt, healed, killed, or fled, respond with {"character_id": "...", "health_percent": N, "status": "..."} using a 0-100 health percentage (status may be omitted, or one of "dead", "fled", or a short condition). If nothing changed, respond with null.`

// ResolveRoll resolves a pending check for a character: combines the
// submitted base roll with the stored modifier, records the roll event
// and shortcode, narrates the outcome, reconciles health, and drives the
// NPCs that follow.
func (e *Engine) ResolveRoll(ctx context.Context, turnID uuid.UUID, characterID string, baseRoll int) (*turn.Turn, error) {
	if baseRoll < 1 || baseRoll > 20 {
		return nil, validationf("base roll %d out of range 1-20", baseRoll)
	}

	tc, err := e.loadTurnContext(ctx, turnID)
	if err != nil {
		return nil, err
	}

	c, ok := tc.turn.Character(characterID)
	if !ok {
		return nil, validationf("character %s not in turn %s", characterID, turnID)
	}
	if c.RollRequired == nil {
		return nil, validationf("character %s has no pending roll", characterID)
	}
	if c.RollResult != nil {
		// Idempotency guard: a roll is resolved at most once.
		return nil, validationf("roll for character %s already resolved", characterID)
	}

	req := c.RollRequired
	total := baseRoll + req.ModifierValue()
	success := total >= req.Difficulty
	margin := total - req.Difficulty

	tc.turn.RecordRoll(narrative.Shortcode{
		RollType:   req.RollType,
		BaseRoll:   baseRoll,
		Modifier:   req.ModifierValue(),
		Result:     total,
		Difficulty: req.Difficulty,
		Character:  c.Name,
		Image:      c.Image,
		Success:    success,
	})

	// Outcome narration is flavor: an oracle failure leaves the outcome
	// empty and resolution proceeds.
	prompt := fmt.Sprintf(outcomePromptFormat,
		c.Name, tc.encounter.Instructions, tailOf(tc.turn.Narrative, 2000),
		req.RollType, baseRoll, req.ModifierValue(), total, req.Difficulty,
		successWord(success), outcomeGuidance(baseRoll, margin))
	outcome, err := e.oracle.GenerateText(ctx, prompt)
	if err != nil {
		e.logger.Warn("Outcome narration failed", "error", err, "turn_id", turnID, "character", characterID)
		outcome = ""
	}
	tc.turn.AppendNarrative(outcome)

	e.reconcileHealth(ctx, tc.turn)

	c.RollResult = &total
	c.IsComplete = true
	c.HasReplied = true

	if _, err := e.patchTurn(ctx, tc.turn); err != nil {
		return nil, fmt.Errorf("failed to persist roll resolution: %w", err)
	}

	e.logger.Info("Roll resolved",
		"turn_id", turnID, "character", characterID,
		"roll_type", req.RollType, "base_roll", baseRoll, "total", total,
		"difficulty", req.Difficulty, "success", success, "margin", margin)

	if err := e.AdvanceNPCs(ctx, turnID); err != nil {
		return nil, err
	}

	final, err := e.store.GetTurn(ctx, turnID)
	if err != nil {
		return nil, err
	}
	if final == nil {
		final = tc.turn
	}
	return final, nil
}

func successWord(success bool) string {
	if success {
		return "The roll succeeds."
	}
	return "The roll fails."
}

// reconcileHealth runs the health/status reconciliation pass: the oracle
// reads only the text after the most recent shortcode plus the roster and
// may adjust at most one character. Failures and empty answers are
// ignored.
func (e *Engine) reconcileHealth(ctx context.Context, t *turn.Turn) {
	roster := ""
	for _, c := range t.Characters {
		roster += fmt.Sprintf("- id=%s name=%s type=%s health=%d%% status=%s\n",
			c.ID, c.Name, c.Type, c.HealthPercent, c.Status)
	}

	prompt := fmt.Sprintf(reconcilePromptFormat, narrative.TextAfterLast(t.Narrative), roster)

	var rec healthReconciliation
	if err := e.oracle.GenerateObject(ctx, prompt, &rec); err != nil {
		e.logger.Debug("Health reconciliation skipped", "error", err, "turn_id", t.ID)
		return
	}
	if rec.CharacterID == "" || rec.HealthPercent == nil {
		return
	}
	t.SetHealth(rec.CharacterID, *rec.HealthPercent, rec.Status)
}
