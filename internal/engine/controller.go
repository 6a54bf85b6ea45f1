package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

// SubmitResult is the outcome of a player action submission. Exactly one
// of the three shapes applies: a pending roll, an implausible action with
// feedback, or a completed action.
type SubmitResult struct {
	RollRequired      *turn.RollRequirement `json:"roll_required,omitempty"`
	ActionImplausible bool                  `json:"action_implausible,omitempty"`
	Feedback          string                `json:"feedback,omitempty"`
	Turn              *turn.Turn            `json:"turn,omitempty"`
}

// plausibilityVerdict is the schema for the oracle's plausibility gate.
type plausibilityVerdict struct {
	Plausible bool   `json:"plausible"`
	Feedback  string `json:"feedback,omitempty"`
}

const plausibilityPromptFormat = `A player in a narrative adventure wants their character to take an action. Judge only whether the action is plausible in the current scene, not whether it would succeed.

Character: %s
Encounter: %s
Recent narrative:
%s

Proposed action: %s

Respond with {"plausible": true} or {"plausible": false, "feedback": "one sentence telling the player why, in a friendly tone"}.`

// SubmitAction handles a player-submitted action for a character in a
// turn. If the assessed action needs a check, the requirement (with its
// combined modifier) is stored on the character and returned; otherwise
// the action completes immediately, the narrative is extended, and NPCs
// are driven forward.
//
// userID identifies the caller; it must belong to the adventure's party
// and control the submitting character.
func (e *Engine) SubmitAction(ctx context.Context, turnID uuid.UUID, characterID, userID, actionText string) (*SubmitResult, error) {
	tc, err := e.loadTurnContext(ctx, turnID)
	if err != nil {
		return nil, err
	}

	if !tc.adventure.HasPlayer(userID) {
		return nil, authorizationf("user %s is not a member of adventure %s", userID, tc.adventure.ID)
	}

	c, ok := tc.turn.Character(characterID)
	if !ok {
		return nil, notFoundf("character %s in turn %s", characterID, turnID)
	}
	if !c.IsPC() {
		return nil, validationf("character %s is not player-controlled", characterID)
	}
	if c.UserID != userID && userID != tc.adventure.OwnerID {
		return nil, authorizationf("user %s does not control character %s", userID, characterID)
	}
	if c.IsComplete {
		return nil, validationf("character %s has already acted this turn", characterID)
	}

	// Plausibility gate: reject without mutating anything, inviting a
	// resubmission. An oracle failure skips the gate.
	var verdict plausibilityVerdict
	prompt := fmt.Sprintf(plausibilityPromptFormat, c.Name, tc.encounter.Instructions, tailOf(tc.turn.Narrative, 2000), actionText)
	if err := e.oracle.GenerateObject(ctx, prompt, &verdict); err != nil {
		e.logger.Warn("Plausibility oracle failed, accepting action", "error", err, "character", characterID)
	} else if !verdict.Plausible {
		return &SubmitResult{ActionImplausible: true, Feedback: verdict.Feedback}, nil
	}

	req, err := e.AssessRoll(ctx, actionText, c, tc.encounter)
	if err != nil {
		return nil, oraclef("roll assessment for %s failed: %v", characterID, err)
	}

	if req != nil {
		modifier := e.ComputeModifier(ctx, c, req, tc.encounter, tc.turn.Narrative)
		req.Modifier = &modifier
		c.RollRequired = req
		c.HasReplied = true

		patched, err := e.patchTurn(ctx, tc.turn)
		if err != nil {
			return nil, fmt.Errorf("failed to persist pending roll: %w", err)
		}
		e.logger.Info("Roll required",
			"turn_id", turnID, "character", characterID,
			"roll_type", req.RollType, "difficulty", req.Difficulty, "modifier", modifier)
		return &SubmitResult{RollRequired: req, Turn: patched}, nil
	}

	// No check needed: the action simply happens.
	c.HasReplied = true
	c.IsComplete = true
	tc.turn.AppendNarrative(fmt.Sprintf("%s: %s", c.Name, actionText))

	patched, err := e.patchTurn(ctx, tc.turn)
	if err != nil {
		return nil, fmt.Errorf("failed to persist action: %w", err)
	}

	if err := e.AdvanceNPCs(ctx, turnID); err != nil {
		return nil, err
	}

	// Re-read so the result reflects any NPC activity.
	final, err := e.store.GetTurn(ctx, turnID)
	if err != nil {
		return nil, err
	}
	if final == nil {
		final = patched
	}
	return &SubmitResult{Turn: final}, nil
}
