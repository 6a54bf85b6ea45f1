package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

// abilityForRollType maps a roll type to the governing ability score by
// keyword. An unmatched roll type carries no base modifier.
func abilityForRollType(rollType string) string {
	rt := strings.ToLower(rollType)
	switch {
	case containsAny(rt, "stealth", "acrobatics", "sleight of hand"):
		return "dexterity"
	case containsAny(rt, "perception", "insight", "survival", "medicine", "animal handling"):
		return "wisdom"
	case containsAny(rt, "persuasion", "deception", "intimidation", "performance"):
		return "charisma"
	case containsAny(rt, "athletics"):
		return "strength"
	case containsAny(rt, "investigation", "arcana", "history", "nature"):
		return "intelligence"
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// BaseModifier is the deterministic ability-derived part of a roll
// modifier: floor((score-10)/2) of the ability governing the roll type,
// or 0 when no ability matches. The score is read through the
// character's d20 actor view, falling back to the raw stats when the
// actor cannot be built.
func BaseModifier(c *turn.Character, rollType string) int {
	ability := abilityForRollType(rollType)
	if ability == "" {
		return 0
	}
	actor, err := c.Actor()
	if err != nil {
		return turn.AbilityModifier(c.AbilityScore(ability))
	}
	score, ok := actor.Attribute(ability)
	if !ok {
		return 0
	}
	return turn.AbilityModifier(score)
}

// situationalModifier is the schema for the oracle's environment
// adjustment.
type situationalModifier struct {
	Modifier int    `json:"modifier"`
	Reason   string `json:"reason,omitempty"`
}

const situationalPromptFormat = `A character is about to make a %s (difficulty %d) in an adventure encounter.

Character: %s (%s %s). Skills: %s. Equipment: %s.
Encounter: %s
Recent narrative:
%s

The character's ability modifier of %+d is ALREADY applied. Return only the ADDITIONAL situational modifier: an integer (may be negative) reflecting the environment and how well-suited this specific character is to this situation. Small adjustments: usually between -4 and +4.

Respond with {"modifier": N, "reason": "..."}.`

// ComputeModifier combines the ability-derived base modifier with the
// oracle's situational adjustment. A failed oracle call costs only the
// situational part; the base still applies.
func (e *Engine) ComputeModifier(ctx context.Context, c *turn.Character, req *turn.RollRequirement, enc *plan.Encounter, recentNarrative string) int {
	base := BaseModifier(c, req.RollType)

	prompt := fmt.Sprintf(situationalPromptFormat,
		req.RollType, req.Difficulty,
		c.Name, c.Race, c.Archetype,
		strings.Join(c.Skills, ", "),
		strings.Join(c.Equipment, ", "),
		enc.Instructions,
		tailOf(recentNarrative, 2000),
		base,
	)

	var sm situationalModifier
	if err := e.oracle.GenerateObject(ctx, prompt, &sm); err != nil {
		e.logger.Warn("Situational modifier oracle failed, using base only",
			"error", err, "character", c.ID, "roll_type", req.RollType)
		return base
	}

	return base + sm.Modifier
}

// tailOf returns at most n trailing bytes of s, for prompt context
// windows.
func tailOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
