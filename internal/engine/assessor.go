package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/narrative"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

const (
	minDifficulty = 5
	maxDifficulty = 25
)

// rollClassification is the schema the oracle fills in when asked whether
// an action needs a check.
type rollClassification struct {
	RollType   string `json:"roll_type"`
	Difficulty int    `json:"difficulty"`
}

const assessPromptFormat = `A character in a tabletop-style adventure is attempting an action. Decide whether the action requires a randomized check, and if so what kind.

Roll types: Attack Roll, or a Check of one of: Stealth, Athletics, Acrobatics, Survival, Deception, Persuasion, Intimidation, Insight, Investigation, Nature, Animal Handling, Medicine, History, Arcana, Sleight of Hand, Performance, Perception; or a Saving Throw; or a Spellcasting Check.

Difficulty guidance: 10-11 is typical. Use 5 for trivial actions, 15 or more for hard ones, 18-20 for near-impossible ones. Stay within 5-25.

Character: %s (%s %s). Skills: %s. Equipment: %s. Spells: %s.
Encounter: %s
Action: %s

Respond with {"roll_type": "...", "difficulty": N}, or null if no check is needed (trivial actions, plain speech, simple movement need no check).`

// AssessRoll decides whether an action needs a check. The oracle is the
// primary classifier; when it is unreachable or returns garbage the
// deterministic keyword classifier takes over. An explicit null from the
// oracle means no roll is required.
func (e *Engine) AssessRoll(ctx context.Context, actionText string, actor *turn.Character, enc *plan.Encounter) (*turn.RollRequirement, error) {
	prompt := fmt.Sprintf(assessPromptFormat,
		actor.Name, actor.Race, actor.Archetype,
		strings.Join(actor.Skills, ", "),
		strings.Join(actor.Equipment, ", "),
		strings.Join(actor.Spells, ", "),
		enc.Instructions,
		actionText,
	)

	var rc rollClassification
	err := e.oracle.GenerateObject(ctx, prompt, &rc)
	switch {
	case err == nil:
		rollType := narrative.NormalizeRollType(rc.RollType)
		if rollType == "" {
			return nil, nil
		}
		return &turn.RollRequirement{
			RollType:   rollType,
			Difficulty: clampDifficulty(rc.Difficulty),
		}, nil
	case errors.Is(err, services.ErrNoObject):
		return nil, nil
	default:
		e.logger.Warn("Roll classification oracle failed, using keyword classifier",
			"error", err, "action", actionText)
		return ClassifyAction(actionText), nil
	}
}

func clampDifficulty(d int) int {
	if d < minDifficulty {
		return minDifficulty
	}
	if d > maxDifficulty {
		return maxDifficulty
	}
	return d
}

// rollCategory pairs a roll type with its trigger words and a fixed
// default difficulty. Order matters: categories are tried first to last,
// with Perception deliberately final as the catch-all.
type rollCategory struct {
	rollType   string
	difficulty int
	keywords   []string
}

var rollCategories = []rollCategory{
	{"Attack Roll", 12, []string{"attack", "strike", "stab", "slash", "shoot", "swing", "punch", "fight", "kill", "smash", "fire at", "lunge"}},
	{"Stealth Check", 13, []string{"sneak", "hide", "creep", "slip past", "slip by", "shadow", "silently", "stealth", "unseen"}},
	{"Athletics Check", 13, []string{"climb", "jump", "leap", "swim", "lift", "shove", "drag", "vault", "grapple", "wrestle", "force open"}},
	{"Acrobatics Check", 13, []string{"tumble", "flip", "balance", "somersault", "dodge", "backflip", "cartwheel"}},
	{"Survival Check", 13, []string{"track", "forage", "navigate", "hunt", "follow the trail", "read the weather", "set a snare"}},
	{"Deception Check", 14, []string{"lie", "bluff", "trick", "deceive", "disguise", "pretend", "fool"}},
	{"Persuasion Check", 13, []string{"persuade", "convince", "negotiate", "charm", "plead", "reason with", "talk down", "appeal"}},
	{"Intimidation Check", 13, []string{"intimidate", "threaten", "menace", "scare", "frighten", "loom over", "demand"}},
	{"Insight Check", 13, []string{"sense motive", "read their", "gauge", "discern intent", "tell if they", "judge their"}},
	{"Investigation Check", 13, []string{"investigate", "search", "examine", "inspect", "scrutinize", "look for clues", "rummage"}},
	{"Nature Check", 13, []string{"identify the plant", "identify the herb", "recall nature", "what creature", "natural world", "wildlife"}},
	{"Animal Handling Check", 13, []string{"calm the", "tame", "soothe", "ride the", "mount the", "befriend the animal", "handle the"}},
	{"Medicine Check", 13, []string{"heal", "bandage", "treat", "diagnose", "stabilize", "tend the wound", "first aid"}},
	{"History Check", 13, []string{"recall history", "remember the legend", "lore", "ancient", "historical"}},
	{"Arcana Check", 14, []string{"arcane", "magical", "rune", "enchant", "identify the spell", "dispel", "ritual"}},
	{"Sleight Of Hand Check", 14, []string{"pickpocket", "palm", "filch", "pick the lock", "swipe", "plant the", "conceal"}},
	{"Performance Check", 12, []string{"sing", "dance", "perform", "juggle", "play the", "recite", "entertain"}},
	// Catch-all. Checked last so the specific categories win.
	{"Perception Check", 12, []string{"look", "listen", "watch", "spot", "notice", "peer", "scan", "observe", "glance", "survey"}},
}

// ClassifyAction is the deterministic fallback classifier: action text is
// matched against each category's keyword set in fixed priority order.
// Returns nil when no category matches, meaning no roll is required.
func ClassifyAction(actionText string) *turn.RollRequirement {
	text := strings.ToLower(actionText)
	for _, cat := range rollCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(text, kw) {
				return &turn.RollRequirement{
					RollType:   cat.rollType,
					Difficulty: cat.difficulty,
				}
			}
		}
	}
	return nil
}
