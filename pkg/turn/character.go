package turn

import (
	"fmt"

	"github.com/jwebster45206/d20"

	"github.com/jwebster45206/adventure-engine/pkg/plan"
)

// CharacterType discriminates the pc/npc union.
type CharacterType string

const (
	TypePC  CharacterType = "pc"
	TypeNPC CharacterType = "npc"
)

// Character statuses with mechanical meaning. Other statuses are
// free-text flavor from the oracle.
const (
	StatusDead = "dead"
	StatusFled = "fled"
)

// RollRequirement is a pending check attached to a character: what kind of
// roll, how hard, and the combined modifier once computed.
type RollRequirement struct {
	RollType   string `json:"roll_type"`
	Difficulty int    `json:"difficulty"`
	Modifier   *int   `json:"modifier,omitempty"`
}

// ModifierValue returns the modifier, or 0 when not yet computed.
func (r *RollRequirement) ModifierValue() int {
	if r == nil || r.Modifier == nil {
		return 0
	}
	return *r.Modifier
}

// Character is one participant in a turn. PC and NPC share every field
// except UserID, which is only set for player characters, and Behavior,
// which only drives NPCs.
type Character struct {
	ID        string        `json:"id"`
	Type      CharacterType `json:"type"`
	UserID    string        `json:"user_id,omitempty"`  // pc only
	Behavior  string        `json:"behavior,omitempty"` // npc only
	Name      string        `json:"name"`
	Archetype string        `json:"archetype,omitempty"`
	Race      string        `json:"race,omitempty"`
	Stats     plan.Stats    `json:"stats"`
	Image     string        `json:"image,omitempty"`

	HealthPercent int    `json:"health_percent"` // 0-100
	Status        string `json:"status,omitempty"`

	Equipment []string `json:"equipment,omitempty"`
	Skills    []string `json:"skills,omitempty"`
	Spells    []string `json:"spells,omitempty"`

	Initiative   int              `json:"initiative"`
	HasReplied   bool             `json:"has_replied"`
	IsComplete   bool             `json:"is_complete"`
	RollRequired *RollRequirement `json:"roll_required,omitempty"`
	RollResult   *int             `json:"roll_result,omitempty"`
}

// IsPC reports whether the character is player-controlled.
func (c *Character) IsPC() bool {
	return c.Type == TypePC
}

// IsOut reports whether the character no longer participates: dead or fled.
func (c *Character) IsOut() bool {
	return c.HealthPercent <= 0 || c.Status == StatusDead || c.Status == StatusFled
}

// Actor builds a d20 actor view over the character's ability scores and
// health, for modifier math and any rule evaluation that expects one.
func (c *Character) Actor() (*d20.Actor, error) {
	attrs := map[string]int{
		"strength":     c.Stats.Strength,
		"dexterity":    c.Stats.Dexterity,
		"constitution": c.Stats.Constitution,
		"intelligence": c.Stats.Intelligence,
		"wisdom":       c.Stats.Wisdom,
		"charisma":     c.Stats.Charisma,
	}

	actor, err := d20.NewActor(c.ID).
		WithHP(100).
		WithAC(10).
		WithAttributes(attrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor for %s: %w", c.ID, err)
	}

	if c.HealthPercent > 0 && c.HealthPercent < 100 {
		if err := actor.SetHP(c.HealthPercent); err != nil {
			return nil, fmt.Errorf("failed to set actor HP: %w", err)
		}
	}
	return actor, nil
}

// AbilityScore reads one of the six core scores by lowercase name.
// Unknown names return 10 (no modifier).
func (c *Character) AbilityScore(name string) int {
	switch name {
	case "strength":
		return c.Stats.Strength
	case "dexterity":
		return c.Stats.Dexterity
	case "constitution":
		return c.Stats.Constitution
	case "intelligence":
		return c.Stats.Intelligence
	case "wisdom":
		return c.Stats.Wisdom
	case "charisma":
		return c.Stats.Charisma
	}
	return 10
}

// AbilityModifier converts an ability score to its modifier:
// floor((score - 10) / 2). Works for odd scores below 10.
func AbilityModifier(score int) int {
	// Integer division in Go truncates toward zero; shift so the
	// division floors for scores below 10 as well.
	if score >= 10 {
		return (score - 10) / 2
	}
	return -((11 - score) / 2)
}

// NewPC creates a player character entry for a turn roster.
func NewPC(id, userID, name string) *Character {
	return &Character{
		ID:            id,
		Type:          TypePC,
		UserID:        userID,
		Name:          name,
		HealthPercent: 100,
	}
}

// NewNPCFromRef instantiates an NPC from its plan reference with full
// health. Initiative is taken from the ref when authored, otherwise left
// at zero for the caller to roll.
func NewNPCFromRef(ref plan.NPCRef) *Character {
	c := &Character{
		ID:            ref.ID,
		Type:          TypeNPC,
		Behavior:      ref.Behavior,
		Name:          ref.Name,
		Archetype:     ref.Archetype,
		Race:          ref.Race,
		Stats:         ref.Stats,
		HealthPercent: 100,
		Equipment:     append([]string(nil), ref.Equipment...),
		Skills:        append([]string(nil), ref.Skills...),
		Spells:        append([]string(nil), ref.Spells...),
	}
	if ref.InitialInitiative != nil {
		c.Initiative = *ref.InitialInitiative
	}
	return c
}
