// Package turn holds the per-round state of an adventure: the ordered
// character roster, the append-only narrative, and the roll event log.
// A turn is mutated in place until every character is complete, then
// superseded by the next turn and never touched again.
package turn

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/narrative"
)

// Turn is one encounter round.
type Turn struct {
	ID               uuid.UUID             `json:"id"`
	AdventureID      uuid.UUID             `json:"adventure_id"`
	EncounterID      string                `json:"encounter_id"`
	Title            string                `json:"title"`
	Narrative        string                `json:"narrative,omitempty"`
	Characters       []*Character          `json:"characters"`
	RollEvents       []narrative.RollEvent `json:"roll_events,omitempty"`
	Order            int                   `json:"order"`
	IsFinalEncounter bool                  `json:"is_final_encounter,omitempty"`
	Version          int                   `json:"version"` // optimistic concurrency token
	CreatedAt        time.Time             `json:"created_at"`
}

// New creates an empty turn for an encounter.
func New(adventureID uuid.UUID, encounterID, title string, order int) *Turn {
	return &Turn{
		ID:          uuid.New(),
		AdventureID: adventureID,
		EncounterID: encounterID,
		Title:       title,
		Order:       order,
		CreatedAt:   time.Now(),
	}
}

// Character finds a roster member by id.
func (t *Turn) Character(id string) (*Character, bool) {
	for _, c := range t.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// IsComplete reports whether every character in the turn has completed
// its action.
func (t *Turn) IsComplete() bool {
	for _, c := range t.Characters {
		if !c.IsComplete {
			return false
		}
	}
	return true
}

// AppendNarrative adds a fragment to the turn's narrative log.
func (t *Turn) AppendNarrative(fragment string) {
	t.Narrative = narrative.Append(t.Narrative, fragment)
}

// RecordRoll appends a roll event and renders its shortcode into the
// narrative.
func (t *Turn) RecordRoll(sc narrative.Shortcode) {
	t.RollEvents = narrative.NextEvent(t.RollEvents, sc)
	t.AppendNarrative(sc.String())
}

// LatestRoll returns the most recent roll in this turn, if any.
func (t *Turn) LatestRoll() (*narrative.Shortcode, bool) {
	return narrative.LatestRoll(t.RollEvents, t.Narrative)
}

// PendingByInitiative snapshots the characters that have neither replied
// nor completed, sorted by initiative descending. The sort is stable:
// ties keep their prior roster order.
func (t *Turn) PendingByInitiative() []*Character {
	pending := make([]*Character, 0, len(t.Characters))
	for _, c := range t.Characters {
		if !c.HasReplied && !c.IsComplete {
			pending = append(pending, c)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Initiative > pending[j].Initiative
	})
	return pending
}
