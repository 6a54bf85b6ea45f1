// Package storage persists adventures and turns and loads authored plans.
// Turns are patched as whole documents with an optimistic version check;
// there is no multi-document transaction guarantee.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/adventure"
	"github.com/jwebster45206/adventure-engine/pkg/narrative"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

// ErrVersionConflict is returned by PatchTurn when the stored turn has
// moved past the version the patch was computed from.
var ErrVersionConflict = errors.New("turn version conflict")

// TurnPatch is a whole-document update to a turn. Version must match the
// stored turn's version; the patch bumps it by one.
type TurnPatch struct {
	Narrative  *string               `json:"narrative,omitempty"`
	Characters []*turn.Character     `json:"characters,omitempty"`
	RollEvents []narrative.RollEvent `json:"roll_events,omitempty"`
	Version    int                   `json:"version"`
}

// AdventurePatch updates selected adventure fields. EndedAt is applied
// only if the adventure has not already ended.
type AdventurePatch struct {
	CurrentTurnID *uuid.UUID        `json:"current_turn_id,omitempty"`
	Status        *adventure.Status `json:"status,omitempty"`
	EndedAt       *time.Time        `json:"ended_at,omitempty"`
}

// Store is the document store for adventure and turn state.
type Store interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Turn operations. GetTurn returns nil for not found.
	GetTurn(ctx context.Context, id uuid.UUID) (*turn.Turn, error)
	CreateTurn(ctx context.Context, t *turn.Turn) error
	PatchTurn(ctx context.Context, id uuid.UUID, patch TurnPatch) (*turn.Turn, error)

	// Adventure operations. GetAdventure returns nil for not found.
	GetAdventure(ctx context.Context, id uuid.UUID) (*adventure.Adventure, error)
	SaveAdventure(ctx context.Context, adv *adventure.Adventure) error
	PatchAdventure(ctx context.Context, id uuid.UUID, patch AdventurePatch) error
}

// PlanRepository loads read-only authored plans.
type PlanRepository interface {
	// GetPlan returns nil for not found.
	GetPlan(ctx context.Context, settingID, planID string) (*plan.Plan, error)
}

// applyTurnPatch merges a patch into a stored turn after the version
// check has passed.
func applyTurnPatch(t *turn.Turn, patch TurnPatch) {
	if patch.Narrative != nil {
		t.Narrative = *patch.Narrative
	}
	if patch.Characters != nil {
		t.Characters = patch.Characters
	}
	if patch.RollEvents != nil {
		t.RollEvents = patch.RollEvents
	}
	t.Version++
}

// applyAdventurePatch merges a patch into a stored adventure.
func applyAdventurePatch(adv *adventure.Adventure, patch AdventurePatch) {
	if patch.CurrentTurnID != nil {
		adv.CurrentTurnID = *patch.CurrentTurnID
	}
	if patch.Status != nil {
		adv.Status = *patch.Status
	}
	if patch.EndedAt != nil && adv.EndedAt == nil {
		adv.EndedAt = patch.EndedAt
	}
}
