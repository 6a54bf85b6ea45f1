// Package adventure models a running instance of a plan for a party.
package adventure

import (
	"time"

	"github.com/google/uuid"
)

// Status is the adventure lifecycle state.
type Status string

const (
	StatusWaitingForPlayers Status = "waiting_for_players"
	StatusActive            Status = "active"
	StatusCompleted         Status = "completed"
)

// Player is a party member: the owning user and the character they control.
type Player struct {
	UserID      string `json:"user_id"`
	CharacterID string `json:"character_id"`
	Name        string `json:"name,omitempty"`
}

// Adventure is a running instance of a plan. It is mutated only by turn
// creation and completion events; EndedAt is set exactly once, when no
// next encounter can be found.
type Adventure struct {
	ID            uuid.UUID  `json:"id"`
	PlanID        string     `json:"plan_id"`
	SettingID     string     `json:"setting_id"`
	Status        Status     `json:"status"`
	OwnerID       string     `json:"owner_id"`
	Players       []Player   `json:"players,omitempty"`
	CurrentTurnID uuid.UUID  `json:"current_turn_id,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

// New creates an adventure waiting for players.
func New(settingID, planID, ownerID string) *Adventure {
	return &Adventure{
		ID:        uuid.New(),
		PlanID:    planID,
		SettingID: settingID,
		Status:    StatusWaitingForPlayers,
		OwnerID:   ownerID,
		StartedAt: time.Now(),
	}
}

// HasPlayer reports whether the user is a member of the party. The owner
// is always a member.
func (a *Adventure) HasPlayer(userID string) bool {
	if userID == a.OwnerID {
		return true
	}
	for _, p := range a.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// IsEnded reports whether the adventure has finished.
func (a *Adventure) IsEnded() bool {
	return a.Status == StatusCompleted || a.EndedAt != nil
}
