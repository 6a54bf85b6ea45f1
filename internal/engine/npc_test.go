package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

func TestAdvanceNPCsStopsAtPlayer(t *testing.T) {
	w := newWorld(t)
	w.seedTurn(t, []*turn.Character{
		{ID: "npc_a", Type: turn.TypeNPC, Name: "Archer", HealthPercent: 100, Initiative: 20},
		{ID: "npc_b", Type: turn.TypeNPC, Name: "Brute", HealthPercent: 100, Initiative: 15},
		{ID: "pc_mira", Type: turn.TypePC, UserID: "alice", Name: "Mira", HealthPercent: 100, Initiative: 10},
		{ID: "npc_c", Type: turn.TypeNPC, Name: "Cutpurse", HealthPercent: 100, Initiative: 5},
	})

	require.NoError(t, w.engine.AdvanceNPCs(context.Background(), w.turn.ID))

	tn := w.freshTurn(t)
	a, _ := tn.Character("npc_a")
	b, _ := tn.Character("npc_b")
	mira, _ := tn.Character("pc_mira")
	c, _ := tn.Character("npc_c")
	assert.True(t, a.IsComplete)
	assert.True(t, b.IsComplete)
	assert.False(t, mira.IsComplete)
	// npc_c acts after the player, so the pass stops before it.
	assert.False(t, c.IsComplete)
}

func TestAdvanceNPCsNoneWhenPlayerLeads(t *testing.T) {
	w := newWorld(t)
	w.seedTurn(t, []*turn.Character{
		{ID: "pc_mira", Type: turn.TypePC, UserID: "alice", Name: "Mira", HealthPercent: 100, Initiative: 20},
		{ID: "npc_a", Type: turn.TypeNPC, Name: "Archer", HealthPercent: 100, Initiative: 15},
	})

	before := w.freshTurn(t)
	require.NoError(t, w.engine.AdvanceNPCs(context.Background(), w.turn.ID))

	after := w.freshTurn(t)
	a, _ := after.Character("npc_a")
	assert.False(t, a.IsComplete)
	assert.Equal(t, before.Version, after.Version)
}

func TestAdvanceNPCsSkipsDowned(t *testing.T) {
	w := newWorld(t)
	w.seedTurn(t, []*turn.Character{
		{ID: "npc_a", Type: turn.TypeNPC, Name: "Archer", HealthPercent: 0, Status: turn.StatusDead, Initiative: 20},
		{ID: "npc_b", Type: turn.TypeNPC, Name: "Brute", HealthPercent: 100, Initiative: 15},
	})

	before := w.freshTurn(t)
	require.NoError(t, w.engine.AdvanceNPCs(context.Background(), w.turn.ID))

	tn := w.freshTurn(t)
	a, _ := tn.Character("npc_a")
	b, _ := tn.Character("npc_b")
	assert.True(t, a.IsComplete)
	assert.True(t, b.IsComplete)
	// The downed NPC is marked done without narrating anything.
	assert.NotContains(t, tn.Narrative, "Archer")
	assert.Contains(t, tn.Narrative, "Brute")
	assert.Greater(t, tn.Version, before.Version)
}

func TestNPCActionAppliesEffects(t *testing.T) {
	w := newWorld(t)
	w.oracle.GenerateObjectFunc = promptRouter(map[string]string{
		markNPCAction: `{
			"action_summary": "tosses Mira a rusty key",
			"narrative": "The guard shrugs and tosses Mira a rusty key.",
			"effects": [{"target_id": "pc_mira", "equipment_to_add": ["rusty key"]}]
		}`,
	})
	w.seedTurn(t, []*turn.Character{
		{ID: "npc_guard", Type: turn.TypeNPC, Name: "Gate Guard", HealthPercent: 100, Initiative: 20},
		{ID: "pc_mira", Type: turn.TypePC, UserID: "alice", Name: "Mira", HealthPercent: 100, Initiative: 10},
	})

	require.NoError(t, w.engine.AdvanceNPCs(context.Background(), w.turn.ID))

	tn := w.freshTurn(t)
	mira, _ := tn.Character("pc_mira")
	assert.Contains(t, mira.Equipment, "rusty key")
	assert.Contains(t, tn.Narrative, "rusty key")
}

func TestNPCRolledActionDamageClamps(t *testing.T) {
	// Die face 19 on the scripted roller.
	w := newWorld(t, 19)
	w.oracle.GenerateObjectFunc = promptRouter(map[string]string{
		markNPCAction: `{
			"action_summary": "attack the intruder with a spear",
			"narrative": "The guard levels his spear and charges."
		}`,
		markAssess:      `{"roll_type": "Attack Roll", "difficulty": 12}`,
		markSituational: `{"modifier": 0}`,
		markNPCOutcome: `{
			"narrative": "The spear takes Mira square in the shoulder.",
			"effects": [{"target_id": "pc_mira", "health_percent_delta": -130}]
		}`,
	})
	w.seedTurn(t, []*turn.Character{
		{ID: "npc_guard", Type: turn.TypeNPC, Name: "Gate Guard",
			Stats:         statsWithStrength(14),
			HealthPercent: 100, Initiative: 20},
		{ID: "pc_mira", Type: turn.TypePC, UserID: "alice", Name: "Mira", HealthPercent: 90, Initiative: 10},
	})

	require.NoError(t, w.engine.AdvanceNPCs(context.Background(), w.turn.ID))

	tn := w.freshTurn(t)
	mira, _ := tn.Character("pc_mira")
	assert.Equal(t, 0, mira.HealthPercent)
	assert.Equal(t, turn.StatusDead, mira.Status)

	sc, ok := tn.LatestRoll()
	require.True(t, ok)
	assert.Equal(t, "Attack Roll", sc.RollType)
	assert.Equal(t, 19, sc.BaseRoll)
	assert.True(t, sc.Success)
	assert.Equal(t, "Gate Guard", sc.Character)
}

func TestNPCOracleFailureHoldsPosition(t *testing.T) {
	w := newWorld(t)
	// Default mock: every structured call reports no object.
	w.seedTurn(t, []*turn.Character{
		{ID: "npc_guard", Type: turn.TypeNPC, Name: "Gate Guard", HealthPercent: 100, Initiative: 20},
		{ID: "pc_mira", Type: turn.TypePC, UserID: "alice", Name: "Mira", HealthPercent: 100, Initiative: 10},
	})

	require.NoError(t, w.engine.AdvanceNPCs(context.Background(), w.turn.ID))

	tn := w.freshTurn(t)
	g, _ := tn.Character("npc_guard")
	assert.True(t, g.IsComplete)
	assert.Contains(t, tn.Narrative, "holds position")
}
