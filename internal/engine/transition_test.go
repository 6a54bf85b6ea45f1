package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

func TestAdvanceTurnRequiresCompletion(t *testing.T) {
	w := newWorld(t)
	_, err := w.engine.AdvanceTurn(context.Background(), w.turn.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdvanceTurnOracleFailureIsFatal(t *testing.T) {
	w := newWorld(t)
	w.seedTurn(t, completeAll(w.freshTurn(t).Characters))
	// Default mock reports no object for the transition decision.
	_, err := w.engine.AdvanceTurn(context.Background(), w.turn.ID)
	assert.ErrorIs(t, err, ErrOracle)

	// The turn stays advanceable: a later retry with a working oracle
	// succeeds.
	w.oracle.GenerateObjectFunc = promptRouter(map[string]string{
		markTransition: `{"next_encounter_id": "enc_gate", "narrative": "The standoff continues."}`,
	})
	res, err := w.engine.AdvanceTurn(context.Background(), w.turn.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusTurnAdvanced, res.Status)
}

func TestAdvanceTurnSameEncounter(t *testing.T) {
	w := newWorld(t, 12, 7)
	tn := w.freshTurn(t)
	// One character died during the turn.
	dead := &turn.Character{ID: "npc_downed", Type: turn.TypeNPC, Name: "Downed Guard", HealthPercent: 0, Status: turn.StatusDead}
	roster := append(completeAll(tn.Characters), dead)
	dead.HasReplied, dead.IsComplete = true, true
	w.seedTurn(t, roster)

	w.oracle.GenerateObjectFunc = promptRouter(map[string]string{
		markTransition: `{"next_encounter_id": "enc_gate", "narrative": "The guards close ranks."}`,
	})

	res, err := w.engine.AdvanceTurn(context.Background(), w.turn.ID)
	require.NoError(t, err)
	require.Equal(t, StatusTurnAdvanced, res.Status)
	next := res.Turn

	assert.Equal(t, "enc_gate", next.EncounterID)
	assert.Equal(t, 2, next.Order)
	assert.False(t, next.IsFinalEncounter)
	assert.Contains(t, next.Narrative, "The guards close ranks.")

	// Dead roster members are dropped; survivors come back reset.
	_, ok := next.Character("npc_downed")
	assert.False(t, ok)
	mira, ok := next.Character("pc_mira")
	require.True(t, ok)
	assert.False(t, mira.HasReplied)
	assert.False(t, mira.IsComplete)
	assert.Nil(t, mira.RollRequired)
	assert.Nil(t, mira.RollResult)

	adv := w.freshAdventure(t)
	assert.Equal(t, next.ID, adv.CurrentTurnID)
	assert.False(t, adv.IsEnded())
}

func TestAdvanceTurnToNewEncounter(t *testing.T) {
	w := newWorld(t)
	tn := w.freshTurn(t)
	roster := completeAll(tn.Characters)
	// The PC took a beating in the gate fight.
	mira, _ := tn.Character("pc_mira")
	mira.HealthPercent = 35
	w.seedTurn(t, roster)

	w.oracle.GenerateObjectFunc = promptRouter(map[string]string{
		markTransition: `{"next_encounter_id": "enc_courtyard", "narrative": "The gate swings open."}`,
	})

	res, err := w.engine.AdvanceTurn(context.Background(), w.turn.ID)
	require.NoError(t, err)
	next := res.Turn

	assert.Equal(t, "enc_courtyard", next.EncounterID)
	assert.Equal(t, "The Courtyard", next.Title)
	// Terminal: the courtyard declares no transitions.
	assert.True(t, next.IsFinalEncounter)
	assert.Contains(t, next.Narrative, "The gate swings open.")
	assert.Contains(t, next.Narrative, "The courtyard is silent.")

	// The old encounter's NPC does not carry over; the target's refs do.
	_, ok := next.Character("npc_guard")
	assert.False(t, ok)
	captain, ok := next.Character("npc_captain")
	require.True(t, ok)
	assert.Equal(t, "Watch Captain", captain.Name)
	assert.Equal(t, 100, captain.HealthPercent)

	// ResetHealth restores the surviving PC.
	mira2, ok := next.Character("pc_mira")
	require.True(t, ok)
	assert.Equal(t, 100, mira2.HealthPercent)
}

func TestAdvanceTurnUndeclaredTargetStays(t *testing.T) {
	w := newWorld(t)
	w.seedTurn(t, completeAll(w.freshTurn(t).Characters))

	w.oracle.GenerateObjectFunc = promptRouter(map[string]string{
		markTransition: `{"next_encounter_id": "enc_dragon_lair", "narrative": "A dragon appears!"}`,
	})

	res, err := w.engine.AdvanceTurn(context.Background(), w.turn.ID)
	require.NoError(t, err)
	require.Equal(t, StatusTurnAdvanced, res.Status)
	// The invented encounter is ignored and the scene holds.
	assert.Equal(t, "enc_gate", res.Turn.EncounterID)

	adv := w.freshAdventure(t)
	assert.False(t, adv.IsEnded())
}

func TestAdvanceTurnDeclaredDeadEndCompletes(t *testing.T) {
	w := newWorld(t)
	// Move the party to the road, whose only transition points at an
	// encounter the plan never defines.
	tn := w.freshTurn(t)
	road := turn.New(w.adv.ID, "enc_road", "The Road", tn.Order+1)
	road.Characters = completeAll([]*turn.Character{
		{ID: "pc_mira", Type: turn.TypePC, UserID: "alice", Name: "Mira", HealthPercent: 100, Initiative: 10},
	})
	ctx := context.Background()
	require.NoError(t, w.store.CreateTurn(ctx, road))

	w.oracle.GenerateObjectFunc = promptRouter(map[string]string{
		markTransition: `{"next_encounter_id": "enc_nowhere", "narrative": "The road simply ends."}`,
	})

	res, err := w.engine.AdvanceTurn(ctx, road.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAdventureComplete, res.Status)
	assert.Nil(t, res.Turn)

	adv := w.freshAdventure(t)
	assert.True(t, adv.IsEnded())
	require.NotNil(t, adv.EndedAt)
	firstEnd := *adv.EndedAt

	// A second advance is rejected and EndedAt does not move.
	_, err = w.engine.AdvanceTurn(ctx, road.ID)
	assert.ErrorIs(t, err, ErrValidation)
	adv = w.freshAdventure(t)
	assert.Equal(t, firstEnd, *adv.EndedAt)
}

func TestAdvanceTurnTerminalEncounterCompletes(t *testing.T) {
	w := newWorld(t)
	// Move the party to the courtyard, which declares no transitions.
	tn := w.freshTurn(t)
	courtyard := turn.New(w.adv.ID, "enc_courtyard", "The Courtyard", tn.Order+1)
	courtyard.IsFinalEncounter = true
	courtyard.Characters = completeAll([]*turn.Character{
		{ID: "pc_mira", Type: turn.TypePC, UserID: "alice", Name: "Mira", HealthPercent: 100, Initiative: 10},
	})
	ctx := context.Background()
	require.NoError(t, w.store.CreateTurn(ctx, courtyard))

	// No oracle routes: the terminal encounter must end the adventure
	// without asking for a transition.
	res, err := w.engine.AdvanceTurn(ctx, courtyard.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAdventureComplete, res.Status)
	assert.Nil(t, res.Turn)

	adv := w.freshAdventure(t)
	assert.True(t, adv.IsEnded())
	require.NotNil(t, adv.EndedAt)

	_, err = w.engine.AdvanceTurn(ctx, courtyard.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdvanceTurnSkipsInitialNPCTurns(t *testing.T) {
	w := newWorld(t)
	tn := w.freshTurn(t)
	start := turn.New(w.adv.ID, "enc_gate", "The Gate", tn.Order+1)
	start.Characters = completeAll([]*turn.Character{
		{ID: "pc_mira", Type: turn.TypePC, UserID: "alice", Name: "Mira", HealthPercent: 100, Initiative: 10},
		{ID: "npc_guard", Type: turn.TypeNPC, Name: "Gate Guard", HealthPercent: 100, Initiative: 20},
	})
	ctx := context.Background()
	require.NoError(t, w.store.CreateTurn(ctx, start))

	calls := 0
	w.oracle.GenerateObjectFunc = func(c context.Context, prompt string, out any) error {
		if err := promptRouter(map[string]string{
			markTransition: `{"next_encounter_id": "enc_road", "narrative": "They slip away south."}`,
		})(c, prompt, out); err == nil {
			return nil
		}
		calls++
		return services.ErrNoObject
	}

	res, err := w.engine.AdvanceTurn(ctx, start.ID)
	require.NoError(t, err)
	assert.Equal(t, "enc_road", res.Turn.EncounterID)

	// The bandit leads on initiative but the road opts out of initial
	// NPC turns: no NPC oracle calls, nothing acted.
	bandit, ok := res.Turn.Character("npc_bandit")
	require.True(t, ok)
	assert.Equal(t, 20, bandit.Initiative)
	assert.False(t, bandit.IsComplete)
	assert.Zero(t, calls)
}
