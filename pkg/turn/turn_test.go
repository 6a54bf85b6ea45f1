package turn

import (
	"testing"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/narrative"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
)

func TestIsComplete(t *testing.T) {
	tn := New(uuid.New(), "enc_gate", "The Gate", 1)
	tn.Characters = []*Character{
		{ID: "pc1", Type: TypePC, IsComplete: true},
		{ID: "npc1", Type: TypeNPC, IsComplete: false},
	}

	if tn.IsComplete() {
		t.Error("IsComplete() = true with a pending character")
	}

	tn.Characters[1].IsComplete = true
	if !tn.IsComplete() {
		t.Error("IsComplete() = false with all characters complete")
	}

	empty := New(uuid.New(), "enc_gate", "The Gate", 1)
	if !empty.IsComplete() {
		t.Error("IsComplete() = false for empty roster")
	}
}

func TestPendingByInitiative(t *testing.T) {
	tn := New(uuid.New(), "enc_gate", "The Gate", 1)
	tn.Characters = []*Character{
		{ID: "a", Type: TypeNPC, Initiative: 10},
		{ID: "b", Type: TypeNPC, Initiative: 20},
		{ID: "c", Type: TypePC, Initiative: 15},
		{ID: "d", Type: TypeNPC, Initiative: 15}, // tie with c, listed after
		{ID: "done", Type: TypeNPC, Initiative: 19, IsComplete: true},
		{ID: "replied", Type: TypePC, Initiative: 18, HasReplied: true},
	}

	pending := tn.PendingByInitiative()
	got := make([]string, 0, len(pending))
	for _, c := range pending {
		got = append(got, c.ID)
	}

	want := []string{"b", "c", "d", "a"}
	if len(got) != len(want) {
		t.Fatalf("pending = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pending[%d] = %s, want %s (stable tie order)", i, got[i], want[i])
		}
	}
}

func TestApplyEffectHealthClamp(t *testing.T) {
	tn := New(uuid.New(), "enc_gate", "The Gate", 1)
	tn.Characters = []*Character{
		{ID: "pc1", Type: TypePC, HealthPercent: 40},
	}

	delta := func(d int) *int { return &d }

	tn.ApplyEffect(Effect{TargetID: "pc1", HealthPercentDelta: delta(-200)})
	c, _ := tn.Character("pc1")
	if c.HealthPercent != 0 {
		t.Errorf("health = %d, want 0 (clamped)", c.HealthPercent)
	}
	if c.Status != StatusDead {
		t.Errorf("status = %q, want dead at zero health", c.Status)
	}

	c.Status = ""
	tn.ApplyEffect(Effect{TargetID: "pc1", HealthPercentDelta: delta(500)})
	if c.HealthPercent != 100 {
		t.Errorf("health = %d, want 100 (clamped)", c.HealthPercent)
	}
}

func TestApplyEffectStatusAndEquipment(t *testing.T) {
	tn := New(uuid.New(), "enc_gate", "The Gate", 1)
	tn.Characters = []*Character{
		{ID: "npc1", Type: TypeNPC, HealthPercent: 100},
	}

	tn.ApplyEffect(Effect{TargetID: "npc1", Status: "frightened", EquipmentToAdd: []string{"rusty key"}})
	c, _ := tn.Character("npc1")
	if c.Status != "frightened" {
		t.Errorf("status = %q, want frightened", c.Status)
	}
	if len(c.Equipment) != 1 || c.Equipment[0] != "rusty key" {
		t.Errorf("equipment = %v, want [rusty key]", c.Equipment)
	}

	// Unknown target is a no-op, not a panic.
	tn.ApplyEffect(Effect{TargetID: "ghost", Status: "angry"})
}

func TestSetHealth(t *testing.T) {
	tn := New(uuid.New(), "enc_gate", "The Gate", 1)
	tn.Characters = []*Character{{ID: "npc1", Type: TypeNPC, HealthPercent: 80}}

	tn.SetHealth("npc1", 130, "")
	c, _ := tn.Character("npc1")
	if c.HealthPercent != 100 {
		t.Errorf("health = %d, want 100", c.HealthPercent)
	}

	tn.SetHealth("npc1", -5, "")
	if c.HealthPercent != 0 || c.Status != StatusDead {
		t.Errorf("health = %d status = %q, want 0/dead", c.HealthPercent, c.Status)
	}
}

func TestRecordRollAndLatest(t *testing.T) {
	tn := New(uuid.New(), "enc_gate", "The Gate", 1)
	tn.AppendNarrative("The party approaches.")

	sc := narrative.Shortcode{
		RollType: "Stealth Check", BaseRoll: 11, Modifier: 3,
		Result: 14, Difficulty: 15, Character: "Mira",
	}
	tn.RecordRoll(sc)

	if len(tn.RollEvents) != 1 || tn.RollEvents[0].Seq != 1 {
		t.Fatalf("roll events = %+v, want one event with seq 1", tn.RollEvents)
	}

	latest, ok := tn.LatestRoll()
	if !ok || latest.RollType != "Stealth Check" {
		t.Errorf("LatestRoll = %+v, want the recorded stealth check", latest)
	}

	parsed, ok := narrative.ParseLast(tn.Narrative)
	if !ok || parsed.Result != 14 {
		t.Errorf("narrative shortcode = %+v, want result 14", parsed)
	}
}

func TestAbilityModifier(t *testing.T) {
	tests := []struct {
		score int
		want  int
	}{
		{1, -5}, {7, -2}, {8, -1}, {9, -1}, {10, 0}, {11, 0},
		{12, 1}, {15, 2}, {16, 3}, {20, 5},
	}
	for _, tt := range tests {
		if got := AbilityModifier(tt.score); got != tt.want {
			t.Errorf("AbilityModifier(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestCharacterActor(t *testing.T) {
	c := &Character{
		ID:            "pc1",
		Type:          TypePC,
		Stats:         plan.Stats{Strength: 8, Dexterity: 16, Constitution: 12, Intelligence: 10, Wisdom: 13, Charisma: 14},
		HealthPercent: 60,
	}

	actor, err := c.Actor()
	if err != nil {
		t.Fatalf("Actor() error: %v", err)
	}
	if dex, ok := actor.Attribute("dexterity"); !ok || dex != 16 {
		t.Errorf("dexterity = %d (%v), want 16", dex, ok)
	}
	if actor.HP() != 60 {
		t.Errorf("HP = %d, want 60", actor.HP())
	}
}

func TestNewNPCFromRef(t *testing.T) {
	init := 12
	ref := plan.NPCRef{
		ID: "npc_guard", Name: "Gate Guard", Behavior: "wary",
		Equipment: []string{"halberd"}, InitialInitiative: &init,
	}

	c := NewNPCFromRef(ref)
	if c.Type != TypeNPC || c.HealthPercent != 100 {
		t.Errorf("NPC = %+v, want npc type with full health", c)
	}
	if c.Initiative != 12 {
		t.Errorf("initiative = %d, want 12 from ref", c.Initiative)
	}

	// No authored initiative: left at zero for the caller to roll.
	c2 := NewNPCFromRef(plan.NPCRef{ID: "npc2", Name: "Bandit"})
	if c2.Initiative != 0 {
		t.Errorf("initiative = %d, want 0", c2.Initiative)
	}
}

func TestIsOut(t *testing.T) {
	if (&Character{HealthPercent: 50}).IsOut() {
		t.Error("healthy character reported out")
	}
	if !(&Character{HealthPercent: 0}).IsOut() {
		t.Error("zero-health character not reported out")
	}
	if !(&Character{HealthPercent: 80, Status: StatusFled}).IsOut() {
		t.Error("fled character not reported out")
	}
}
