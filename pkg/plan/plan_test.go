package plan

import (
	"encoding/json"
	"strings"
	"testing"
)

func testPlan() *Plan {
	return &Plan{
		ID:    "test_plan",
		Title: "Test Plan",
		Sections: []Section{
			{
				ID:    "s1",
				Title: "Section One",
				Scenes: []Scene{
					{
						ID:    "sc1",
						Title: "Scene One",
						Encounters: []Encounter{
							{
								ID:    "enc_gate",
								Title: "The Gate",
								Intro: "A rusted gate bars the way.",
								Transitions: []Transition{
									{Condition: "The party opens the gate", Encounter: "enc_courtyard"},
								},
							},
							{
								ID:    "enc_courtyard",
								Title: "The Courtyard",
								NPCs: []NPCRef{
									{ID: "npc_guard", Name: "Gate Guard", Behavior: "wary"},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestFindEncounter(t *testing.T) {
	p := testPlan()

	enc, ok := p.FindEncounter("enc_courtyard")
	if !ok {
		t.Fatal("FindEncounter(enc_courtyard) not found")
	}
	if enc.Title != "The Courtyard" {
		t.Errorf("Title = %q, want %q", enc.Title, "The Courtyard")
	}

	if _, ok := p.FindEncounter("enc_missing"); ok {
		t.Error("FindEncounter(enc_missing) found, want not found")
	}
}

func TestFirstEncounter(t *testing.T) {
	p := testPlan()
	enc, ok := p.FirstEncounter()
	if !ok {
		t.Fatal("FirstEncounter() not found")
	}
	if enc.ID != "enc_gate" {
		t.Errorf("FirstEncounter().ID = %q, want enc_gate", enc.ID)
	}

	empty := &Plan{ID: "empty"}
	if _, ok := empty.FirstEncounter(); ok {
		t.Error("FirstEncounter() on empty plan found an encounter")
	}
}

func TestIsTerminal(t *testing.T) {
	p := testPlan()
	gate, _ := p.FindEncounter("enc_gate")
	if gate.IsTerminal() {
		t.Error("enc_gate should not be terminal")
	}
	courtyard, _ := p.FindEncounter("enc_courtyard")
	if !courtyard.IsTerminal() {
		t.Error("enc_courtyard should be terminal")
	}
}

func TestValidate(t *testing.T) {
	if err := testPlan().Validate(); err != nil {
		t.Fatalf("valid plan failed validation: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Plan)
		wantErr string
	}{
		{
			name: "unknown transition target",
			mutate: func(p *Plan) {
				p.Sections[0].Scenes[0].Encounters[0].Transitions[0].Encounter = "enc_nowhere"
			},
			wantErr: "unknown encounter",
		},
		{
			name: "duplicate encounter id",
			mutate: func(p *Plan) {
				p.Sections[0].Scenes[0].Encounters[1].ID = "enc_gate"
			},
			wantErr: "duplicate encounter id",
		},
		{
			name: "empty condition",
			mutate: func(p *Plan) {
				p.Sections[0].Scenes[0].Encounters[0].Transitions[0].Condition = ""
			},
			wantErr: "empty condition",
		},
		{
			name: "no encounters",
			mutate: func(p *Plan) {
				p.Sections = nil
			},
			wantErr: "no encounters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPlan()
			tt.mutate(p)
			err := p.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPlanJSONRoundTrip(t *testing.T) {
	p := testPlan()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Plan
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded.FindEncounter("enc_gate"); !ok {
		t.Error("decoded plan missing enc_gate")
	}
}
