// Package plan defines the authored adventure graph: Sections contain
// Scenes, Scenes contain Encounters, and Encounters are linked by
// Transitions. Plans are read-only at runtime.
package plan

// Stats holds the six core ability scores for a character template.
type Stats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// NPCRef describes an NPC to instantiate when a turn enters an encounter.
type NPCRef struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Behavior          string   `json:"behavior,omitempty"` // e.g. "aggressive", "wary", "helpful"
	Archetype         string   `json:"archetype,omitempty"`
	Race              string   `json:"race,omitempty"`
	Stats             Stats    `json:"stats,omitempty"`
	Equipment         []string `json:"equipment,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	Spells            []string `json:"spells,omitempty"`
	InitialInitiative *int     `json:"initial_initiative,omitempty"` // nil means roll at turn start
}

// Transition is an edge out of an encounter: a free-text condition and
// the target encounter id.
type Transition struct {
	Condition string `json:"condition"`
	Encounter string `json:"encounter"`
}

// Encounter is a node in the plan graph. An encounter with no transitions
// is terminal.
type Encounter struct {
	ID                  string       `json:"id"`
	Title               string       `json:"title"`
	Intro               string       `json:"intro,omitempty"`
	Instructions        string       `json:"instructions,omitempty"`
	Transitions         []Transition `json:"transitions,omitempty"`
	NPCs                []NPCRef     `json:"npcs,omitempty"`
	SkipInitialNPCTurns bool         `json:"skip_initial_npc_turns,omitempty"`
	ResetHealth         bool         `json:"reset_health,omitempty"`
}

// IsTerminal reports whether no transition leads out of this encounter.
func (e *Encounter) IsTerminal() bool {
	return len(e.Transitions) == 0
}

// TransitionTargets returns the declared target encounter ids, in order.
func (e *Encounter) TransitionTargets() []string {
	targets := make([]string, 0, len(e.Transitions))
	for _, t := range e.Transitions {
		targets = append(targets, t.Encounter)
	}
	return targets
}

// Scene groups encounters within a section.
type Scene struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Encounters []Encounter `json:"encounters"`
}

// Section is the top-level grouping of a plan.
type Section struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Scenes []Scene `json:"scenes"`
}

// Plan is the full authored graph for an adventure.
type Plan struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// FindEncounter scans the whole graph for an encounter by id.
func (p *Plan) FindEncounter(id string) (*Encounter, bool) {
	for si := range p.Sections {
		for sci := range p.Sections[si].Scenes {
			encounters := p.Sections[si].Scenes[sci].Encounters
			for ei := range encounters {
				if encounters[ei].ID == id {
					return &encounters[ei], true
				}
			}
		}
	}
	return nil, false
}

// FirstEncounter returns the opening encounter of the plan, used when an
// adventure starts.
func (p *Plan) FirstEncounter() (*Encounter, bool) {
	for si := range p.Sections {
		for sci := range p.Sections[si].Scenes {
			if len(p.Sections[si].Scenes[sci].Encounters) > 0 {
				return &p.Sections[si].Scenes[sci].Encounters[0], true
			}
		}
	}
	return nil, false
}
