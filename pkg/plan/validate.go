package plan

import (
	"fmt"
	"strings"
)

// Validate checks a plan for structural problems: duplicate encounter ids,
// transitions pointing at encounters that do not exist, and an empty graph.
// It collects every problem rather than stopping at the first.
func (p *Plan) Validate() error {
	var errs []string

	seen := make(map[string]bool)
	total := 0
	for _, section := range p.Sections {
		if section.ID == "" {
			errs = append(errs, "section with empty id")
		}
		for _, scene := range section.Scenes {
			for _, enc := range scene.Encounters {
				total++
				if enc.ID == "" {
					errs = append(errs, fmt.Sprintf("encounter %q in scene %q has empty id", enc.Title, scene.ID))
					continue
				}
				if seen[enc.ID] {
					errs = append(errs, fmt.Sprintf("duplicate encounter id %q", enc.ID))
				}
				seen[enc.ID] = true
			}
		}
	}

	if total == 0 {
		errs = append(errs, "plan has no encounters")
	}

	// Transition targets must resolve somewhere in the graph.
	for _, section := range p.Sections {
		for _, scene := range section.Scenes {
			for _, enc := range scene.Encounters {
				for _, tr := range enc.Transitions {
					if tr.Encounter == "" {
						errs = append(errs, fmt.Sprintf("encounter %q has a transition with empty target", enc.ID))
						continue
					}
					if !seen[tr.Encounter] {
						errs = append(errs, fmt.Sprintf("encounter %q transition targets unknown encounter %q", enc.ID, tr.Encounter))
					}
					if tr.Condition == "" {
						errs = append(errs, fmt.Sprintf("encounter %q transition to %q has empty condition", enc.ID, tr.Encounter))
					}
				}
				for _, npc := range enc.NPCs {
					if npc.ID == "" {
						errs = append(errs, fmt.Sprintf("encounter %q has an NPC with empty id", enc.ID))
					}
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("plan validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}
