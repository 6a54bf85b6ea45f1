package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/plan"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <plan.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &PlanValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Plan file is valid!")
}

type PlanValidator struct {
	errors []string
}

func (v *PlanValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("plan file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidID(nameWithoutExt) {
		return fmt.Errorf("plan filename '%s' must be lowercase snake_case (e.g., my_plan.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var p plan.Plan
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&p); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	v.validatePlan(&p)

	if err := p.Validate(); err != nil {
		v.addError(err.Error())
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

// validatePlan checks naming conventions the structural Validate pass
// does not cover.
func (v *PlanValidator) validatePlan(p *plan.Plan) {
	v.validateIDFormat("plan ID", p.ID)

	for _, section := range p.Sections {
		v.validateIDFormat("section ID", section.ID)
		for _, scene := range section.Scenes {
			v.validateIDFormat("scene ID", scene.ID)
			for _, enc := range scene.Encounters {
				v.validateEncounter(&enc)
			}
		}
	}
}

func (v *PlanValidator) validateEncounter(enc *plan.Encounter) {
	v.validateIDFormat("encounter ID", enc.ID)

	if enc.Title == "" {
		v.addError(fmt.Sprintf("encounter '%s' has no title", enc.ID))
	}
	if enc.Intro == "" {
		v.addError(fmt.Sprintf("encounter '%s' has no intro", enc.ID))
	}

	for _, ref := range enc.NPCs {
		v.validateIDFormat("NPC ID", ref.ID)
		if ref.Name == "" {
			v.addError(fmt.Sprintf("NPC '%s' in encounter '%s' has no name", ref.ID, enc.ID))
		}
	}

	for _, tr := range enc.Transitions {
		v.validateIDFormat("transition target", tr.Encounter)
	}
}

func (v *PlanValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *PlanValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
