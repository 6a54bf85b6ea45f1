package turn

// Effect is a transient instruction to mutate one character's state,
// produced by action resolution and never persisted on its own.
type Effect struct {
	TargetID           string   `json:"target_id"`
	HealthPercentDelta *int     `json:"health_percent_delta,omitempty"`
	Status             string   `json:"status,omitempty"`
	EquipmentToAdd     []string `json:"equipment_to_add,omitempty"`
}

// ApplyEffect mutates the targeted character. Health is clamped to
// [0, 100]; a character reduced to 0 is marked dead unless the effect
// sets an explicit status. Unknown targets are ignored.
func (t *Turn) ApplyEffect(e Effect) {
	c, ok := t.Character(e.TargetID)
	if !ok {
		return
	}

	if e.HealthPercentDelta != nil {
		c.HealthPercent += *e.HealthPercentDelta
		if c.HealthPercent < 0 {
			c.HealthPercent = 0
		}
		if c.HealthPercent > 100 {
			c.HealthPercent = 100
		}
	}

	switch {
	case e.Status != "":
		c.Status = e.Status
	case c.HealthPercent == 0 && c.Status == "":
		c.Status = StatusDead
	}

	c.Equipment = append(c.Equipment, e.EquipmentToAdd...)
}

// SetHealth sets a character's health directly, clamped to [0, 100],
// marking death at zero. Used by the reconciliation pass, which reports
// absolute values rather than deltas.
func (t *Turn) SetHealth(characterID string, healthPercent int, status string) {
	c, ok := t.Character(characterID)
	if !ok {
		return
	}
	if healthPercent < 0 {
		healthPercent = 0
	}
	if healthPercent > 100 {
		healthPercent = 100
	}
	c.HealthPercent = healthPercent
	if status != "" {
		c.Status = status
	} else if healthPercent == 0 {
		c.Status = StatusDead
	}
}
