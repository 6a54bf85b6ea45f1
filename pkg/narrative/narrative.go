// Package narrative holds the text utilities for the append-only turn
// narrative: fragment joining, the inline DiceRoll shortcode grammar, and
// the first-class roll event log the shortcode is rendered from.
package narrative

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Append joins a new fragment onto existing narrative text with exactly one
// blank line between non-empty fragments. Both sides are trimmed at the
// boundary; empty fragments are dropped.
func Append(existing, fragment string) string {
	existing = strings.TrimSpace(existing)
	fragment = strings.TrimSpace(fragment)
	if existing == "" {
		return fragment
	}
	if fragment == "" {
		return existing
	}
	return existing + "\n\n" + fragment
}

// Join appends all fragments in order, dropping empties.
func Join(fragments ...string) string {
	out := ""
	for _, f := range fragments {
		out = Append(out, f)
	}
	return out
}

var titleCaser = cases.Title(language.English)

// NormalizeRollType canonicalizes a roll type name to title case, e.g.
// "stealth check" -> "Stealth Check". Empty and null-like values collapse
// to the empty string.
func NormalizeRollType(rollType string) string {
	rollType = strings.TrimSpace(rollType)
	switch strings.ToLower(rollType) {
	case "", "null", "none":
		return ""
	}
	return titleCaser.String(rollType)
}
