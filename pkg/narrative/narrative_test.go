package narrative

import "testing"

func TestAppend(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		fragment string
		want     string
	}{
		{"both empty", "", "", ""},
		{"empty existing", "", "The door creaks open.", "The door creaks open."},
		{"empty fragment", "The door creaks open.", "", "The door creaks open."},
		{"joins with blank line", "First.", "Second.", "First.\n\nSecond."},
		{"trims boundaries", "First.\n\n", "\n  Second.  ", "First.\n\nSecond."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Append(tt.existing, tt.fragment); got != tt.want {
				t.Errorf("Append(%q, %q) = %q, want %q", tt.existing, tt.fragment, got, tt.want)
			}
		})
	}
}

func TestAppendAssociativity(t *testing.T) {
	a, b, c := "One.", "Two.", "Three."
	chained := Append(Append(a, b), c)
	joined := Join(a, b, c)
	if chained != joined {
		t.Errorf("Append chain = %q, Join = %q", chained, joined)
	}
	if chained != "One.\n\nTwo.\n\nThree." {
		t.Errorf("chain = %q", chained)
	}

	// Empty fragments are filtered, not double-spaced.
	if got := Join(a, "", c); got != "One.\n\nThree." {
		t.Errorf("Join with empty = %q", got)
	}
}

func TestNormalizeRollType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"stealth check", "Stealth Check"},
		{"Perception Check", "Perception Check"},
		{"null", ""},
		{"none", ""},
		{"", ""},
		{"  NONE  ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeRollType(tt.in); got != tt.want {
			t.Errorf("NormalizeRollType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
