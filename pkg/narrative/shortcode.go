package narrative

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Shortcode is the machine-readable record of a resolved roll, embedded
// inline in narrative prose as
//
//	[DiceRoll:rollType=Stealth Check;baseRoll=11;modifier=+3;result=14;difficulty=15;character=Mira;image=mira.png;success=false]
//
// followed by a newline.
type Shortcode struct {
	RollType   string `json:"roll_type"`
	BaseRoll   int    `json:"base_roll"`
	Modifier   int    `json:"modifier"`
	Result     int    `json:"result"`
	Difficulty int    `json:"difficulty"`
	Character  string `json:"character"`
	Image      string `json:"image,omitempty"`
	Success    bool   `json:"success"`
}

var shortcodeRe = regexp.MustCompile(
	`\[DiceRoll:rollType=([^;\]]*);baseRoll=(-?\d+);modifier=([+-]\d+);result=(-?\d+);difficulty=(-?\d+);character=([^;\]]*);image=([^;\]]*);success=(true|false)\]`)

// String renders the shortcode in wire format, trailing newline included.
// The modifier always carries an explicit sign, zero rendering as +0.
func (s Shortcode) String() string {
	return fmt.Sprintf("[DiceRoll:rollType=%s;baseRoll=%d;modifier=%+d;result=%d;difficulty=%d;character=%s;image=%s;success=%t]\n",
		s.RollType, s.BaseRoll, s.Modifier, s.Result, s.Difficulty, s.Character, s.Image, s.Success)
}

// ParseLast extracts the most recent shortcode from narrative text: the
// last match scanning left to right. Returns false if no shortcode is
// present.
func ParseLast(text string) (*Shortcode, bool) {
	matches := shortcodeRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, false
	}
	m := matches[len(matches)-1]

	baseRoll, _ := strconv.Atoi(m[2])
	modifier, _ := strconv.Atoi(m[3])
	result, _ := strconv.Atoi(m[4])
	difficulty, _ := strconv.Atoi(m[5])

	return &Shortcode{
		RollType:   m[1],
		BaseRoll:   baseRoll,
		Modifier:   modifier,
		Result:     result,
		Difficulty: difficulty,
		Character:  m[6],
		Image:      m[7],
		Success:    m[8] == "true",
	}, true
}

// TextAfterLast returns the narrative text following the most recent
// shortcode, trimmed. If no shortcode is present the whole text is
// returned trimmed.
func TextAfterLast(text string) string {
	locs := shortcodeRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return strings.TrimSpace(text)
	}
	last := locs[len(locs)-1]
	return strings.TrimSpace(text[last[1]:])
}
