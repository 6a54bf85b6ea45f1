package narrative

// RollEvent is a first-class record of a resolved roll within a turn,
// ordered by Seq. The inline shortcode in the narrative is a rendered
// projection of this event; production logic reads the event log and only
// falls back to parsing shortcodes out of prose for narratives written
// before the log existed.
type RollEvent struct {
	Seq       int       `json:"seq"`
	Shortcode Shortcode `json:"shortcode"`
}

// LatestRoll returns the most recent roll for a turn: the highest-seq
// event if any exist, otherwise the last shortcode parsed from the
// narrative text.
func LatestRoll(events []RollEvent, text string) (*Shortcode, bool) {
	if len(events) > 0 {
		sc := events[len(events)-1].Shortcode
		return &sc, true
	}
	return ParseLast(text)
}

// NextEvent appends a roll to the event log, assigning the next sequence
// number.
func NextEvent(events []RollEvent, sc Shortcode) []RollEvent {
	seq := 1
	if len(events) > 0 {
		seq = events[len(events)-1].Seq + 1
	}
	return append(events, RollEvent{Seq: seq, Shortcode: sc})
}
