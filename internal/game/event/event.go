// Package event defines the structured narrative events the simulation emits.
// Events carry a kind tag and payload fields; turning them into text is the
// job of a renderer.
package event

// Kind tags an Event.
type Kind int

const (
	KindRunStarted Kind = iota
	KindAscend
	KindDescend
	KindAltarFound
	KindAltarLost
	KindGold
	KindItems
	KindJunk
	KindAmulet
	KindAstralPlane
	KindMinionTurn
	KindMonster
	KindRound
	KindSpared
	KindSlain
	KindPrayer
	KindMood
	KindDecision
	KindInvalidDecision
	KindHealed
	KindHealFailed
	KindIgnored
	KindSacrifice
	KindBoon
	KindPunish
	KindMinions
	KindWithdrawn
	KindOffering
	KindEndgame
	KindDied
	KindQuit
	KindWon
)

var kindNames = [...]string{
	KindRunStarted:      "run_started",
	KindAscend:          "ascend",
	KindDescend:         "descend",
	KindAltarFound:      "altar_found",
	KindAltarLost:       "altar_lost",
	KindGold:            "gold",
	KindItems:           "items",
	KindJunk:            "junk",
	KindAmulet:          "amulet",
	KindAstralPlane:     "astral_plane",
	KindMinionTurn:      "minion_turn",
	KindMonster:         "monster",
	KindRound:           "round",
	KindSpared:          "spared",
	KindSlain:           "slain",
	KindPrayer:          "prayer",
	KindMood:            "mood",
	KindDecision:        "decision",
	KindInvalidDecision: "invalid_decision",
	KindHealed:          "healed",
	KindHealFailed:      "heal_failed",
	KindIgnored:         "ignored",
	KindSacrifice:       "sacrifice",
	KindBoon:            "boon",
	KindPunish:          "punish",
	KindMinions:         "minions",
	KindWithdrawn:       "withdrawn",
	KindOffering:        "offering",
	KindEndgame:         "endgame",
	KindDied:            "died",
	KindQuit:            "quit",
	KindWon:             "won",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Event is one narrative occurrence. Only the fields relevant to Kind are set.
//
//   - Amount: gold, item points, boon points, score gained, damage dealt.
//   - Level/FromLevel: dungeon levels for ascend/descend.
//   - MonsterHP/Toughness/Multiplier/Taken: combat figures.
//   - Prayer: the prayer being answered, for prayer, mood, decision and ignored events.
//   - Name: mood, punishment, option key, boon size or sacrifice tier.
//   - Variant: index of a flavor line picked by the engine.
//   - Names: related names (the deity's rivals on the endgame, offered options).
type Event struct {
	Kind       Kind
	Amount     int
	Level      int
	FromLevel  int
	MonsterHP  int
	Toughness  int
	Multiplier int
	Taken      int
	Prayer     string
	Name       string
	Variant    int
	Names      []string
}

// Recorder accumulates events emitted during one turn.
// It is owned by a single run and is not safe for concurrent use.
type Recorder struct {
	events []Event
}

// Emit appends e.
func (r *Recorder) Emit(e Event) {
	r.events = append(r.events, e)
}

// Drain returns the accumulated events and resets the recorder.
//
// Postcondition: A following Drain returns nil until Emit is called again.
func (r *Recorder) Drain() []Event {
	out := r.events
	r.events = nil
	return out
}

// Pending returns a copy of the events emitted since the last Drain, leaving
// them in place.
func (r *Recorder) Pending() []Event {
	return append([]Event(nil), r.events...)
}

// Len returns the number of events waiting to be drained.
func (r *Recorder) Len() int { return len(r.events) }
