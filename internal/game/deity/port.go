package deity

import (
	"context"

	"github.com/cory-johannsen/whatfools/internal/game/character"
)

// OptionKey names one answer to a prayer.
type OptionKey string

const (
	OptionHeal   OptionKey = "heal"
	OptionIgnore OptionKey = "ignore"
	OptionSmite  OptionKey = "smite"
	OptionBoon   OptionKey = "boon"
	// OptionWithdraw abandons the run; it is legal at every prompt.
	OptionWithdraw OptionKey = "withdraw"
)

// Option is one entry of the menu presented to the decision port.
type Option struct {
	Key OptionKey
	// Shortcut is the single letter a line-oriented frontend accepts for Key.
	Shortcut string
}

var shortcuts = map[OptionKey]string{
	OptionHeal:     "h",
	OptionIgnore:   "i",
	OptionSmite:    "s",
	OptionBoon:     "g",
	OptionWithdraw: "q",
}

func optionsFor(keys ...OptionKey) []Option {
	out := make([]Option, 0, len(keys))
	for _, k := range keys {
		out = append(out, Option{Key: k, Shortcut: shortcuts[k]})
	}
	return out
}

// Prompt describes the decision the deity must take.
type Prompt struct {
	Kind PrayerKind
	Mood Mood
	// Trouble is the severity of a help prayer, 1 to 3; zero otherwise.
	Trouble int
	// Deity is the name of the god being prayed to.
	Deity string
	// Epithet is the insult a hostile deity uses for the worshipper; empty otherwise.
	Epithet    string
	Worshipper character.Snapshot
}

// DecisionPort is the external controller that answers prayers.
//
// PresentOptions blocks until a choice is made. It must return one of the keys
// of options or OptionWithdraw; any other key is rejected and the same prompt
// is presented again. A non-nil error aborts the turn.
type DecisionPort interface {
	PresentOptions(ctx context.Context, prompt Prompt, options []Option) (OptionKey, error)
}

// MoodPolicy is a DecisionPort that always takes the option the mood puts
// first: heal or boon when pleased, ignore when indifferent, smite when hostile.
type MoodPolicy struct{}

// PresentOptions returns the first option.
//
// Precondition: options must be non-empty.
func (MoodPolicy) PresentOptions(ctx context.Context, _ Prompt, options []Option) (OptionKey, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(options) == 0 {
		panic("deity: MoodPolicy.PresentOptions precondition violated: options must be non-empty")
	}
	return options[0].Key, nil
}

// PortFunc adapts a function to the DecisionPort interface.
type PortFunc func(ctx context.Context, prompt Prompt, options []Option) (OptionKey, error)

// PresentOptions calls f.
func (f PortFunc) PresentOptions(ctx context.Context, prompt Prompt, options []Option) (OptionKey, error) {
	return f(ctx, prompt, options)
}
