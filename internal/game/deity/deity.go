// Package deity implements the prayer protocol: the deity's mood, the options it
// is offered through a DecisionPort, and the boons and punishments it hands out.
package deity

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/cory-johannsen/whatfools/internal/game/character"
	"github.com/cory-johannsen/whatfools/internal/game/dice"
	"github.com/cory-johannsen/whatfools/internal/game/event"
	"github.com/cory-johannsen/whatfools/internal/game/ruleset"
)

const (
	// PrayerTimeoutReset is the mean of the timeout drawn after the deity helps.
	PrayerTimeoutReset = 350.0
	// AmuletPrayerTimeoutBonus is added to the reset mean while the amulet is carried.
	AmuletPrayerTimeoutBonus = 100.0
	// HealFailureOdds is the n of the 1-in-n chance a healed worshipper dies anyway.
	HealFailureOdds = 31
	// GreatSacrifice and DecentSacrifice are sacrifice tiers as fractions of MaxHP.
	GreatSacrifice  = 0.4
	DecentSacrifice = 0.2
	// DecentBoonOdds is the n of the 1-in-n chance a decent sacrifice earns a boon.
	DecentBoonOdds = 11
	// SacrificeMultiplier scales a sacrifice's value into prayer timeout relief;
	// chaotic deities use ChaoticSacrificeMultiplier instead.
	SacrificeMultiplier        = 300
	ChaoticSacrificeMultiplier = 500
	// LavishBoonThreshold is the timeout below which a lavish boon becomes possible.
	LavishBoonThreshold = 50.0
)

// ErrNoPantheon is returned when a deity is requested for a role without gods.
var ErrNoPantheon = errors.New("role has no pantheon")

// Mood-ordered menus: the emphasized option comes first.
var (
	helpOrder = map[Mood][]OptionKey{
		MoodFavorable: {OptionHeal, OptionIgnore, OptionSmite},
		MoodNeutral:   {OptionIgnore, OptionHeal, OptionSmite},
		MoodHostile:   {OptionSmite, OptionIgnore, OptionHeal},
	}
	blessingOrder = map[Mood][]OptionKey{
		MoodFavorable: {OptionBoon, OptionIgnore, OptionSmite},
		MoodNeutral:   {OptionIgnore, OptionBoon, OptionSmite},
		MoodHostile:   {OptionSmite, OptionIgnore, OptionBoon},
	}
)

// SacrificeTier grades a sacrifice against the worshipper's MaxHP.
type SacrificeTier int

const (
	SacrificePoor SacrificeTier = iota
	SacrificeDecent
	SacrificeGreat
)

// String returns the lowercase tier name.
func (t SacrificeTier) String() string {
	switch t {
	case SacrificeGreat:
		return "great"
	case SacrificeDecent:
		return "decent"
	default:
		return "poor"
	}
}

// Deity answers one worshipper's prayers.
// It is owned by a single run and is not safe for concurrent use.
type Deity struct {
	Name      string
	Alignment ruleset.Alignment
	// Role is the deity's own role; the worshipper may have been made a Priest.
	Role *ruleset.Role

	port   DecisionPort
	roller *dice.Roller
	rec    *event.Recorder
	logger *zap.Logger
}

// New returns the deity of role and alignment a.
//
// Precondition: role, port, roller, rec and logger must be non-nil.
// Postcondition: Returns a Deity named after role's god for a, or an error
// wrapping ErrNoPantheon.
func New(role *ruleset.Role, a ruleset.Alignment, port DecisionPort, roller *dice.Roller, rec *event.Recorder, logger *zap.Logger) (*Deity, error) {
	if role == nil || port == nil || roller == nil || rec == nil || logger == nil {
		panic("deity: New precondition violated: all arguments must be non-nil")
	}
	if !role.SelectableAsDeity() {
		return nil, fmt.Errorf("%w: %q", ErrNoPantheon, role.Key)
	}
	return &Deity{
		Name:      role.GodFor(a),
		Alignment: a,
		Role:      role,
		port:      port,
		roller:    roller,
		rec:       rec,
		logger:    logger.With(zap.String("deity", role.GodFor(a))),
	}, nil
}

// Rivals returns the other two gods of the deity's pantheon.
func (d *Deity) Rivals() []string {
	out := make([]string, 0, len(d.Role.Gods)-1)
	for _, g := range d.Role.Gods {
		if g != d.Name {
			out = append(out, g)
		}
	}
	return out
}

// HandlePrayer answers a prayer of kind from w. arg is the trouble level of a
// help prayer and the value of a sacrifice; it is ignored for blessings.
//
// Precondition: w must be alive.
// Postcondition: w reflects the deity's answer; a withdraw decision leaves w quit.
// A non-nil error means the decision port failed and w is unchanged by the answer.
func (d *Deity) HandlePrayer(ctx context.Context, w *character.Worshipper, kind PrayerKind, arg int) error {
	if !w.Alive() {
		panic("deity: HandlePrayer precondition violated: worshipper must be alive")
	}
	variant := d.roller.Index(PrayerLineCount(kind))
	d.rec.Emit(event.Event{Kind: event.KindPrayer, Prayer: kind.String(), Variant: variant, Names: []string{d.Name}})
	d.logger.Info("prayer",
		zap.Stringer("kind", kind),
		zap.Int("arg", arg),
		zap.Float64("prayer_timeout", w.PrayerTimeout),
	)

	switch kind {
	case PrayerHelp:
		return d.help(ctx, w, arg)
	case PrayerSacrifice:
		d.sacrifice(w, arg)
		return nil
	case PrayerBlessing:
		return d.blessing(ctx, w)
	default:
		panic(fmt.Sprintf("deity: HandlePrayer precondition violated: unknown prayer kind %d", kind))
	}
}

func (d *Deity) help(ctx context.Context, w *character.Worshipper, trouble int) error {
	mood := MoodFor(w.PrayerTimeout, trouble)
	key, err := d.decide(ctx, w, PrayerHelp, mood, trouble, helpOrder[mood])
	if err != nil {
		return err
	}
	switch key {
	case OptionHeal:
		w.HP = w.MaxHP
		d.ResetPrayerTimeout(w)
		d.rec.Emit(event.Event{Kind: event.KindHealed, Amount: w.HP})
		if d.roller.IntRange(0, HealFailureOdds-1) == 0 {
			w.HP = 0
			d.rec.Emit(event.Event{Kind: event.KindHealFailed})
		}
	case OptionIgnore:
		w.HP = w.MaxHP / 2
		d.rec.Emit(event.Event{Kind: event.KindIgnored, Prayer: PrayerHelp.String(), Amount: w.HP})
	case OptionSmite:
		d.Punish(w)
	}
	return nil
}

func (d *Deity) sacrifice(w *character.Worshipper, value int) {
	tier := SacrificePoor
	switch {
	case float64(value) >= float64(w.MaxHP)*GreatSacrifice:
		tier = SacrificeGreat
	case float64(value) >= float64(w.MaxHP)*DecentSacrifice:
		tier = SacrificeDecent
	}
	d.rec.Emit(event.Event{Kind: event.KindSacrifice, Name: tier.String(), Amount: value})

	multiplier := SacrificeMultiplier
	if d.Alignment == ruleset.Chaotic {
		multiplier = ChaoticSacrificeMultiplier
	}
	w.PrayerTimeout = max(0, w.PrayerTimeout-float64(value*multiplier))

	if w.PrayerTimeout > 0 {
		return
	}
	if tier == SacrificeGreat || (tier == SacrificeDecent && d.roller.IntRange(0, DecentBoonOdds-1) == 0) {
		d.GrantBoon(w)
	}
}

func (d *Deity) blessing(ctx context.Context, w *character.Worshipper) error {
	mood := MoodFor(w.PrayerTimeout, 0)
	key, err := d.decide(ctx, w, PrayerBlessing, mood, 0, blessingOrder[mood])
	if err != nil {
		return err
	}
	switch key {
	case OptionBoon:
		d.GrantBoon(w)
		d.ResetPrayerTimeout(w)
	case OptionIgnore:
		d.rec.Emit(event.Event{Kind: event.KindIgnored, Prayer: PrayerBlessing.String()})
	case OptionSmite:
		d.Punish(w)
	}
	return nil
}

// decide presents order plus OptionWithdraw until the port answers with an
// offered key. A withdraw answer marks w quit.
func (d *Deity) decide(ctx context.Context, w *character.Worshipper, kind PrayerKind, mood Mood, trouble int, order []OptionKey) (OptionKey, error) {
	prompt := Prompt{
		Kind:       kind,
		Mood:       mood,
		Trouble:    trouble,
		Deity:      d.Name,
		Worshipper: w.Snapshot(),
	}
	moodEvent := event.Event{Kind: event.KindMood, Prayer: kind.String(), Name: mood.String()}
	if mood == MoodHostile {
		prompt.Epithet = dice.Choice(d.roller, Epithets(w.Gender))
		moodEvent.Names = []string{prompt.Epithet}
	}
	d.rec.Emit(moodEvent)

	options := optionsFor(append(slices.Clone(order), OptionWithdraw)...)
	for {
		key, err := d.port.PresentOptions(ctx, prompt, options)
		if err != nil {
			return "", fmt.Errorf("awaiting %s decision: %w", kind, err)
		}
		if !slices.ContainsFunc(options, func(o Option) bool { return o.Key == key }) {
			d.logger.Warn("rejected decision", zap.String("key", string(key)), zap.Stringer("kind", kind))
			d.rec.Emit(event.Event{Kind: event.KindInvalidDecision, Prayer: kind.String(), Name: string(key)})
			continue
		}
		d.logger.Info("decision", zap.String("key", string(key)), zap.Stringer("kind", kind), zap.Stringer("mood", mood))
		d.rec.Emit(event.Event{Kind: event.KindDecision, Prayer: kind.String(), Name: string(key)})
		if key == OptionWithdraw {
			w.Quit = true
			d.rec.Emit(event.Event{Kind: event.KindWithdrawn})
		}
		return key, nil
	}
}
