// Package combat resolves the worshipper's fights against randomly generated monsters.
package combat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/whatfools/internal/game/character"
	"github.com/cory-johannsen/whatfools/internal/game/deity"
	"github.com/cory-johannsen/whatfools/internal/game/dice"
	"github.com/cory-johannsen/whatfools/internal/game/event"
)

const (
	// DefaultQuitChance is the n of the 1-in-(n+1) chance a badly hurt worshipper gives up.
	DefaultQuitChance = 4
	// DefaultDiscoveryQuitChance replaces DefaultQuitChance in discovery mode.
	DefaultDiscoveryQuitChance = 20
	// LowHP is the HP below which the worshipper prays instead of attacking.
	LowHP = 5
	// ScoreScale and ScoreMultiplier scale monster value by level squared into score.
	ScoreScale      = 0.04
	ScoreMultiplier = 0.5
)

// Deity answers the prayers a fight provokes.
type Deity interface {
	HandlePrayer(ctx context.Context, w *character.Worshipper, kind deity.PrayerKind, arg int) error
}

// Config carries the tunable quit chances.
// Zero values select DefaultQuitChance and DefaultDiscoveryQuitChance.
type Config struct {
	QuitChance          int
	DiscoveryQuitChance int
}

// Outcome summarizes a finished fight.
type Outcome struct {
	Monster Monster
	Rounds  int
	// Slain is true when the worshipper survived and the monster died.
	Slain bool
	// ScoreGained is the score awarded for the kill.
	ScoreGained int
	// BonusDrop is true when the kill earned an extra goodie.
	BonusDrop bool
}

// Resolver runs fights for one worshipper.
// It is owned by a single run and is not safe for concurrent use.
type Resolver struct {
	roller *dice.Roller
	deity  Deity
	rec    *event.Recorder
	logger *zap.Logger

	quitChance          int
	discoveryQuitChance int
}

// NewResolver creates a Resolver.
//
// Precondition: roller, d, rec and logger must be non-nil.
func NewResolver(roller *dice.Roller, d Deity, rec *event.Recorder, logger *zap.Logger, cfg Config) *Resolver {
	if roller == nil || d == nil || rec == nil || logger == nil {
		panic("combat: NewResolver precondition violated: all arguments must be non-nil")
	}
	if cfg.QuitChance <= 0 {
		cfg.QuitChance = DefaultQuitChance
	}
	if cfg.DiscoveryQuitChance <= 0 {
		cfg.DiscoveryQuitChance = DefaultDiscoveryQuitChance
	}
	return &Resolver{
		roller:              roller,
		deity:               d,
		rec:                 rec,
		logger:              logger,
		quitChance:          cfg.QuitChance,
		discoveryQuitChance: cfg.DiscoveryQuitChance,
	}
}

// Fight spawns a monster for w's dungeon level and resolves rounds until the
// monster dies or w stops being alive. A surviving worshipper scores the kill,
// grows by one HP, may offer the corpse on a nearby altar and may find a bonus goodie.
//
// Precondition: w must be alive.
// Postcondition: w's invariants hold. A non-nil error comes from the deity's
// decision port; the fight is abandoned where it stood.
func (r *Resolver) Fight(ctx context.Context, w *character.Worshipper) (Outcome, error) {
	if !w.Alive() {
		panic("combat: Fight precondition violated: worshipper must be alive")
	}
	level := w.DungeonLevel
	m := r.Spawn(level)
	out := Outcome{Monster: m}
	r.rec.Emit(event.Event{Kind: event.KindMonster, Level: level, MonsterHP: m.HP, Toughness: m.Toughness})

	for m.Alive() && w.Alive() {
		out.Rounds++
		round := event.Event{Kind: event.KindRound, Level: level}
		if w.HP < LowHP {
			round.Name = "pray"
			if err := r.lowHP(ctx, w); err != nil {
				return out, fmt.Errorf("round %d: %w", out.Rounds, err)
			}
		} else {
			round.Name = "attack"
			round.Multiplier, round.Amount = r.attack(w)
			m.HP = max(0, m.HP-round.Amount)
		}
		if m.Alive() && w.Alive() {
			round.Taken = r.counterattack(w, m)
		}
		round.MonsterHP = m.HP
		r.rec.Emit(round)
	}
	out.Monster = m
	r.logger.Debug("fight over",
		zap.Int("rounds", out.Rounds),
		zap.Int("monster_hp", m.MaxHP),
		zap.Int("toughness", m.Toughness),
		zap.Stringer("state", w.State()),
	)
	if !w.Alive() {
		return out, nil
	}

	out.Slain = true
	out.ScoreGained = int(float64(m.MaxHP) * (float64(level) * (float64(level) * ScoreScale) * ScoreMultiplier))
	w.AddScore(out.ScoreGained)
	w.Grow()
	r.rec.Emit(event.Event{Kind: event.KindSlain, Amount: out.ScoreGained, MonsterHP: m.MaxHP})

	if w.NearAltar && r.roller.OneIn(4) {
		if err := r.deity.HandlePrayer(ctx, w, deity.PrayerSacrifice, m.MaxHP); err != nil {
			return out, fmt.Errorf("sacrifice: %w", err)
		}
	}
	out.BonusDrop = r.roller.OneIn(5)
	return out, nil
}

// lowHP makes a badly hurt worshipper pray for help or, rarely, give up.
func (r *Resolver) lowHP(ctx context.Context, w *character.Worshipper) error {
	chance := r.quitChance
	if w.Discovery {
		chance = r.discoveryQuitChance
	}
	if r.roller.IntRange(0, chance) == 0 {
		w.Quit = true
		r.logger.Info("worshipper gave up", zap.Int("hp", w.HP))
		return nil
	}
	return r.deity.HandlePrayer(ctx, w, deity.PrayerHelp, r.roller.IntRange(1, 3))
}

// attack returns the worshipper's damage multiplier and damage for one swing.
// A multiplier above 1 is paid for in item points.
func (r *Resolver) attack(w *character.Worshipper) (multiplier, damage int) {
	multiplier = 1
	switch {
	case r.roller.OneIn(4):
		multiplier = 0
	case w.ItemPoints > 0 && r.roller.IntRange(0, 3) != 0:
		multiplier = int(r.roller.Real() * 10)
	}
	if multiplier > 1 && !w.CostItemPoints(multiplier*r.roller.IntRange(1, 4)) {
		multiplier = 1
	}
	return multiplier, r.roller.IntRange(3, w.DungeonLevel+3) * multiplier
}

// counterattack applies the monster's blow to w and returns the HP it took.
// One time in three the worshipper spends item points to divide the blow by a
// factor of 2 to 10.
func (r *Resolver) counterattack(w *character.Worshipper, m Monster) int {
	damage := 0
	if !r.roller.OneIn(4) {
		damage = r.roller.IntRange(0, m.Toughness)
	}
	if r.roller.OneIn(3) {
		factor := r.roller.IntRange(2, 10)
		if w.CostItemPoints(factor / r.roller.IntRange(1, 4)) {
			damage /= factor
		}
	}
	w.CostHitPoints(damage)
	if w.Discovery && w.HP <= 0 {
		w.HP = w.MaxHP
		r.rec.Emit(event.Event{Kind: event.KindSpared, Amount: w.HP})
	}
	return damage
}
