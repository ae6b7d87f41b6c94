package deity

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/whatfools/internal/game/character"
	"github.com/cory-johannsen/whatfools/internal/game/dice"
	"github.com/cory-johannsen/whatfools/internal/game/event"
)

// Punishment names one way the deity smites a worshipper.
type Punishment string

const (
	PunishZap    Punishment = "zap"
	PunishDrain  Punishment = "drain"
	PunishBall   Punishment = "ball"
	PunishCurse  Punishment = "curse"
	PunishMinion Punishment = "minion"
)

// Punishments lists every punishment; each is equally likely.
var Punishments = []Punishment{PunishZap, PunishDrain, PunishBall, PunishCurse, PunishMinion}

const (
	// MinionTurns is the number of turns summoned minions keep the worshipper busy.
	MinionTurns = 5
	// DrainFactor scales MaxHP on a level drain.
	DrainFactor = 0.9
	// zapItemRate and zapHPRate are the rates of the exponential costs of a zap.
	zapItemRate = 50.0
	zapHPRate   = 100.0
)

// Boon sizes carried in the Name of a boon event.
const (
	BoonLavish = "lavish"
	BoonModest = "modest"
)

var (
	lavishBoon   = dice.MustParse("1d401+99")
	modestBoon   = dice.MustParse("1d91+9")
	ballAndChain = dice.MustParse("1d6+9")
	curseCost    = dice.MustParse("1d31+19")
)

// GrantBoon gives w item points: 100 to 500 when the prayer timeout is below
// LavishBoonThreshold and a 1-in-4 check passes, 10 to 100 otherwise.
//
// Postcondition: w.ItemPoints increases by the returned amount.
func (d *Deity) GrantBoon(w *character.Worshipper) int {
	lavish := w.PrayerTimeout < LavishBoonThreshold && d.roller.OneIn(4)
	expr, size := modestBoon, BoonModest
	if lavish {
		expr, size = lavishBoon, BoonLavish
	}
	points := d.roller.Roll(expr).Total()
	w.AddItemPoints(points)
	d.rec.Emit(event.Event{Kind: event.KindBoon, Name: size, Amount: points})
	d.logger.Info("boon granted", zap.String("size", size), zap.Int("points", points))
	return points
}

// ResetPrayerTimeout draws a fresh prayer timeout from an exponential
// distribution with mean PrayerTimeoutReset, raised while the amulet is carried.
//
// Postcondition: w.PrayerTimeout >= 0.
func (d *Deity) ResetPrayerTimeout(w *character.Worshipper) {
	mean := PrayerTimeoutReset
	if w.HasAmulet {
		mean += AmuletPrayerTimeoutBonus
	}
	w.PrayerTimeout = d.roller.Exponential(mean)
}

// Punish smites w with a randomly chosen punishment and returns it.
//
// Postcondition: w's invariants hold; HP and ItemPoints never go negative.
func (d *Deity) Punish(w *character.Worshipper) Punishment {
	p := dice.Choice(d.roller, Punishments)
	d.rec.Emit(event.Event{Kind: event.KindPunish, Name: string(p)})
	d.logger.Info("punishment", zap.String("punishment", string(p)))

	switch p {
	case PunishZap:
		w.CostItemPoints(int(math.Ceil(d.roller.Exponential(1 / zapItemRate))))
		w.CostHitPoints(int(math.Ceil(d.roller.Exponential(1 / zapHPRate))))
		if w.ItemPoints > 0 && w.Alive() {
			d.summonMinions(w)
		}
	case PunishDrain:
		w.Drain(DrainFactor)
	case PunishBall:
		w.CostItemPoints(d.roller.Roll(ballAndChain).Total())
	case PunishCurse:
		w.CostItemPoints(d.roller.Roll(curseCost).Total())
	case PunishMinion:
		d.summonMinions(w)
	}
	return p
}

func (d *Deity) summonMinions(w *character.Worshipper) {
	w.StackedMonsters = MinionTurns
	d.rec.Emit(event.Event{Kind: event.KindMinions, Amount: MinionTurns})
}
