package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/whatfools/internal/game/character"
	"github.com/cory-johannsen/whatfools/internal/game/deity"
	"github.com/cory-johannsen/whatfools/internal/game/event"
)

// eventRule is one entry of the per-turn dispatch table. chance returns n for a
// 1-in-(n+1) chance of firing; n <= 0 never fires. apply reports whether the
// event actually happened; when it did not, dispatch moves on to the next rule.
type eventRule struct {
	name   string
	chance func() int
	apply  func(ctx context.Context) (bool, error)
}

// eventRules returns the dispatch table in priority order.
func (e *Engine) eventRules() []eventRule {
	return []eventRule{
		{name: "get_goodie", chance: e.goodieChance, apply: e.getGoodie},
		{name: "descend_level", chance: e.descendChance, apply: e.descendLevel},
		{name: "find_altar", chance: e.findAltarChance, apply: e.findAltar},
		{name: "ascend_level", chance: func() int { return AscendChance }, apply: e.ascendLevel},
		{name: "lose_altar", chance: func() int { return LoseAltarChance }, apply: e.loseAltar},
	}
}

func (e *Engine) goodieChance() int {
	return GoodieChanceBase + e.w.TurnsOnLevel/GoodieTurnDivisor
}

func (e *Engine) descendChance() int {
	return max(MinDescendChance, DescendChanceBase-e.w.TurnsOnLevel)
}

func (e *Engine) findAltarChance() int {
	return max(MinFindAltarChance, FindAltarChanceBase+e.w.TurnsOnLevel)
}

// getGoodie finds something worth up to 1.5 times the dungeon level, less the
// longer the level has been picked over: gold, useful items or junk.
func (e *Engine) getGoodie(ctx context.Context) (bool, error) {
	w := e.w
	level := w.DungeonLevel
	value := e.roller.IntRange(0, max(level, int(1.5*float64(level))-w.TurnsOnLevel))
	switch {
	case e.roller.OneIn(GoldOdds):
		gold := value * GoldConstant
		w.AddScore(gold)
		e.rec.Emit(event.Event{Kind: event.KindGold, Amount: gold, Level: level})
	case e.roller.IntRange(0, 5) != 0:
		items := int(float64(value) * ItemConstant)
		w.AddItemPoints(items)
		e.rec.Emit(event.Event{Kind: event.KindItems, Amount: items, Level: level})
		if w.NearAltar && e.roller.OneIn(GoodieBlessingOdds) {
			return true, e.deity.HandlePrayer(ctx, w, deity.PrayerBlessing, 0)
		}
	default:
		e.rec.Emit(event.Event{Kind: event.KindJunk, Level: level})
	}
	return true, nil
}

// descendLevel moves one level down. The bottom level cannot be left downward.
func (e *Engine) descendLevel(_ context.Context) (bool, error) {
	w := e.w
	from := w.DungeonLevel
	if from >= character.MaxDungeonLevel {
		return false, nil
	}
	w.SetLevel(from + 1)
	e.rec.Emit(event.Event{Kind: event.KindDescend, Level: w.DungeonLevel, FromLevel: from})
	if e.roller.OneIn(AltarLossOdds) && w.NearAltar {
		w.NearAltar = false
		e.rec.Emit(event.Event{Kind: event.KindAltarLost, Level: w.DungeonLevel})
	}
	switch w.DungeonLevel {
	case character.AmuletLevel:
		if w.GetAmulet() {
			e.rec.Emit(event.Event{Kind: event.KindAmulet, Level: w.DungeonLevel})
			e.logger.Info("amulet acquired", zap.Int("turn", e.turns))
		}
	case character.MaxDungeonLevel - 1:
		e.rec.Emit(event.Event{Kind: event.KindAstralPlane, Level: w.DungeonLevel})
	case character.MaxDungeonLevel:
		if w.HasAmulet {
			e.win()
		}
	}
	return true, nil
}

func (e *Engine) findAltar(ctx context.Context) (bool, error) {
	e.w.NearAltar = true
	e.rec.Emit(event.Event{Kind: event.KindAltarFound, Level: e.w.DungeonLevel})
	if e.roller.OneIn(AltarBlessingOdds) {
		return true, e.deity.HandlePrayer(ctx, e.w, deity.PrayerBlessing, 0)
	}
	return true, nil
}

// ascendLevel moves one level up, except from the first level and from the
// Astral Plane and below.
func (e *Engine) ascendLevel(_ context.Context) (bool, error) {
	from := e.w.DungeonLevel
	if from == 1 || from >= character.MaxDungeonLevel-1 {
		return false, nil
	}
	e.w.SetLevel(from - 1)
	e.rec.Emit(event.Event{Kind: event.KindAscend, Level: e.w.DungeonLevel, FromLevel: from})
	return true, nil
}

func (e *Engine) loseAltar(_ context.Context) (bool, error) {
	if !e.w.NearAltar {
		return false, nil
	}
	e.w.NearAltar = false
	e.rec.Emit(event.Event{Kind: event.KindAltarLost, Level: e.w.DungeonLevel})
	return true, nil
}

// win offers the amulet on the deity's altar and ends the run.
func (e *Engine) win() {
	e.rec.Emit(event.Event{Kind: event.KindOffering, Names: []string{e.deity.Name}})
	e.w.Won = true
	e.rec.Emit(event.Event{Kind: event.KindEndgame, Names: e.deity.Rivals()})
}
