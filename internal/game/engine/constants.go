package engine

const (
	// GoldConstant converts a goodie's value into score when it is gold.
	GoldConstant = 7
	// ItemConstant converts a goodie's value into item points.
	ItemConstant = 1.0
	// HealingPerTurn is the HP regained at the start of every turn.
	HealingPerTurn = 50 / 8
	// DeathPenalty scales the score of a worshipper who died.
	DeathPenalty = 0.9
	// TitheRate is the deity's share of the final score.
	TitheRate = 0.1

	// Event chances: a rule fires when a uniform draw in [0, chance] is zero.
	// Ascending and losing an altar are rolled like the rest; firing them every
	// turn would pin the worshipper to the top levels.
	AscendChance        = 100
	LoseAltarChance     = 100
	DescendChanceBase   = 100
	MinDescendChance    = 5
	FindAltarChanceBase = 150
	MinFindAltarChance  = 300
	GoodieChanceBase    = 20
	GoodieTurnDivisor   = 5

	// AltarLossOdds is the n of the 1-in-n chance descending loses a nearby altar.
	AltarLossOdds = 4
	// AltarBlessingOdds is the n of the 1-in-n chance finding an altar prompts a blessing prayer.
	AltarBlessingOdds = 4
	// GoldOdds is the n of the 1-in-n chance a goodie is gold.
	GoldOdds = 4
	// GoodieBlessingOdds is the n of the 1-in-n chance a useful goodie found
	// near an altar prompts a blessing prayer.
	GoodieBlessingOdds = 21
)
