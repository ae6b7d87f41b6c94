package combat

// MonsterToughnessConstant bounds a monster's HP at toughness times this value.
const MonsterToughnessConstant = 7

// Monster is the opponent of one fight.
//
// Invariant: Toughness >= 1; MaxHP >= 1.
type Monster struct {
	Toughness int
	HP        int
	// MaxHP is the HP the monster was generated with; sacrifices are valued by it.
	MaxHP int
}

// Alive reports whether the monster still stands.
func (m *Monster) Alive() bool { return m.HP > 0 }

// Spawn generates a monster for dungeon level.
// Toughness is uniform(0, 6) - 3 + level/2, floored at 1; HP is uniform over
// [toughness, toughness*MonsterToughnessConstant], floored at 1.
//
// Precondition: level >= 1.
// Postcondition: Returns a Monster satisfying its invariant with HP == MaxHP.
func (r *Resolver) Spawn(level int) Monster {
	if level < 1 {
		panic("combat: Spawn precondition violated: level must be >= 1")
	}
	toughness := max(1, r.roller.IntRange(0, 6)-3+level/2)
	hp := max(1, r.roller.IntRange(toughness, toughness*MonsterToughnessConstant))
	return Monster{Toughness: toughness, HP: hp, MaxHP: hp}
}
