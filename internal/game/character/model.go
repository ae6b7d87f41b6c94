// Package character defines the worshipper: the simulated adventurer whose
// run is being modeled, its mutable state and its pure creation logic.
package character

import "github.com/cory-johannsen/whatfools/internal/game/ruleset"

const (
	// InitialHP is the starting value of both HP and MaxHP.
	InitialHP = 15
	// InitialItemPoints is the starting item point stock.
	InitialItemPoints = 50
	// InitialPrayerTimeout is the starting prayer cooldown.
	InitialPrayerTimeout = 300.0
	// MaxDungeonLevel is the level the amulet must be carried to.
	MaxDungeonLevel = 65
	// AmuletLevel is the level on which the amulet is found.
	AmuletLevel = 50
)

// State is the worshipper's lifecycle state. Exactly one holds at any time.
type State int

const (
	StateAlive State = iota
	StateDead
	StateQuit
	StateWon
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateAlive:
		return "alive"
	case StateDead:
		return "dead"
	case StateQuit:
		return "quit"
	case StateWon:
		return "won"
	default:
		return "unknown"
	}
}

// Worshipper is the simulated adventurer.
//
// Invariant: 0 <= HP <= MaxHP; MaxHP >= 1; ItemPoints >= 0; Score >= 0;
// 1 <= DungeonLevel <= MaxDungeonLevel; PrayerTimeout >= 0; StackedMonsters >= 0.
type Worshipper struct {
	Role      *ruleset.Role
	Race      *ruleset.Race
	Alignment ruleset.Alignment
	Gender    ruleset.Gender
	Title     string

	HP         int
	MaxHP      int
	ItemPoints int
	Score      int

	DungeonLevel  int
	TurnsOnLevel  int
	turnsOnLevels map[int]int

	PrayerTimeout float64

	HasAmulet bool
	Won       bool
	Quit      bool
	NearAltar bool

	// StackedMonsters counts forthcoming turns consumed by summoned minions.
	StackedMonsters int

	// Discovery prevents death: HP falling to zero in combat is restored.
	Discovery bool
}

// New returns a worshipper with the fixed starting stats on dungeon level 1.
//
// Precondition: role and race must be non-nil.
// Postcondition: HP == MaxHP == InitialHP; DungeonLevel == 1; State() == StateAlive.
func New(role *ruleset.Role, race *ruleset.Race, a ruleset.Alignment, g ruleset.Gender) *Worshipper {
	if role == nil || race == nil {
		panic("character: New precondition violated: role and race must be non-nil")
	}
	title := role.Title(g)
	if title == "" {
		title = role.Title(1 - g)
	}
	w := &Worshipper{
		Role:          role,
		Race:          race,
		Alignment:     a,
		Gender:        g,
		Title:         title,
		HP:            InitialHP,
		MaxHP:         InitialHP,
		ItemPoints:    InitialItemPoints,
		PrayerTimeout: InitialPrayerTimeout,
		turnsOnLevels: make(map[int]int),
	}
	w.SetLevel(1)
	return w
}

// Pronouns returns the worshipper's pronoun set.
func (w *Worshipper) Pronouns() ruleset.Pronouns { return w.Gender.Pronouns() }

// Alive reports whether the run is still going.
//
// Postcondition: Returns true iff State() == StateAlive.
func (w *Worshipper) Alive() bool {
	return w.HP > 0 && !w.Quit && !w.Won
}

// State returns the single lifecycle state that holds.
// Winning takes precedence over quitting, which takes precedence over death.
func (w *Worshipper) State() State {
	switch {
	case w.Won:
		return StateWon
	case w.Quit:
		return StateQuit
	case w.HP <= 0:
		return StateDead
	default:
		return StateAlive
	}
}

// SetLevel moves the worshipper to level, storing the turn counter of the
// level being left and restoring the counter last recorded for level.
//
// Precondition: 1 <= level <= MaxDungeonLevel.
// Postcondition: DungeonLevel == level; TurnsOnLevel is the counter last recorded for level, or 0.
func (w *Worshipper) SetLevel(level int) {
	if level < 1 || level > MaxDungeonLevel {
		panic("character: SetLevel precondition violated: level out of range")
	}
	if w.DungeonLevel != 0 {
		w.turnsOnLevels[w.DungeonLevel] = w.TurnsOnLevel
	}
	w.DungeonLevel = level
	w.TurnsOnLevel = w.turnsOnLevels[level]
}

// Heal adds amount HP, clamped to MaxHP.
//
// Postcondition: HP <= MaxHP.
func (w *Worshipper) Heal(amount int) {
	w.HP = min(w.MaxHP, w.HP+amount)
}

// Grow permanently raises MaxHP and HP by one, as after every won fight.
func (w *Worshipper) Grow() {
	w.MaxHP++
	w.HP = min(w.MaxHP, w.HP+1)
}

// Drain scales MaxHP by factor, never below 1, and clamps HP to it.
//
// Precondition: 0 < factor <= 1.
// Postcondition: 1 <= MaxHP; HP <= MaxHP.
func (w *Worshipper) Drain(factor float64) {
	w.MaxHP = max(1, int(float64(w.MaxHP)*factor))
	w.HP = min(w.HP, w.MaxHP)
}

// CostItemPoints spends up to cost item points.
// It reports whether the worshipper had any item points to spend.
//
// Postcondition: ItemPoints >= 0.
func (w *Worshipper) CostItemPoints(cost int) bool {
	if w.ItemPoints > 0 {
		w.ItemPoints = max(0, w.ItemPoints-cost)
		return true
	}
	w.ItemPoints = 0
	return false
}

// CostHitPoints removes up to cost HP.
// It reports whether the worshipper had any HP to lose.
//
// Postcondition: HP >= 0.
func (w *Worshipper) CostHitPoints(cost int) bool {
	if w.HP > 0 {
		w.HP = max(0, w.HP-cost)
		return true
	}
	w.HP = 0
	return false
}

// AddItemPoints adds a non-negative amount of item points.
func (w *Worshipper) AddItemPoints(amount int) {
	w.ItemPoints += max(0, amount)
}

// AddScore adds a non-negative amount of score.
func (w *Worshipper) AddScore(amount int) {
	w.Score += max(0, amount)
}

// GetAmulet gives the worshipper the amulet.
//
// Postcondition: HasAmulet is true; returns true only on the first acquisition.
func (w *Worshipper) GetAmulet() bool {
	if w.HasAmulet {
		return false
	}
	w.HasAmulet = true
	return true
}

// DecayPrayerTimeout lowers PrayerTimeout by amount without going below zero.
//
// Postcondition: PrayerTimeout >= 0.
func (w *Worshipper) DecayPrayerTimeout(amount float64) {
	w.PrayerTimeout = max(0, w.PrayerTimeout-amount)
}

// Snapshot is a read-only copy of the worshipper's public figures, handed to
// decision ports so they never hold the live worshipper.
type Snapshot struct {
	Role          string
	Race          string
	Title         string
	Alignment     ruleset.Alignment
	Gender        ruleset.Gender
	HP            int
	MaxHP         int
	ItemPoints    int
	Score         int
	DungeonLevel  int
	PrayerTimeout float64
	HasAmulet     bool
	NearAltar     bool
}

// Snapshot copies the worshipper's current figures.
func (w *Worshipper) Snapshot() Snapshot {
	return Snapshot{
		Role:          w.Role.Name(w.Gender),
		Race:          w.Race.DisplayName(),
		Title:         w.Title,
		Alignment:     w.Alignment,
		Gender:        w.Gender,
		HP:            w.HP,
		MaxHP:         w.MaxHP,
		ItemPoints:    w.ItemPoints,
		Score:         w.Score,
		DungeonLevel:  w.DungeonLevel,
		PrayerTimeout: w.PrayerTimeout,
		HasAmulet:     w.HasAmulet,
		NearAltar:     w.NearAltar,
	}
}
