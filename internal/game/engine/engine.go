// Package engine drives a run: it creates the worshipper and its deity, steps
// turns through the ordered event rules and combat, and scores the ending.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/whatfools/internal/game/character"
	"github.com/cory-johannsen/whatfools/internal/game/combat"
	"github.com/cory-johannsen/whatfools/internal/game/deity"
	"github.com/cory-johannsen/whatfools/internal/game/dice"
	"github.com/cory-johannsen/whatfools/internal/game/event"
	"github.com/cory-johannsen/whatfools/internal/game/ruleset"
)

// RunOptions selects the deity and tunes the run.
type RunOptions struct {
	// RoleKey is the deity's role; empty picks one at random.
	RoleKey string
	// Alignment is "l", "n", "c" or a full name; empty picks one at random.
	Alignment string
	// RaceHint asks for a worshipper race by id; empty picks one at random.
	RaceHint string
	// Gender is "male" or "female"; empty picks one at random.
	Gender string
	// Discovery prevents the worshipper's death.
	Discovery bool
	// QuitChance and DiscoveryQuitChance tune how often a badly hurt worshipper
	// gives up; zero selects the combat package defaults.
	QuitChance          int
	DiscoveryQuitChance int
	// MaxTurns stops Run with ErrTurnLimit; zero means no limit.
	MaxTurns int
	// RunID labels the run in logs; empty generates a UUID.
	RunID string
}

// Result is the outcome of a run.
type Result struct {
	RunID      string
	State      character.State
	Score      int
	FinalScore int
	Tithe      int
	Turns      int
	Level      int
	HasAmulet  bool
}

// Sink receives the events of each turn as Run produces them.
type Sink func(events []event.Event) error

// Engine owns one run. It is not safe for concurrent use.
type Engine struct {
	w      *character.Worshipper
	deity  *deity.Deity
	combat *combat.Resolver
	roller *dice.Roller
	rec    *event.Recorder
	logger *zap.Logger
	rules  []eventRule

	runID    string
	turns    int
	maxTurns int
}

// CreateRun builds the deity and its worshipper from rules and opts.
// A role and alignment with no eligible race resolve to a Priest worshipper.
//
// Precondition: rules, roller, port and logger must be non-nil.
// Postcondition: Returns an Engine whose worshipper is alive on level 1, or a
// *ConfigurationError for an unknown or unusable role, alignment, race or gender.
func CreateRun(rules *ruleset.Ruleset, opts RunOptions, roller *dice.Roller, port deity.DecisionPort, logger *zap.Logger) (*Engine, error) {
	if rules == nil || roller == nil || port == nil || logger == nil {
		panic("engine: CreateRun precondition violated: rules, roller, port and logger must be non-nil")
	}

	role, err := pickRole(rules, opts.RoleKey, roller)
	if err != nil {
		return nil, err
	}
	alignment, err := pickAlignment(opts.Alignment, roller)
	if err != nil {
		return nil, err
	}
	build := character.BuildOptions{RaceHint: opts.RaceHint, Discovery: opts.Discovery}
	if opts.Gender != "" {
		g, err := ruleset.ParseGender(opts.Gender)
		if err != nil {
			return nil, &ConfigurationError{Field: "gender", Value: opts.Gender, Err: err}
		}
		build.Gender = &g
	}
	w, err := character.Build(rules, role, alignment, build, roller)
	if err != nil {
		return nil, &ConfigurationError{Field: "race", Value: opts.RaceHint, Err: err}
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger = logger.With(zap.String("run_id", runID))

	rec := &event.Recorder{}
	d, err := deity.New(role, alignment, port, roller, rec, logger)
	if err != nil {
		return nil, &ConfigurationError{Field: "role", Value: role.Key, Err: err}
	}
	e := &Engine{
		w:      w,
		deity:  d,
		roller: roller,
		rec:    rec,
		logger: logger,
		combat: combat.NewResolver(roller, d, rec, logger, combat.Config{
			QuitChance:          opts.QuitChance,
			DiscoveryQuitChance: opts.DiscoveryQuitChance,
		}),
		runID:    runID,
		maxTurns: opts.MaxTurns,
	}
	e.rules = e.eventRules()

	rec.Emit(event.Event{Kind: event.KindRunStarted, Level: w.DungeonLevel, Name: role.Greeting, Names: []string{d.Name}})
	logger.Info("run created",
		zap.String("deity", d.Name),
		zap.Stringer("alignment", alignment),
		zap.String("role", w.Role.Key),
		zap.String("race", w.Race.ID),
		zap.Stringer("gender", w.Gender),
		zap.Bool("discovery", w.Discovery),
	)
	return e, nil
}

func pickRole(rules *ruleset.Ruleset, key string, roller *dice.Roller) (*ruleset.Role, error) {
	if key == "" {
		return dice.Choice(roller, rules.DeityRoles()), nil
	}
	role, err := rules.Role(key)
	if err != nil {
		return nil, &ConfigurationError{Field: "role", Value: key, Err: err}
	}
	if !role.SelectableAsDeity() {
		return nil, &ConfigurationError{Field: "role", Value: key, Err: deity.ErrNoPantheon}
	}
	return role, nil
}

func pickAlignment(key string, roller *dice.Roller) (ruleset.Alignment, error) {
	if key == "" {
		return dice.Choice(roller, ruleset.Alignments), nil
	}
	a, err := ruleset.ParseAlignment(key)
	if err != nil {
		return 0, &ConfigurationError{Field: "alignment", Value: key, Err: err}
	}
	return a, nil
}

// RunID returns the identifier used in the run's log lines.
func (e *Engine) RunID() string { return e.runID }

// Deity returns the deity answering this run's prayers.
func (e *Engine) Deity() *deity.Deity { return e.deity }

// Pending returns the events of the turn in progress that Turn has not yet
// returned. A decision port may call it to narrate a turn up to the prompt.
func (e *Engine) Pending() []event.Event { return e.rec.Pending() }

// Worshipper returns a copy of the worshipper's current figures.
func (e *Engine) Worshipper() character.Snapshot { return e.w.Snapshot() }

// Turns returns the number of turns played.
func (e *Engine) Turns() int { return e.turns }

// IsAlive reports whether the run is still going.
func (e *Engine) IsAlive() bool { return e.w.Alive() }

// IsWon reports whether the amulet reached the bottom of the dungeon.
func (e *Engine) IsWon() bool { return e.w.State() == character.StateWon }

// IsQuit reports whether the worshipper gave up or was withdrawn.
func (e *Engine) IsQuit() bool { return e.w.State() == character.StateQuit }

// CurrentScore returns the accumulated score without any penalty.
func (e *Engine) CurrentScore() int { return e.w.Score }

// FinalScore returns the score with the death penalty applied when the
// worshipper died. The accumulated score itself is never modified.
//
// Postcondition: dead → floor(score × DeathPenalty); otherwise the accumulated score.
func (e *Engine) FinalScore() int {
	if e.w.State() == character.StateDead {
		return int(float64(e.w.Score) * DeathPenalty)
	}
	return e.w.Score
}

// Tithe returns the deity's share of the final score; a quitter pays nothing.
func (e *Engine) Tithe() int {
	if e.w.State() == character.StateQuit {
		return 0
	}
	return int(float64(e.FinalScore()) * TitheRate)
}

// Result summarizes the run as it stands.
func (e *Engine) Result() Result {
	return Result{
		RunID:      e.runID,
		State:      e.w.State(),
		Score:      e.w.Score,
		FinalScore: e.FinalScore(),
		Tithe:      e.Tithe(),
		Turns:      e.turns,
		Level:      e.w.DungeonLevel,
		HasAmulet:  e.w.HasAmulet,
	}
}

// Turn plays one turn: the level counter advances, the prayer timeout decays,
// the worshipper heals, and then either summoned minions take the turn or the
// event rules are tried in priority order with a fight as the fallback.
//
// Precondition: the worshipper must be alive.
// Postcondition: Returns the turn's events in order, ending with exactly one
// terminal event when the turn ended the run. A non-nil error comes from the
// decision port; the events emitted before it are still returned.
func (e *Engine) Turn(ctx context.Context) ([]event.Event, error) {
	if !e.w.Alive() {
		panic(fmt.Sprintf("engine: Turn precondition violated: run already ended (%s)", e.w.State()))
	}
	e.turns++
	w := e.w
	w.TurnsOnLevel++
	w.DecayPrayerTimeout(1)
	w.Heal(HealingPerTurn)

	if err := e.dispatch(ctx); err != nil {
		return e.rec.Drain(), fmt.Errorf("turn %d: %w", e.turns, err)
	}
	if !w.Alive() {
		e.finish()
	}
	return e.rec.Drain(), nil
}

func (e *Engine) dispatch(ctx context.Context) error {
	w := e.w
	if w.StackedMonsters > 0 {
		w.StackedMonsters--
		e.rec.Emit(event.Event{Kind: event.KindMinionTurn, Amount: w.StackedMonsters})
		return nil
	}
	for _, rule := range e.rules {
		chance := rule.chance()
		if chance <= 0 || e.roller.IntRange(0, chance) != 0 {
			continue
		}
		happened, err := rule.apply(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", rule.name, err)
		}
		if happened {
			return nil
		}
	}

	out, err := e.combat.Fight(ctx, w)
	if err != nil {
		return fmt.Errorf("fight: %w", err)
	}
	if out.BonusDrop {
		if _, err := e.getGoodie(ctx); err != nil {
			return fmt.Errorf("bonus goodie: %w", err)
		}
	}
	return nil
}

// finish emits the terminal event of the state the run ended in.
func (e *Engine) finish() {
	var kind event.Kind
	switch e.w.State() {
	case character.StateDead:
		kind = event.KindDied
	case character.StateQuit:
		kind = event.KindQuit
	case character.StateWon:
		kind = event.KindWon
	}
	e.rec.Emit(event.Event{Kind: kind, Amount: e.FinalScore(), Level: e.w.DungeonLevel})
	e.logger.Info("run ended",
		zap.Stringer("state", e.w.State()),
		zap.Int("turns", e.turns),
		zap.Int("score", e.w.Score),
		zap.Int("final_score", e.FinalScore()),
		zap.Int("tithe", e.Tithe()),
	)
}

// Run plays turns until the run ends, ctx is done or the turn limit is reached,
// handing every turn's events to sink when it is non-nil.
//
// Postcondition: Returns the run's Result. The error is nil when the run ended,
// ctx.Err() when cancelled, ErrTurnLimit at the limit, or the first sink or
// decision port error.
func (e *Engine) Run(ctx context.Context, sink Sink) (Result, error) {
	for e.w.Alive() {
		if err := ctx.Err(); err != nil {
			return e.Result(), err
		}
		if e.maxTurns > 0 && e.turns >= e.maxTurns {
			return e.Result(), ErrTurnLimit
		}
		events, err := e.Turn(ctx)
		if sink != nil {
			if sinkErr := sink(events); sinkErr != nil {
				return e.Result(), fmt.Errorf("delivering turn %d: %w", e.turns, sinkErr)
			}
		}
		if err != nil {
			return e.Result(), err
		}
	}
	return e.Result(), nil
}
