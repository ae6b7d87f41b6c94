package handlers

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cory-johannsen/whatfools/internal/config"
	"github.com/cory-johannsen/whatfools/internal/game/deity"
	"github.com/cory-johannsen/whatfools/internal/game/dice"
	"github.com/cory-johannsen/whatfools/internal/game/engine"
	"github.com/cory-johannsen/whatfools/internal/game/ruleset"
	"github.com/cory-johannsen/whatfools/internal/scripting"
)

// LoadRuleset returns the embedded roles and races, or those under cfg.Dir.
func LoadRuleset(cfg config.ContentConfig) (*ruleset.Ruleset, error) {
	if cfg.Dir == "" {
		return ruleset.Default()
	}
	rs, err := ruleset.Load(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading content from %s: %w", cfg.Dir, err)
	}
	return rs, nil
}

// RollerFactory returns the NewRoller of GameOptions. A non-zero seed replays
// the same dice on every run; zero draws a fresh seed per run. The seed is
// logged so that any run can be replayed.
func RollerFactory(seed int64) func(logger *zap.Logger) *dice.Roller {
	return func(logger *zap.Logger) *dice.Roller {
		s := seed
		if s == 0 {
			s = dice.NewSeed()
		}
		logger.Info("dice seeded", zap.Int64("seed", s))
		return dice.NewLoggedRoller(dice.NewSeededSource(s), logger)
	}
}

// NewGameOptions builds the session options described by cfg. When a deity
// script is configured it is read and checked once here; every run then loads
// it into a fresh Lua state bound to the run's roller, so scripted runs replay
// under a fixed seed and never share script globals.
//
// Postcondition: Returns usable options, or an error naming the bad script.
func NewGameOptions(cfg config.Config, logger *zap.Logger) (GameOptions, error) {
	opts := GameOptions{
		Run: engine.RunOptions{
			RoleKey:             cfg.Game.Role,
			Alignment:           cfg.Game.Alignment,
			RaceHint:            cfg.Game.Race,
			Gender:              cfg.Game.Gender,
			Discovery:           cfg.Game.Discovery,
			QuitChance:          cfg.Game.QuitChance,
			DiscoveryQuitChance: cfg.Game.DiscoveryQuitChance,
			MaxTurns:            cfg.Game.MaxTurns,
		},
		NewRoller: RollerFactory(cfg.Game.Seed),
	}
	if cfg.Scripting.DeityScript == "" {
		return opts, nil
	}
	factory, err := ScriptPolicy(cfg.Scripting.DeityScript, cfg.Scripting.InstructionLimit, logger)
	if err != nil {
		return GameOptions{}, err
	}
	opts.NewPolicy = factory
	return opts, nil
}

// ScriptPolicy reads the Lua deity script at path and returns a PolicyFactory
// loading it per run.
//
// Postcondition: Returns a factory, or an error when the script cannot be read
// or does not load.
func ScriptPolicy(path string, instLimit int, logger *zap.Logger) (PolicyFactory, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading deity script: %w", err)
	}
	check, err := scripting.NewPolicyFromSource(path, string(src), instLimit,
		dice.NewLoggedRoller(dice.NewCryptoSource(), logger), logger)
	if err != nil {
		return nil, fmt.Errorf("loading deity script: %w", err)
	}
	check.Close()

	return func(roller *dice.Roller, runLogger *zap.Logger) (deity.DecisionPort, func(), error) {
		p, err := scripting.NewPolicyFromSource(path, string(src), instLimit, roller, runLogger)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}, nil
}
