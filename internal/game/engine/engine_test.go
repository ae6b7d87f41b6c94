package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/whatfools/internal/game/character"
	"github.com/cory-johannsen/whatfools/internal/game/deity"
	"github.com/cory-johannsen/whatfools/internal/game/dice"
	"github.com/cory-johannsen/whatfools/internal/game/engine"
	"github.com/cory-johannsen/whatfools/internal/game/event"
	"github.com/cory-johannsen/whatfools/internal/game/ruleset"
)

func rules(t testing.TB) *ruleset.Ruleset {
	t.Helper()
	rs, err := ruleset.Default()
	require.NoError(t, err)
	return rs
}

func seeded(seed int64) *dice.Roller {
	return dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())
}

func TestCreateRun_ConfigurationErrors(t *testing.T) {
	rs := rules(t)
	cases := []struct {
		name  string
		opts  engine.RunOptions
		field string
	}{
		{"unknown role", engine.RunOptions{RoleKey: "z", Alignment: "l"}, "role"},
		{"priest is no deity", engine.RunOptions{RoleKey: "p", Alignment: "l"}, "role"},
		{"unknown alignment", engine.RunOptions{RoleKey: "k", Alignment: "x"}, "alignment"},
		{"unknown race", engine.RunOptions{RoleKey: "k", Alignment: "l", RaceHint: "hobbit"}, "race"},
		{"race cannot hold alignment", engine.RunOptions{RoleKey: "k", Alignment: "l", RaceHint: "elf"}, "race"},
		{"unknown gender", engine.RunOptions{RoleKey: "k", Alignment: "l", Gender: "x"}, "gender"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.CreateRun(rs, tc.opts, seeded(1), deity.MoodPolicy{}, zaptest.NewLogger(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, engine.ErrConfiguration)
			var cfgErr *engine.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestCreateRun_UnsatisfiableCombinationBecomesPriest(t *testing.T) {
	e, err := engine.CreateRun(rules(t), engine.RunOptions{RoleKey: "k", Alignment: "c"}, seeded(7), deity.MoodPolicy{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	w := e.Worshipper()
	assert.Equal(t, "Priest", w.Role[:6])
	assert.Equal(t, ruleset.Chaotic, w.Alignment)
	assert.Equal(t, "Manannan Mac Lir", e.Deity().Name)
	assert.True(t, e.IsAlive())
	assert.NotEmpty(t, e.RunID())
}

func TestCreateRun_RandomDeity(t *testing.T) {
	e, err := engine.CreateRun(rules(t), engine.RunOptions{}, seeded(3), deity.MoodPolicy{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, e.Deity().Role.SelectableAsDeity())
	assert.NotEmpty(t, e.Deity().Name)
}

func TestTurn_FirstTurnStartsWithGreeting(t *testing.T) {
	e, err := engine.CreateRun(rules(t), engine.RunOptions{RoleKey: "s", Alignment: "l"}, seeded(11), deity.MoodPolicy{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	events, err := e.Turn(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, event.KindRunStarted, events[0].Kind)
	assert.Equal(t, "Konnichi wa", events[0].Name)
}

func playOut(t testing.TB, seed int64) ([]event.Event, engine.Result) {
	t.Helper()
	e, err := engine.CreateRun(rules(t), engine.RunOptions{RoleKey: "w", Alignment: "n", RunID: "fixed", MaxTurns: 50000},
		seeded(seed), deity.MoodPolicy{}, zap.NewNop())
	require.NoError(t, err)
	var all []event.Event
	res, err := e.Run(context.Background(), func(events []event.Event) error {
		all = append(all, events...)
		return nil
	})
	if err != nil {
		require.ErrorIs(t, err, engine.ErrTurnLimit)
	}
	return all, res
}

func TestRun_DeterministicForSameSeed(t *testing.T) {
	first, firstResult := playOut(t, 20031225)
	second, secondResult := playOut(t, 20031225)
	assert.Equal(t, firstResult, secondResult)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestRun_EndsWithExactlyOneTerminalEvent(t *testing.T) {
	events, res := playOut(t, 42)
	if res.State == character.StateAlive {
		t.Skip("run reached the turn limit")
	}
	terminal := 0
	for _, e := range events {
		switch e.Kind {
		case event.KindDied, event.KindQuit, event.KindWon:
			terminal++
		}
	}
	assert.Equal(t, 1, terminal)
	last := events[len(events)-1]
	assert.Equal(t, res.FinalScore, last.Amount)
	switch res.State {
	case character.StateDead:
		assert.Equal(t, int(float64(res.Score)*engine.DeathPenalty), res.FinalScore)
	case character.StateQuit:
		assert.Zero(t, res.Tithe)
	case character.StateWon:
		assert.Equal(t, res.Score, res.FinalScore)
	}
}

func TestRun_StopsAtTurnLimit(t *testing.T) {
	e, err := engine.CreateRun(rules(t), engine.RunOptions{RoleKey: "a", Alignment: "l", MaxTurns: 3, Discovery: true},
		seeded(5), deity.MoodPolicy{}, zap.NewNop())
	require.NoError(t, err)
	res, err := e.Run(context.Background(), nil)
	if res.State == character.StateAlive {
		assert.ErrorIs(t, err, engine.ErrTurnLimit)
		assert.Equal(t, 3, res.Turns)
	}
}

func TestRun_HonorsCancellation(t *testing.T) {
	e, err := engine.CreateRun(rules(t), engine.RunOptions{RoleKey: "a", Alignment: "l"}, seeded(5), deity.MoodPolicy{}, zap.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := e.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Turns)
}

func TestRun_SinkErrorStopsTheRun(t *testing.T) {
	e, err := engine.CreateRun(rules(t), engine.RunOptions{RoleKey: "a", Alignment: "l"}, seeded(5), deity.MoodPolicy{}, zap.NewNop())
	require.NoError(t, err)
	boom := errors.New("connection lost")
	res, err := e.Run(context.Background(), func([]event.Event) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, res.Turns)
}

func TestProperty_RunsPreserveInvariants(t *testing.T) {
	rs := rules(t)
	rapid.Check(t, func(rt *rapid.T) {
		role := rapid.SampledFrom(rs.DeityRoles()).Draw(rt, "role")
		a := rapid.SampledFrom(ruleset.Alignments).Draw(rt, "alignment")
		seed := rapid.Int64().Draw(rt, "seed")
		discovery := rapid.Bool().Draw(rt, "discovery")

		e, err := engine.CreateRun(rs, engine.RunOptions{RoleKey: role.Key, Alignment: a.Key(), Discovery: discovery, MaxTurns: 2000},
			seeded(seed), deity.MoodPolicy{}, zap.NewNop())
		require.NoError(rt, err)
		_, err = e.Run(context.Background(), func([]event.Event) error {
			w := e.Worshipper()
			if w.HP < 0 || w.HP > w.MaxHP || w.MaxHP < 1 || w.ItemPoints < 0 ||
				w.DungeonLevel < 1 || w.DungeonLevel > character.MaxDungeonLevel || w.PrayerTimeout < 0 {
				rt.Fatalf("invariant broken after turn %d: %+v", e.Turns(), w)
			}
			return nil
		})
		if err != nil && !errors.Is(err, engine.ErrTurnLimit) {
			rt.Fatalf("run failed: %v", err)
		}
	})
}
