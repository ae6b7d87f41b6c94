package handlers_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/whatfools/internal/config"
	"github.com/cory-johannsen/whatfools/internal/frontend/handlers"
	"github.com/cory-johannsen/whatfools/internal/frontend/telnet"
	"github.com/cory-johannsen/whatfools/internal/game/deity"
	"github.com/cory-johannsen/whatfools/internal/game/dice"
	"github.com/cory-johannsen/whatfools/internal/game/engine"
	"github.com/cory-johannsen/whatfools/internal/game/event"
	"github.com/cory-johannsen/whatfools/internal/testutil"
)

func seededRollers(seed int64) func(*zap.Logger) *dice.Roller {
	return func(logger *zap.Logger) *dice.Roller {
		return dice.NewLoggedRoller(dice.NewSeededSource(seed), logger)
	}
}

func output(c *fakeConn) string {
	return strings.Join(c.lines, "\n")
}

func assertEnded(t *testing.T, out string) {
	t.Helper()
	ended := strings.Contains(out, "Your chosen one scored") || strings.Contains(out, "The chronicle breaks off")
	assert.True(t, ended, "no ending in:\n%s", out)
}

func TestPlay_AutomaticDeityRunsToEnd(t *testing.T) {
	h := handlers.NewGameHandler(rules(t), handlers.GameOptions{
		Run:       engine.RunOptions{RoleKey: "k", Alignment: "l", MaxTurns: 200000},
		NewPolicy: handlers.StaticPolicy(deity.MoodPolicy{}),
		NewRoller: seededRollers(42),
	})
	conn := &fakeConn{}

	require.NoError(t, h.Play(context.Background(), conn, zaptest.NewLogger(t)))
	out := output(conn)
	assert.Contains(t, out, "What Fools These Mortals")
	assert.Contains(t, out, "Salutations, Lugh, Lawful protector of Knights.")
	assertEnded(t, out)
	assert.Empty(t, conn.prompts, "an automatic deity never asks")
}

func TestPlay_PlayerWithdraws(t *testing.T) {
	h := handlers.NewGameHandler(rules(t), handlers.GameOptions{
		Run:       engine.RunOptions{RoleKey: "v", Alignment: "n", MaxTurns: 200000},
		NewRoller: seededRollers(5),
	})
	conn := &fakeConn{fallback: "q"}

	require.NoError(t, h.Play(context.Background(), conn, zaptest.NewLogger(t)))
	out := output(conn)
	assertEnded(t, out)
	if strings.Contains(out, "Do you want to") {
		assert.Contains(t, out, "What the?!? Your chosen one just quit her quest!")
		assert.Contains(t, out, "Because she quit, you get none of that.")
	}
}

func TestPlay_NarrationPrecedesQuestion(t *testing.T) {
	h := handlers.NewGameHandler(rules(t), handlers.GameOptions{
		Run:       engine.RunOptions{RoleKey: "s", Alignment: "l", MaxTurns: 200000},
		NewRoller: seededRollers(9),
	})
	conn := &fakeConn{fallback: "i"}

	require.NoError(t, h.Play(context.Background(), conn, zaptest.NewLogger(t)))
	for i, line := range conn.lines {
		if strings.HasPrefix(line, "Do you want to") {
			require.Greater(t, i, 0)
			assert.NotEmpty(t, conn.lines[i-1], "the prayer is narrated before the question")
		}
	}
}

func TestPlay_MenusChooseDeity(t *testing.T) {
	h := handlers.NewGameHandler(rules(t), handlers.GameOptions{
		Run:       engine.RunOptions{MaxTurns: 200000},
		NewPolicy: handlers.StaticPolicy(deity.MoodPolicy{}),
		AskDeity:  true,
		NewRoller: seededRollers(3),
	})
	conn := &fakeConn{input: []string{"maybe", "n", "zz", "k", "l"}}

	require.NoError(t, h.Play(context.Background(), conn, zaptest.NewLogger(t)))
	out := output(conn)
	assert.Contains(t, out, "Choose the profession from which you draw worshippers.")
	assert.Contains(t, out, "  k - Knights")
	assert.Contains(t, out, "Choose an alignment.")
	assert.Contains(t, out, "Lugh, Lawful protector of Knights.")
	assert.Contains(t, conn.prompts, "Shall I pick a deity for you? [ynq] ")
}

func TestPlay_QuitAtMenu(t *testing.T) {
	h := handlers.NewGameHandler(rules(t), handlers.GameOptions{
		AskDeity:  true,
		NewPolicy: handlers.StaticPolicy(deity.MoodPolicy{}),
		NewRoller: seededRollers(3),
	})
	conn := &fakeConn{input: []string{"n", "q"}}

	err := h.Play(context.Background(), conn, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, handlers.ErrPlayerLeft)
}

func TestPlay_ConfigurationErrorIsShown(t *testing.T) {
	h := handlers.NewGameHandler(rules(t), handlers.GameOptions{
		Run:       engine.RunOptions{RoleKey: "k", Alignment: "l", RaceHint: "hobbit"},
		NewPolicy: handlers.StaticPolicy(deity.MoodPolicy{}),
		NewRoller: seededRollers(3),
	})
	conn := &fakeConn{}

	err := h.Play(context.Background(), conn, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, engine.ErrConfiguration)
	assert.Contains(t, output(conn), "Cannot start: invalid race")
}

func TestPlay_TurnLimit(t *testing.T) {
	h := handlers.NewGameHandler(rules(t), handlers.GameOptions{
		Run:       engine.RunOptions{RoleKey: "k", Alignment: "l", Discovery: true, MaxTurns: 3},
		NewPolicy: handlers.StaticPolicy(deity.MoodPolicy{}),
		NewRoller: seededRollers(1),
	})
	conn := &fakeConn{}

	require.NoError(t, h.Play(context.Background(), conn, zaptest.NewLogger(t)))
	assertEnded(t, output(conn))
}

func TestPlay_ReplayAsksAgain(t *testing.T) {
	h := handlers.NewGameHandler(rules(t), handlers.GameOptions{
		Run:       engine.RunOptions{RoleKey: "k", Alignment: "l", MaxTurns: 5},
		NewPolicy: handlers.StaticPolicy(deity.MoodPolicy{}),
		Replay:    true,
		NewRoller: seededRollers(1),
	})
	conn := &fakeConn{input: []string{"y", "n"}}

	require.NoError(t, h.Play(context.Background(), conn, zaptest.NewLogger(t)))
	assert.Equal(t, []string{"Play again? [ynq] ", "Play again? [ynq] "}, conn.prompts)
	assert.Equal(t, 2, strings.Count(output(conn), "Salutations, Lugh"))
}

func TestNewGameHandler_Preconditions(t *testing.T) {
	assert.Panics(t, func() { handlers.NewGameHandler(nil, handlers.GameOptions{NewRoller: seededRollers(1)}) })
	assert.Panics(t, func() { handlers.NewGameHandler(rules(t), handlers.GameOptions{}) })
}

func TestGameHandler_TelnetSession(t *testing.T) {
	h := handlers.NewGameHandler(rules(t), handlers.GameOptions{
		Run:       engine.RunOptions{RoleKey: "k", Alignment: "l", MaxTurns: 200000},
		Narration: handlers.NarratorOptions{Color: true},
		AskDeity:  true,
		Pause:     true,
		NewRoller: seededRollers(21),
	})
	acc := telnet.NewAcceptor(config.TelnetConfig{
		Host:         "127.0.0.1",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, h, zaptest.NewLogger(t))
	go func() { _ = acc.ListenAndServe() }()
	t.Cleanup(acc.Stop)
	require.Eventually(t, func() bool {
		return acc.IsRunning() && acc.Addr() != ""
	}, 2*time.Second, 10*time.Millisecond)

	client := testutil.NewTelnetClient(t, acc.Addr())
	client.Expect("What Fools These Mortals")
	client.Answer("--More--", "")
	greeting := client.Expect("Salutations, Lugh, Lawful protector of Knights.")
	assert.NotContains(t, greeting, "--More--", "the pause was consumed before the greeting")
	assert.NotContains(t, client.Transcript(), "\x1b[3", "colors are stripped before matching")
	client.Close()

	require.Eventually(t, func() bool {
		return acc.ActiveSessions() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNewGameOptions_FromConfig(t *testing.T) {
	cfg := config.Config{Game: config.GameConfig{Role: "k", Alignment: "l", Race: "human", MaxTurns: 9, Seed: 7}}
	opts, err := handlers.NewGameOptions(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, engine.RunOptions{RoleKey: "k", Alignment: "l", RaceHint: "human", MaxTurns: 9}, opts.Run)
	assert.Nil(t, opts.NewPolicy)
	a := opts.NewRoller(zaptest.NewLogger(t)).IntRange(1, 1000)
	b := opts.NewRoller(zaptest.NewLogger(t)).IntRange(1, 1000)
	assert.Equal(t, a, b, "a fixed seed replays the same dice")
}

func TestNewGameOptions_DeityScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smite.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function choose(prompt, options) return "smite" end`), 0o644))

	cfg := config.Config{Scripting: config.ScriptingConfig{DeityScript: path, InstructionLimit: 1000}}
	opts, err := handlers.NewGameOptions(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, opts.NewPolicy)

	port, release, err := opts.NewPolicy(opts.NewRoller(zaptest.NewLogger(t)), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer release()
	key, err := port.PresentOptions(context.Background(), deity.Prompt{Kind: deity.PrayerHelp}, helpOptions)
	require.NoError(t, err)
	assert.Equal(t, deity.OptionSmite, key)

	cfg.Scripting.DeityScript = filepath.Join(dir, "missing.lua")
	_, err = handlers.NewGameOptions(cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "loading deity script")

	require.NoError(t, os.WriteFile(path, []byte(`function choose(`), 0o644))
	cfg.Scripting.DeityScript = path
	_, err = handlers.NewGameOptions(cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "loading deity script", "a broken script fails before any session starts")
}

func TestScriptPolicy_SeededRunsReplay(t *testing.T) {
	cfg := config.Config{
		Game:      config.GameConfig{Role: "p", Alignment: "n", MaxTurns: 200000, Seed: 42},
		Scripting: config.ScriptingConfig{DeityScript: "../../../configs/deities/capricious.lua", InstructionLimit: 100000},
	}
	opts, err := handlers.NewGameOptions(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	run := func() (engine.Result, []event.Event) {
		roller := opts.NewRoller(zaptest.NewLogger(t))
		port, release, err := opts.NewPolicy(roller, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer release()
		eng, err := engine.CreateRun(rules(t), opts.Run, roller, port, zaptest.NewLogger(t))
		require.NoError(t, err)
		var all []event.Event
		res, err := eng.Run(context.Background(), func(evs []event.Event) error {
			all = append(all, evs...)
			return nil
		})
		if err != nil {
			require.ErrorIs(t, err, engine.ErrTurnLimit)
		}
		res.RunID = ""
		return res, all
	}

	first, firstEvents := run()
	second, secondEvents := run()
	require.NotEmpty(t, firstEvents)
	assert.Equal(t, first, second)
	assert.Equal(t, firstEvents, secondEvents)
}

func TestPlay_ScriptedRunsReplayNarration(t *testing.T) {
	factory, err := handlers.ScriptPolicy("../../../configs/deities/capricious.lua", 100000, zaptest.NewLogger(t))
	require.NoError(t, err)
	h := handlers.NewGameHandler(rules(t), handlers.GameOptions{
		Run:       engine.RunOptions{RoleKey: "k", Alignment: "l", MaxTurns: 200000},
		NewPolicy: factory,
		NewRoller: seededRollers(42),
	})

	first, second := &fakeConn{}, &fakeConn{}
	require.NoError(t, h.Play(context.Background(), first, zaptest.NewLogger(t)))
	require.NoError(t, h.Play(context.Background(), second, zaptest.NewLogger(t)))
	assertEnded(t, output(first))
	assert.Equal(t, output(first), output(second), "each run loads the script afresh on its own roller")
}

func TestLoadRuleset(t *testing.T) {
	rs, err := handlers.LoadRuleset(config.ContentConfig{})
	require.NoError(t, err)
	assert.NotEmpty(t, rs.DeityRoles())

	_, err = handlers.LoadRuleset(config.ContentConfig{Dir: filepath.Join(t.TempDir(), "nope")})
	assert.ErrorContains(t, err, "loading content from")
}
