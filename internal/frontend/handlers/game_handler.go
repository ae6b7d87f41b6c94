package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/whatfools/internal/frontend/telnet"
	"github.com/cory-johannsen/whatfools/internal/game/character"
	"github.com/cory-johannsen/whatfools/internal/game/deity"
	"github.com/cory-johannsen/whatfools/internal/game/dice"
	"github.com/cory-johannsen/whatfools/internal/game/engine"
	"github.com/cory-johannsen/whatfools/internal/game/event"
	"github.com/cory-johannsen/whatfools/internal/game/ruleset"
)

// ErrPlayerLeft is returned when the player quits a menu before a run starts.
var ErrPlayerLeft = errors.New("player left")

// PolicyFactory builds the decision port of one run. roller is the run's own
// roller, so a policy that rolls dice draws from the run's stream. release is
// called once the run ends.
type PolicyFactory func(roller *dice.Roller, logger *zap.Logger) (port deity.DecisionPort, release func(), err error)

// StaticPolicy returns a PolicyFactory handing out port, which must be
// stateless and must not roll dice of its own.
func StaticPolicy(port deity.DecisionPort) PolicyFactory {
	return func(*dice.Roller, *zap.Logger) (deity.DecisionPort, func(), error) {
		return port, func() {}, nil
	}
}

// GameOptions configures the sessions of a GameHandler.
type GameOptions struct {
	// Run is the template of every run; empty role and alignment may be asked for.
	Run engine.RunOptions
	// Narration tunes the rendered text.
	Narration NarratorOptions
	// NewPolicy builds the port answering a run's prayers; nil asks the player
	// over the connection.
	NewPolicy PolicyFactory
	// AskDeity offers to pick, or lets the player choose, a role and alignment left empty in Run.
	AskDeity bool
	// Pause waits for Enter after the introduction.
	Pause bool
	// Replay offers another run once one ends.
	Replay bool
	// NewRoller returns the randomness of one run.
	NewRoller func(logger *zap.Logger) *dice.Roller
}

// GameHandler plays runs over a line connection. As a telnet.SessionHandler it
// gives every connection its own independent runs.
type GameHandler struct {
	rules *ruleset.Ruleset
	opts  GameOptions
}

// NewGameHandler returns a handler playing runs built from rules.
//
// Precondition: rules and opts.NewRoller must be non-nil.
func NewGameHandler(rules *ruleset.Ruleset, opts GameOptions) *GameHandler {
	if rules == nil || opts.NewRoller == nil {
		panic("handlers: NewGameHandler precondition violated: rules and NewRoller must be non-nil")
	}
	return &GameHandler{rules: rules, opts: opts}
}

// HandleSession plays over a Telnet connection.
func (h *GameHandler) HandleSession(ctx context.Context, conn *telnet.Conn, logger *zap.Logger) error {
	return h.Play(ctx, conn, logger)
}

// Play runs the session: deity selection, the run itself and the ending,
// repeated while the player asks for another run.
//
// Postcondition: Returns nil when the player is done, ErrPlayerLeft when they
// quit a menu, or the connection, context or engine error that ended the session.
func (h *GameHandler) Play(ctx context.Context, conn LineConn, logger *zap.Logger) error {
	if err := writeLines(conn, h.splash()); err != nil {
		return err
	}
	for {
		opts := h.opts.Run
		if h.opts.AskDeity {
			if err := h.chooseDeity(ctx, conn, &opts); err != nil {
				return err
			}
		}
		if err := h.playRun(ctx, conn, opts, logger); err != nil {
			return err
		}
		if !h.opts.Replay {
			return nil
		}
		again, err := askYesNo(ctx, conn, "Play again?")
		if err != nil || !again {
			return err
		}
	}
}

func (h *GameHandler) splash() []string {
	return []string{
		h.style(telnet.BrightWhite, "What Fools These Mortals"),
		"A game of divine neglect.",
		"",
	}
}

func (h *GameHandler) style(color, text string) string {
	if !h.opts.Narration.Color {
		return text
	}
	return telnet.Colorize(color, text)
}

// chooseDeity fills the empty role and alignment of opts, at random or from menus.
func (h *GameHandler) chooseDeity(ctx context.Context, conn LineConn, opts *engine.RunOptions) error {
	if opts.RoleKey != "" && opts.Alignment != "" {
		return nil
	}
	what := "a deity for you"
	switch {
	case opts.Alignment != "":
		what = "a role for your deity"
	case opts.RoleKey != "":
		what = "an alignment for your deity"
	}
	pick, err := askYesNo(ctx, conn, fmt.Sprintf("Shall I pick %s?", what))
	if err != nil || pick {
		return err
	}

	if opts.RoleKey == "" {
		roles := h.rules.DeityRoles()
		entries := make([]menuEntry, 0, len(roles))
		for _, r := range roles {
			entries = append(entries, menuEntry{key: r.Key, label: r.PluralName})
		}
		key, err := askMenu(ctx, conn, "Choose the profession from which you draw worshippers.", entries)
		if err != nil {
			return err
		}
		opts.RoleKey = key
	}
	if opts.Alignment == "" {
		entries := make([]menuEntry, 0, len(ruleset.Alignments))
		for _, a := range ruleset.Alignments {
			entries = append(entries, menuEntry{key: strings.ToLower(a.String()[:1]), label: a.String()})
		}
		key, err := askMenu(ctx, conn, "Choose an alignment.", entries)
		if err != nil {
			return err
		}
		opts.Alignment = key
	}
	return nil
}

func (h *GameHandler) playRun(ctx context.Context, conn LineConn, opts engine.RunOptions, logger *zap.Logger) error {
	start := time.Now()
	roller := h.opts.NewRoller(logger)
	var (
		port  deity.DecisionPort
		asker *LineDeity
	)
	if h.opts.NewPolicy != nil {
		p, release, err := h.opts.NewPolicy(roller, logger)
		if err != nil {
			return fmt.Errorf("building deity policy: %w", err)
		}
		defer release()
		port = p
	} else {
		asker = NewLineDeity(conn, h.opts.Narration.Color)
		port = asker
	}

	eng, err := engine.CreateRun(h.rules, opts, roller, port, logger)
	if err != nil {
		if errors.Is(err, engine.ErrConfiguration) {
			return errors.Join(conn.WriteLine(fmt.Sprintf("Cannot start: %v", err)), err)
		}
		return err
	}

	n := NewNarrator(eng.Deity(), eng.Worshipper(), h.opts.Narration)
	if err := writeLines(conn, append(n.Intro(), "")); err != nil {
		return err
	}
	if h.opts.Pause {
		if err := conn.WritePrompt("--More--"); err != nil {
			return err
		}
		if _, err := conn.ReadLine(ctx); err != nil {
			return err
		}
	}

	shown := 0
	if asker != nil {
		asker.BeforePrompt = func() error {
			pending := eng.Pending()
			lines := n.RenderAll(pending[min(shown, len(pending)):])
			shown = len(pending)
			return writeLines(conn, lines)
		}
	}
	res, err := eng.Run(ctx, func(events []event.Event) error {
		lines := n.RenderAll(events[min(shown, len(events)):])
		shown = 0
		return writeLines(conn, lines)
	})

	logger.Info("run finished",
		zap.String("run_id", res.RunID),
		zap.Stringer("state", res.State),
		zap.Int("turns", res.Turns),
		zap.Int("final_score", res.FinalScore),
		zap.Duration("elapsed", time.Since(start)),
	)
	if errors.Is(err, engine.ErrTurnLimit) {
		return writeLines(conn, []string{"", fmt.Sprintf("The chronicle breaks off after %d turns, on level %d.", res.Turns, res.Level)})
	}
	if err != nil {
		return err
	}
	if res.State == character.StateAlive {
		return nil
	}
	return writeLines(conn, append([]string{""}, n.Summary(res)...))
}

type menuEntry struct {
	key   string
	label string
}

// askMenu lists entries plus random and quit, and returns the chosen key.
func askMenu(ctx context.Context, conn LineConn, title string, entries []menuEntry) (string, error) {
	lines := []string{title}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("  %s - %s", e.key, e.label))
	}
	lines = append(lines, "  * - Random", "  q - Quit")
	if err := writeLines(conn, lines); err != nil {
		return "", err
	}
	for {
		if err := conn.WritePrompt("> "); err != nil {
			return "", err
		}
		line, err := conn.ReadLine(ctx)
		if err != nil {
			return "", err
		}
		answer := strings.TrimSpace(line)
		switch answer {
		case "q":
			return "", ErrPlayerLeft
		case "*":
			return "", nil
		}
		for _, e := range entries {
			if answer == e.key {
				return e.key, nil
			}
		}
	}
}

// askYesNo asks question until the answer is y, n or q.
func askYesNo(ctx context.Context, conn LineConn, question string) (bool, error) {
	for {
		if err := conn.WritePrompt(question + " [ynq] "); err != nil {
			return false, err
		}
		line, err := conn.ReadLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		case "q", "quit":
			return false, ErrPlayerLeft
		}
	}
}

func writeLines(conn LineConn, lines []string) error {
	for _, l := range lines {
		if err := conn.WriteLine(l); err != nil {
			return err
		}
	}
	return nil
}
