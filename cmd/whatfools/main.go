// Command whatfools plays one deity's run in the terminal: the worshipper
// adventures on its own and you answer its prayers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/whatfools/internal/config"
	"github.com/cory-johannsen/whatfools/internal/frontend/handlers"
	"github.com/cory-johannsen/whatfools/internal/game/deity"
	"github.com/cory-johannsen/whatfools/internal/game/engine"
	"github.com/cory-johannsen/whatfools/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file (defaults and WFTM_* environment when empty)")
	role := flag.String("p", "", "deity role key, e.g. k for Knight")
	alignment := flag.String("a", "", "deity alignment: l, n or c")
	race := flag.String("r", "", "worshipper race id")
	discovery := flag.Bool("D", false, "discovery mode: the worshipper cannot die")
	seed := flag.Int64("seed", 0, "dice seed; 0 draws a fresh one")
	script := flag.String("script", "", "Lua deity script answering prayers")
	auto := flag.Bool("auto", false, "answer every prayer by mood instead of asking")
	verbose := flag.Bool("v", false, "narrate every step of the run")
	color := flag.Bool("color", true, "use ANSI colors")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Game.Role = *role
		case "a":
			cfg.Game.Alignment = *alignment
		case "r":
			cfg.Game.Race = *race
		case "D":
			cfg.Game.Discovery = *discovery
		case "seed":
			cfg.Game.Seed = *seed
		case "script":
			cfg.Scripting.DeityScript = *script
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid options: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	rules, err := handlers.LoadRuleset(cfg.Content)
	if err != nil {
		logger.Fatal("loading ruleset", zap.Error(err))
	}
	opts, err := handlers.NewGameOptions(cfg, logger)
	if err != nil {
		logger.Fatal("building game options", zap.Error(err))
	}

	if *auto && opts.NewPolicy == nil {
		opts.NewPolicy = handlers.StaticPolicy(deity.MoodPolicy{})
	}
	opts.AskDeity = opts.NewPolicy == nil
	opts.Pause = opts.NewPolicy == nil
	opts.Narration = handlers.NarratorOptions{Color: *color, Verbose: *verbose}

	logger.Debug("whatfools initialized",
		zap.Int("roles", len(rules.Roles)),
		zap.Int("races", len(rules.Races)),
		zap.Bool("scripted", cfg.Scripting.DeityScript != ""),
		zap.Duration("startup", time.Since(start)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn := handlers.NewConsoleConn(os.Stdin, os.Stdout)
	err = handlers.NewGameHandler(rules, opts).Play(ctx, conn, logger)
	switch {
	case err == nil, errors.Is(err, handlers.ErrPlayerLeft), errors.Is(err, context.Canceled):
	case errors.Is(err, engine.ErrConfiguration):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "whatfools: %v\n", err)
		os.Exit(1)
	}
}
