// Command deityserver offers the deity game over Telnet. Every connection
// plays its own independent runs.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/whatfools/internal/config"
	"github.com/cory-johannsen/whatfools/internal/frontend/handlers"
	"github.com/cory-johannsen/whatfools/internal/frontend/telnet"
	"github.com/cory-johannsen/whatfools/internal/observability"
	"github.com/cory-johannsen/whatfools/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting deity server", zap.String("telnet_addr", cfg.Telnet.Addr()))

	rules, err := handlers.LoadRuleset(cfg.Content)
	if err != nil {
		logger.Fatal("loading ruleset", zap.Error(err))
	}
	logger.Info("ruleset loaded",
		zap.Int("roles", len(rules.Roles)),
		zap.Int("races", len(rules.Races)),
	)

	opts, err := handlers.NewGameOptions(cfg, logger)
	if err != nil {
		logger.Fatal("building game options", zap.Error(err))
	}
	opts.AskDeity = true
	opts.Pause = opts.NewPolicy == nil
	opts.Replay = true
	opts.Narration = handlers.NarratorOptions{Color: true}

	acceptor := telnet.NewAcceptor(cfg.Telnet, handlers.NewGameHandler(rules, opts), logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("deity server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Bool("scripted", opts.NewPolicy != nil),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
