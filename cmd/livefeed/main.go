package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"livefeed/internal/infrastructure/config"
	"livefeed/internal/infrastructure/logger"
	"livefeed/internal/infrastructure/svc"

	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	logger.Setup("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service context initialization failed")
	}
	defer func() {
		if err := sc.Close(); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}()

	log.Info().
		Str("config", *configPath).
		Str("source", cfg.Source.Name).
		Strs("tokens", cfg.Tokens.List).
		Int("print_every_min", cfg.App.PrintEveryMin).
		Msg("livefeed started")

	if err := sc.Run(ctx); err != nil {
		log.Error().Err(err).Msg("livefeed exited")
	}
}
