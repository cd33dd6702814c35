package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bookorder/internal/api"
	"bookorder/internal/catalog"
	"bookorder/internal/config"
	"bookorder/internal/session"
	"bookorder/internal/shell"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := catalog.Open(ctx, cfg.Catalog, logger)
	if err != nil {
		return fmt.Errorf("failed to load catalogue: %w", err)
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger)
	orderSession := session.New(client, logger)

	logger.Debug().Str("api_base_url", cfg.API.BaseURL).Msg("starting shop")

	sh := shell.New(os.Stdin, os.Stdout, store, orderSession, client, logger)
	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
