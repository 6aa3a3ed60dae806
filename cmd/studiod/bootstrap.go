package main

import (
	"context"
	"fmt"
	"log/slog"

	"studiorouter/internal/config"
	"studiorouter/internal/daemon"
	"studiorouter/internal/logging"
	"studiorouter/internal/studio"
)

// run starts the daemon and blocks until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, path, exists, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if !exists {
		logger.Warn("config file not found; using defaults", logging.String("path", path))
	}

	d, err := bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-ctx.Done()
	logger.Info("studiod shutting down")
	return nil
}

// bootstrap opens the studio store and wires the daemon around it.
func bootstrap(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	store, err := studio.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open studio store: %w", err)
	}
	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	return d, nil
}
