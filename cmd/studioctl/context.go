package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"studiorouter/internal/api"
	"studiorouter/internal/config"
	"studiorouter/internal/studio"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the studio database for the duration of fn.
func (c *commandContext) withStore(fn func(*studio.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := studio.Open(cfg)
	if err != nil {
		return fmt.Errorf("open studio store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// withService runs fn against a service backed by a directly opened store.
// Resolution is computed per call since no resolver cache outlives the
// command.
func (c *commandContext) withService(fn func(*api.StudioService) error) error {
	return c.withStore(func(store *studio.Store) error {
		return fn(api.NewStudioService(store, nil))
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
