package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"bizcard/internal/classifier"
	"bizcard/internal/config"
	"bizcard/internal/logging"
	"bizcard/internal/reconcile"
	"bizcard/internal/services"
	"bizcard/internal/share"
	"bizcard/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	store *store.Store
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
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

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// openStore opens the card store once per invocation; close releases it.
func (c *commandContext) openStore(ctx context.Context) (*store.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open card store: %w", err)
	}
	c.store = st
	return st, nil
}

func (c *commandContext) reconciler(ctx context.Context) (*reconcile.Reconciler, error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return reconcile.New(st, logger), nil
}

func (c *commandContext) classifier() *classifier.Classifier {
	cfg := c.configValue()
	if cfg == nil {
		return classifier.New(classifier.Options{})
	}
	return classifier.FromConfig(cfg.Classifier)
}

// shareSigner returns nil when api.share_secret is unset.
func (c *commandContext) shareSigner() (*share.Signer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.API.ShareSecret == "" {
		return nil, nil
	}
	return share.NewSigner(cfg.API.ShareSecret)
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// exitCode maps failures to process exit codes: 2 for input the user can
// fix, 3 for conflicts and missing cards, 1 otherwise.
func exitCode(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return 2
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrNotFound):
		return 3
	default:
		return 1
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
