package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/shownotes/internal/app"
	"github.com/conorfennell/shownotes/internal/config"
	"github.com/conorfennell/shownotes/internal/logging"
)

// commandContext carries the loaded configuration and application between the
// root command's hooks and its subcommands.
type commandContext struct {
	cfg *config.Config
	app *app.App
}

func (c *commandContext) load(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if _, err := logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
		return err
	}
	c.cfg = cfg

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	c.app = a
	return nil
}

func (c *commandContext) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// showFlag resolves the --show flag, falling back to the default show.
func (c *commandContext) showFlag(show string) string {
	if show == "" {
		return c.cfg.DefaultShow
	}
	return show
}
