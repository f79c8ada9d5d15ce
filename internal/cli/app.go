package cli

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/kanban/internal/config"
	"github.com/example/kanban/internal/wire"
)

// ConfigFlag is the persistent flag naming the YAML config file.
const ConfigFlag = "config"

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("⚠")
)

// loadConfig resolves --config, falling back to KANBAN_CONFIG and defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(ConfigFlag)
	return config.Load(path)
}

// openApp builds the application for commands that need the database.
// Logs go to stderr so that command output stays clean.
func openApp(ctx context.Context, cmd *cobra.Command) (*wire.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return wire.New(ctx, cfg, os.Stderr)
}
