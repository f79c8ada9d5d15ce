package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/kanban/internal/cli"
	"github.com/example/kanban/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "kanban",
		Short:   "Kanban - multi-tenant ticket board for humans and agents",
		Version: version.String(),
		Long: `Kanban serves a workspace-scoped ticket board over HTTP. Humans sign in
with session tokens; agents use workspace API keys and claim tickets
through guarded status transitions.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String(cli.ConfigFlag, "", "Path to YAML config (default $KANBAN_CONFIG)")

	// Server
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.MigrateCmd())

	// Operator tools
	rootCmd.AddCommand(cli.WorkspaceCmd())
	rootCmd.AddCommand(cli.KeyCmd())
	rootCmd.AddCommand(cli.SessionCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
