package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/kanban/internal/adapters/session"
	"github.com/example/kanban/internal/ports/primary"
)

// SessionCmd returns the session command
func SessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session token helpers for development",
	}
	cmd.AddCommand(sessionMintCmd())
	return cmd
}

func sessionMintCmd() *cobra.Command {
	var identity primary.SessionIdentity

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a signed session token for a user",
		Long: `Mint a session token signed with auth.session_secret. Use it as a
Bearer token or as the session cookie value.

Examples:
  kanban session mint --user dev-user
  TOKEN=$(kanban session mint --user dev-user --email dev@example.com)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			mgr, err := session.NewManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, nil)
			if err != nil {
				return err
			}
			token, err := mgr.Issue(identity)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&identity.UserID, "user", "", "User id (required)")
	cmd.Flags().StringVar(&identity.Email, "email", "", "Email claim")
	cmd.Flags().StringVar(&identity.DisplayName, "name", "", "Display name claim")
	cmd.MarkFlagRequired("user")
	return cmd
}
