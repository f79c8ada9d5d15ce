package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/kanban/internal/ports/primary"
)

// KeyCmd returns the key command
func KeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage workspace API keys",
	}

	cmd.PersistentFlags().String("workspace", "", "Workspace id (required)")
	cmd.MarkPersistentFlagRequired("workspace")

	cmd.AddCommand(keyCreateCmd())
	cmd.AddCommand(keyListCmd())
	cmd.AddCommand(keyRevokeCmd())

	return cmd
}

func systemScope(cmd *cobra.Command) primary.Scope {
	workspaceID, _ := cmd.Flags().GetString("workspace")
	return primary.Scope{Principal: primary.SystemPrincipal(), WorkspaceID: workspaceID}
}

func keyCreateCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Issue an API key",
		Long: `Issue an API key for an agent or integration. The secret is printed
once and cannot be retrieved again.

Examples:
  kanban key create "ci runner" --workspace <id>
  kanban key create "board admin" --workspace <id> --role admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.Services.APIKeys.CreateKey(ctx, systemScope(cmd), primary.CreateAPIKeyRequest{
				Name: args[0],
				Role: role,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Created %s key %s (%s)\n", okMark, created.Role, created.ID, created.Name)
			fmt.Fprintf(out, "\n  %s\n\n", created.Secret)
			fmt.Fprintf(out, "%s\n", color.New(color.FgYellow).Sprint("Store this secret now; it will not be shown again."))
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Key role: agent (default) or admin")
	return cmd
}

func keyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			keys, err := a.Services.APIKeys.ListKeys(ctx, systemScope(cmd))
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No API keys found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tROLE\tNAME\tCREATED")
			for _, k := range keys {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", k.ID, k.Role, k.Name, k.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

func keyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke [key-id]",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Services.APIKeys.DeleteKey(ctx, systemScope(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Revoked key %s\n", okMark, args[0])
			return nil
		},
	}
}
