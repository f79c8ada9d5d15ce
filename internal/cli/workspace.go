package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/kanban/internal/ports/primary"
)

// WorkspaceCmd returns the workspace command
func WorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage workspaces as the system operator",
	}

	cmd.AddCommand(workspaceCreateCmd())
	cmd.AddCommand(workspaceListCmd())

	return cmd
}

func workspaceCreateCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a workspace owned by a user",
		Long: `Create a workspace and make --owner its owner.

Examples:
  kanban workspace create "Acme Platform" --owner user-123`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ws, err := a.Services.Workspaces.CreateWorkspace(ctx, primary.SystemPrincipal(), primary.CreateWorkspaceRequest{
				Name:        args[0],
				OwnerUserID: owner,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Created workspace %s\n", okMark, ws.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "  Name:   %s\n", ws.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "  Prefix: %s\n", ws.Prefix)
			fmt.Fprintf(cmd.OutOrStdout(), "  Owner:  %s\n", owner)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "User id of the owner (required)")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func workspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			workspaces, err := a.Services.Workspaces.ListWorkspaces(ctx, primary.SystemPrincipal())
			if err != nil {
				return err
			}
			if len(workspaces) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No workspaces found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPREFIX\tNAME\tTICKETS")
			for _, ws := range workspaces {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", ws.ID, ws.Prefix, ws.Name, ws.TicketCounter)
			}
			return w.Flush()
		},
	}
}
