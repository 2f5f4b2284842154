package cmd

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"hotticket/internal/entity"

	"github.com/spf13/cobra"
)

// newUserCmd creates the user command group.
func newUserCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "List and create users",
	}
	cmd.AddCommand(newUserListCmd(provider))
	cmd.AddCommand(newUserCreateCmd(provider))
	return cmd
}

func newUserListCmd(provider *AppProvider) *cobra.Command {
	var roles []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			query := url.Values{}
			if len(roles) > 0 {
				query["role"] = roles
			}
			users, err := app.Client.ListUsers(cmd.Context(), query)
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, users)
			}
			if len(users) == 0 {
				fmt.Fprintln(app.Out, "No users found.")
				return nil
			}
			tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tROLE")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.Name, u.Role)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringSliceVar(&roles, "role", nil, "Only users with this role (repeatable)")
	return cmd
}

func newUserCreateCmd(provider *AppProvider) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a user",
		Example: `  hotticket user create "Steven Trinh"
  hotticket user create "Ann Lee" --role QA`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			name := args[0]
			if err := nameRule.Validate(name); err != nil {
				return fmt.Errorf("invalid name: %w", err)
			}
			u, err := app.Client.CreateUser(cmd.Context(), name, role)
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, u)
			}
			fmt.Fprintf(app.Out, "%s user %s (%s, %s)\n", app.SuccessColor("Created"), u.ID, u.Name, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", entity.DefaultRole, "Role of the user")
	return cmd
}
