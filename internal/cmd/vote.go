package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVoteCmd creates the vote command.
func newVoteCmd(provider *AppProvider) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "vote <issue-id>",
		Short: "Toggle your vote on an issue",
		Long: `Add your vote to an issue, or remove it if you already voted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			user, err := resolveUser(app, as)
			if err != nil {
				return err
			}
			if err := checkID("issue id", args[0]); err != nil {
				return err
			}
			voted, err := app.Client.ToggleVote(cmd.Context(), args[0], user)
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, map[string]any{"issue": args[0], "voted": voted})
			}
			if voted {
				fmt.Fprintf(app.Out, "%s on %s\n", app.SuccessColor("Voted"), args[0])
			} else {
				fmt.Fprintf(app.Out, "%s from %s\n", app.WarnColor("Vote removed"), args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Acting user id (default: $HT_USER)")
	return cmd
}
