package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newCommentCmd creates the comment command group.
func newCommentCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "List and add comments on an issue",
	}
	cmd.AddCommand(newCommentListCmd(provider))
	cmd.AddCommand(newCommentAddCmd(provider))
	return cmd
}

func newCommentListCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "list <issue-id>",
		Short: "List the comments on an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if err := checkID("issue id", args[0]); err != nil {
				return err
			}
			comments, err := app.Client.ListComments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, comments)
			}
			if len(comments) == 0 {
				fmt.Fprintln(app.Out, "No comments.")
				return nil
			}
			for _, c := range comments {
				fmt.Fprintf(app.Out, "[%s] %s (%s): %s\n", c.ID, orDash(c.CreatedBy), relTime(c.CreatedAt), c.Body)
			}
			return nil
		},
	}
}

func newCommentAddCmd(provider *AppProvider) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:     "add <issue-id> <text>",
		Short:   "Add a comment to an issue",
		Example: `  hotticket comment add k3j9x0a1bc "Reproduced on 1.2" --as 0v9c2m1zqq`,
		Args:    cobra.MinimumNArgs(2),
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
			body := strings.TrimSpace(strings.Join(args[1:], " "))
			if err := bodyRule.Validate(body); err != nil {
				return err
			}

			c, err := app.Client.CreateComment(cmd.Context(), args[0], user, body)
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, c)
			}
			fmt.Fprintf(app.Out, "%s comment %s on %s\n", app.SuccessColor("Added"), c.ID, c.IssueID)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Acting user id (default: $HT_USER)")
	return cmd
}
