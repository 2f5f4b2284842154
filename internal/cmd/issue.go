package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"text/tabwriter"

	"hotticket/internal/client"
	"hotticket/internal/entity"

	"github.com/spf13/cobra"
)

// newIssueCmd creates the issue command group.
func newIssueCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "List, show, create and update issues",
	}
	cmd.AddCommand(newIssueListCmd(provider))
	cmd.AddCommand(newIssueShowCmd(provider))
	cmd.AddCommand(newIssueCreateCmd(provider))
	cmd.AddCommand(newIssueAssignCmd(provider))
	cmd.AddCommand(newIssueStatusCmd(provider))
	return cmd
}

func newIssueListCmd(provider *AppProvider) *cobra.Command {
	var (
		statuses []string
		assignee string
		reporter string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues",
		Long: `List issues, optionally filtered. Repeating --status matches any of the
given statuses; different filters must all match.

Examples:
  hotticket issue list --status New --status Assigned
  hotticket issue list --assigned-to k3j9x0a1bc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			query := url.Values{}
			if len(statuses) > 0 {
				query["status"] = statuses
			}
			if assignee != "" {
				if err := checkID("user id", assignee); err != nil {
					return err
				}
				query.Set("assignedTo", assignee)
			}
			if reporter != "" {
				if err := checkID("user id", reporter); err != nil {
					return err
				}
				query.Set("reporter", reporter)
			}

			issues, err := app.Client.ListIssues(cmd.Context(), query)
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, issues)
			}
			if len(issues) == 0 {
				fmt.Fprintln(app.Out, "No issues found.")
				return nil
			}
			tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tVOTES\tASSIGNEE\tCREATED\tTITLE")
			for _, i := range issues {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
					i.ID, i.Status, len(i.Votes), orDash(i.AssignedTo), relTime(i.CreatedAt), i.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only issues with this status (repeatable)")
	cmd.Flags().StringVar(&assignee, "assigned-to", "", "Only issues assigned to this user id")
	cmd.Flags().StringVar(&reporter, "reporter", "", "Only issues reported by this user id")
	return cmd
}

func newIssueShowCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "show <issue-id>",
		Short: "Show an issue with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if err := checkID("issue id", args[0]); err != nil {
				return err
			}
			ctx := cmd.Context()
			issue, err := app.Client.GetIssue(ctx, args[0])
			if err != nil {
				return err
			}
			comments, err := app.Client.ListComments(ctx, issue.ID)
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, struct {
					client.Issue
					Comments []client.Comment `json:"comments"`
				}{issue, comments})
			}
			return outputIssue(app, issue, comments)
		},
	}
}

// outputIssue formats and outputs the issue details.
func outputIssue(app *App, issue client.Issue, comments []client.Comment) error {
	fmt.Fprintf(app.Out, "%s: %s\n", issue.ID, issue.Title)
	fmt.Fprintln(app.Out, strings.Repeat("-", len(issue.ID)+len(issue.Title)+2))

	fmt.Fprintf(app.Out, "Status:   %s\n", issue.Status)
	fmt.Fprintf(app.Out, "Reporter: %s\n", orDash(issue.Reporter))
	fmt.Fprintf(app.Out, "Assignee: %s\n", orDash(issue.AssignedTo))
	fmt.Fprintf(app.Out, "Votes:    %d\n", len(issue.Votes))
	fmt.Fprintf(app.Out, "Created:  %s by %s\n", relTime(issue.CreatedAt), orDash(issue.CreatedBy))
	if issue.UpdatedBy != "" {
		fmt.Fprintf(app.Out, "Updated:  %s by %s\n", relTime(issue.UpdatedAt), issue.UpdatedBy)
	}

	if len(comments) > 0 {
		fmt.Fprintf(app.Out, "\nComments:\n")
		for _, c := range comments {
			fmt.Fprintf(app.Out, "  [%s] %s (%s):\n", c.ID, orDash(c.CreatedBy), relTime(c.CreatedAt))
			for _, line := range strings.Split(c.Body, "\n") {
				fmt.Fprintf(app.Out, "    %s\n", line)
			}
		}
	}
	return nil
}

func newIssueCreateCmd(provider *AppProvider) *cobra.Command {
	var (
		as          string
		assignee    string
		description string
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create an issue",
		Example: `  hotticket issue create "Crash on save" --as k3j9x0a1bc
  hotticket issue create "Slow search" --as k3j9x0a1bc -m "Takes 10s on large repos"`,
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
			title := strings.TrimSpace(args[0])
			if err := titleRule.Validate(title); err != nil {
				return fmt.Errorf("invalid title: %w", err)
			}
			if assignee != "" {
				if err := checkID("assignee id", assignee); err != nil {
					return err
				}
			}

			issue, err := app.Client.CreateIssue(cmd.Context(), client.NewIssue{
				Title:       title,
				CreatedBy:   user,
				AssignedTo:  assignee,
				Description: description,
			})
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, issue)
			}
			fmt.Fprintf(app.Out, "%s issue %s: %s\n", app.SuccessColor("Created"), issue.ID, issue.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Acting user id (default: $HT_USER)")
	cmd.Flags().StringVar(&assignee, "assign", "", "Assign to this user id")
	cmd.Flags().StringVarP(&description, "description", "m", "", "Description, stored as the first comment")
	return cmd
}

// updateIssue fetches an issue, applies change, and writes it back.
func updateIssue(ctx context.Context, app *App, id, user string, change func(*client.Issue)) (client.Issue, error) {
	issue, err := app.Client.GetIssue(ctx, id)
	if err != nil {
		return issue, err
	}
	change(&issue)
	return app.Client.UpdateIssue(ctx, issue, user)
}

func newIssueAssignCmd(provider *AppProvider) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "assign <issue-id> <user-id>",
		Short: "Assign an issue to a user",
		Long: `Assign an issue to a user. An issue still in status New moves to
Assigned; any other status is kept.`,
		Args: cobra.ExactArgs(2),
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
			if err := checkID("assignee id", args[1]); err != nil {
				return err
			}

			issue, err := updateIssue(cmd.Context(), app, args[0], user, func(i *client.Issue) {
				i.AssignedTo = args[1]
				if i.Status == entity.StatusNew {
					i.Status = entity.StatusAssigned
				}
			})
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, issue)
			}
			fmt.Fprintf(app.Out, "%s %s to %s\n", app.SuccessColor("Assigned"), issue.ID, issue.AssignedTo)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Acting user id (default: $HT_USER)")
	return cmd
}

func newIssueStatusCmd(provider *AppProvider) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "status <issue-id> <status>",
		Short: "Change the status of an issue",
		Long: `Change the status of an issue. Status must be one of:
  New, Assigned, Fixed, Won't Fix, Closed`,
		Args: cobra.ExactArgs(2),
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
			status := args[1]
			if err := statusRule.Validate(status); err != nil {
				return fmt.Errorf("invalid status: %w", err)
			}

			issue, err := updateIssue(cmd.Context(), app, args[0], user, func(i *client.Issue) {
				i.Status = status
			})
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, issue)
			}
			fmt.Fprintf(app.Out, "%s %s is now %s\n", app.SuccessColor("Updated"), issue.ID, issue.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Acting user id (default: $HT_USER)")
	return cmd
}
