package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"toolroom/internal/filter"
	"toolroom/internal/issues"
	"toolroom/internal/workflow"
	"toolroom/pkg/models"
)

func newIssuesCmd(a *app) *cobra.Command {
	issuesCmd := &cobra.Command{
		Use:   "issues",
		Short: "Tool issue reports",
	}

	issuesCmd.AddCommand(
		newIssueCreateCmd(a),
		newIssueListCmd(a, "list", "List the issues you reported", (*issues.Repository).ListMine),
		newIssueListCmd(a, "review", "List issue reports for review", (*issues.Repository).ListForReview),
		newIssueReviewCmd(a, workflow.ActionApprove),
		newIssueReviewCmd(a, workflow.ActionReject),
	)
	return issuesCmd
}

func newIssueCreateCmd(a *app) *cobra.Command {
	var req models.CreateIssueReport

	cmd := &cobra.Command{
		Use:         "create",
		Short:       "Report a problem with a tool",
		Args:        cobra.NoArgs,
		Annotations: menuEntry("issues create"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			created, err := c.Issues.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Issue %d reported (%s)\n", created.ID, created.Status)
			return nil
		},
	}

	cmd.Flags().IntVar(&req.ToolID, "tool", 0, "Tool id")
	cmd.Flags().StringVar(&req.Description, "description", "", "What is wrong with the tool")
	return cmd
}

func newIssueListCmd(a *app, use, short string, list func(*issues.Repository, context.Context) ([]models.IssueReport, error)) *cobra.Command {
	var f filterFlags

	cmd := &cobra.Command{
		Use:         use,
		Short:       short,
		Args:        cobra.NoArgs,
		Annotations: menuEntry("issues " + use),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			items, err := list(c.Issues, cmd.Context())
			if err != nil {
				return err
			}
			if items, err = applyFilter(items, &f, filter.IssueReports, c.Location); err != nil {
				return err
			}
			return printIssues(a.out, items, c.Location)
		},
	}
	f.register(cmd)
	return cmd
}

func newIssueReviewCmd(a *app, action workflow.Action) *cobra.Command {
	var response string

	cmd := &cobra.Command{
		Use:         string(action) + " ID",
		Short:       reviewShort(action, "an open issue report"),
		Args:        cobra.ExactArgs(1),
		Annotations: menuEntry("issues review"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.container()
			if err != nil {
				return err
			}
			list, err := c.Issues.ListForReview(cmd.Context())
			if err != nil {
				return err
			}
			target, err := issues.Find(list, id)
			if err != nil {
				return err
			}
			updated, err := c.Issues.Review(cmd.Context(), *target, action, response)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Issue %d is now %s\n", updated.ID, updated.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&response, "response", "", "Response sent to the operator")
	return cmd
}
