package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"toolroom/internal/filter"
	"toolroom/internal/inventory/additions"
	"toolroom/internal/workflow"
	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
)

func newAdditionsCmd(a *app) *cobra.Command {
	additionsCmd := &cobra.Command{
		Use:   "additions",
		Short: "Requests to add new tools to the inventory",
	}

	additionsCmd.AddCommand(
		newAdditionCreateCmd(a),
		newAdditionListCmd(a, "list", "List your tool addition requests", (*additions.Repository).ListMine),
		newAdditionListCmd(a, "review", "List tool addition requests for review", (*additions.Repository).ListForReview),
		newAdditionReviewCmd(a, workflow.ActionApprove),
		newAdditionReviewCmd(a, workflow.ActionReject),
	)
	return additionsCmd
}

func newAdditionCreateCmd(a *app) *cobra.Command {
	var req models.CreateToolAddition

	cmd := &cobra.Command{
		Use:         "create",
		Short:       "Ask the officer to add a tool",
		Args:        cobra.NoArgs,
		Annotations: menuEntry("additions create"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			created, err := c.Additions.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Tool addition request %d submitted (%s)\n", created.ID, created.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ToolName, "name", "", "Tool name")
	cmd.Flags().IntVar(&req.Quantity, "qty", 0, "Quantity to add")
	cmd.Flags().StringVar(&req.Description, "description", "", "Optional description")
	return cmd
}

type additionLister func(*additions.Repository, context.Context, metadata.Status) ([]models.ToolAdditionRequest, error)

func newAdditionListCmd(a *app, use, short string, list additionLister) *cobra.Command {
	var (
		f      filterFlags
		status string
	)

	cmd := &cobra.Command{
		Use:         use,
		Short:       short,
		Args:        cobra.NoArgs,
		Annotations: menuEntry("additions " + use),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			st, err := statusFlag(status)
			if err != nil {
				return err
			}
			items, err := list(c.Additions, cmd.Context(), st)
			if err != nil {
				return err
			}
			if items, err = applyFilter(items, &f, filter.ToolAdditions, c.Location); err != nil {
				return err
			}
			return printToolAdditions(a.out, items, c.Location)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&status, "status", "", "Only requests in this status (pending, approved, rejected)")
	return cmd
}

func newAdditionReviewCmd(a *app, action workflow.Action) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:         string(action) + " ID",
		Short:       reviewShort(action, "a pending tool addition request"),
		Args:        cobra.ExactArgs(1),
		Annotations: menuEntry("additions review"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.container()
			if err != nil {
				return err
			}
			list, err := c.Additions.ListForReview(cmd.Context(), "")
			if err != nil {
				return err
			}
			target, err := additions.Find(list, id)
			if err != nil {
				return err
			}
			updated, err := c.Additions.Review(cmd.Context(), *target, action, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Tool addition request %d is now %s\n", updated.ID, updated.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason shown to the supervisor")
	return cmd
}

func statusFlag(value string) (metadata.Status, error) {
	if value == "" {
		return "", nil
	}
	st, err := metadata.NewStatus(value)
	if err != nil {
		return "", fmt.Errorf("--status: %w", err)
	}
	return st, nil
}
