package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toolroom/internal/core/container"
	"toolroom/internal/filter"
	"toolroom/internal/inventory/requests"
	"toolroom/internal/poller"
	"toolroom/internal/workflow"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

func newToolsCmd(a *app) *cobra.Command {
	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Browse the inventory",
	}

	var f filterFlags
	listCmd := &cobra.Command{
		Use:         "list",
		Short:       "List tools, operators only see tools in stock",
		Args:        cobra.NoArgs,
		Annotations: menuEntry("tools list"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			list, err := c.Tools.List(cmd.Context())
			if err != nil {
				return err
			}
			if list, err = applyFilter(list, &f, filter.Tools, c.Location); err != nil {
				return err
			}
			return printTools(a.out, list, c.Location)
		},
	}
	f.register(listCmd)

	toolsCmd.AddCommand(listCmd, newToolImportCmd(a), newToolSeedCmd(a))
	return toolsCmd
}

func newRequestsCmd(a *app) *cobra.Command {
	requestsCmd := &cobra.Command{
		Use:   "requests",
		Short: "Tool requests",
	}

	requestsCmd.AddCommand(
		newRequestCreateCmd(a),
		newRequestListCmd(a, "list", "List your tool requests", (*requests.Repository).ListMine),
		newRequestListCmd(a, "used", "List the tools you collected", (*requests.Repository).ListUsed),
		newRequestListCmd(a, "review", "List tool requests for review", func(r *requests.Repository, ctx context.Context) ([]models.ToolRequest, error) {
			return r.ListForReview(ctx, a.role())
		}),
		newRequestReviewCmd(a, workflow.ActionApprove),
		newRequestReviewCmd(a, workflow.ActionReject),
		newRequestCollectCmd(a),
		newRequestWatchCmd(a),
		newRequestApprovedCmd(a),
	)
	return requestsCmd
}

func newRequestCreateCmd(a *app) *cobra.Command {
	var toolID, qty int

	cmd := &cobra.Command{
		Use:         "create",
		Short:       "Request a quantity of a tool",
		Args:        cobra.NoArgs,
		Annotations: menuEntry("requests create"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			if err := (models.CreateToolRequest{ToolID: toolID, RequestedQty: qty}).Validate(); err != nil {
				return err
			}
			tool, err := c.Tools.Get(cmd.Context(), toolID)
			if err != nil {
				return err
			}
			created, err := c.Requests.CreateFor(cmd.Context(), *tool, qty)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Tool request %s submitted (%s)\n", created.RequestID, created.Status)
			return nil
		},
	}

	cmd.Flags().IntVar(&toolID, "tool", 0, "Tool id")
	cmd.Flags().IntVar(&qty, "qty", 0, "Requested quantity")
	return cmd
}

func newRequestListCmd(a *app, use, short string, list func(*requests.Repository, context.Context) ([]models.ToolRequest, error)) *cobra.Command {
	var f filterFlags

	cmd := &cobra.Command{
		Use:         use,
		Short:       short,
		Args:        cobra.NoArgs,
		Annotations: menuEntry("requests " + use),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			items, err := list(c.Requests, cmd.Context())
			if err != nil {
				return err
			}
			if items, err = applyFilter(items, &f, filter.ToolRequests, c.Location); err != nil {
				return err
			}
			return printToolRequests(a.out, items, c.Location)
		},
	}
	f.register(cmd)
	return cmd
}

func newRequestReviewCmd(a *app, action workflow.Action) *cobra.Command {
	var remarks string

	cmd := &cobra.Command{
		Use:         string(action) + " REQUEST_ID",
		Short:       reviewShort(action, "a pending tool request"),
		Args:        cobra.ExactArgs(1),
		Annotations: menuEntry("requests review"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			list, err := c.Requests.ListForReview(cmd.Context(), a.role())
			if err != nil {
				return err
			}
			target, err := requests.Find(list, args[0])
			if err != nil {
				return err
			}
			updated, err := c.Requests.Review(cmd.Context(), *target, action, remarks)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Tool request %s is now %s\n", updated.RequestID, updated.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&remarks, "remarks", "", "Remarks shown to the operator")
	return cmd
}

func newRequestCollectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "collect REQUEST_ID",
		Short:       "Collect the tool of an approved request",
		Args:        cobra.ExactArgs(1),
		Annotations: menuEntry("requests list"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			list, err := c.Requests.ListMine(cmd.Context())
			if err != nil {
				return err
			}
			target, err := requests.Find(list, args[0])
			if err != nil {
				return err
			}
			updated, err := c.Requests.Collect(cmd.Context(), *target)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Collected %d x %s (%s)\n", updated.RequestedQty, updated.ToolName, updated.RequestID)
			return nil
		},
	}
}

// newRequestWatchCmd polls the requests relevant to the current role and
// prints every new request and status change until interrupted.
func newRequestWatchCmd(a *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow tool request status changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			role, ok := c.Session.CurrentRole()
			if !ok {
				return custom_error.ErrNotAuthenticated
			}

			list := c.Requests.ListMine
			if role != roles.Operator {
				list = func(ctx context.Context) ([]models.ToolRequest, error) {
					return c.Requests.ListForReview(ctx, role)
				}
			}

			seen := make(map[string]string)
			return watch(cmd.Context(), c, durationOr(interval, c.Config.PollInterval), func(ctx context.Context) error {
				items, err := list(ctx)
				if err != nil {
					return err
				}
				var changed []models.ToolRequest
				for _, r := range items {
					if seen[r.RequestID] != r.Status.String() {
						seen[r.RequestID] = r.Status.String()
						changed = append(changed, r)
					}
				}
				if len(changed) == 0 {
					return nil
				}
				return printToolRequests(a.out, changed, c.Location)
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Polling interval (overrides TOOLROOM_POLL_INTERVAL)")
	return cmd
}

// watch polls fn until ctx is cancelled. An authorization failure ends the
// watch since no later poll can succeed; other errors are logged.
func watch(ctx context.Context, c *container.Container, interval time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var fatal error
	task := poller.Start(ctx, interval, fn, poller.Options{
		OnError: func(err error) {
			if custom_error.IsAuthorization(err) {
				fatal = err
				cancel()
				return
			}
			c.Log.Warn("poll failed", zap.Error(err))
		},
	})

	<-task.Done()
	task.Stop()
	return fatal
}

func reviewShort(action workflow.Action, what string) string {
	switch action {
	case workflow.ActionApprove:
		return "Approve " + what
	case workflow.ActionReject:
		return "Reject " + what
	default:
		return string(action) + " " + what
	}
}

func parseID(value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, custom_error.NewValidationError("id", fmt.Sprintf("expected a positive number, got %q", value))
	}
	return id, nil
}
