package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"toolroom/internal/filter"
	"toolroom/internal/notifications"
)

func newNotificationsCmd(a *app) *cobra.Command {
	notificationsCmd := &cobra.Command{
		Use:   "notifications",
		Short: "Notifications for the current user and role",
	}

	notificationsCmd.AddCommand(newNotificationListCmd(a), newNotificationWatchCmd(a))
	return notificationsCmd
}

func newNotificationListCmd(a *app) *cobra.Command {
	var f filterFlags

	cmd := &cobra.Command{
		Use:         "list",
		Short:       "List notifications",
		Args:        cobra.NoArgs,
		Annotations: menuEntry("notifications list"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			list, err := c.Notifications.List(cmd.Context())
			if err != nil {
				return err
			}
			if list, err = applyFilter(list, &f, filter.Notifications, c.Location); err != nil {
				return err
			}
			return printNotifications(a.out, list, c.Location)
		},
	}
	f.register(cmd)
	return cmd
}

func newNotificationWatchCmd(a *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:         "watch",
		Short:       "Print new notifications as they arrive",
		Args:        cobra.NoArgs,
		Annotations: menuEntry("notifications list"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}

			seen := make(map[int]struct{})
			return watch(cmd.Context(), c, durationOr(interval, c.Config.PollInterval), func(ctx context.Context) error {
				list, err := c.Notifications.List(ctx)
				if err != nil {
					return err
				}
				fresh := notifications.Unseen(list, seen)
				if len(fresh) == 0 {
					return nil
				}
				return printNotifications(a.out, fresh, c.Location)
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Polling interval (overrides TOOLROOM_POLL_INTERVAL)")
	return cmd
}
