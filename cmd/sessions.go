package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"toolroom/internal/audit"
	"toolroom/internal/filter"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
	"toolroom/pkg/roles"
)

func newSessionsCmd(a *app) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Login history of every role",
	}

	sessionsCmd.AddCommand(newSessionListCmd(a), newSessionActiveCmd(a))
	return sessionsCmd
}

func newSessionListCmd(a *app) *cobra.Command {
	var (
		f            filterFlags
		role, status string
		query        audit.SessionQuery
	)

	cmd := &cobra.Command{
		Use:         "list",
		Short:       "List sessions, newest login first",
		Args:        cobra.NoArgs,
		Annotations: menuEntry("sessions list"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if role != "" {
				parsed, err := roles.Parse(strings.ToUpper(strings.TrimSpace(role)))
				if err != nil {
					return custom_error.NewValidationError("role", err.Error())
				}
				query.Role = parsed
			}
			if status != "" {
				parsed, err := metadata.NewSessionState(status)
				if err != nil {
					return custom_error.NewValidationError("status", err.Error())
				}
				query.Status = parsed
			}

			c, err := a.container()
			if err != nil {
				return err
			}
			list, err := c.Audit.SessionLogs(cmd.Context(), query)
			if err != nil {
				return err
			}
			if list, err = applyFilter(list, &f, filter.SessionLogs, c.Location); err != nil {
				return err
			}
			return printSessionLogs(a.out, list, c.Location)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Only sessions of OFFICER, OPERATOR or SUPERVISOR")
	cmd.Flags().StringVar(&query.Username, "username", "", "Only sessions of matching usernames")
	cmd.Flags().StringVar(&status, "status", "", "active or ended")
	f.register(cmd)
	return cmd
}

func newSessionActiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "active",
		Short:       "List sessions that can still authorize calls",
		Args:        cobra.NoArgs,
		Annotations: menuEntry("sessions list"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			list, err := c.Audit.ActiveSessions(cmd.Context())
			if err != nil {
				return err
			}
			return printSessionLogs(a.out, list, c.Location)
		},
	}
}

func newRequestApprovedCmd(a *app) *cobra.Command {
	var f filterFlags

	cmd := &cobra.Command{
		Use:         "approved",
		Short:       "List approved tool usage, latest approval first",
		Args:        cobra.NoArgs,
		Annotations: menuEntry("requests approved"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			list, err := c.Audit.ApprovedUsage(cmd.Context())
			if err != nil {
				return err
			}
			if list, err = applyFilter(list, &f, filter.ApprovedUsage, c.Location); err != nil {
				return err
			}
			return printApprovedUsage(a.out, list, c.Location)
		},
	}
	f.register(cmd)
	return cmd
}
