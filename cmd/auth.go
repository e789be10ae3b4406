package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"toolroom/internal/auth"
	"toolroom/internal/menu"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/models"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			if username, err = a.prompt("Username", username); err != nil {
				return err
			}
			if password, err = a.prompt("Password", password); err != nil {
				return err
			}

			resp, err := c.Auth.Login(cmd.Context(), username, password)
			if errors.Is(err, auth.ErrFirstLoginRequired) {
				return fmt.Errorf("%w (run: toolroom reset-password --username %s)", err, username)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Logged in as %s (%s)\n", resp.FullName, resp.Role)
			return printMenu(a.out, menu.For(resp.Role))
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			if err := c.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newResetPasswordCmd(a *app) *cobra.Command {
	var req models.ResetPasswordRequest

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Change the password, required before the first login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			if req.Username, err = a.prompt("Username", req.Username); err != nil {
				return err
			}
			if req.OldPassword, err = a.prompt("Current password", req.OldPassword); err != nil {
				return err
			}
			if req.NewPassword, err = a.prompt("New password", req.NewPassword); err != nil {
				return err
			}

			if err := c.Auth.ResetPassword(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Password updated, you can log in now")
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Username")
	cmd.Flags().StringVar(&req.OldPassword, "old-password", "", "Current password")
	cmd.Flags().StringVar(&req.NewPassword, "new-password", "", "New password")
	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "whoami",
		Short:       "Show the logged in user",
		Args:        cobra.NoArgs,
		Annotations: menuEntry("whoami"),
		RunE: func(*cobra.Command, []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			s, ok := c.Session.Current()
			if !ok {
				return custom_error.ErrNotAuthenticated
			}
			fmt.Fprintf(a.out, "%s (user %d, %s)\n", s.FullName, s.UserID, s.Role)
			return nil
		},
	}
}

func newMenuCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "List the commands available to the current role",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			role, ok := c.Session.CurrentRole()
			if !ok {
				return custom_error.ErrNotAuthenticated
			}
			return printMenu(a.out, menu.For(role))
		},
	}
}
