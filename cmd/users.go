package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"toolroom/internal/filter"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

func newUsersCmd(a *app) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	usersCmd.AddCommand(newUserListCmd(a), newUserCreateCmd(a), newUserDeleteCmd(a))
	return usersCmd
}

func newUserListCmd(a *app) *cobra.Command {
	var f filterFlags

	cmd := &cobra.Command{
		Use:         "list",
		Short:       "List all users",
		Args:        cobra.NoArgs,
		Annotations: menuEntry("users list"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			list, err := c.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			if list, err = applyFilter(list, &f, filter.Users, c.Location); err != nil {
				return err
			}
			return printUsers(a.out, list, c.Location)
		},
	}
	f.register(cmd)
	return cmd
}

func newUserCreateCmd(a *app) *cobra.Command {
	var (
		req  models.CreateUserRequest
		role string
	)

	cmd := &cobra.Command{
		Use:         "create",
		Short:       "Create a user, who must reset the password on first login",
		Args:        cobra.NoArgs,
		Annotations: menuEntry("users list"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := roles.Parse(strings.ToUpper(strings.TrimSpace(role)))
			if err != nil {
				return custom_error.NewValidationError("role", err.Error())
			}
			req.Role = parsed

			c, err := a.container()
			if err != nil {
				return err
			}
			user, err := c.Users.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "User %s created with id %d\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Login name")
	cmd.Flags().StringVar(&req.FullName, "full-name", "", "Full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.ContactNumber, "contact", "", "Contact number, 10 digits")
	cmd.Flags().StringVar(&role, "role", "", "OFFICER, OPERATOR or SUPERVISOR")
	cmd.Flags().StringVar(&req.Password, "password", "", "Initial password (backend default when omitted)")
	return cmd
}

func newUserDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "delete ID",
		Short:       "Delete a user and end their sessions",
		Args:        cobra.ExactArgs(1),
		Annotations: menuEntry("users list"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.container()
			if err != nil {
				return err
			}
			if err := c.Users.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "User %d deleted\n", id)
			return nil
		},
	}
}
