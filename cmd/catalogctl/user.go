package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/catalogapp/catalog-server/internal/service"
)

func newUserCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserAddCmd(root))
	return cmd
}

func newUserAddCmd(root *rootOptions) *cobra.Command {
	var req service.CreateUserRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account that can sign in and edit the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.run(cmd, func(i do.Injector) error {
				authService := do.MustInvoke[*service.AuthService](i)
				user, err := authService.CreateUser(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %s <%s> (%s)\n", user.Name, user.Email, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "sign-in email")
	cmd.Flags().StringVar(&req.Password, "password", "", "password, at least 8 characters")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
