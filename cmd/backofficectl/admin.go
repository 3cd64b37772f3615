package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/climbing-section/backoffice/internal/wiring"
)

func newAdminCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage back office administrators",
	}

	var email, password string
	bootstrap := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first active administrator",
		Long: `Create an active administrator with the given credentials.

Does nothing when an admin with that email already exists. Without flags the
BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD settings are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openApp(cmd, wiring.Options{Migrate: true})
			if err != nil {
				return err
			}
			defer app.Close()

			if email == "" {
				email = app.Config.BootstrapAdminEmail
			}
			if password == "" {
				password = app.Config.BootstrapAdminPassword
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("email and password are required")
			}

			a, created, err := app.Admins.BootstrapAdmin(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			state := "exists"
			if created {
				state = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", a.ID, a.Email, state)
			return nil
		},
	}
	bootstrap.Flags().StringVar(&email, "email", "", "admin email")
	bootstrap.Flags().StringVar(&password, "password", "", "admin password")

	cmd.AddCommand(bootstrap)
	return cmd
}
