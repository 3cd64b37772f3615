package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/wiring"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a session token for an active admin",
		Long: `Print a bearer token signed with SESSION_SECRET for the admin with the given email.

Intended for scripting against a local API; the token is valid for SESSION_TTL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			app, err := opts.openApp(cmd, wiring.Options{})
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.BootstrapAdmin(cmd.Context()); err != nil {
				return err
			}
			a, err := app.Repos.Admins.GetByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("admin %s: %w", email, err)
			}
			if a.Status != domain.AdminStatusActive {
				return fmt.Errorf("admin %s is %s", a.Email, a.Status)
			}
			tok, err := app.Sessions.Issue(a.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Value)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	return cmd
}
