package commands

import (
	"fmt"

	"github.com/boddenberg/ledger-client-go/internal/domain"

	"github.com/spf13/cobra"
)

func newSignupCommand(opts *globalOptions) *cobra.Command {
	var creds domain.Credentials

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newPrompter(cmd).fill(&creds.Username, &creds.Password); err != nil {
				return err
			}
			return runAuth(cmd, opts, domain.AuthModeSignup, creds)
		},
	}

	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&creds.DisplayName, "name", "", "display name")

	return cmd
}

func newLoginCommand(opts *globalOptions) *cobra.Command {
	var creds domain.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newPrompter(cmd).fill(&creds.Username, &creds.Password); err != nil {
				return err
			}
			return runAuth(cmd, opts, domain.AuthModeLogin, creds)
		},
	}

	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password (prompted when omitted)")

	return cmd
}

func runAuth(cmd *cobra.Command, opts *globalOptions, mode domain.AuthMode, creds domain.Credentials) error {
	return withRuntime(opts, func(rt *runtime) error {
		if err := rt.app.AuthForm().SetMode(mode); err != nil {
			return err
		}

		sess, err := rt.app.SubmitAuth(cmd.Context(), creds)
		if sess == nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), sess.Greeting())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not load entries: %v\n", err)
		}
		return nil
	})
}

func newLogoutCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, func(rt *runtime) error {
				if err := rt.app.Logout(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
				return nil
			})
		},
	}
}

func newWhoamiCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, func(rt *runtime) error {
				view, err := rt.app.Start(cmd.Context())
				if err != nil {
					return err
				}
				if view == domain.ViewAuth {
					return &domain.ErrUnauthorized{Message: "not logged in"}
				}

				sess, err := rt.app.Session()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", sess.Username, sess.Greeting())
				return nil
			})
		},
	}
}
