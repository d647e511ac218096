package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lookup-erp/lookup/pkg/models"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var token, refresh, callback string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the ERP backend",
		Long: `Log in with an access token (--token), or through the browser: run without
flags to get the authorize URL, then pass the URL you were redirected to
with --callback.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()

			var sess models.Session
			switch {
			case token != "":
				sess, err = a.auth.Login(ctx, token, refresh)
			case callback != "":
				sess, err = a.auth.HandleCallback(ctx, callback)
			default:
				authURL, err := a.auth.BeginLogin(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Open this URL to log in:\n\n  %s\n\nThen run: lookup login --callback '<redirected URL>'\n", authURL)
				return nil
			}
			if err != nil {
				return err
			}

			printSession(cmd, sess)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token")
	cmd.Flags().StringVar(&refresh, "refresh", "", "refresh token stored with --token")
	cmd.Flags().StringVar(&callback, "callback", "", "redirect URL received after browser login")
	cmd.MarkFlagsMutuallyExclusive("token", "callback")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session and cached results",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, ok := a.auth.Current()
			if !ok {
				return errors.New("not logged in: run lookup login")
			}
			printSession(cmd, sess)
			return nil
		},
	}
}

func printSession(cmd *cobra.Command, sess models.Session) {
	out := cmd.OutOrStdout()
	subject := sess.Subject
	if subject == "" {
		subject = "(unknown subject)"
	}
	fmt.Fprintf(out, "Logged in as %s\n", subject)
	if sess.ExpiresAt.IsZero() {
		fmt.Fprintln(out, "Expires: never")
	} else {
		fmt.Fprintf(out, "Expires: %s\n", sess.ExpiresAt.Local().Format(time.RFC3339))
	}
}
