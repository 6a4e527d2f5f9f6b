package cmd

import (
	"bufio"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/todoask/internal/identity"
	"github.com/felixgeelhaar/todoask/internal/ux"
)

type loginOptions struct {
	username      string
	password      string
	passwordStdin bool
}

func newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in and out of the identity provider",
	}

	opts := &loginOptions{}
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store a session",
		Long: `Sign in with your username and password.

Missing values are prompted for interactively. Use --password-stdin to
read the password from standard input in scripts.

Examples:
  todoask auth login
  todoask auth login --username alice@example.com
  echo "$PASSWORD" | todoask auth login -u alice@example.com --password-stdin`,
		Args: cobra.NoArgs,
		RunE: instrument("auth login", func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts)
		}),
	}
	loginCmd.Flags().StringVarP(&opts.username, "username", "u", "", "username or email")
	loginCmd.Flags().StringVarP(&opts.password, "password", "p", "", "password (prefer --password-stdin)")
	loginCmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from standard input")
	loginCmd.MarkFlagsMutuallyExclusive("password", "password-stdin")

	authCmd.AddCommand(
		loginCmd,
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the stored session",
			Args:  cobra.NoArgs,
			RunE: instrument("auth logout", func(cmd *cobra.Command, args []string) error {
				app, err := appFrom(cmd)
				if err != nil {
					return err
				}
				if err := app.Identity.Logout(cmd.Context()); err != nil {
					return err
				}
				return app.Print(app.Styles.Success.Render("Signed out."))
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show who is signed in",
			Args:  cobra.NoArgs,
			RunE:  instrument("auth status", runAuthStatus),
		},
	)

	return authCmd
}

func runLogin(cmd *cobra.Command, opts *loginOptions) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}

	form := ux.LoginForm{Username: strings.TrimSpace(opts.username), Password: opts.password}
	if opts.passwordStdin {
		line, err := bufio.NewReader(app.In).ReadString('\n')
		if err != nil && line == "" {
			return err
		}
		form.Password = strings.TrimRight(line, "\r\n")
	}

	form, err = ux.PromptLogin(form)
	if err != nil {
		return err
	}

	creds, err := app.Identity.Login(cmd.Context(), form.Username, form.Password)
	if err != nil {
		return err
	}
	return app.Print(statusFrom(app, creds))
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}

	creds, err := app.Identity.Store().Load()
	if errors.Is(err, identity.ErrNotSignedIn) {
		return app.Print(authStatus{SessionFile: app.Identity.Store().Path()})
	}
	if err != nil {
		return err
	}
	return app.Print(statusFrom(app, creds))
}

func statusFrom(app *App, creds *identity.Credentials) authStatus {
	status := authStatus{
		SignedIn:    true,
		Username:    creds.Username,
		ExpiresAt:   creds.ExpiresAt,
		Expired:     creds.Expired(time.Now()),
		SessionFile: app.Identity.Store().Path(),
	}
	if claims, err := identity.ParseClaims(creds.IDToken); err == nil {
		status.Email = claims.Email
		if status.Username == "" {
			status.Username = claims.Username
		}
	}
	return status
}
