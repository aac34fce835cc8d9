package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"cinema-ticket-cli/service"
	"cinema-ticket-cli/store"
)

func newLoginCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			var err error
			if strings.TrimSpace(email) == "" {
				if email, err = promptText("Email", "use --email", validEmail); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword("Password", "use --password"); err != nil {
					return err
				}
			}

			ctx, cancel := e.ctx()
			defer cancel()
			result, err := e.client.Login(ctx, strings.TrimSpace(email), password)
			if err != nil {
				return loginFailure(err)
			}
			if err := e.sessions.Save(store.Session{Token: result.Token, User: result.User, SavedAt: time.Now()}); err != nil {
				return errors.Wrap(err, "save session")
			}
			fmt.Fprintf(e.out, "Logged in as %s <%s>\n", result.User.Name, result.User.Email)
			return nil
		},
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password (prompted when empty)")
	return cmd
}

func newRegisterCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			var err error
			if strings.TrimSpace(name) == "" {
				if name, err = promptText("Name", "use --name", required); err != nil {
					return err
				}
			}
			if strings.TrimSpace(email) == "" {
				if email, err = promptText("Email", "use --email", validEmail); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword("Password", "use --password"); err != nil {
					return err
				}
			}

			ctx, cancel := e.ctx()
			defer cancel()
			if err := e.client.Register(ctx, strings.TrimSpace(name), strings.TrimSpace(email), password); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "Account created. Run `cinema login` to sign in.")
			return nil
		},
	}
	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password (prompted when empty)")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.sessions.Token() == "" {
				fmt.Fprintln(e.out, "Not logged in.")
				return nil
			}
			ctx, cancel := e.ctx()
			defer cancel()
			e.client.Logout(ctx)
			fmt.Fprintln(e.out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := e.sessions.User()
			if !ok {
				fmt.Fprintln(e.out, "Not logged in.")
				return nil
			}
			role := "user"
			if user.IsAdmin() {
				role = "admin"
			}
			fmt.Fprintf(e.out, "%s <%s> (%s)\n", user.Name, user.Email, role)
			return nil
		},
	}
}

// loginFailure keeps a rejected login from reading as an expired session.
func loginFailure(err error) error {
	if !service.IsUnauthorized(err) {
		return err
	}
	var apiErr *service.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	return errors.New("invalid email or password")
}

func requireLogin(e *env) error {
	if e.sessions.Token() == "" {
		return errors.Mark(errors.New("not logged in"), service.ErrUnauthorized)
	}
	return nil
}
