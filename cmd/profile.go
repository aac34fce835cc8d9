package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"cinema-ticket-cli/model"
)

func newProfileCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(e); err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()
			user, err := e.client.GetProfile(ctx)
			if err != nil {
				return err
			}
			t := newTable(e.out, table.Row{"Name", user.Name})
			t.AppendRows([]table.Row{
				{"Email", user.Email},
				{"Phone", orDash(user.Phone)},
				{"Role", user.Role},
				{"Avatar", orDash(e.cfg.MediaURL(user.Avatar))},
			})
			t.Render()
			return nil
		},
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Change name, email or password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(e); err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			changePassword, _ := cmd.Flags().GetBool("password")

			ctx, cancel := e.ctx()
			defer cancel()
			current, err := e.client.GetProfile(ctx)
			if err != nil {
				return err
			}

			in := model.ProfileInput{Name: current.Name, Email: current.Email}
			if strings.TrimSpace(name) != "" {
				in.Name = strings.TrimSpace(name)
			}
			if strings.TrimSpace(email) != "" {
				if err := validEmail(email); err != nil {
					return err
				}
				in.Email = strings.TrimSpace(email)
			}
			if changePassword {
				if in.Password, err = promptPassword("New Password", "run it from a terminal"); err != nil {
					return err
				}
			}
			if err := e.client.UpdateProfile(ctx, in); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "Profile updated.")
			return nil
		},
	}
	update.Flags().String("name", "", "new display name")
	update.Flags().String("email", "", "new email")
	update.Flags().Bool("password", false, "prompt for a new password")

	avatar := &cobra.Command{
		Use:   "avatar <image>",
		Short: "Upload a new avatar image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(e); err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open avatar")
			}
			defer file.Close()

			ctx, cancel := e.ctx()
			defer cancel()
			if err := e.client.UploadAvatar(ctx, filepath.Base(args[0]), file); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "Avatar uploaded.")
			return nil
		},
	}

	cmd.AddCommand(update, avatar)
	return cmd
}
