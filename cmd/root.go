// Package cmd is the one-shot command line of the cinema client. Running the
// binary without a subcommand opens the interactive booking TUI instead.
package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cinema-ticket-cli/config"
	"cinema-ticket-cli/logging"
	"cinema-ticket-cli/service"
	"cinema-ticket-cli/store"
	"cinema-ticket-cli/tui"
)

// env carries what every command needs. Tests build one by hand and skip
// setup.
type env struct {
	cfg      config.Config
	client   *service.Client
	sessions *store.SessionStore
	log      logrus.FieldLogger
	out      io.Writer
	closer   io.Closer
	ready    bool
}

func (e *env) setup() error {
	if e.ready {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	e.cfg = cfg

	log, closer, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
		log = logging.Discard()
		closer = nil
	}
	e.log = log
	e.closer = closer

	sessions, err := store.DefaultSessionStore()
	if err != nil {
		return errors.Wrap(err, "open session store")
	}
	if _, _, err := sessions.Load(); err != nil {
		e.log.WithError(err).Warn("session could not be restored")
	}
	e.sessions = sessions

	client := service.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg.BaseURL())
	client.SetSession(sessions)
	client.SetLogger(log)
	client.SetMaxAttempts(cfg.RetryAttempts)
	e.client = client

	e.ready = true
	return nil
}

func (e *env) close() {
	if e.closer != nil {
		_ = e.closer.Close()
	}
}

func (e *env) ctx() (context.Context, context.CancelFunc) {
	timeout := e.cfg.Timeout
	if timeout <= 0 {
		timeout = config.Default().Timeout
	}
	// Paging commands issue several requests under one deadline.
	return context.WithTimeout(context.Background(), 4*timeout)
}

func newRootCmd(e *env, version, commit string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cinema",
		Short:         "Cinema ticket booking from the terminal",
		Long:          `Browse screenings, pick seats and pay for tickets without leaving the terminal :)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return e.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(e)
		},
	}
	rootCmd.SetOut(e.out)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the cinema client",
		Run: func(cmd *cobra.Command, args []string) {
			text := config.AppName + " " + version
			if commit != "none" && commit != "" {
				text += " (" + commit + ")"
			}
			fmt.Fprintln(e.out, text)
		},
	}

	rootCmd.AddCommand(
		versionCmd,
		newLoginCmd(e),
		newRegisterCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newMoviesCmd(e),
		newMovieCmd(e),
		newSchedulesCmd(e),
		newSeatsCmd(e),
		newPromosCmd(e),
		newBookCmd(e),
		newOrdersCmd(e),
		newOrderCmd(e),
		newPayCmd(e),
		newProfileCmd(e),
		newAdminCmd(e),
	)
	return rootCmd
}

func runTUI(e *env) error {
	model := tui.New(tui.Options{
		Client:   e.client,
		Sessions: e.sessions,
		Logger:   e.log,
		MaxSeats: e.cfg.MaxSeats,
	})
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// Execute runs the command line and returns the process exit code.
func Execute(version, commit string) int {
	e := &env{out: os.Stdout}
	defer e.close()

	rootCmd := newRootCmd(e, version, commit)
	if err := rootCmd.Execute(); err != nil {
		if e.log != nil {
			e.log.WithError(err).Error("command failed")
		}
		fmt.Fprintln(os.Stderr, failureText(err))
		return 1
	}
	return 0
}

func failureText(err error) string {
	if errors.Is(err, errAborted) {
		return "Aborted."
	}
	if service.IsUnauthorized(err) {
		return "Your session has expired or you are not logged in. Run `cinema login` and try again."
	}
	return service.UserMessage(err, "")
}
