package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harlequingg/task-manager/internal/client"
	"github.com/harlequingg/task-manager/internal/session"
)

var Version = "dev"

var errNotLoggedIn = errors.New("not logged in, run taskctl login first")

type app struct {
	apiURL      string
	sessionPath string

	client  *client.Client
	session *session.Session
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	defaultAPI := os.Getenv("TASKCTL_API")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:4000"
	}

	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage tasks from the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api", defaultAPI, "Task manager API base URL (env TASKCTL_API)")
	rootCmd.PersistentFlags().StringVar(&a.sessionPath, "session", "", "Session file (defaults to the user config dir)")

	rootCmd.AddCommand(signupCmd(a))
	rootCmd.AddCommand(verifyCmd(a))
	rootCmd.AddCommand(loginCmd(a))
	rootCmd.AddCommand(logoutCmd(a))
	rootCmd.AddCommand(profileCmd(a))
	rootCmd.AddCommand(tasksCmd(a))

	return rootCmd
}

// init rehydrates the session and builds the API client with its token.
func (a *app) init() error {
	if a.sessionPath == "" {
		path, err := session.DefaultPath()
		if err != nil {
			return fmt.Errorf("locate session file: %w", err)
		}
		a.sessionPath = path
	}
	a.session = session.New(session.NewFileStorage(a.sessionPath))
	if err := a.session.Rehydrate(); err != nil {
		return err
	}
	a.client = client.New(a.apiURL, client.WithToken(a.session.Token()))
	return nil
}

// requireSession guards commands that only make sense when logged in.
func (a *app) requireSession(run func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if !a.session.Authenticated() {
			return errNotLoggedIn
		}
		return run(cmd, args)
	}
}

func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
