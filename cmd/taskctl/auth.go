package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harlequingg/task-manager/internal/session"
	"github.com/harlequingg/task-manager/internal/signup"
)

func signupCmd(a *app) *cobra.Command {
	var (
		data            session.SignupData
		confirmPassword string
		resend          bool
	)
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Start a signup and email a one time code",
		Long: `Send a one time code to the given email address and keep the form
until it is confirmed with "taskctl verify <code>".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flow := signup.NewFlow(a.client, a.session)
			if resend {
				if err := flow.Resend(cmd.Context()); err != nil {
					return err
				}
			} else {
				required := []struct{ flag, value string }{
					{"first-name", data.FirstName},
					{"last-name", data.LastName},
					{"email", data.Email},
					{"password", data.Password},
				}
				for _, r := range required {
					if r.value == "" {
						return fmt.Errorf("--%s is required", r.flag)
					}
				}
				if confirmPassword == "" {
					confirmPassword = data.Password
				}
				if err := flow.Request(cmd.Context(), data, confirmPassword); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OTP sent to %s. Run taskctl verify <code> to finish.\n", a.session.SignupData().Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&data.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&data.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&data.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&data.Password, "password", "", "Password")
	cmd.Flags().StringVar(&confirmPassword, "confirm-password", "", "Password confirmation (defaults to --password)")
	cmd.Flags().BoolVar(&resend, "resend", false, "Send a new code for the pending signup")
	return cmd
}

func verifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <code>",
		Short: "Finish the pending signup with the emailed code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow := signup.NewFlow(a.client, a.session)
			u, err := flow.Verify(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, signup.ErrNoDraft) || errors.Is(err, signup.ErrNewCodeRequired) {
					return err
				}
				return fmt.Errorf("%w (run taskctl signup --resend for a new code)", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Run taskctl login to continue.\n", u.Email)
			return nil
		},
	}
}

func loginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			resp, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.session.SetToken(resp.Token); err != nil {
				return err
			}
			if err := a.session.SetUser(resp.User); err != nil {
				return err
			}
			a.client.SetToken(resp.Token)
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s %s\n", resp.User.FirstName, resp.User.LastName)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: a.requireSession(func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}

func profileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: a.requireSession(func(cmd *cobra.Command, args []string) error {
			u, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.session.SetUser(*u); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:   %s %s\n", u.FirstName, u.LastName)
			fmt.Fprintf(out, "Email:  %s\n", u.Email)
			fmt.Fprintf(out, "Image:  %s\n", u.Image)
			return nil
		}),
	}
}
