package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/history"
	"github.com/tally-dev/tally/internal/venmo"
)

func newLoginCommand(a *app) *cobra.Command {
	var username string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, a, username, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username, email or phone")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")

	return cmd
}

func runLogin(cmd *cobra.Command, a *app, username, password string) error {
	out := cmd.OutOrStdout()
	if a.store.IsAuthenticated() {
		success(out, "Already authenticated.")
		return nil
	}

	var err error
	if username == "" {
		if username, err = a.prompt(cmd, "Username"); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = a.promptSecret(cmd, "Password"); err != nil {
			return err
		}
	}

	state, err := a.client.Login(cmd.Context(), username, password)
	if err != nil {
		return err
	}

	for state == venmo.StateAwaitingSecondFactor {
		fmt.Fprintln(out, "A verification code was sent by SMS.")
		code, err := a.prompt(cmd, "Code")
		if err != nil {
			return err
		}
		err = a.client.SubmitCode(cmd.Context(), code)
		switch {
		case err == nil:
		case errors.Is(err, venmo.ErrInvalidCode):
			fmt.Fprintln(out, "That code was not accepted, try again.")
			continue
		default:
			return err
		}
		state = a.client.State()
	}

	a.record(history.Entry{Action: history.ActionLogin, Counterparty: username})
	success(out, "Successfully authenticated!")
	return nil
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the access token and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, a)
		},
	}
}

func runLogout(cmd *cobra.Command, a *app) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.client.Logout(cmd.Context()); err != nil {
		return err
	}
	a.record(history.Entry{Action: history.ActionLogout})
	success(cmd.OutOrStdout(), "Logged out successfully!")
	return nil
}
