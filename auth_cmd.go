package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in via the OAuth2 authorization-code flow",
		Long: `Sign in to NetSuite. With an access_token configured, the token is
validated with a probe request instead of the interactive flow.

Tokens live only in memory for the process lifetime. Use --show-token to
print the issued access token so it can be exported for later invocations.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}

	cmd.Flags().Bool("show-token", false, "print the issued access token on success")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the in-memory session state",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Probe the account endpoint with the current token",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	if err := engine.SignIn(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Signed in.")

	if show, _ := cmd.Flags().GetBool("show-token"); show {
		fmt.Fprintln(os.Stdout, engine.AccessToken())
	}

	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	engine.Logout()

	fmt.Fprintln(os.Stdout, "Logged out.")

	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	result, err := engine.Get(cmd.Context(), "/record/v1/account", nil)
	if err != nil {
		return err
	}

	return printJSON(result)
}

// printJSON re-indents a raw JSON payload for terminal output. Empty
// payloads (soft successes, 204 responses) print nothing.
func printJSON(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}

	fmt.Fprintln(os.Stdout, string(buf))

	return nil
}
