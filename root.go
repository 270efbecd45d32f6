package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/maykon/netsuite/internal/config"
	"github.com/maykon/netsuite/internal/nsapi"
)

// version is stamped by release builds through ldflags; "dev" marks a
// source build.
var version = "dev"

// Persistent flag storage. newRootCmd binds these and resets them to their
// zero values each time it runs.
var (
	flagConfigPath string
	flagAccount    string
	flagTimeout    string
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg is populated by the root pre-run and read by every
// subcommand's RunE; it is nil until PersistentPreRunE has completed.
var resolvedCfg *config.Resolved

// newRootCmd assembles the netsuite command tree. main executes the result;
// tests call it directly to inspect the structure.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "netsuite",
		Short:   "NetSuite REST API client",
		Long:    "A CLI client for the NetSuite REST platform: OAuth2 sign-in, generic record calls, SuiteQL queries, and restlet file transfer.",
		Version: version,
		// Error and usage printing is handled in main, not by Cobra.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagAccount, "account", "", "NetSuite account ID")
	cmd.PersistentFlags().StringVar(&flagTimeout, "timeout", "", "HTTP timeout (e.g. 30s, 2m)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	// Register subcommands.
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newPostCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newUploadCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the override chain
// and stores the result in resolvedCfg for use by subcommands.
func loadConfig() error {
	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
		AccountID:  flagAccount,
		Timeout:    flagTimeout,
	}

	resolved, err := config.Resolve(config.ReadEnvOverrides(), cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = resolved

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Text output on a terminal, JSON otherwise; --verbose and
// --quiet override the config-file level because CLI flags always win.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if resolvedCfg != nil {
		switch resolvedCfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}

		if resolvedCfg.Credentials.Debug {
			level = slog.LevelDebug
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if isatty.IsTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// newEngine constructs the request engine from the resolved configuration.
func newEngine() (*nsapi.Client, error) {
	return nsapi.New(resolvedCfg.Credentials,
		nsapi.WithLogger(buildLogger()),
		nsapi.WithHTTPClient(&http.Client{Timeout: resolvedCfg.Timeout}),
		nsapi.WithCodePrompt(promptAuthCode),
	)
}

// promptAuthCode blocks on a single line from stdin: the operator pastes the
// "code" query parameter from the consent-screen redirect URL.
func promptAuthCode(_ context.Context, authURL string) (string, error) {
	fmt.Fprintf(os.Stderr, "Open this URL in your browser if it did not open automatically:\n\n  %s\n\n", authURL)
	fmt.Fprint(os.Stderr, "Paste the authorization code from the redirect URL: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
