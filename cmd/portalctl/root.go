package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/config"
	"github.com/spec-kit/data-portal/internal/observability"
	"github.com/spec-kit/data-portal/internal/portalui"
)

type rootOptions struct {
	BaseURL    string
	CookieFile string
	AssumeYes  bool
	LogLevel   string
	Timeout    time.Duration
}

// app is what a subcommand works with: a browser-like window over a client
// whose cookies are persisted between invocations.
type app struct {
	opts    *rootOptions
	jar     *fileJar
	client  *portalui.Client
	window  *portalui.Window
	dialogs *portalui.TerminalDialogs
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	cfg := config.LoadClient()
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "portalctl",
		Short:         "Drive the data portal from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "url", cfg.BaseURL, "portal base URL")
	cmd.PersistentFlags().StringVar(&opts.CookieFile, "cookies", cfg.CookieFile, "file the session cookies are kept in")
	cmd.PersistentFlags().BoolVarP(&opts.AssumeYes, "yes", "y", false, "accept every confirmation")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "per command timeout")

	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newLogoutCmd(opts))
	cmd.AddCommand(newCreateDepartmentCmd(opts))
	cmd.AddCommand(newCreateTabCmd(opts))
	cmd.AddCommand(newRenameTabCmd(opts))
	cmd.AddCommand(newDeleteTabCmd(opts))
	cmd.AddCommand(newDeleteRecordCmd(opts))
	cmd.AddCommand(newClickCmd(opts))
	cmd.AddCommand(newValidateJSONCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// run opens the app, calls fn and saves the cookie jar afterwards even when fn
// fails, so a login that half succeeded keeps its CSRF cookie.
func run(cmd *cobra.Command, opts *rootOptions, fn func(context.Context, *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	runErr := fn(ctx, a)
	if err := a.jar.save(); err != nil {
		a.logger.Warn("failed to save cookies", zap.String("file", opts.CookieFile), zap.Error(err))
	}
	return runErr
}

func openApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	logger, err := observability.NewLogger(config.LoggerConfig{Level: opts.LogLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	jar, err := openJar(opts.CookieFile, opts.BaseURL)
	if err != nil {
		return nil, err
	}

	client, err := portalui.NewClient(opts.BaseURL, &http.Client{Jar: jar, Timeout: opts.Timeout})
	if err != nil {
		return nil, err
	}

	dialogs := portalui.NewTerminalDialogs(cmd.InOrStdin(), cmd.OutOrStdout(), opts.AssumeYes)
	return &app{
		opts:    opts,
		jar:     jar,
		client:  client,
		window:  portalui.NewWindow(client, dialogs, logger),
		dialogs: dialogs,
		logger:  logger,
	}, nil
}

// open loads path and fails when the server bounced the request to the login
// page.
func (a *app) open(ctx context.Context, path string) error {
	if err := a.window.Load(ctx, path); err != nil {
		return err
	}
	if status := a.window.Status(); status >= http.StatusBadRequest {
		return fmt.Errorf("GET %s: status %d", path, status)
	}
	if a.window.Document().ElementByID("loginForm") != nil {
		return fmt.Errorf("not logged in; run portalctl login first")
	}
	return nil
}

func outcomeErr(action string, outcome portalui.Outcome) error {
	if outcome == portalui.OutcomeSucceeded {
		return nil
	}
	return fmt.Errorf("%s %s", action, outcome)
}
