package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/portalui"
)

const (
	dashboardPath = "/dashboard/"
	loginPath     = "/login/"
	csrfFormField = "csrfmiddlewaretoken"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var username, password, sessionCookie string

	cmd := &cobra.Command{
		Use:   "login --username <name>",
		Short: "Sign in and keep the session cookie",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(username) == "" {
				return errors.New("--username is required")
			}
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				if password == "" {
					answer, ok := a.dialogs.Prompt("Password:")
					if !ok {
						return errors.New("no password given")
					}
					password = answer
				}
				if err := a.window.Load(ctx, loginPath); err != nil {
					return err
				}
				session := portalui.NewSession(a.client.Cookies())
				form := url.Values{
					"username": {username},
					"password": {password},
					"next":     {dashboardPath},
				}
				if session.HasToken {
					form.Set(csrfFormField, session.CSRFToken)
				}
				status, err := a.client.PostForm(ctx, session, loginPath, form)
				if err != nil {
					return err
				}
				if _, ok := portalui.CookieValue(a.client.Cookies(), sessionCookie); !ok {
					return fmt.Errorf("login failed (status %d)", status)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", username)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&password, "password", "", "account password; prompted for when empty")
	cmd.Flags().StringVar(&sessionCookie, "session-cookie", "sessionid", "name of the server's session cookie")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget its cookies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.window.Load(ctx, "/"); err != nil {
					return err
				}
				session := portalui.NewSession(a.client.Cookies())
				form := url.Values{}
				if session.HasToken {
					form.Set(csrfFormField, session.CSRFToken)
				}
				if _, err := a.client.PostForm(ctx, session, "/logout/", form); err != nil {
					a.logger.Warn("logout request failed", zap.Error(err))
				}
				a.jar.forget()
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newCreateDepartmentCmd(opts *rootOptions) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "create-department --name <name>",
		Short: "Create a department",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.open(ctx, dashboardPath); err != nil {
					return err
				}
				a.window.ShowModal(portalui.ModalCreateDepartment)
				if err := fill(a.window, map[string]string{
					portalui.FieldDepartmentName:        name,
					portalui.FieldDepartmentDescription: description,
				}); err != nil {
					return err
				}
				return outcomeErr("create-department", a.window.Controller().CreateDepartment(ctx))
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "department name")
	cmd.Flags().StringVar(&description, "description", "", "department description")
	return cmd
}

func newCreateTabCmd(opts *rootOptions) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "create-tab <department-id> --name <name>",
		Short: "Create a tab in a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.open(ctx, dashboardPath); err != nil {
					return err
				}
				a.window.ShowModal(portalui.ModalCreateTab)
				if err := fill(a.window, map[string]string{
					portalui.FieldTabName:        name,
					portalui.FieldTabDescription: description,
				}); err != nil {
					return err
				}
				return outcomeErr("create-tab", a.window.Controller().CreateTab(ctx, args[0]))
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "tab name")
	cmd.Flags().StringVar(&description, "description", "", "tab description")
	return cmd
}

func newRenameTabCmd(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rename-tab <tab-id>",
		Short: "Rename a tab; the new name is prompted for unless --name is set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" {
				cmd.SetIn(strings.NewReader(name + "\n"))
			}
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.open(ctx, dashboardPath); err != nil {
					return err
				}
				return outcomeErr("rename-tab", a.window.Controller().RenameTab(ctx, args[0]))
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new tab name")
	return cmd
}

func newDeleteTabCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-tab <tab-id>",
		Short: "Delete a tab and all of its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.open(ctx, dashboardPath); err != nil {
					return err
				}
				name := args[0]
				if button := a.window.Document().ElementByID("deleteTab-" + args[0]); button != nil {
					name = button.Data("tab-name")
				}
				return outcomeErr("delete-tab", a.window.Controller().DeleteTab(ctx, args[0], name))
			})
		},
	}
}

func newDeleteRecordCmd(opts *rootOptions) *cobra.Command {
	var tabID string

	cmd := &cobra.Command{
		Use:   "delete-record <record-id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page := dashboardPath
			if tabID != "" {
				page = "/tab/" + url.PathEscape(tabID) + "/"
			}
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.open(ctx, page); err != nil {
					return err
				}
				return outcomeErr("delete-record", a.window.Controller().DeleteRecord(ctx, args[0]))
			})
		},
	}
	cmd.Flags().StringVar(&tabID, "tab", "", "tab the record belongs to; its page is reloaded afterwards")
	return cmd
}

func newClickCmd(opts *rootOptions) *cobra.Command {
	var page string
	var values map[string]string

	cmd := &cobra.Command{
		Use:   "click <element-id>... --page <path>",
		Short: "Load a page, fill fields and click elements in order; fails unless every started mutation succeeds",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.open(ctx, page); err != nil {
					return err
				}
				if err := fill(a.window, values); err != nil {
					return err
				}
				controller := a.window.Controller()
				for _, id := range args {
					if err := a.window.Click(id); err != nil {
						return err
					}
				}
				var errs []error
				for _, outcome := range controller.Wait() {
					if err := outcomeErr("click", outcome); err != nil {
						errs = append(errs, err)
					}
				}
				return errors.Join(errs...)
			})
		},
	}
	cmd.Flags().StringVar(&page, "page", dashboardPath, "page to load")
	cmd.Flags().StringToStringVar(&values, "set", nil, "field values as id=value")
	return cmd
}

func newValidateJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-json [file]",
		Short: "Check a record body the way the edit page does on blur",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			raw, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			if !portalui.ValidJSON(string(raw)) {
				return errors.New("invalid JSON")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid JSON")
			return nil
		},
	}
}

func fill(w *portalui.Window, values map[string]string) error {
	for id, value := range values {
		if err := w.SetFieldValue(id, value); err != nil {
			return err
		}
	}
	return nil
}
