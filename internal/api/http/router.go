package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/data-portal/internal/api/http/handlers"
	"github.com/spec-kit/data-portal/internal/auth"
	"github.com/spec-kit/data-portal/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Portal   *handlers.PortalHandler
	Records  *handlers.RecordHandler
	Imports  *handlers.ImportHandler
	Sessions *auth.SessionMiddleware
	CSRF     fiber.Handler
	// RateLimit guards the login and signup forms; nil disables it.
	RateLimit fiber.Handler
	Metrics   *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Use(cfg.Sessions.Handle)
	if cfg.CSRF != nil {
		app.Use(cfg.CSRF)
	}

	guest := auth.RedirectAuthenticated("/dashboard/")
	throttle := cfg.RateLimit
	if throttle == nil {
		throttle = func(c *fiber.Ctx) error { return c.Next() }
	}
	app.Get("/", guest, cfg.Auth.Landing)
	app.Get("/signup/", guest, cfg.Auth.SignupPage)
	app.Post("/signup/", guest, throttle, cfg.Auth.Signup)
	app.Get("/login/", guest, cfg.Auth.LoginPage)
	app.Post("/login/", guest, throttle, cfg.Auth.Login)
	app.Post("/logout/", cfg.Auth.Logout)

	protected := app.Group("", auth.RequireLogin())
	protected.Get("/dashboard/", cfg.Portal.Dashboard)

	manage := auth.RequireManageTabs()
	protected.Post("/create-department/", manage, cfg.Portal.CreateDepartment)
	protected.Post("/create-tab/:departmentId/", manage, cfg.Portal.CreateTab)
	protected.Post("/rename-tab/:tabId/", manage, cfg.Portal.RenameTab)
	protected.Post("/delete-tab/:tabId/", manage, cfg.Portal.DeleteTab)
	protected.Delete("/delete-tab/:tabId/", manage, cfg.Portal.DeleteTab)

	protected.Get("/tab/:tabId/", cfg.Records.ViewTab)
	protected.Get("/tab/:tabId/add-record/", cfg.Records.AddRecordPage)
	protected.Post("/tab/:tabId/add-record/", cfg.Records.AddRecord)
	protected.Get("/tab/:tabId/import-excel/", cfg.Imports.Page)
	protected.Post("/tab/:tabId/import-excel/", cfg.Imports.Import)
	protected.Get("/record/:recordId/edit/", cfg.Records.EditRecordPage)
	protected.Post("/record/:recordId/edit/", cfg.Records.EditRecord)
	protected.Post("/record/:recordId/delete/", cfg.Records.DeleteRecord)
	protected.Post("/record/:recordId/update-cell/", cfg.Records.UpdateCell)

	api := protected.Group("/api")
	api.Get("/tab/:tabId/records/", cfg.Records.ListRecords)
	api.Post("/tab/:tabId/records/create/", cfg.Records.CreateRecord)
	api.Patch("/record/:recordId/", cfg.Records.UpdateRecord)
	api.Put("/record/:recordId/", cfg.Records.UpdateRecord)
	api.Delete("/record/:recordId/delete/", cfg.Records.APIDeleteRecord)
}
