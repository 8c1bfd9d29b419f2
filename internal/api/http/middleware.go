package http

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/api/http/views"
	"github.com/spec-kit/data-portal/internal/auth"
	"github.com/spec-kit/data-portal/internal/observability"
	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, pages *views.Renderer, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics, pages))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware renders failures. JSON callers get
// {"success": false, "error": "<message>", "code": "<CODE>"}; browsers
// loading a page get the error page.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, pages *views.Renderer) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}
			domainErr := toDomainError(err)
			metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
			if domainErr.HTTPStatus >= 500 {
				logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
			}
			c.Status(domainErr.HTTPStatus)
			if pages != nil && wantsPage(c) {
				user, _ := auth.UserFromContext(c)
				err = renderPage(c, pages, "error", views.Page{
					Title: utils.StatusMessage(domainErr.HTTPStatus),
					User:  user,
					Data:  domainErr.Message,
				})
				if err == nil {
					return
				}
				logger.Error("render error page", zap.Error(err))
			}
			response := fiber.Map{
				"success": false,
				"error":   domainErr.Message,
				"code":    domainErr.Code,
			}
			if len(domainErr.Details) > 0 {
				response["details"] = domainErr.Details
			}
			err = c.JSON(response)
		}()
		return c.Next()
	}
}

func toDomainError(err error) *apperrors.DomainError {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "HTTP_" + strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(fe.Code), " ", "_"))
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusRequestEntityTooLarge:
			code = "PAYLOAD_TOO_LARGE"
		}
		return apperrors.NewDomainError(code, fe.Message, fe.Code, nil)
	}
	return apperrors.ToDomainError(err)
}

// wantsPage reports whether the failed request was a browser page load.
func wantsPage(c *fiber.Ctx) bool {
	if c.Method() != fiber.MethodGet || strings.HasPrefix(c.Path(), "/api/") {
		return false
	}
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMETextHTML
}

func renderPage(c *fiber.Ctx, pages *views.Renderer, name string, page views.Page) error {
	c.Type("html", "utf-8")
	return pages.Render(c, name, page)
}
