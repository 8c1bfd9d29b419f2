package auth

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

// LoginPath is where anonymous page requests are sent.
const LoginPath = "/login/"

// RequireLogin rejects anonymous callers. Page loads are redirected to the
// login form; API calls and mutations get a 401.
func RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserFromContext(c); ok {
			return c.Next()
		}
		if c.Method() == fiber.MethodGet && !strings.HasPrefix(c.Path(), "/api/") {
			return c.Redirect(LoginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
		}
		return apperrors.NewUnauthorized("Authentication required")
	}
}

// RedirectAuthenticated sends signed-in users to target, for the landing,
// login and signup pages.
func RedirectAuthenticated(target string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserFromContext(c); ok {
			return c.Redirect(target, fiber.StatusFound)
		}
		return c.Next()
	}
}

// RequireManageTabs limits department and tab management to directors and
// scientists.
func RequireManageTabs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, _ := UserFromContext(c)
		if !user.CanManageTabs() {
			return apperrors.NewForbidden("Permission denied")
		}
		return c.Next()
	}
}
