package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/data-portal/internal/config"
	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

// CSRFContextKey is the Locals key holding the current request's token, for
// templates that embed it in forms.
const CSRFContextKey = "csrf_token"

// CSRFToken returns the token issued for this request.
func CSRFToken(c *fiber.Ctx) string {
	token, _ := c.Locals(CSRFContextKey).(string)
	return token
}

// NewCSRF returns the double-submit CSRF middleware. Safe requests receive a
// readable token cookie; unsafe requests must echo it in the configured header
// or, for plain HTML forms, in a form field. storage may be nil for the
// in-process default.
func NewCSRF(cfg config.CSRFConfig, secure bool, storage fiber.Storage) fiber.Handler {
	return csrf.New(csrf.Config{
		CookieName:     cfg.CookieName,
		CookiePath:     "/",
		CookieSameSite: "Lax",
		CookieSecure:   secure,
		CookieHTTPOnly: false,
		Expiration:     cfg.Expiration(),
		KeyGenerator:   utils.UUIDv4,
		Storage:        storage,
		ContextKey:     CSRFContextKey,
		Extractor:      headerOrForm(cfg.HeaderName, cfg.FormField),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperrors.NewForbidden("CSRF verification failed")
		},
	})
}

func headerOrForm(header, field string) func(*fiber.Ctx) (string, error) {
	return func(c *fiber.Ctx) (string, error) {
		if token := c.Get(header); token != "" {
			return token, nil
		}
		if token := c.FormValue(field); token != "" {
			return token, nil
		}
		return "", csrf.ErrMissingHeader
	}
}
