package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/data-portal/internal/api/http/views"
	"github.com/spec-kit/data-portal/internal/auth"
	"github.com/spec-kit/data-portal/internal/domain"
	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

// Pages renders HTML pages with the per-request user and CSRF token filled in.
type Pages struct {
	renderer  *views.Renderer
	csrfField string
}

// NewPages builds the page helper.
func NewPages(renderer *views.Renderer, csrfField string) *Pages {
	return &Pages{renderer: renderer, csrfField: csrfField}
}

// Page starts page data for the current request.
func (p *Pages) Page(c *fiber.Ctx, title string) views.Page {
	user, _ := auth.UserFromContext(c)
	return views.Page{
		Title:     title,
		User:      user,
		CSRFToken: auth.CSRFToken(c),
		CSRFField: p.csrfField,
	}
}

// Render writes an HTML page with status.
func (p *Pages) Render(c *fiber.Ctx, status int, name string, page views.Page) error {
	c.Status(status)
	c.Type("html", "utf-8")
	return p.renderer.Render(c, name, page)
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("Authentication required")
	}
	return user, nil
}

// decodeJSON parses the raw request body whatever its content type.
func decodeJSON(c *fiber.Ctx, v any) error {
	if err := c.App().Config().JSONDecoder(c.Body(), v); err != nil {
		return apperrors.NewValidationError("Invalid JSON", nil)
	}
	return nil
}

func isValidation(err error) bool {
	de := apperrors.ToDomainError(err)
	return de != nil && de.Code == "VALIDATION_FAILED"
}
