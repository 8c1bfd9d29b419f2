package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/data-portal/internal/api/dto"
	"github.com/spec-kit/data-portal/internal/auth"
	"github.com/spec-kit/data-portal/internal/service"
	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

const dashboardPath = "/dashboard/"

// AuthHandler serves the landing, signup, login and logout pages.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *auth.SessionMiddleware
	pages    *Pages
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, sessions *auth.SessionMiddleware, pages *Pages) *AuthHandler {
	return &AuthHandler{auth: authService, sessions: sessions, pages: pages}
}

// Landing handles GET /.
func (h *AuthHandler) Landing(c *fiber.Ctx) error {
	return h.pages.Render(c, fiber.StatusOK, "landing", h.pages.Page(c, ""))
}

// SignupPage handles GET /signup/.
func (h *AuthHandler) SignupPage(c *fiber.Ctx) error {
	page := h.pages.Page(c, "Sign up")
	page.Data = dto.SignupForm{Role: "staff"}
	return h.pages.Render(c, fiber.StatusOK, "signup", page)
}

// Signup handles POST /signup/ and signs the new user in.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var form dto.SignupForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("Invalid form", nil)
	}
	user, err := h.auth.Signup(c.UserContext(), form.Input())
	if err != nil {
		if !isValidation(err) {
			return err
		}
		page := h.pages.Page(c, "Sign up")
		page.Errors = apperrors.ToDomainError(err).Details
		form.Password1, form.Password2 = "", ""
		page.Data = form
		return h.pages.Render(c, fiber.StatusOK, "signup", page)
	}
	if err := h.sessions.Issue(c, user); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Redirect(dashboardPath, fiber.StatusFound)
}

// LoginPage handles GET /login/.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	page := h.pages.Page(c, "Login")
	page.Data = safeNext(c.Query("next"))
	return h.pages.Render(c, fiber.StatusOK, "login", page)
}

// Login handles POST /login/.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form dto.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("Invalid form", nil)
	}
	user, err := h.auth.Login(c.UserContext(), form.Username, form.Password)
	if err != nil {
		if apperrors.ToDomainError(err).Code != "UNAUTHORIZED" {
			return err
		}
		page := h.pages.Page(c, "Login")
		page.Error = "Invalid username or password"
		page.Data = safeNext(form.Next)
		return h.pages.Render(c, fiber.StatusOK, "login", page)
	}
	if err := h.sessions.Issue(c, user); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Redirect(safeNext(form.Next), fiber.StatusFound)
}

// Logout handles POST /logout/.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.sessions.Clear(c)
	return c.Redirect("/", fiber.StatusFound)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return dashboardPath
	}
	return next
}
