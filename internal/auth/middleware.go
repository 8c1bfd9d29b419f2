package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/repository"
)

const principalKey = "auth_principal"

// SessionMiddleware resolves the session cookie into the signed-in user. It
// never rejects a request; RequireLogin does that where needed.
type SessionMiddleware struct {
	tokens     *TokenManager
	users      repository.UserRepository
	cookieName string
	secure     bool
	logger     *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager, users repository.UserRepository, cookieName string, secure bool, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens, users: users, cookieName: cookieName, secure: secure, logger: logger}
}

// Handle loads the user behind the session cookie, if any.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	raw := c.Cookies(m.cookieName)
	if raw == "" {
		return c.Next()
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		m.Clear(c)
		return c.Next()
	}

	user, err := m.users.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			m.logger.Warn("session user lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
		}
		m.Clear(c)
		return c.Next()
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// Issue signs a session for user and sets the cookie.
func (m *SessionMiddleware) Issue(c *fiber.Ctx, user *domain.User) error {
	token, exp, err := m.tokens.GenerateToken(user)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(principalKey, user)
	return nil
}

// Clear expires the session cookie.
func (m *SessionMiddleware) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// UserFromContext retrieves the signed-in user.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok && user != nil
}

// WithUser stores user as the signed-in user. Used by tests and by login.
func WithUser(c *fiber.Ctx, user *domain.User) {
	c.Locals(principalKey, user)
}
