package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

// RateLimit throttles callers by client IP. Limiter store failures let the
// request through.
func RateLimit(l *limiter.Limiter, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}
		lc, err := l.Get(c.UserContext(), "login:"+c.IP())
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))
		if lc.Reached {
			return apperrors.NewTooManyRequests("Too many attempts, please try again later")
		}
		return c.Next()
	}
}
