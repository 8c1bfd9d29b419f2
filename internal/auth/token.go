package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/data-portal/internal/domain"
)

const sessionIssuer = "data-portal"

// ErrInvalidSession is returned for any session token that fails validation.
var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims is the payload carried by the session cookie.
type SessionClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs session cookies with HS256.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(sessionIssuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// GenerateToken returns a signed session for user and the moment it expires.
func (tm *TokenManager) GenerateToken(user *domain.User) (string, time.Time, error) {
	issued := time.Now()
	expires := issued.Add(tm.ttl)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expires, nil
}

// ParseToken verifies raw and returns its claims. Every failure wraps
// ErrInvalidSession.
func (tm *TokenManager) ParseToken(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if _, err := tm.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return tm.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidSession)
	}
	return claims, nil
}
