package middleware

import (
	"errors"
	"strings"

	"jobdash/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
)

const (
	CtxUserIDKey = "user_id"
	CtxEmailKey  = "email"
)

// AuthMiddleware resolves the caller from a provider bearer token. Requests
// without a token continue anonymously; a token that is present but invalid
// is rejected.
type AuthMiddleware struct {
	jwt jwt.Validator
}

func NewAuthMiddleware(v jwt.Validator) *AuthMiddleware {
	return &AuthMiddleware{jwt: v}
}

func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := bearerTokenFromHeader(c.Get("Authorization"))
		if !ok {
			token = strings.TrimSpace(c.Query("access_token"))
			ok = token != ""
		}
		if !ok || m == nil || m.jwt == nil {
			return c.Next()
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return NewAppError(fiber.StatusUnauthorized, "Token expired", nil, err)
			}
			return NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, err)
		}

		c.Locals(CtxUserIDKey, claims.UserID())
		c.Locals(CtxEmailKey, claims.Email)

		return c.Next()
	}
}

// RequireUser rejects anonymous requests with a 401 carrying message. It
// must run after Middleware.
func RequireUser(message string) fiber.Handler {
	if message == "" {
		message = "Sign in required"
	}
	return func(c fiber.Ctx) error {
		if UserID(c) == "" {
			return NewAppError(fiber.StatusUnauthorized, message, nil, nil)
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c fiber.Ctx) string {
	id, _ := c.Locals(CtxUserIDKey).(string)
	return id
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
