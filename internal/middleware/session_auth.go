package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidspace/backend/internal/services"
)

// Context keys set by SessionAuthMiddleware.
const (
	HandleKey = "handle"
	TokenKey  = "token"
)

// SessionResolver maps a session token to the handle it was issued for.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}

// SessionAuthMiddleware checks for a valid bearer session token and stores the
// caller's handle in the context.
func SessionAuthMiddleware(resolver SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := BearerToken(c)
			if err != nil {
				return err
			}

			handle, err := resolver.ResolveSession(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, services.ErrInvalidCredentials) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired session")
				}
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Session store unavailable")
			}

			c.Set(HandleKey, handle)
			c.Set(TokenKey, token)
			return next(c)
		}
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}

// CurrentHandle returns the handle stored by SessionAuthMiddleware.
func CurrentHandle(c echo.Context) string {
	h, _ := c.Get(HandleKey).(string)
	return h
}
