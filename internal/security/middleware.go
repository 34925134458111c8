package security

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	userIDContextKey    = "user_id"
	sessionIDContextKey = "session_id"
)

// Middleware authenticates requests with a bearer session token and stores
// the resolved user id and session id on the echo context.
func Middleware(sessions *SessionManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			userID, sessionID, err := sessions.ValidateSession(c.Request().Context(), tokenParts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(userIDContextKey, userID)
			c.Set(sessionIDContextKey, sessionID)
			return next(c)
		}
	}
}

// UserIDFromContext returns the authenticated user id set by Middleware.
func UserIDFromContext(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(userIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "user id not found in context")
	}
	return userID, nil
}

// SessionIDFromContext returns the session id set by Middleware.
func SessionIDFromContext(c echo.Context) (string, error) {
	sessionID, ok := c.Get(sessionIDContextKey).(string)
	if !ok || sessionID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "session id not found in context")
	}
	return sessionID, nil
}
