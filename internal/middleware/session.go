package middleware

import (
	"errors"
	"strings"

	"github.com/anonto42/usf-event/backend/internal/models"
	"github.com/anonto42/usf-event/backend/internal/repositories"
	"github.com/anonto42/usf-event/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ViewerKey is the echo context key holding the request's services.Viewer.
const ViewerKey = "viewer"

// TokenParser validates a session token.
type TokenParser interface {
	ParseToken(token string) (*models.JwtCustomClaims, error)
}

// Session resolves the caller from the session cookie or a Bearer token and
// stores a services.Viewer in the context. It never rejects a request: a
// missing, expired or dangling session yields an anonymous viewer.
func Session(
	cookieName string,
	tokens TokenParser,
	users repositories.UserRepository,
	profiles repositories.ProfileRepository,
	log *zap.Logger,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ViewerKey, services.Anonymous())

			tokenString := sessionToken(c, cookieName)
			if tokenString == "" {
				return next(c)
			}

			claims, err := tokens.ParseToken(tokenString)
			if err != nil {
				return next(c)
			}

			ctx := c.Request().Context()
			user, err := users.GetUserByID(ctx, claims.UserID)
			if err != nil {
				if !errors.Is(err, repositories.ErrNotFound) {
					log.Error("session user lookup failed", zap.Uint("user_id", claims.UserID), zap.Error(err))
				}
				return next(c)
			}
			if !user.IsActive {
				return next(c)
			}

			profile, err := profiles.GetProfileByUserID(ctx, user.ID)
			if err != nil {
				if !errors.Is(err, repositories.ErrNotFound) {
					log.Error("session profile lookup failed", zap.Uint("user_id", user.ID), zap.Error(err))
					return next(c)
				}
				profile = nil
			}

			c.Set(ViewerKey, services.Authenticated(user, profile))
			return next(c)
		}
	}
}

// sessionToken prefers an "Authorization: Bearer <token>" header over the cookie.
func sessionToken(c echo.Context, cookieName string) string {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
		return ""
	}
	cookie, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// ViewerFrom returns the viewer set by Session, or an anonymous viewer.
func ViewerFrom(c echo.Context) services.Viewer {
	if viewer, ok := c.Get(ViewerKey).(services.Viewer); ok {
		return viewer
	}
	return services.Anonymous()
}
