package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/utils"
)

// JWTAuth returns an Echo middleware that resolves the caller's principal
// from a Bearer access token.  A request without an Authorization header is
// anonymous and continues; whether anonymous callers may proceed is decided
// later by the access policy.  A header that is present but does not carry a
// valid token is rejected with 401 so that a client with an expired token is
// told so instead of silently being served as a guest.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if auth == "" {
				setPrincipal(c, model.Anonymous)
				return next(c)
			}
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			userID, isAdmin, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				logging.Ctx(c.Request().Context()).Debug().Err(err).Msg("rejected access token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			setPrincipal(c, model.NewPrincipal(userID, isAdmin))
			return next(c)
		}
	}
}
