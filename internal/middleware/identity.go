package middleware

// identity.go holds the helpers that move the caller's principal through the
// Echo context.  JWTAuth stores it; handlers and the rate limiter read it.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/model"
)

const principalKey = "principal"

func setPrincipal(c echo.Context, p model.Principal) {
	c.Set(principalKey, p)
	if !p.IsAnonymous() {
		c.Set("user_id", strconv.FormatUint(p.UserID, 10))
	}
}

// Principal returns the principal resolved by JWTAuth, or model.Anonymous
// when the middleware did not run or found no token.
func Principal(c echo.Context) model.Principal {
	if p, ok := c.Get(principalKey).(model.Principal); ok {
		return p
	}
	return model.Anonymous
}

// userID returns the caller's id as a string for rate limit keys, or "anon".
func userID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	return "anon"
}
