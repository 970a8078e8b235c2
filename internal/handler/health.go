package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/logging"
)

// Health reports that the process is up.  It never touches the store.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready returns a readiness probe that answers 503 while ping fails.  A nil
// ping (the in-memory store) is always ready.
func Ready(ping func(context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping == nil {
			return c.String(http.StatusOK, "ready")
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("readiness check failed")
			return c.String(http.StatusServiceUnavailable, "store unavailable")
		}
		return c.String(http.StatusOK, "ready")
	}
}

// Welcome greets API clients at / and /api.
func Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Welcome to the Movie Review API"})
}
