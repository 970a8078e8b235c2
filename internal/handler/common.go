package handler // handler defines http handlers

import (
	"context"  // request scoped deadlines for store calls
	"errors"   // errors.Is on the model taxonomy
	"fmt"      // wrapping into the taxonomy
	"net/http" // status codes
	"strconv"  // path and query id parsing
	"strings"  // trimming query values
	"time"     // handler timeout

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 5 * time.Second

// reqCtx derives the store context for a request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// respondError writes the JSON error body matching err's place in the model
// taxonomy.  Anything outside the taxonomy is logged and reported as a bare
// 500 so internals never reach the client.
func respondError(c echo.Context, err error) error {
	var status int
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrDuplicateKey):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		logging.Ctx(c.Request().Context()).Warn().Err(err).Msg("request timed out")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request timed out"})
	default:
		logging.Ctx(c.Request().Context()).Error().Err(err).
			Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

// pathID parses a numeric path parameter.  A non-numeric id cannot name any
// resource, so it is reported as not found.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, model.ErrNotFound
	}
	return id, nil
}

// queryID parses an optional numeric query filter.  Absent yields nil.
func queryID(c echo.Context, name string) (*uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a positive integer", model.ErrValidation, name)
	}
	return &id, nil
}

// bind decodes the request body into dst, reporting malformed JSON as a
// validation failure.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return fmt.Errorf("%w: invalid body", model.ErrValidation)
	}
	return nil
}
