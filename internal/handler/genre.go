package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/service"
)

// GenreHandler serves /api/genres.
type GenreHandler struct {
	Genres *service.GenreService
}

func NewGenreHandler(genres *service.GenreService) *GenreHandler {
	if genres == nil {
		panic("nil service passed to NewGenreHandler")
	}
	return &GenreHandler{Genres: genres}
}

func (h *GenreHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	gs, err := h.Genres.List(ctx, middleware.Principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toGenres(gs))
}

func (h *GenreHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	g, err := h.Genres.Get(ctx, middleware.Principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toGenre(*g))
}

func (h *GenreHandler) Create(c echo.Context) error {
	var in service.GenreInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	g, err := h.Genres.Create(ctx, middleware.Principal(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toGenre(*g))
}

// Update renames a genre; PUT and PATCH both land here since name is the only
// field.
func (h *GenreHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in service.GenreInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	g, err := h.Genres.Update(ctx, middleware.Principal(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toGenre(*g))
}

func (h *GenreHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Genres.Delete(ctx, middleware.Principal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
