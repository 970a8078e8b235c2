package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/service"
)

// MovieHandler serves /api/movies and its sub-resources.
type MovieHandler struct {
	Movies *service.MovieService
}

// NewMovieHandler constructs a MovieHandler and panics if the service is nil.
func NewMovieHandler(movies *service.MovieService) *MovieHandler {
	if movies == nil {
		panic("nil service passed to NewMovieHandler")
	}
	return &MovieHandler{Movies: movies}
}

// List handles GET /api/movies.
func (h *MovieHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	movies, err := h.Movies.List(ctx, middleware.Principal(c))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]movieResp, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovie(m))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /api/movies/:id.
func (h *MovieHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Movies.Get(ctx, middleware.Principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toMovie(*m))
}

// Create handles POST /api/movies (admin).
func (h *MovieHandler) Create(c echo.Context) error {
	var in service.CreateMovieInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Movies.Create(ctx, middleware.Principal(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toMovie(*m))
}

// Update handles PUT and PATCH /api/movies/:id (admin).  Omitted fields keep
// their value.
func (h *MovieHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in service.UpdateMovieInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Movies.Update(ctx, middleware.Principal(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toMovie(*m))
}

// Delete handles DELETE /api/movies/:id (admin).  Reviews, ratings and genre
// links go with the movie.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Movies.Delete(ctx, middleware.Principal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AverageRating handles GET /api/movies/:id/average-rating.
func (h *MovieHandler) AverageRating(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	avg, err := h.Movies.AverageRating(ctx, middleware.Principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, averageResp{AverageRating: avg})
}

// ListGenres handles GET /api/movies/:id/genres.
func (h *MovieHandler) ListGenres(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	gs, err := h.Movies.ListGenres(ctx, middleware.Principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toGenres(gs))
}

type addGenreReq struct {
	GenreID uint64 `json:"genre_id"`
}

// AddGenre handles POST /api/movies/:id/genres (admin).
func (h *MovieHandler) AddGenre(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req addGenreReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	gs, err := h.Movies.AddGenre(ctx, middleware.Principal(c), id, req.GenreID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toGenres(gs))
}

// RemoveGenre handles DELETE /api/movies/:id/genres/:genre_id (admin).
func (h *MovieHandler) RemoveGenre(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	genreID, err := pathID(c, "genre_id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Movies.RemoveGenre(ctx, middleware.Principal(c), id, genreID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
