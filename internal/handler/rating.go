package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/service"
)

// RatingHandler serves /api/ratings.
type RatingHandler struct {
	Ratings *service.RatingService
}

func NewRatingHandler(ratings *service.RatingService) *RatingHandler {
	if ratings == nil {
		panic("nil service passed to NewRatingHandler")
	}
	return &RatingHandler{Ratings: ratings}
}

// List handles GET /api/ratings?movie=.
func (h *RatingHandler) List(c echo.Context) error {
	movieID, err := queryID(c, "movie")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rs, err := h.Ratings.List(ctx, middleware.Principal(c), model.RatingFilter{MovieID: movieID})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toRatings(rs))
}

// ForMovie handles GET /api/ratings/movie/:movie_id/ratings.
func (h *RatingHandler) ForMovie(c echo.Context) error {
	movieID, err := pathID(c, "movie_id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rs, err := h.Ratings.ListForMovie(ctx, middleware.Principal(c), movieID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toRatings(rs))
}

func (h *RatingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Ratings.Get(ctx, middleware.Principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toRating(*r))
}

// Create handles POST /api/ratings.  A second rating of the same movie by the
// same user is a 409.
func (h *RatingHandler) Create(c echo.Context) error {
	var in service.CreateRatingInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Ratings.Create(ctx, middleware.Principal(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toRating(*r))
}

func (h *RatingHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in service.UpdateRatingInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Ratings.Update(ctx, middleware.Principal(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toRating(*r))
}

func (h *RatingHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Ratings.Delete(ctx, middleware.Principal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
