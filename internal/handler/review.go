package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/service"
)

// ReviewHandler serves /api/reviews.  Sentiment is always computed by the
// server from review_text.
type ReviewHandler struct {
	Reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	if reviews == nil {
		panic("nil service passed to NewReviewHandler")
	}
	return &ReviewHandler{Reviews: reviews}
}

// List handles GET /api/reviews?sentiment=&movie=.
func (h *ReviewHandler) List(c echo.Context) error {
	movieID, err := queryID(c, "movie")
	if err != nil {
		return respondError(c, err)
	}
	q := service.ReviewQuery{MovieID: movieID, Sentiment: c.QueryParam("sentiment")}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rs, err := h.Reviews.List(ctx, middleware.Principal(c), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReviews(rs))
}

func (h *ReviewHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Reviews.Get(ctx, middleware.Principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReview(*r))
}

func (h *ReviewHandler) Create(c echo.Context) error {
	var in service.CreateReviewInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Reviews.Create(ctx, middleware.Principal(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toReview(*r))
}

// Update handles PUT and PATCH /api/reviews/:id (author or admin).
func (h *ReviewHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in service.UpdateReviewInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Reviews.Update(ctx, middleware.Principal(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReview(*r))
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Reviews.Delete(ctx, middleware.Principal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
