package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/movie-review-api/internal/handler"    // import the handlers that implement the endpoints
	"github.com/iliyamo/movie-review-api/internal/middleware" // import middleware for principal resolution
)

// Handlers groups everything RegisterRoutes needs.
type Handlers struct {
	Auth    *handler.AuthHandler
	Movies  *handler.MovieHandler
	Genres  *handler.GenreHandler
	Reviews *handler.ReviewHandler
	Ratings *handler.RatingHandler
	Ready   echo.HandlerFunc // optional readiness probe
}

// RegisterRoutes registers the health and welcome endpoints and the full
// /api surface.  Every /api route runs JWTAuth, which resolves the caller
// (possibly anonymous); whether the caller may proceed is decided by the
// services.  limit is applied to the resource routes and typically only
// throttles writes.  Paths are registered without a trailing slash; the server
// strips one before routing.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, limit echo.MiddlewareFunc) {
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	// Health check for load balancers; never authenticated or limited.
	e.GET("/healthz", handler.Health)
	if h.Ready != nil {
		e.GET("/readyz", h.Ready)
	}
	e.GET("/", handler.Welcome)

	api := e.Group("/api", middleware.JWTAuth(jwtSecret))
	api.GET("", handler.Welcome)

	// Token issuing lives under /api/auth.  Register and login are limited
	// like any other write so credential guessing is throttled too.
	auth := api.Group("/auth", limit)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)

	movies := api.Group("/movies", limit)
	movies.GET("", h.Movies.List)
	movies.POST("", h.Movies.Create)
	movies.GET("/:id", h.Movies.Get)
	movies.PUT("/:id", h.Movies.Update)
	movies.PATCH("/:id", h.Movies.Update)
	movies.DELETE("/:id", h.Movies.Delete)
	movies.GET("/:id/average-rating", h.Movies.AverageRating)
	movies.GET("/:id/genres", h.Movies.ListGenres)
	movies.POST("/:id/genres", h.Movies.AddGenre)
	movies.DELETE("/:id/genres/:genre_id", h.Movies.RemoveGenre)

	genres := api.Group("/genres", limit)
	genres.GET("", h.Genres.List)
	genres.POST("", h.Genres.Create)
	genres.GET("/:id", h.Genres.Get)
	genres.PUT("/:id", h.Genres.Update)
	genres.PATCH("/:id", h.Genres.Update)
	genres.DELETE("/:id", h.Genres.Delete)

	reviews := api.Group("/reviews", limit)
	reviews.GET("", h.Reviews.List)
	reviews.POST("", h.Reviews.Create)
	reviews.GET("/:id", h.Reviews.Get)
	reviews.PUT("/:id", h.Reviews.Update)
	reviews.PATCH("/:id", h.Reviews.Update)
	reviews.DELETE("/:id", h.Reviews.Delete)

	ratings := api.Group("/ratings", limit)
	ratings.GET("", h.Ratings.List)
	ratings.POST("", h.Ratings.Create)
	ratings.GET("/movie/:movie_id/ratings", h.Ratings.ForMovie)
	ratings.GET("/:id", h.Ratings.Get)
	ratings.PUT("/:id", h.Ratings.Update)
	ratings.PATCH("/:id", h.Ratings.Update)
	ratings.DELETE("/:id", h.Ratings.Delete)
}
