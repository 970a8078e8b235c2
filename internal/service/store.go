// Package service implements the movie, genre, review and rating operations.
// Every operation takes the calling principal, consults the access policy
// before touching the store and returns errors from the model taxonomy.
package service

import (
	"context"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// GenreStore persists genres.  Names are unique (exact match); violating
// writes fail with model.ErrDuplicateKey.
type GenreStore interface {
	ListGenres(ctx context.Context) ([]model.Genre, error)
	GetGenre(ctx context.Context, id uint64) (*model.Genre, error)
	CreateGenre(ctx context.Context, g *model.Genre) error
	RenameGenre(ctx context.Context, id uint64, name string) (*model.Genre, error)
	// DeleteGenre also removes the genre's movie links.
	DeleteGenre(ctx context.Context, id uint64) error
}

// MovieStore persists movies and their genre links.  Unknown genre ids fail
// with model.ErrValidation; a repeated (movie, genre) pair fails with
// model.ErrDuplicateKey.
type MovieStore interface {
	ListMovies(ctx context.Context) ([]model.Movie, error)
	GetMovie(ctx context.Context, id uint64) (*model.Movie, error)
	CreateMovie(ctx context.Context, m *model.Movie, genreIDs []uint64) error
	// UpdateMovie overwrites the scalar fields of m.ID; when replaceGenres is
	// set the genre links are replaced by genreIDs in the same transaction.
	UpdateMovie(ctx context.Context, m *model.Movie, genreIDs []uint64, replaceGenres bool) error
	// DeleteMovie removes the movie with its reviews, ratings and genre links
	// atomically.
	DeleteMovie(ctx context.Context, id uint64) error
	AddMovieGenre(ctx context.Context, movieID, genreID uint64) error
	RemoveMovieGenre(ctx context.Context, movieID, genreID uint64) error
	ListMovieGenres(ctx context.Context, movieID uint64) ([]model.Genre, error)
}

// ReviewStore persists reviews.  Creating a review for an unknown movie fails
// with model.ErrValidation.
type ReviewStore interface {
	ListReviews(ctx context.Context, f model.ReviewFilter) ([]model.Review, error)
	GetReview(ctx context.Context, id uint64) (*model.Review, error)
	CreateReview(ctx context.Context, r *model.Review) error
	// UpdateReview stores r.ReviewText and r.Sentiment.
	UpdateReview(ctx context.Context, r *model.Review) error
	DeleteReview(ctx context.Context, id uint64) error
}

// RatingStore persists ratings.  At most one rating exists per (movie,
// author); a second create fails with model.ErrDuplicateKey and leaves the
// first untouched.
type RatingStore interface {
	ListRatings(ctx context.Context, f model.RatingFilter) ([]model.Rating, error)
	GetRating(ctx context.Context, id uint64) (*model.Rating, error)
	CreateRating(ctx context.Context, r *model.Rating) error
	// UpdateRating stores r.Stars.
	UpdateRating(ctx context.Context, r *model.Rating) error
	DeleteRating(ctx context.Context, id uint64) error
	RatingStats(ctx context.Context, movieID uint64) (model.RatingStats, error)
}

// Store is the full domain store.
type Store interface {
	GenreStore
	MovieStore
	ReviewStore
	RatingStore
}
