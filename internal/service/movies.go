package service

import (
	"context"
	"strings"

	"github.com/iliyamo/movie-review-api/internal/aggregate"
	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/policy"
	"github.com/iliyamo/movie-review-api/internal/validation"
)

// Bounds of Movie.ReleaseYear, mirrored in the validate tags below.
const (
	minReleaseYear = 1800
	maxReleaseYear = 9999
)

// MovieDetail is a movie with its current average rating.
type MovieDetail struct {
	model.Movie
	AverageRating float64
}

// CreateMovieInput is the payload of a movie creation.
type CreateMovieInput struct {
	Title       string   `json:"title" validate:"notblank,max=200"`
	ReleaseYear int      `json:"release_year" validate:"gte=1800,lte=9999"`
	Description string   `json:"description"`
	PosterURL   string   `json:"poster_url" validate:"omitempty,url,max=200"`
	GenreIDs    []uint64 `json:"genre_ids" validate:"dive,gt=0"`
}

// UpdateMovieInput is a partial movie update; nil fields are kept.
type UpdateMovieInput struct {
	Title       *string   `json:"title" validate:"omitempty,max=200"`
	ReleaseYear *int      `json:"release_year"`
	Description *string   `json:"description"`
	PosterURL   *string   `json:"poster_url" validate:"omitempty,max=200"`
	GenreIDs    *[]uint64 `json:"genre_ids"`
}

// MovieService implements the movie operations.
type MovieService struct {
	store MovieStore
	agg   *aggregate.Engine
}

// List returns all movies ordered by id, each with its average rating.
func (s *MovieService) List(ctx context.Context, p model.Principal) ([]MovieDetail, error) {
	if err := policy.Check(p, policy.OpList, policy.KindMovie, nil); err != nil {
		return nil, err
	}
	movies, err := s.store.ListMovies(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MovieDetail, 0, len(movies))
	for _, m := range movies {
		d, err := s.detail(ctx, m)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Get returns one movie with its average rating.
func (s *MovieService) Get(ctx context.Context, p model.Principal, id uint64) (*MovieDetail, error) {
	if err := policy.Check(p, policy.OpRetrieve, policy.KindMovie, nil); err != nil {
		return nil, err
	}
	m, err := s.store.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := s.detail(ctx, *m)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create adds a movie linked to the given genres.  Admin only.
func (s *MovieService) Create(ctx context.Context, p model.Principal, in CreateMovieInput) (*MovieDetail, error) {
	if err := policy.Check(p, policy.OpCreate, policy.KindMovie, nil); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.PosterURL = strings.TrimSpace(in.PosterURL)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	m := &model.Movie{
		Title:       in.Title,
		ReleaseYear: in.ReleaseYear,
		Description: in.Description,
		PosterURL:   in.PosterURL,
	}
	if err := s.store.CreateMovie(ctx, m, in.GenreIDs); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Uint64("movie_id", m.ID).Uint64("by", p.UserID).Msg("movie created")
	// A new movie has no ratings yet.
	return &MovieDetail{Movie: *m}, nil
}

// Update applies a partial update.  Admin only.
func (s *MovieService) Update(ctx context.Context, p model.Principal, id uint64, in UpdateMovieInput) (*MovieDetail, error) {
	if err := policy.Check(p, policy.OpUpdate, policy.KindMovie, nil); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	m, err := s.store.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, invalid("title is required")
		}
		m.Title = t
	}
	if in.ReleaseYear != nil {
		if y := *in.ReleaseYear; y < minReleaseYear || y > maxReleaseYear {
			return nil, invalid("release_year must be between %d and %d", minReleaseYear, maxReleaseYear)
		}
		m.ReleaseYear = *in.ReleaseYear
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.PosterURL != nil {
		u := strings.TrimSpace(*in.PosterURL)
		if u != "" {
			if err := validation.Validator().Var(u, "url"); err != nil {
				return nil, invalid("poster_url must be a valid URL")
			}
		}
		m.PosterURL = u
	}
	var genreIDs []uint64
	if in.GenreIDs != nil {
		genreIDs = *in.GenreIDs
	}
	if err := s.store.UpdateMovie(ctx, m, genreIDs, in.GenreIDs != nil); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Uint64("movie_id", id).Uint64("by", p.UserID).Msg("movie updated")
	return s.Get(ctx, p, id)
}

// Delete removes a movie with all its reviews, ratings and genre links.
// Admin only.
func (s *MovieService) Delete(ctx context.Context, p model.Principal, id uint64) error {
	if err := policy.Check(p, policy.OpDelete, policy.KindMovie, nil); err != nil {
		return err
	}
	if err := s.store.DeleteMovie(ctx, id); err != nil {
		return err
	}
	s.agg.Invalidate(ctx, id)
	logging.Ctx(ctx).Info().Uint64("movie_id", id).Uint64("by", p.UserID).Msg("movie deleted")
	return nil
}

// AverageRating returns the movie's mean stars rounded to two decimals, 0
// when it has no ratings.
func (s *MovieService) AverageRating(ctx context.Context, p model.Principal, id uint64) (float64, error) {
	if err := policy.Check(p, policy.OpRetrieve, policy.KindRating, nil); err != nil {
		return 0, err
	}
	if _, err := s.store.GetMovie(ctx, id); err != nil {
		return 0, err
	}
	return s.agg.AverageStars(ctx, id)
}

// ListGenres returns the genres linked to a movie ordered by genre id.
func (s *MovieService) ListGenres(ctx context.Context, p model.Principal, movieID uint64) ([]model.Genre, error) {
	if err := policy.Check(p, policy.OpList, policy.KindGenre, nil); err != nil {
		return nil, err
	}
	return s.store.ListMovieGenres(ctx, movieID)
}

// AddGenre links a genre to a movie.  Admin only; linking twice fails with
// model.ErrDuplicateKey.
func (s *MovieService) AddGenre(ctx context.Context, p model.Principal, movieID, genreID uint64) ([]model.Genre, error) {
	if err := policy.Check(p, policy.OpUpdate, policy.KindMovie, nil); err != nil {
		return nil, err
	}
	if genreID == 0 {
		return nil, invalid("genre_id is required")
	}
	if err := s.store.AddMovieGenre(ctx, movieID, genreID); err != nil {
		return nil, err
	}
	return s.store.ListMovieGenres(ctx, movieID)
}

// RemoveGenre unlinks a genre from a movie.  Admin only.
func (s *MovieService) RemoveGenre(ctx context.Context, p model.Principal, movieID, genreID uint64) error {
	if err := policy.Check(p, policy.OpUpdate, policy.KindMovie, nil); err != nil {
		return err
	}
	return s.store.RemoveMovieGenre(ctx, movieID, genreID)
}

func (s *MovieService) detail(ctx context.Context, m model.Movie) (MovieDetail, error) {
	avg, err := s.agg.AverageStars(ctx, m.ID)
	if err != nil {
		return MovieDetail{}, err
	}
	return MovieDetail{Movie: m, AverageRating: avg}, nil
}
