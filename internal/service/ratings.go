package service

import (
	"context"
	"time"

	"github.com/iliyamo/movie-review-api/internal/aggregate"
	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/policy"
	"github.com/iliyamo/movie-review-api/internal/queue"
	"github.com/iliyamo/movie-review-api/internal/validation"
)

// CreateRatingInput is the payload of a rating creation.
type CreateRatingInput struct {
	MovieID uint64 `json:"movie" validate:"required"`
	Stars   int    `json:"stars" validate:"gte=1,lte=5"`
}

// UpdateRatingInput is the payload of a rating update.
type UpdateRatingInput struct {
	Stars *int `json:"stars"`
}

// RatingService implements the rating operations.  Every committed write
// invalidates the movie's cached average.
type RatingService struct {
	store  RatingStore
	movies MovieStore
	agg    *aggregate.Engine
	events Publisher
}

// List returns ratings ordered by id, optionally for one movie.
func (s *RatingService) List(ctx context.Context, p model.Principal, f model.RatingFilter) ([]model.Rating, error) {
	if err := policy.Check(p, policy.OpList, policy.KindRating, nil); err != nil {
		return nil, err
	}
	return s.store.ListRatings(ctx, f)
}

// ListForMovie returns the ratings of an existing movie.
func (s *RatingService) ListForMovie(ctx context.Context, p model.Principal, movieID uint64) ([]model.Rating, error) {
	if err := policy.Check(p, policy.OpList, policy.KindRating, nil); err != nil {
		return nil, err
	}
	if _, err := s.movies.GetMovie(ctx, movieID); err != nil {
		return nil, err
	}
	return s.store.ListRatings(ctx, model.RatingFilter{MovieID: &movieID})
}

func (s *RatingService) Get(ctx context.Context, p model.Principal, id uint64) (*model.Rating, error) {
	if err := policy.Check(p, policy.OpRetrieve, policy.KindRating, nil); err != nil {
		return nil, err
	}
	return s.store.GetRating(ctx, id)
}

// Create stores p's rating of a movie.  A second rating of the same movie by
// the same user fails with model.ErrDuplicateKey.
func (s *RatingService) Create(ctx context.Context, p model.Principal, in CreateRatingInput) (*model.Rating, error) {
	if err := policy.Check(p, policy.OpCreate, policy.KindRating, nil); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	r := &model.Rating{MovieID: in.MovieID, AuthorID: p.UserID, Stars: in.Stars}
	if err := s.store.CreateRating(ctx, r); err != nil {
		return nil, err
	}
	s.agg.Invalidate(ctx, r.MovieID)
	emit(ctx, s.events, ratingEvent(queue.RatingCreated, r))
	logging.Ctx(ctx).Info().Uint64("rating_id", r.ID).Uint64("movie_id", r.MovieID).Int("stars", r.Stars).Msg("rating created")
	return r, nil
}

// Update changes the stars of a rating.  Only the author or an admin may do
// so.
func (s *RatingService) Update(ctx context.Context, p model.Principal, id uint64, in UpdateRatingInput) (*model.Rating, error) {
	r, err := authorize(ctx, p, policy.OpUpdate, policy.KindRating, s.store.GetRating, id)
	if err != nil {
		return nil, err
	}
	if in.Stars == nil {
		return r, nil
	}
	if *in.Stars < model.MinStars || *in.Stars > model.MaxStars {
		return nil, invalid("stars must be between %d and %d", model.MinStars, model.MaxStars)
	}
	r.Stars = *in.Stars
	if err := s.store.UpdateRating(ctx, r); err != nil {
		return nil, err
	}
	s.agg.Invalidate(ctx, r.MovieID)
	emit(ctx, s.events, ratingEvent(queue.RatingUpdated, r))
	return r, nil
}

// Delete removes a rating.  Only the author or an admin may do so.
func (s *RatingService) Delete(ctx context.Context, p model.Principal, id uint64) error {
	r, err := authorize(ctx, p, policy.OpDelete, policy.KindRating, s.store.GetRating, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRating(ctx, id); err != nil {
		return err
	}
	s.agg.Invalidate(ctx, r.MovieID)
	emit(ctx, s.events, ratingEvent(queue.RatingDeleted, r))
	logging.Ctx(ctx).Info().Uint64("rating_id", id).Uint64("by", p.UserID).Msg("rating deleted")
	return nil
}

func ratingEvent(typ string, r *model.Rating) queue.ActivityEvent {
	return queue.ActivityEvent{
		Type:       typ,
		MovieID:    r.MovieID,
		UserID:     r.AuthorID,
		RatingID:   r.ID,
		Stars:      r.Stars,
		OccurredAt: time.Now().UTC(),
	}
}
