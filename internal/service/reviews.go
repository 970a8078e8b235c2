package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/policy"
	"github.com/iliyamo/movie-review-api/internal/queue"
	"github.com/iliyamo/movie-review-api/internal/sentiment"
	"github.com/iliyamo/movie-review-api/internal/validation"
)

// CreateReviewInput is the payload of a review creation.  Sentiment exists
// only to detect clients that try to set it.
type CreateReviewInput struct {
	MovieID    uint64  `json:"movie" validate:"required"`
	ReviewText string  `json:"review_text" validate:"notblank"`
	Sentiment  *string `json:"sentiment" validate:"-"`
}

// UpdateReviewInput is a partial review update.
type UpdateReviewInput struct {
	ReviewText *string `json:"review_text"`
	Sentiment  *string `json:"sentiment" validate:"-"`
}

// ReviewQuery holds the raw list filters as received.
type ReviewQuery struct {
	MovieID   *uint64
	Sentiment string
}

// ReviewService implements the review operations.
type ReviewService struct {
	store  ReviewStore
	events Publisher
}

// List returns reviews ordered by id.  A sentiment filter must name one of
// the three sentiments exactly.
func (s *ReviewService) List(ctx context.Context, p model.Principal, q ReviewQuery) ([]model.Review, error) {
	if err := policy.Check(p, policy.OpList, policy.KindReview, nil); err != nil {
		return nil, err
	}
	f := model.ReviewFilter{MovieID: q.MovieID}
	if q.Sentiment != "" {
		sent, ok := model.ParseSentiment(q.Sentiment)
		if !ok {
			return nil, invalid("sentiment must be one of Positive, Negative, Neutral")
		}
		f.Sentiment = &sent
	}
	return s.store.ListReviews(ctx, f)
}

func (s *ReviewService) Get(ctx context.Context, p model.Principal, id uint64) (*model.Review, error) {
	if err := policy.Check(p, policy.OpRetrieve, policy.KindReview, nil); err != nil {
		return nil, err
	}
	return s.store.GetReview(ctx, id)
}

// Create stores a review authored by p with a server-computed sentiment.
// Empty text is rejected.
func (s *ReviewService) Create(ctx context.Context, p model.Principal, in CreateReviewInput) (*model.Review, error) {
	if err := policy.Check(p, policy.OpCreate, policy.KindReview, nil); err != nil {
		return nil, err
	}
	if in.Sentiment != nil {
		return nil, invalid("sentiment is computed by the server and cannot be set")
	}
	in.ReviewText = strings.TrimSpace(in.ReviewText)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	r := &model.Review{
		MovieID:    in.MovieID,
		AuthorID:   p.UserID,
		ReviewText: in.ReviewText,
		Sentiment:  sentiment.Classify(in.ReviewText),
	}
	if err := s.store.CreateReview(ctx, r); err != nil {
		return nil, err
	}
	emit(ctx, s.events, reviewEvent(queue.ReviewCreated, r))
	logging.Ctx(ctx).Info().Uint64("review_id", r.ID).Uint64("movie_id", r.MovieID).
		Str("sentiment", string(r.Sentiment)).Msg("review created")
	return r, nil
}

// Update replaces the text of a review and recomputes its sentiment.  Only
// the author or an admin may do so.
func (s *ReviewService) Update(ctx context.Context, p model.Principal, id uint64, in UpdateReviewInput) (*model.Review, error) {
	r, err := authorize(ctx, p, policy.OpUpdate, policy.KindReview, s.store.GetReview, id)
	if err != nil {
		return nil, err
	}
	if in.Sentiment != nil {
		return nil, invalid("sentiment is computed by the server and cannot be set")
	}
	if in.ReviewText == nil {
		return r, nil
	}
	text := strings.TrimSpace(*in.ReviewText)
	if text == "" {
		return nil, invalid("review_text is required")
	}
	r.ReviewText = text
	r.Sentiment = sentiment.Classify(text)
	if err := s.store.UpdateReview(ctx, r); err != nil {
		return nil, err
	}
	emit(ctx, s.events, reviewEvent(queue.ReviewUpdated, r))
	return r, nil
}

// Delete removes a review.  Only the author or an admin may do so.
func (s *ReviewService) Delete(ctx context.Context, p model.Principal, id uint64) error {
	r, err := authorize(ctx, p, policy.OpDelete, policy.KindReview, s.store.GetReview, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteReview(ctx, id); err != nil {
		return err
	}
	emit(ctx, s.events, reviewEvent(queue.ReviewDeleted, r))
	logging.Ctx(ctx).Info().Uint64("review_id", id).Uint64("by", p.UserID).Msg("review deleted")
	return nil
}

func reviewEvent(typ string, r *model.Review) queue.ActivityEvent {
	return queue.ActivityEvent{
		Type:       typ,
		MovieID:    r.MovieID,
		UserID:     r.AuthorID,
		ReviewID:   r.ID,
		Sentiment:  string(r.Sentiment),
		OccurredAt: time.Now().UTC(),
	}
}
