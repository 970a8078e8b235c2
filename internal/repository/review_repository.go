package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
)

// ReviewRepo encapsulates queries on the reviews table.  The author's
// username is joined in from users.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo constructs a ReviewRepo with the provided DB handle.
func NewReviewRepo(db *sql.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

const reviewSelect = `SELECT r.id, r.movie_id, r.user_id, COALESCE(u.username, ''),
                             r.review_text, r.sentiment, r.created_at
                      FROM reviews r LEFT JOIN users u ON u.id = r.user_id`

func scanReview(sc interface{ Scan(...any) error }, rv *model.Review) error {
	return sc.Scan(&rv.ID, &rv.MovieID, &rv.AuthorID, &rv.AuthorName, &rv.ReviewText, &rv.Sentiment, &rv.CreatedAt)
}

// ListReviews returns the reviews matching f ordered by id.
func (r *ReviewRepo) ListReviews(ctx context.Context, f model.ReviewFilter) ([]model.Review, error) {
	var (
		where []string
		args  []any
	)
	if f.MovieID != nil {
		where = append(where, "r.movie_id = ?")
		args = append(args, *f.MovieID)
	}
	if f.Sentiment != nil {
		where = append(where, "r.sentiment = ?")
		args = append(args, string(*f.Sentiment))
	}
	q := reviewSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY r.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, translate(ctx, err, "reviews")
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := scanReview(rows, &rv); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *ReviewRepo) GetReview(ctx context.Context, id uint64) (*model.Review, error) {
	return getReview(ctx, r.db, id)
}

func getReview(ctx context.Context, q queryer, id uint64) (*model.Review, error) {
	var rv model.Review
	if err := scanReview(q.QueryRowContext(ctx, reviewSelect+" WHERE r.id = ?", id), &rv); err != nil {
		return nil, translate(ctx, err, fmt.Sprintf("review %d", id))
	}
	return &rv, nil
}

// CreateReview inserts rv.  The movie row is share-locked so a concurrent
// movie delete cannot leave an orphan.
func (r *ReviewRepo) CreateReview(ctx context.Context, rv *model.Review) error {
	var created *model.Review
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, tableMovies, rv.MovieID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: movie %d does not exist", model.ErrValidation, rv.MovieID)
		}
		const q = "INSERT INTO reviews (movie_id, user_id, review_text, sentiment) VALUES (?, ?, ?, ?)"
		res, err := tx.ExecContext(ctx, q, rv.MovieID, rv.AuthorID, rv.ReviewText, string(rv.Sentiment))
		if err != nil {
			return translate(ctx, err, fmt.Sprintf("review of movie %d", rv.MovieID))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = getReview(ctx, tx, uint64(id))
		return err
	})
	if err != nil {
		return err
	}
	*rv = *created
	logging.Ctx(ctx).Debug().Uint64("review_id", rv.ID).Str("sentiment", string(rv.Sentiment)).Msg("review created")
	return nil
}

// UpdateReview stores rv.ReviewText and rv.Sentiment.
func (r *ReviewRepo) UpdateReview(ctx context.Context, rv *model.Review) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, tableReviews, rv.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "UPDATE reviews SET review_text = ?, sentiment = ? WHERE id = ?",
			rv.ReviewText, string(rv.Sentiment), rv.ID)
		return translate(ctx, err, fmt.Sprintf("review %d", rv.ID))
	})
}

func (r *ReviewRepo) DeleteReview(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return translate(ctx, err, fmt.Sprintf("review %d", id))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: review %d", model.ErrNotFound, id)
	}
	return nil
}
