package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
)

// RatingRepo encapsulates queries on the ratings table.  (movie_id,
// user_id) carries a unique index.
type RatingRepo struct {
	db *sql.DB
}

// NewRatingRepo constructs a RatingRepo with the provided DB handle.
func NewRatingRepo(db *sql.DB) *RatingRepo {
	return &RatingRepo{db: db}
}

const ratingSelect = `SELECT r.id, r.movie_id, r.user_id, COALESCE(u.username, ''), r.stars, r.created_at
                      FROM ratings r LEFT JOIN users u ON u.id = r.user_id`

func scanRating(sc interface{ Scan(...any) error }, rt *model.Rating) error {
	return sc.Scan(&rt.ID, &rt.MovieID, &rt.AuthorID, &rt.AuthorName, &rt.Stars, &rt.CreatedAt)
}

// ListRatings returns the ratings matching f ordered by id.
func (r *RatingRepo) ListRatings(ctx context.Context, f model.RatingFilter) ([]model.Rating, error) {
	q := ratingSelect
	var args []any
	if f.MovieID != nil {
		q += " WHERE r.movie_id = ?"
		args = append(args, *f.MovieID)
	}
	q += " ORDER BY r.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, translate(ctx, err, "ratings")
	}
	defer rows.Close()
	out := []model.Rating{}
	for rows.Next() {
		var rt model.Rating
		if err := scanRating(rows, &rt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *RatingRepo) GetRating(ctx context.Context, id uint64) (*model.Rating, error) {
	return getRating(ctx, r.db, id)
}

func getRating(ctx context.Context, q queryer, id uint64) (*model.Rating, error) {
	var rt model.Rating
	if err := scanRating(q.QueryRowContext(ctx, ratingSelect+" WHERE r.id = ?", id), &rt); err != nil {
		return nil, translate(ctx, err, fmt.Sprintf("rating %d", id))
	}
	return &rt, nil
}

// CreateRating inserts rt unless the author already rated the movie.  The
// movie row is locked for update, which serialises concurrent raters of the
// same movie; the unique index backs the check up.
func (r *RatingRepo) CreateRating(ctx context.Context, rt *model.Rating) error {
	var created *model.Rating
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, tableMovies, rt.MovieID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return fmt.Errorf("%w: movie %d does not exist", model.ErrValidation, rt.MovieID)
			}
			return err
		}
		var dup uint64
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM ratings WHERE movie_id = ? AND user_id = ?", rt.MovieID, rt.AuthorID).Scan(&dup)
		switch {
		case err == nil:
			return fmt.Errorf("%w: user %d already rated movie %d", model.ErrDuplicateKey, rt.AuthorID, rt.MovieID)
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO ratings (movie_id, user_id, stars) VALUES (?, ?, ?)", rt.MovieID, rt.AuthorID, rt.Stars)
		if err != nil {
			return translate(ctx, err, fmt.Sprintf("rating of movie %d by user %d", rt.MovieID, rt.AuthorID))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = getRating(ctx, tx, uint64(id))
		return err
	})
	if err != nil {
		return err
	}
	*rt = *created
	logging.Ctx(ctx).Debug().Uint64("rating_id", rt.ID).Uint64("movie_id", rt.MovieID).Int("stars", rt.Stars).Msg("rating created")
	return nil
}

// UpdateRating stores rt.Stars.
func (r *RatingRepo) UpdateRating(ctx context.Context, rt *model.Rating) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, tableRatings, rt.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "UPDATE ratings SET stars = ? WHERE id = ?", rt.Stars, rt.ID)
		return translate(ctx, err, fmt.Sprintf("rating %d", rt.ID))
	})
}

func (r *RatingRepo) DeleteRating(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM ratings WHERE id = ?", id)
	if err != nil {
		return translate(ctx, err, fmt.Sprintf("rating %d", id))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: rating %d", model.ErrNotFound, id)
	}
	return nil
}

// RatingStats returns the count and sum of stars for a movie.
func (r *RatingRepo) RatingStats(ctx context.Context, movieID uint64) (model.RatingStats, error) {
	var st model.RatingStats
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(stars), 0) FROM ratings WHERE movie_id = ?", movieID).Scan(&st.Count, &st.Sum)
	if err != nil {
		return model.RatingStats{}, translate(ctx, err, fmt.Sprintf("ratings of movie %d", movieID))
	}
	return st, nil
}
