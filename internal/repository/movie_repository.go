package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
)

// MovieRepo encapsulates queries on movies and the movie_genres link table.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = "id, title, release_year, description, poster_url, created_at"

func scanMovie(sc interface{ Scan(...any) error }, m *model.Movie) error {
	return sc.Scan(&m.ID, &m.Title, &m.ReleaseYear, &m.Description, &m.PosterURL, &m.CreatedAt)
}

// ListMovies returns every movie ordered by id, each with its genres.
func (r *MovieRepo) ListMovies(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+movieColumns+" FROM movies ORDER BY id")
	if err != nil {
		return nil, translate(ctx, err, "movies")
	}
	defer rows.Close()

	out := []model.Movie{}
	index := map[uint64]int{}
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, err
		}
		m.Genres = []model.Genre{}
		index[m.ID] = len(out)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	// One query for all links instead of one per movie.
	const q = `SELECT mg.movie_id, g.id, g.name
	           FROM movie_genres mg JOIN genres g ON g.id = mg.genre_id
	           ORDER BY g.id`
	links, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, translate(ctx, err, "movie genres")
	}
	defer links.Close()
	for links.Next() {
		var movieID uint64
		var g model.Genre
		if err := links.Scan(&movieID, &g.ID, &g.Name); err != nil {
			return nil, err
		}
		if i, ok := index[movieID]; ok {
			out[i].Genres = append(out[i].Genres, g)
		}
	}
	return out, links.Err()
}

func (r *MovieRepo) GetMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	return getMovie(ctx, r.db, id)
}

func getMovie(ctx context.Context, q queryer, id uint64) (*model.Movie, error) {
	var m model.Movie
	row := q.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id)
	if err := scanMovie(row, &m); err != nil {
		return nil, translate(ctx, err, fmt.Sprintf("movie %d", id))
	}
	genres, err := movieGenres(ctx, q, id)
	if err != nil {
		return nil, err
	}
	m.Genres = genres
	return &m, nil
}

func movieGenres(ctx context.Context, q queryer, movieID uint64) ([]model.Genre, error) {
	const sel = `SELECT g.id, g.name
	             FROM movie_genres mg JOIN genres g ON g.id = mg.genre_id
	             WHERE mg.movie_id = ? ORDER BY g.id`
	rows, err := q.QueryContext(ctx, sel, movieID)
	if err != nil {
		return nil, translate(ctx, err, fmt.Sprintf("genres of movie %d", movieID))
	}
	defer rows.Close()
	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// linkGenres inserts one movie_genres row per id.  Unknown genres fail with
// model.ErrValidation, a repeated id with model.ErrDuplicateKey.
func linkGenres(ctx context.Context, tx *sql.Tx, movieID uint64, genreIDs []uint64) error {
	seen := make(map[uint64]bool, len(genreIDs))
	for _, gid := range genreIDs {
		if seen[gid] {
			return fmt.Errorf("%w: genre %d listed twice", model.ErrDuplicateKey, gid)
		}
		seen[gid] = true
		ok, err := exists(ctx, tx, tableGenres, gid)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: genre %d does not exist", model.ErrValidation, gid)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO movie_genres (movie_id, genre_id) VALUES (?, ?)", movieID, gid); err != nil {
			return translate(ctx, err, fmt.Sprintf("movie %d genre %d", movieID, gid))
		}
	}
	return nil
}

// CreateMovie inserts m with its genre links and populates the generated
// fields.
func (r *MovieRepo) CreateMovie(ctx context.Context, m *model.Movie, genreIDs []uint64) error {
	var created *model.Movie
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const q = "INSERT INTO movies (title, release_year, description, poster_url) VALUES (?, ?, ?, ?)"
		res, err := tx.ExecContext(ctx, q, m.Title, m.ReleaseYear, m.Description, m.PosterURL)
		if err != nil {
			return translate(ctx, err, fmt.Sprintf("movie %q", m.Title))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if err := linkGenres(ctx, tx, uint64(id), genreIDs); err != nil {
			return err
		}
		// Follow-up SELECT to populate created_at and the genres.
		created, err = getMovie(ctx, tx, uint64(id))
		return err
	})
	if err != nil {
		return err
	}
	*m = *created
	logging.Ctx(ctx).Debug().Uint64("movie_id", m.ID).Msg("movie created")
	return nil
}

// UpdateMovie overwrites the scalar fields of m.ID and, when replaceGenres is
// set, its genre links.
func (r *MovieRepo) UpdateMovie(ctx context.Context, m *model.Movie, genreIDs []uint64, replaceGenres bool) error {
	var updated *model.Movie
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, tableMovies, m.ID); err != nil {
			return err
		}
		const q = `UPDATE movies
		           SET title = ?, release_year = ?, description = ?, poster_url = ?
		           WHERE id = ?`
		if _, err := tx.ExecContext(ctx, q, m.Title, m.ReleaseYear, m.Description, m.PosterURL, m.ID); err != nil {
			return translate(ctx, err, fmt.Sprintf("movie %d", m.ID))
		}
		if replaceGenres {
			if _, err := tx.ExecContext(ctx, "DELETE FROM movie_genres WHERE movie_id = ?", m.ID); err != nil {
				return err
			}
			if err := linkGenres(ctx, tx, m.ID, genreIDs); err != nil {
				return err
			}
		}
		var err error
		updated, err = getMovie(ctx, tx, m.ID)
		return err
	})
	if err != nil {
		return err
	}
	*m = *updated
	return nil
}

// DeleteMovie removes a movie and everything that references it (reviews,
// ratings, genre links) within one transaction.
func (r *MovieRepo) DeleteMovie(ctx context.Context, id uint64) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, tableMovies, id); err != nil {
			return err
		}
		for _, q := range []string{
			"DELETE FROM reviews WHERE movie_id = ?",
			"DELETE FROM ratings WHERE movie_id = ?",
			"DELETE FROM movie_genres WHERE movie_id = ?",
			"DELETE FROM movies WHERE id = ?",
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translate(ctx, err, fmt.Sprintf("movie %d", id))
	}
	logging.Ctx(ctx).Debug().Uint64("movie_id", id).Msg("movie deleted")
	return nil
}

// AddMovieGenre links an existing genre to an existing movie.
func (r *MovieRepo) AddMovieGenre(ctx context.Context, movieID, genreID uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, tableMovies, movieID); err != nil {
			return err
		}
		var dup uint64
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM movie_genres WHERE movie_id = ? AND genre_id = ?", movieID, genreID).Scan(&dup)
		switch {
		case err == nil:
			return fmt.Errorf("%w: movie %d already has genre %d", model.ErrDuplicateKey, movieID, genreID)
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
		return linkGenres(ctx, tx, movieID, []uint64{genreID})
	})
}

// RemoveMovieGenre deletes a link; a missing link is model.ErrNotFound.
func (r *MovieRepo) RemoveMovieGenre(ctx context.Context, movieID, genreID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM movie_genres WHERE movie_id = ? AND genre_id = ?", movieID, genreID)
	if err != nil {
		return translate(ctx, err, fmt.Sprintf("movie %d genre %d", movieID, genreID))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: movie %d has no genre %d", model.ErrNotFound, movieID, genreID)
	}
	return nil
}

func (r *MovieRepo) ListMovieGenres(ctx context.Context, movieID uint64) ([]model.Genre, error) {
	var id uint64
	if err := r.db.QueryRowContext(ctx, "SELECT id FROM movies WHERE id = ?", movieID).Scan(&id); err != nil {
		return nil, translate(ctx, err, fmt.Sprintf("movie %d", movieID))
	}
	return movieGenres(ctx, r.db, movieID)
}
