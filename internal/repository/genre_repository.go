package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
)

// GenreRepo encapsulates queries on the genres table.  Names are compared
// byte for byte (the column uses a binary collation).
type GenreRepo struct {
	db *sql.DB
}

// NewGenreRepo constructs a GenreRepo with the provided DB handle.
func NewGenreRepo(db *sql.DB) *GenreRepo {
	return &GenreRepo{db: db}
}

// ListGenres returns every genre ordered by id.
func (r *GenreRepo) ListGenres(ctx context.Context) ([]model.Genre, error) {
	const q = "SELECT id, name FROM genres ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, translate(ctx, err, "genres")
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GenreRepo) GetGenre(ctx context.Context, id uint64) (*model.Genre, error) {
	const q = "SELECT id, name FROM genres WHERE id = ?"
	var g model.Genre
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&g.ID, &g.Name); err != nil {
		return nil, translate(ctx, err, fmt.Sprintf("genre %d", id))
	}
	return &g, nil
}

// CreateGenre inserts g and populates its id.
func (r *GenreRepo) CreateGenre(ctx context.Context, g *model.Genre) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO genres (name) VALUES (?)", g.Name)
	if err != nil {
		return translate(ctx, err, fmt.Sprintf("genre name %q", g.Name))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	logging.Ctx(ctx).Debug().Uint64("genre_id", g.ID).Str("name", g.Name).Msg("genre created")
	return nil
}

// RenameGenre changes the name of genre id.
func (r *GenreRepo) RenameGenre(ctx context.Context, id uint64, name string) (*model.Genre, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, tableGenres, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE genres SET name = ? WHERE id = ?", name, id); err != nil {
			return translate(ctx, err, fmt.Sprintf("genre name %q", name))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &model.Genre{ID: id, Name: name}, nil
}

// DeleteGenre removes genre id and its movie links in one transaction.
func (r *GenreRepo) DeleteGenre(ctx context.Context, id uint64) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, tableGenres, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM movie_genres WHERE genre_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM genres WHERE id = ?", id)
		return err
	})
	if err != nil {
		return translate(ctx, err, fmt.Sprintf("genre %d", id))
	}
	logging.Ctx(ctx).Debug().Uint64("genre_id", id).Msg("genre deleted")
	return nil
}
