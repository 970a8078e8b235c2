// Package repository is the MySQL implementation of the domain store.
//
// Repositories translate driver errors into the model error taxonomy so
// that services and handlers never see database/sql or driver types:
// sql.ErrNoRows becomes model.ErrNotFound, a unique index violation (MySQL
// error 1062) becomes model.ErrDuplicateKey and a foreign key violation
// on insert (1452) becomes model.ErrValidation.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
)

const (
	errDupEntry        = 1062
	errNoReferencedRow = 1452
)

func mysqlErrorNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrorNumber(err) == errDupEntry }

// translate maps a driver error onto the model taxonomy.  what describes
// the addressed row for the error message.
func translate(ctx context.Context, err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %s", model.ErrNotFound, what)
	case isDuplicate(err):
		return fmt.Errorf("%w: %s", model.ErrDuplicateKey, what)
	case mysqlErrorNumber(err) == errNoReferencedRow:
		return fmt.Errorf("%w: %s references a missing row", model.ErrValidation, what)
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrDuplicateKey):
		return err
	}
	logging.Ctx(ctx).Error().Err(err).Str("row", what).Msg("database error")
	return err
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logging.Ctx(ctx).Error().Err(rbErr).Msg("rollback failed")
			}
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// lockRow takes a row lock on id in table, returning model.ErrNotFound when
// the row does not exist.  table is always a package constant.
func lockRow(ctx context.Context, tx *sql.Tx, table string, id uint64) error {
	var got uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE id = ? FOR UPDATE", id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", model.ErrNotFound, singular(table), id)
	}
	return err
}

// exists reports whether id names a row of table, taking a shared lock so
// the row cannot vanish before the transaction commits.
func exists(ctx context.Context, tx *sql.Tx, table string, id uint64) (bool, error) {
	var got uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE id = ? LOCK IN SHARE MODE", id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func singular(table string) string {
	switch table {
	case tableMovies:
		return "movie"
	case tableGenres:
		return "genre"
	case tableReviews:
		return "review"
	case tableRatings:
		return "rating"
	case tableUsers:
		return "user"
	}
	return table
}

const (
	tableUsers       = "users"
	tableGenres      = "genres"
	tableMovies      = "movies"
	tableMovieGenres = "movie_genres"
	tableReviews     = "reviews"
	tableRatings     = "ratings"
)
