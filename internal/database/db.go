// Package database opens the MySQL connection pool and owns the schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/movie-review-api/internal/logging"
)

// Options locate the database.
type Options struct {
	User, Pass string
	Host, Port string
	Name       string
}

const (
	maxOpenConns    = 25
	connMaxLifetime = 30 * time.Minute
	pingAttempts    = 5
)

// DSN renders o as a go-sql-driver DSN.  Times are parsed into time.Time in
// UTC and the connection uses utf8mb4.
func (o Options) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, o.Port)
	cfg.DBName = o.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// Open connects to MySQL and pings it, retrying with backoff while the
// server is still starting.  The pool is closed again if no ping succeeds.
func Open(ctx context.Context, o Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", o.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	backoff := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return db, nil
		}
		if attempt == pingAttempts || ctx.Err() != nil {
			break
		}
		logging.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", backoff).Msg("database not ready")
		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	_ = db.Close()
	return nil, fmt.Errorf("ping %s@%s: %w", o.Name, net.JoinHostPort(o.Host, o.Port), err)
}
