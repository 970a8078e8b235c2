//go:build integration

package repository

import (
	"context"
	"database/sql"
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iliyamo/movie-review-api/internal/database"
	"github.com/iliyamo/movie-review-api/internal/model"
)

// Usage:
//   go test -tags integration ./internal/repository/...

const (
	mysqlImage    = "mysql:8.0"
	mysqlPassword = "secret"
	mysqlDatabase = "movies"
)

func dockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// newTestDB starts a MySQL container, applies the schema and returns a
// connected handle.  The container is terminated when the test ends.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if !dockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        mysqlImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": mysqlPassword,
			"MYSQL_DATABASE":      mysqlDatabase,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("3306/tcp"),
			wait.ForLog("port: 3306  MySQL Community Server"),
		).WithStartupTimeout(2 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Skipping: could not create container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}

	db, err := database.Open(ctx, database.Options{User: "root", Pass: mysqlPassword, Host: host, Port: port.Port(), Name: mysqlDatabase})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Migrate twice: every statement must be idempotent.
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	return db
}

func mustUser(t *testing.T, s *Store, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, PasswordHash: "x"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%q): %v", name, err)
	}
	return u
}

func TestMySQLStore(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	drama := &model.Genre{Name: "Drama"}
	if err := s.CreateGenre(ctx, drama); err != nil {
		t.Fatal(err)
	}

	t.Run("genre names are exact and unique", func(t *testing.T) {
		if err := s.CreateGenre(ctx, &model.Genre{Name: "Drama"}); !errors.Is(err, model.ErrDuplicateKey) {
			t.Fatalf("duplicate genre = %v, want ErrDuplicateKey", err)
		}
		if err := s.CreateGenre(ctx, &model.Genre{Name: "drama"}); err != nil {
			t.Fatalf("case variant rejected: %v", err)
		}
	})

	m := &model.Movie{Title: "Heat", ReleaseYear: 1995, Description: "LA crime"}
	if err := s.CreateMovie(ctx, m, []uint64{drama.ID}); err != nil {
		t.Fatal(err)
	}

	t.Run("movie carries genres", func(t *testing.T) {
		got, err := s.GetMovie(ctx, m.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Genres) != 1 || got.Genres[0].Name != "Drama" {
			t.Errorf("genres = %+v, want [Drama]", got.Genres)
		}
		if err := s.AddMovieGenre(ctx, m.ID, drama.ID); !errors.Is(err, model.ErrDuplicateKey) {
			t.Errorf("duplicate link = %v, want ErrDuplicateKey", err)
		}
		if err := s.CreateMovie(ctx, &model.Movie{Title: "X", ReleaseYear: 2000}, []uint64{9999}); !errors.Is(err, model.ErrValidation) {
			t.Errorf("unknown genre = %v, want ErrValidation", err)
		}
	})

	t.Run("one rating per user and movie", func(t *testing.T) {
		if err := s.CreateRating(ctx, &model.Rating{MovieID: m.ID, AuthorID: alice.ID, Stars: 5}); err != nil {
			t.Fatal(err)
		}
		if err := s.CreateRating(ctx, &model.Rating{MovieID: m.ID, AuthorID: alice.ID, Stars: 1}); !errors.Is(err, model.ErrDuplicateKey) {
			t.Fatalf("second rating = %v, want ErrDuplicateKey", err)
		}
		st, err := s.RatingStats(ctx, m.ID)
		if err != nil {
			t.Fatal(err)
		}
		if st != (model.RatingStats{Count: 1, Sum: 5}) {
			t.Errorf("stats = %+v, want {1 5}", st)
		}
	})

	t.Run("concurrent duplicate ratings", func(t *testing.T) {
		const n = 8
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.CreateRating(ctx, &model.Rating{MovieID: m.ID, AuthorID: bob.ID, Stars: 4})
			}()
		}
		wg.Wait()
		close(errs)
		ok := 0
		for err := range errs {
			if err == nil {
				ok++
			} else if !errors.Is(err, model.ErrDuplicateKey) {
				t.Errorf("unexpected error: %v", err)
			}
		}
		if ok != 1 {
			t.Fatalf("%d creates succeeded, want 1", ok)
		}
	})

	t.Run("review sentiment filter is exact", func(t *testing.T) {
		rv := &model.Review{MovieID: m.ID, AuthorID: alice.ID, ReviewText: "Great film!", Sentiment: model.SentimentPositive}
		if err := s.CreateReview(ctx, rv); err != nil {
			t.Fatal(err)
		}
		if rv.AuthorName != "alice" {
			t.Errorf("AuthorName = %q, want alice", rv.AuthorName)
		}
		lower := model.Sentiment("positive")
		got, err := s.ListReviews(ctx, model.ReviewFilter{Sentiment: &lower})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("lower-case filter matched %d reviews", len(got))
		}
	})

	t.Run("movie delete cascades", func(t *testing.T) {
		if err := s.DeleteMovie(ctx, m.ID); err != nil {
			t.Fatal(err)
		}
		ratings, err := s.ListRatings(ctx, model.RatingFilter{MovieID: &m.ID})
		if err != nil {
			t.Fatal(err)
		}
		reviews, err := s.ListReviews(ctx, model.ReviewFilter{MovieID: &m.ID})
		if err != nil {
			t.Fatal(err)
		}
		if len(ratings) != 0 || len(reviews) != 0 {
			t.Errorf("orphans left: %d ratings, %d reviews", len(ratings), len(reviews))
		}
		if _, err := s.GetMovie(ctx, m.ID); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("GetMovie after delete = %v, want ErrNotFound", err)
		}
	})
}
