package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iliyamo/movie-review-api/internal/aggregate"
	"github.com/iliyamo/movie-review-api/internal/memstore"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/queue"
	"github.com/iliyamo/movie-review-api/internal/service"
)

var (
	anon  = model.Anonymous
	admin = model.NewPrincipal(1, true)
	alice = model.NewPrincipal(2, false)
	bob   = model.NewPrincipal(3, false)
)

func newServices(t *testing.T) (*service.Services, *memstore.Store) {
	t.Helper()
	return newServicesWith(t, nil)
}

func newServicesWith(t *testing.T, events service.Publisher) (*service.Services, *memstore.Store) {
	t.Helper()
	return newServicesCached(t, events, nil)
}

func newServicesCached(t *testing.T, events service.Publisher, cache aggregate.Cache) (*service.Services, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	ctx := context.Background()
	for _, name := range []string{"admin", "alice", "bob"} {
		if err := st.CreateUser(ctx, &model.User{Username: name}); err != nil {
			t.Fatal(err)
		}
	}
	return service.New(st, aggregate.NewEngine(st, cache), events), st
}

func ptr[T any](v T) *T { return &v }

func mustMovie(t *testing.T, s *service.Services, title string) *service.MovieDetail {
	t.Helper()
	m, err := s.Movies.Create(context.Background(), admin, service.CreateMovieInput{Title: title, ReleaseYear: 1999})
	if err != nil {
		t.Fatalf("create movie %q: %v", title, err)
	}
	return m
}

func TestMovieWritesNeedAdmin(t *testing.T) {
	s, _ := newServices(t)
	ctx := context.Background()
	in := service.CreateMovieInput{Title: "Heat", ReleaseYear: 1995}

	if _, err := s.Movies.Create(ctx, anon, in); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("anonymous create = %v, want ErrUnauthorized", err)
	}
	if _, err := s.Movies.Create(ctx, alice, in); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("user create = %v, want ErrForbidden", err)
	}
	m, err := s.Movies.Create(ctx, admin, in)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Movies.Delete(ctx, alice, m.ID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("user delete = %v, want ErrForbidden", err)
	}
	// Forbidden wins over NotFound for catalog writes.
	if err := s.Movies.Delete(ctx, alice, 999); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("user delete of missing movie = %v, want ErrForbidden", err)
	}
	if err := s.Movies.Delete(ctx, admin, 999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("admin delete of missing movie = %v, want ErrNotFound", err)
	}
}

func TestMovieValidation(t *testing.T) {
	s, _ := newServices(t)
	ctx := context.Background()
	tests := []struct {
		name string
		in   service.CreateMovieInput
	}{
		{"blank title", service.CreateMovieInput{Title: "  ", ReleaseYear: 2000}},
		{"long title", service.CreateMovieInput{Title: string(make([]byte, 201)), ReleaseYear: 2000}},
		{"year too small", service.CreateMovieInput{Title: "X", ReleaseYear: 1}},
		{"bad poster url", service.CreateMovieInput{Title: "X", ReleaseYear: 2000, PosterURL: "not a url"}},
		{"unknown genre", service.CreateMovieInput{Title: "X", ReleaseYear: 2000, GenreIDs: []uint64{77}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Movies.Create(ctx, admin, tt.in); !errors.Is(err, model.ErrValidation) {
				t.Errorf("Create = %v, want ErrValidation", err)
			}
		})
	}

	m := mustMovie(t, s, "Valid")
	if _, err := s.Movies.Update(ctx, admin, m.ID, service.UpdateMovieInput{ReleaseYear: ptr(0)}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("Update with year 0 = %v, want ErrValidation", err)
	}
	if _, err := s.Movies.Update(ctx, admin, m.ID, service.UpdateMovieInput{Title: ptr("")}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("Update with empty title = %v, want ErrValidation", err)
	}
}

func TestMoviePartialUpdateKeepsFields(t *testing.T) {
	s, _ := newServices(t)
	ctx := context.Background()
	g, err := s.Genres.Create(ctx, admin, service.GenreInput{Name: "Crime"})
	if err != nil {
		t.Fatal(err)
	}
	m, err := s.Movies.Create(ctx, admin, service.CreateMovieInput{
		Title: "Heat", ReleaseYear: 1995, Description: "LA", PosterURL: "https://example.com/heat.jpg",
		GenreIDs: []uint64{g.ID},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Movies.Update(ctx, admin, m.ID, service.UpdateMovieInput{Description: ptr("Los Angeles")})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Heat" || got.ReleaseYear != 1995 || got.PosterURL != "https://example.com/heat.jpg" {
		t.Errorf("untouched fields changed: %+v", got.Movie)
	}
	if got.Description != "Los Angeles" {
		t.Errorf("Description = %q", got.Description)
	}
	if diff := cmp.Diff([]model.Genre{*g}, got.Genres); diff != "" {
		t.Errorf("genres (-want +got):\n%s", diff)
	}

	got, err = s.Movies.Update(ctx, admin, m.ID, service.UpdateMovieInput{GenreIDs: ptr([]uint64{})})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Genres) != 0 {
		t.Errorf("genres after clearing = %+v", got.Genres)
	}
}

func TestGenreLifecycle(t *testing.T) {
	s, _ := newServices(t)
	ctx := context.Background()

	if _, err := s.Genres.Create(ctx, alice, service.GenreInput{Name: "Drama"}); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("user create = %v, want ErrForbidden", err)
	}
	g, err := s.Genres.Create(ctx, admin, service.GenreInput{Name: "  Drama "})
	if err != nil {
		t.Fatal(err)
	}
	if g.Name != "Drama" {
		t.Errorf("Name = %q, want trimmed", g.Name)
	}
	if _, err := s.Genres.Create(ctx, admin, service.GenreInput{Name: "Drama"}); !errors.Is(err, model.ErrDuplicateKey) {
		t.Errorf("duplicate = %v, want ErrDuplicateKey", err)
	}
	if _, err := s.Genres.Create(ctx, admin, service.GenreInput{Name: ""}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("empty name = %v, want ErrValidation", err)
	}

	m := mustMovie(t, s, "Drive")
	if _, err := s.Movies.AddGenre(ctx, admin, m.ID, g.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Movies.AddGenre(ctx, admin, m.ID, g.ID); !errors.Is(err, model.ErrDuplicateKey) {
		t.Errorf("second link = %v, want ErrDuplicateKey", err)
	}
	if err := s.Genres.Delete(ctx, admin, g.ID); err != nil {
		t.Fatal(err)
	}
	gs, err := s.Movies.ListGenres(ctx, anon, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(gs) != 0 {
		t.Errorf("links survived genre delete: %+v", gs)
	}
}

func TestRatingsAndAverage(t *testing.T) {
	s, _ := newServices(t)
	ctx := context.Background()
	m := mustMovie(t, s, "Alien")

	if avg, err := s.Movies.AverageRating(ctx, anon, m.ID); err != nil || avg != 0 {
		t.Fatalf("average of unrated movie = %v, %v; want 0", avg, err)
	}
	if _, err := s.Ratings.Create(ctx, anon, service.CreateRatingInput{MovieID: m.ID, Stars: 5}); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("anonymous rating = %v, want ErrUnauthorized", err)
	}

	ra, err := s.Ratings.Create(ctx, alice, service.CreateRatingInput{MovieID: m.ID, Stars: 5})
	if err != nil {
		t.Fatal(err)
	}
	if ra.AuthorName != "alice" {
		t.Errorf("AuthorName = %q, want alice", ra.AuthorName)
	}
	if avg, _ := s.Movies.AverageRating(ctx, anon, m.ID); avg != 5 {
		t.Errorf("average = %v, want 5", avg)
	}
	if _, err := s.Ratings.Create(ctx, alice, service.CreateRatingInput{MovieID: m.ID, Stars: 3}); !errors.Is(err, model.ErrDuplicateKey) {
		t.Errorf("second rating = %v, want ErrDuplicateKey", err)
	}
	if _, err := s.Ratings.Create(ctx, bob, service.CreateRatingInput{MovieID: m.ID, Stars: 4}); err != nil {
		t.Fatal(err)
	}
	if avg, _ := s.Movies.AverageRating(ctx, anon, m.ID); avg != 4.5 {
		t.Errorf("average = %v, want 4.5", avg)
	}
	detail, err := s.Movies.Get(ctx, anon, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.AverageRating != 4.5 {
		t.Errorf("movie average_rating = %v, want 4.5", detail.AverageRating)
	}

	for _, stars := range []int{0, 6, -1} {
		if _, err := s.Ratings.Create(ctx, admin, service.CreateRatingInput{MovieID: m.ID, Stars: stars}); !errors.Is(err, model.ErrValidation) {
			t.Errorf("stars %d = %v, want ErrValidation", stars, err)
		}
	}
	if _, err := s.Ratings.Create(ctx, admin, service.CreateRatingInput{MovieID: 999, Stars: 3}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("rating of missing movie = %v, want ErrValidation", err)
	}
	if _, err := s.Movies.AverageRating(ctx, anon, 999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("average of missing movie = %v, want ErrNotFound", err)
	}
	if _, err := s.Ratings.ListForMovie(ctx, anon, 999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("ratings of missing movie = %v, want ErrNotFound", err)
	}
}

func TestRatingOwnership(t *testing.T) {
	s, _ := newServices(t)
	ctx := context.Background()
	m := mustMovie(t, s, "Jaws")
	r, err := s.Ratings.Create(ctx, alice, service.CreateRatingInput{MovieID: m.ID, Stars: 2})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Ratings.Update(ctx, bob, r.ID, service.UpdateRatingInput{Stars: ptr(5)}); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("other user update = %v, want ErrForbidden", err)
	}
	if _, err := s.Ratings.Update(ctx, anon, r.ID, service.UpdateRatingInput{Stars: ptr(5)}); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("anonymous update = %v, want ErrUnauthorized", err)
	}
	if _, err := s.Ratings.Update(ctx, bob, 999, service.UpdateRatingInput{Stars: ptr(5)}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("update of missing rating = %v, want ErrNotFound", err)
	}
	if _, err := s.Ratings.Update(ctx, alice, r.ID, service.UpdateRatingInput{Stars: ptr(9)}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("update to 9 stars = %v, want ErrValidation", err)
	}
	got, err := s.Ratings.Update(ctx, alice, r.ID, service.UpdateRatingInput{Stars: ptr(4)})
	if err != nil {
		t.Fatal(err)
	}
	if got.Stars != 4 {
		t.Errorf("Stars = %d, want 4", got.Stars)
	}
	if avg, _ := s.Movies.AverageRating(ctx, anon, m.ID); avg != 4 {
		t.Errorf("average after update = %v, want 4", avg)
	}
	if err := s.Ratings.Delete(ctx, admin, r.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if avg, _ := s.Movies.AverageRating(ctx, anon, m.ID); avg != 0 {
		t.Errorf("average after delete = %v, want 0", avg)
	}
}

func TestReviews(t *testing.T) {
	s, _ := newServices(t)
	ctx := context.Background()
	m := mustMovie(t, s, "Up")

	r, err := s.Reviews.Create(ctx, alice, service.CreateReviewInput{MovieID: m.ID, ReviewText: "Great film!"})
	if err != nil {
		t.Fatal(err)
	}
	if r.Sentiment != model.SentimentPositive {
		t.Errorf("Sentiment = %q, want Positive", r.Sentiment)
	}
	if _, err := s.Reviews.Create(ctx, alice, service.CreateReviewInput{MovieID: m.ID, ReviewText: "   "}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("empty review = %v, want ErrValidation", err)
	}
	if _, err := s.Reviews.Create(ctx, alice, service.CreateReviewInput{MovieID: m.ID, ReviewText: "ok", Sentiment: ptr("Positive")}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("client sentiment = %v, want ErrValidation", err)
	}
	if _, err := s.Reviews.Create(ctx, anon, service.CreateReviewInput{MovieID: m.ID, ReviewText: "x"}); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("anonymous review = %v, want ErrUnauthorized", err)
	}
	if _, err := s.Reviews.Create(ctx, bob, service.CreateReviewInput{MovieID: m.ID, ReviewText: "This movie was terrible"}); err != nil {
		t.Fatal(err)
	}

	pos, err := s.Reviews.List(ctx, anon, service.ReviewQuery{Sentiment: "Positive"})
	if err != nil {
		t.Fatal(err)
	}
	if len(pos) != 1 || pos[0].ID != r.ID {
		t.Errorf("positive reviews = %+v, want only %d", pos, r.ID)
	}
	if _, err := s.Reviews.List(ctx, anon, service.ReviewQuery{Sentiment: "positive"}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("lower-case filter = %v, want ErrValidation", err)
	}

	if _, err := s.Reviews.Update(ctx, bob, r.ID, service.UpdateReviewInput{ReviewText: ptr("bad")}); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("other user update = %v, want ErrForbidden", err)
	}
	up, err := s.Reviews.Update(ctx, alice, r.ID, service.UpdateReviewInput{ReviewText: ptr("Actually terrible")})
	if err != nil {
		t.Fatal(err)
	}
	if up.Sentiment != model.SentimentNegative {
		t.Errorf("Sentiment after edit = %q, want Negative", up.Sentiment)
	}
	if err := s.Reviews.Delete(ctx, bob, r.ID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("other user delete = %v, want ErrForbidden", err)
	}
	if err := s.Reviews.Delete(ctx, admin, r.ID); err != nil {
		t.Errorf("admin delete = %v", err)
	}
	if err := s.Reviews.Delete(ctx, admin, r.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestMovieDeleteCascades(t *testing.T) {
	s, _ := newServices(t)
	ctx := context.Background()
	m := mustMovie(t, s, "Brazil")
	rv, err := s.Reviews.Create(ctx, alice, service.CreateReviewInput{MovieID: m.ID, ReviewText: "odd"})
	if err != nil {
		t.Fatal(err)
	}
	rt, err := s.Ratings.Create(ctx, alice, service.CreateRatingInput{MovieID: m.ID, Stars: 3})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Movies.Delete(ctx, admin, m.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Reviews.Get(ctx, anon, rv.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("review after cascade = %v, want ErrNotFound", err)
	}
	if _, err := s.Ratings.Get(ctx, anon, rt.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("rating after cascade = %v, want ErrNotFound", err)
	}
	if _, err := s.Movies.Get(ctx, anon, m.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("movie after delete = %v, want ErrNotFound", err)
	}
}

type recorder struct {
	events []queue.ActivityEvent
	err    error
}

func (r *recorder) Publish(_ context.Context, ev queue.ActivityEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestActivityEvents(t *testing.T) {
	rec := &recorder{}
	s, _ := newServicesWith(t, rec)
	ctx := context.Background()
	m := mustMovie(t, s, "Alien")

	rv, err := s.Reviews.Create(ctx, alice, service.CreateReviewInput{MovieID: m.ID, ReviewText: "Great film!"})
	if err != nil {
		t.Fatal(err)
	}
	rt, err := s.Ratings.Create(ctx, alice, service.CreateRatingInput{MovieID: m.ID, Stars: 5})
	if err != nil {
		t.Fatal(err)
	}
	// rejected writes publish nothing
	if _, err := s.Ratings.Create(ctx, alice, service.CreateRatingInput{MovieID: m.ID, Stars: 2}); !errors.Is(err, model.ErrDuplicateKey) {
		t.Fatalf("duplicate = %v", err)
	}
	if err := s.Reviews.Delete(ctx, bob, rv.ID); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("bob delete = %v", err)
	}
	if _, err := s.Ratings.Update(ctx, alice, rt.ID, service.UpdateRatingInput{Stars: ptr(3)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Reviews.Delete(ctx, alice, rv.ID); err != nil {
		t.Fatal(err)
	}

	type brief struct {
		Type      string
		ID        uint64
		Sentiment string
		Stars     int
	}
	var got []brief
	for _, ev := range rec.events {
		if ev.MovieID != m.ID || ev.UserID != alice.UserID || ev.OccurredAt.IsZero() {
			t.Errorf("event %+v lacks movie, user or time", ev)
		}
		got = append(got, brief{ev.Type, ev.ReviewID + ev.RatingID, ev.Sentiment, ev.Stars})
	}
	want := []brief{
		{queue.ReviewCreated, rv.ID, "Positive", 0},
		{queue.RatingCreated, rt.ID, "", 5},
		{queue.RatingUpdated, rt.ID, "", 3},
		{queue.ReviewDeleted, rv.ID, "Positive", 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	s, _ := newServicesWith(t, &recorder{err: errors.New("broker down")})
	m := mustMovie(t, s, "Ran")
	if _, err := s.Ratings.Create(context.Background(), bob, service.CreateRatingInput{MovieID: m.ID, Stars: 4}); err != nil {
		t.Fatalf("create with failing broker: %v", err)
	}
}

// genCache keeps one average per (movie, generation), like the Redis cache.
type genCache struct {
	mu          sync.Mutex
	gens        map[uint64]int64
	vals        map[uint64]map[int64]float64
	invalidated map[uint64]int
}

func newGenCache() *genCache {
	return &genCache{
		gens:        map[uint64]int64{},
		vals:        map[uint64]map[int64]float64{},
		invalidated: map[uint64]int{},
	}
}

func (c *genCache) Get(_ context.Context, id uint64) (float64, bool, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[id]
	v, ok := c.vals[id][gen]
	return v, ok, gen, nil
}

func (c *genCache) Set(_ context.Context, id uint64, gen int64, avg float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vals[id] == nil {
		c.vals[id] = map[int64]float64{}
	}
	c.vals[id][gen] = avg
	return nil
}

func (c *genCache) Invalidate(_ context.Context, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[id]++
	c.invalidated[id]++
	return nil
}

func (c *genCache) invalidations(id uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated[id]
}

func TestCachedAverageFollowsRatingWrites(t *testing.T) {
	cache := newGenCache()
	s, _ := newServicesCached(t, nil, cache)
	ctx := context.Background()
	m := mustMovie(t, s, "Alien")

	wantAvg := func(step string, want float64) {
		t.Helper()
		// Read twice so the second read is served from the cache.
		for i := 0; i < 2; i++ {
			got, err := s.Movies.AverageRating(ctx, anon, m.ID)
			if err != nil {
				t.Fatalf("%s: AverageRating: %v", step, err)
			}
			if got != want {
				t.Fatalf("%s: AverageRating = %v, want %v", step, got, want)
			}
		}
	}

	wantAvg("no ratings", 0)

	ra, err := s.Ratings.Create(ctx, alice, service.CreateRatingInput{MovieID: m.ID, Stars: 5})
	if err != nil {
		t.Fatal(err)
	}
	wantAvg("after alice creates", 5)

	rb, err := s.Ratings.Create(ctx, bob, service.CreateRatingInput{MovieID: m.ID, Stars: 2})
	if err != nil {
		t.Fatal(err)
	}
	wantAvg("after bob creates", 3.5)

	if _, err := s.Ratings.Update(ctx, alice, ra.ID, service.UpdateRatingInput{Stars: ptr(3)}); err != nil {
		t.Fatal(err)
	}
	wantAvg("after alice updates", 2.5)

	if err := s.Ratings.Delete(ctx, bob, rb.ID); err != nil {
		t.Fatal(err)
	}
	wantAvg("after bob deletes", 3)

	if _, err := s.Ratings.Create(ctx, bob, service.CreateRatingInput{MovieID: m.ID, Stars: 4}); err != nil {
		t.Fatal(err)
	}
	wantAvg("after bob rates again", 3.5)

	before := cache.invalidations(m.ID)
	if err := s.Movies.Delete(ctx, admin, m.ID); err != nil {
		t.Fatal(err)
	}
	if got := cache.invalidations(m.ID); got != before+1 {
		t.Fatalf("movie delete invalidated the average %d times, want 1", got-before)
	}
}
