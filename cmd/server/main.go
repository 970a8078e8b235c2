package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/movie-review-api/internal/aggregate"
	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/database"
	"github.com/iliyamo/movie-review-api/internal/handler"
	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/memstore"
	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/queue"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/router"
	"github.com/iliyamo/movie-review-api/internal/service"
)

// stores is what the selected driver provides.
type stores struct {
	domain service.Store
	users  handler.UserStore
	tokens handler.TokenStore
	close  func() error
	ping   func(context.Context) error
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		m := memstore.New()
		logging.Warn().Msg("using in-memory store; data is lost on exit")
		return stores{domain: m, users: m, tokens: m, close: func() error { return nil }}, nil
	}
	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass,
		Host: cfg.DBHost, Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return stores{}, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	s := repository.NewStore(db)
	return stores{domain: s, users: s, tokens: s, close: db.Close, ping: db.PingContext}, nil
}

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins

	cfg := config.Load() // Load environment config
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store")
	}
	defer func() {
		if err := st.close(); err != nil {
			logging.Error().Err(err).Msg("close store")
		}
	}()

	if err := handler.EnsureAdmin(ctx, st.users, cfg); err != nil {
		logging.Fatal().Err(err).Msg("bootstrap admin")
	}

	// Redis is optional: without it the average is computed on every read and
	// writes are not rate limited.
	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}
	engine := aggregate.NewEngine(st.domain, aggregate.NewRedisCache(config.LoadAggregateCacheConfig(), rdb))

	// RabbitMQ is optional too: review and rating activity is published only
	// when a broker is configured and reachable at startup.
	var events service.Publisher
	if qcfg := config.LoadQueueConfig(); qcfg.Enabled() {
		pub, err := queue.Dial(qcfg.URL)
		if err != nil {
			logging.Warn().Err(err).Msg("activity events disabled")
		} else {
			defer pub.Close()
			events = pub
		}
		if qcfg.Consume {
			go func() {
				if err := queue.StartActivityConsumer(ctx, qcfg.URL); err != nil && !errors.Is(err, context.Canceled) {
					logging.Error().Err(err).Msg("activity consumer stopped")
				}
			}()
		}
	}
	svc := service.New(st.domain, engine, events)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.ContextLogger())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())

	router.RegisterRoutes(e, router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, st.users, st.tokens),
		Movies:  handler.NewMovieHandler(svc.Movies),
		Genres:  handler.NewGenreHandler(svc.Genres),
		Reviews: handler.NewReviewHandler(svc.Reviews),
		Ratings: handler.NewRatingHandler(svc.Ratings),
		Ready:   handler.Ready(st.ping),
	}, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	addr := ":" + cfg.Port // Address string with port
	go func() {
		logging.Info().Str("addr", addr).Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}
