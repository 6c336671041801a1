package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/elemevent/site/internal/archive"
	"github.com/elemevent/site/internal/clock"
	"github.com/elemevent/site/internal/config"
	"github.com/elemevent/site/internal/database"
	"github.com/elemevent/site/internal/handler"
	"github.com/elemevent/site/internal/listing"
	"github.com/elemevent/site/internal/logger"
	"github.com/elemevent/site/internal/media"
	"github.com/elemevent/site/internal/middleware"
	"github.com/elemevent/site/internal/queue"
	"github.com/elemevent/site/internal/repository"
	"github.com/elemevent/site/internal/router"
	"github.com/elemevent/site/internal/scheduler"
	queue_publisher "github.com/elemevent/site/internal/service"
	"github.com/elemevent/site/internal/timezone"
)

const shutdownTimeout = 10 * time.Second

func main() {
	boot := logger.New(os.Stderr, "info", os.Getenv("LOG_FORMAT"))
	if err := config.DotEnv(); err != nil {
		boot.Fatal().Err(err).Msg("load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}

	// ---- Core ----
	zones := timezone.NewResolver()
	policy := archive.NewPolicy(zones, cfg.Fallback, log.With().Str("component", "archive").Logger())
	log.Info().Str("fallback", policy.Fallback().String()).Msg("archive policy ready")

	events := repository.NewEventRepo(db)
	tours := repository.NewTourRepo(db)
	refs := repository.NewRefChecker(db)
	questions := repository.NewQuestionRepo(db)
	banners := repository.NewBannerRepo(db)
	site := repository.NewSiteInfoRepo(db)

	svc := listing.NewService(events, tours, refs, questions, policy, clock.NewSystem())

	store := media.NewLocalStore(cfg.MediaRoot, log)
	sweeper := media.NewSweeper(store, repository.NewMediaUsage(db), cfg.MediaSweepMinAge, log)

	// ---- Background jobs ----
	sched := scheduler.New(log.With().Str("component", "scheduler").Logger())
	if err := sched.AddMediaSweep(ctx, cfg.MediaSweepCron, sweeper); err != nil {
		return err
	}
	sched.Start(ctx)

	var pushes handler.PushPublisher
	if cfg.QueueEnabled {
		pushes = queue_publisher.NewPublisher(cfg.AMQPURL, log)
		consumer := queue.NewConsumer(cfg.AMQPURL, "logs", log.With().Str("component", "push-consumer").Logger())
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error().Err(err).Msg("push consumer stopped")
			}
		}()
	}

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	cacheCfg := config.LoadCacheConfig()
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Redis: rdb})
	if cfg.ServeMedia {
		router.RegisterMedia(e, cfg.MediaRoot)
	}
	router.RegisterPublic(e, &handler.PublicHandler{
		Listing:   svc,
		EventRepo: events,
		TourRepo:  tours,
		Filters:   refs,
		Banners:   banners,
		Questions: questions,
		SiteRepo:  site,
		Zones:     zones,
		BaseURL:   cfg.BaseURL,
		Log:       log,
	},
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		middleware.NewRedisCache(cacheCfg, rdb, log),
	)
	router.RegisterAdminAuth(e, handler.NewAuthHandler(cfg, repository.NewAdminUserRepo(db), repository.NewTokenRepo(db), log), cfg.JWTSecret)
	router.RegisterAdmin(e, &handler.AdminHandler{
		Events:    events,
		Tours:     tours,
		Banners:   banners,
		Questions: questions,
		Cities:    repository.NewCityRepo(db),
		SiteInfo:  site,
		Listing:   svc,
		Media:     store,
		Zones:     zones,
		Pushes:    pushes,
		Log:       log,
	}, router.Labels{
		EventTypes:      &handler.LabelHandler{Store: repository.NewEventTypeRepo(db), Log: log},
		AgeRestrictions: &handler.LabelHandler{Store: repository.NewAgeRestrictionRepo(db), Log: log},
	}, cfg.JWTSecret, middleware.PurgeOnWrite(cacheCfg, rdb, log))

	addr := ":" + cfg.Port
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- e.Start(addr)
	}()
	log.Info().
		Str("addr", addr).
		Str("env", cfg.Env).
		Str("archive_fallback", cfg.Fallback.String()).
		Bool("queue", cfg.QueueEnabled).
		Msg("listening")

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")
	return nil
}
