package app

import (
	"context"
	"log"
	"time"

	"jobdash/internal/config"
	"jobdash/internal/database"
	"jobdash/internal/database/migration"
	dbpostgres "jobdash/internal/database/postgres"
	"jobdash/internal/infrastructure/cache"
	"jobdash/internal/repository"
	"jobdash/internal/usecase"
	"jobdash/internal/ws"
)

// Container owns the long-lived dependencies of the server process.
type Container struct {
	Config config.Config
	Logger *log.Logger
	DB     database.DB
	Cache  *cache.Redis
	Hub    *ws.Hub
	Jobs   *usecase.JobFeed

	stopRelay context.CancelFunc
}

func NewContainer(cfg config.Config) (*Container, error) {
	logger := log.Default()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database, dbpostgres.WithSlowQueryLog(logger, cfg.Database.SlowQuery))
	if err != nil {
		return nil, err
	}

	runner := migration.Runner{Dir: cfg.App.MigrationsDir, Logger: logger}
	if err := runner.Run(ctx, db.SQLDB()); err != nil {
		_ = db.Close()
		return nil, err
	}

	redisCache := cache.NewRedis(cfg.Redis, logger)

	hub := ws.NewHub(logger)
	go hub.Run()

	// Listing writes reach feeds on every instance through Redis pub/sub.
	relayCtx, stopRelay := context.WithCancel(context.Background())
	notifier := ws.NewNotifier(hub).WithRelay(relayCtx, redisCache)

	jobs := usecase.NewJobFeedUsecase(
		repository.NewPostgresJobListingRepository(db),
		repository.NewPostgresSavedJobRepository(db),
		redisCache,
		notifier,
		logger,
	).WithPageSize(cfg.Feed.PageSize)

	return &Container{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Cache:  redisCache,
		Hub:    hub,
		Jobs:   jobs,

		stopRelay: stopRelay,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.stopRelay != nil {
		c.stopRelay()
	}
	c.Hub.Stop()
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
