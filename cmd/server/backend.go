package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/cache"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/config"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/db"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/handler"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/repository"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/repository/sqlitestore"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/service"
)

var (
	_ service.ToiletStore = (*repository.ToiletRepo)(nil)
	_ service.VoteStore   = (*repository.VoteRepo)(nil)
	_ service.UserStore   = (*repository.UserRepo)(nil)
	_ service.ReviewStore = (*repository.ReviewRepo)(nil)
	_ service.ToiletStore = (*sqlitestore.ToiletStore)(nil)
	_ service.VoteStore   = (*sqlitestore.VoteStore)(nil)
	_ service.UserStore   = (*sqlitestore.UserStore)(nil)
	_ service.ReviewStore = (*sqlitestore.ReviewStore)(nil)
)

// backend is the storage selected by database.driver.
type backend struct {
	toilets service.ToiletStore
	votes   service.VoteStore
	users   service.UserStore
	reviews service.ReviewStore
	health  handler.Pinger
	pool    *pgxpool.Pool // nil for sqlite
	close   func()
}

// openBackend connects the configured store. With migrate set the schema is
// created first; SQLite always ensures its schema.
func openBackend(ctx context.Context, dbCfg config.DatabaseConfig, migrate bool) (*backend, error) {
	switch dbCfg.Driver {
	case "postgres":
		pool, err := db.NewPool(ctx, dbCfg)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := db.EnsureSchema(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &backend{
			toilets: repository.NewToiletRepo(pool),
			votes:   repository.NewVoteRepo(pool),
			users:   repository.NewUserRepo(pool),
			reviews: repository.NewReviewRepo(pool),
			health:  pool,
			pool:    pool,
			close:   pool.Close,
		}, nil

	case "sqlite":
		stores, err := sqlitestore.Open(ctx, dbCfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dbCfg.SQLitePath).Msg("sqlite store opened")
		return &backend{
			toilets: stores.Toilets,
			votes:   stores.Votes,
			users:   stores.Users,
			reviews: stores.Reviews,
			health:  stores,
			close:   func() { stores.Close() },
		}, nil
	}
	return nil, eris.Errorf("unknown database driver %q", dbCfg.Driver)
}

// openCache returns the configured query cache and, for Redis, its client for
// readiness checks.
func openCache(redisCfg config.RedisConfig) (cache.QueryCache, *redis.Client) {
	if redisCfg.CacheBackend == "memory" {
		log.Info().Int("capacity", redisCfg.MemoryCapacity).Msg("using in-process query cache")
		return cache.NewMemory(redisCfg.MemoryCapacity, redisCfg.CacheTTL), nil
	}
	rc := cache.NewRedis(redisCfg.URL, redisCfg.CacheTTL)
	return rc, rc.Client()
}
