package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

const generationKey = "toilets:generation"

// Redis is the shared cache backend. A nil client disables caching: every
// lookup misses and every write is a no-op.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects to redisURL. If the URL is empty or the server is
// unreachable it returns a disabled cache rather than failing startup.
func NewRedis(redisURL string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if redisURL == "" {
		log.Warn().Msg("redis: no URL configured, caching disabled")
		return &Redis{ttl: ttl}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &Redis{ttl: ttl}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		rdb.Close()
		return &Redis{ttl: ttl}
	}

	log.Info().Dur("ttl", ttl).Msg("redis: connected, caching enabled")
	return &Redis{rdb: rdb, ttl: ttl}
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *Redis) Client() *redis.Client {
	return c.rdb
}

func (c *Redis) Backend() string {
	if c.rdb == nil {
		return "disabled"
	}
	return "redis"
}

func (c *Redis) Generation(ctx context.Context) (int64, error) {
	if c.rdb == nil {
		return 0, nil
	}
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrap(err, "redis: get generation")
	}
	return gen, nil
}

func (c *Redis) Get(ctx context.Context, key string) ([]model.Toilet, bool, error) {
	if c.rdb == nil {
		return nil, false, nil
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "redis: get")
	}
	var toilets []model.Toilet
	if err := json.Unmarshal(data, &toilets); err != nil {
		return nil, false, eris.Wrapf(err, "redis: decode %s", key)
	}
	return toilets, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, toilets []model.Toilet) error {
	if c.rdb == nil {
		return nil
	}
	if toilets == nil {
		toilets = []model.Toilet{}
	}
	b, err := json.Marshal(toilets)
	if err != nil {
		return eris.Wrap(err, "redis: encode")
	}
	return eris.Wrap(c.rdb.Set(ctx, key, b, c.ttl).Err(), "redis: set")
}

// InvalidateAll increments the generation counter. Old keys are left to
// expire through their TTL.
func (c *Redis) InvalidateAll(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return eris.Wrap(c.rdb.Incr(ctx, generationKey).Err(), "redis: bump generation")
}

// Close shuts down the Redis connection.
func (c *Redis) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
