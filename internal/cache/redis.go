// Package cache keeps personalized rankings in Redis for a short TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/logger"
	"github.com/miespacioubb/miespacio/internal/recommend"
)

type RedisCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to cfg.RedisAddr and fails if the server does not answer
// a ping.
func NewRedis(cfg config.CacheConfig, log *logger.Logger) (*RedisCache, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{
		log:    log.With("service", "RedisCache"),
		rdb:    rdb,
		prefix: cfg.KeyPrefix,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}, nil
}

func (c *RedisCache) Key(key string) string {
	return c.prefix + key
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]recommend.Recommendation, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, fmt.Errorf("redis cache not initialized")
	}

	raw, err := c.rdb.Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	recs, err := decode(raw)
	if err != nil {
		c.log.Warn("dropping undecodable cache entry", "error", err)
		_ = c.rdb.Del(ctx, c.Key(key)).Err()
		return nil, false, nil
	}
	return recs, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, recs []recommend.Recommendation) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis cache not initialized")
	}
	raw, err := encode(recs)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.Key(key), raw, c.ttl).Err()
}

// Invalidate drops every cached ranking of one student.
func (c *RedisCache) Invalidate(ctx context.Context, rut string) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis cache not initialized")
	}
	return c.deleteMatching(ctx, c.rankingPattern(rut))
}

// InvalidateAll drops every cached personalized ranking, as needed when the
// note catalog changes.
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis cache not initialized")
	}
	return c.deleteMatching(ctx, c.rankingPattern(""))
}

// rankingPattern matches the rankings of rut, or of every student when rut
// is empty.
func (c *RedisCache) rankingPattern(rut string) string {
	if rut == "" {
		return c.Key(recommend.VariantPersonalized + ":*")
	}
	return c.Key(fmt.Sprintf("%s:%s:*", recommend.VariantPersonalized, rut))
}

func (c *RedisCache) deleteMatching(ctx context.Context, pattern string) error {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func encode(recs []recommend.Recommendation) ([]byte, error) {
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	return json.Marshal(recs)
}

func decode(raw []byte) ([]recommend.Recommendation, error) {
	var recs []recommend.Recommendation
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	return recs, nil
}
