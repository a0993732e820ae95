// Package cache holds the Redis-backed read cache for the public exam catalog.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/config"
	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultCatalogTTL bounds staleness if an invalidation is ever missed.
const DefaultCatalogTTL = 10 * time.Minute

// RedisCatalog caches public exam listings as JSON strings.
type RedisCatalog struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewRedisCatalog creates a new RedisCatalog.
func NewRedisCatalog(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisCatalog {
	return &RedisCatalog{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "catalog_cache").Logger(),
	}
}

func key(classLevel int) string {
	if classLevel > 0 {
		return config.CacheKey.PublicCatalogLevelKey(classLevel)
	}
	return config.CacheKey.PublicCatalogKey()
}

// Get returns the cached listing. Misses and Redis errors both report false.
func (c *RedisCatalog) Get(ctx context.Context, classLevel int) ([]model.ExamSummary, bool) {
	data, err := c.rdb.Get(ctx, key(classLevel)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("Catalog cache read failed")
		}
		return nil, false
	}

	var summaries []model.ExamSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		c.log.Warn().Err(err).Msg("Catalog cache entry corrupt")
		return nil, false
	}
	return summaries, true
}

// Set stores a listing.
func (c *RedisCatalog) Set(ctx context.Context, classLevel int, summaries []model.ExamSummary) {
	data, err := json.Marshal(summaries)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(classLevel), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("Catalog cache write failed")
	}
}

// Invalidate drops every cached listing variant.
func (c *RedisCatalog) Invalidate(ctx context.Context) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, config.CacheKey.PublicCatalogPattern(), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn().Err(err).Msg("Catalog cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Msg("Catalog cache invalidation failed")
	}
}

// Nop is a catalog cache that never hits. It is used when Redis is unavailable.
type Nop struct{}

func (Nop) Get(context.Context, int) ([]model.ExamSummary, bool) { return nil, false }
func (Nop) Set(context.Context, int, []model.ExamSummary)        {}
func (Nop) Invalidate(context.Context)                           {}
