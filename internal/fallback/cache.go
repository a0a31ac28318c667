package fallback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"task-command-router/internal/common/logger"
	"task-command-router/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	sourceCache    = "cache"
	cacheKeyPrefix = "router:fallback:"
)

// Cached stores usable replies of the wrapped responder in Redis. Redis
// failures degrade to calling the wrapped responder directly.
type Cached struct {
	next   Responder
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCached(next Responder, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *Cached {
	return &Cached{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"responder": sourceCache}),
	}
}

func CacheKey(utterance string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(utterance))))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *Cached) Generate(ctx context.Context, utterance string) (string, error) {
	key := CacheKey(utterance)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil && Usable(cached):
		metrics.FallbackRequests.WithLabelValues(sourceCache, metrics.OutcomeSuccess).Inc()
		return cached, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", map[string]interface{}{"error": err.Error()})
	}

	reply, err := c.next.Generate(ctx, utterance)
	if err != nil {
		return "", err
	}

	if Usable(reply) {
		if err := c.rdb.Set(ctx, key, reply, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return reply, nil
}
