package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dtroode/postkeeper-server/internal/logger"
	"github.com/dtroode/postkeeper-server/internal/metrics"
	"github.com/dtroode/postkeeper-server/internal/model"
)

var _ model.RevocationChecker = (*RedisChecker)(nil)

const backendRedis = "redis"

// redisAPI is the part of the go-redis client the checker uses.
type redisAPI interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker looks revocation keys up directly in Redis.
type RedisChecker struct {
	client  redisAPI
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewRedisChecker creates a checker backed by a go-redis client.
func NewRedisChecker(client *redis.Client, m *metrics.Metrics, logger *logger.Logger) *RedisChecker {
	return &RedisChecker{client: client, metrics: m, logger: logger}
}

func newRedisCheckerWithAPI(api redisAPI, m *metrics.Metrics, logger *logger.Logger) *RedisChecker {
	return &RedisChecker{client: api, metrics: m, logger: logger}
}

// IsRevoked reports whether the revocation key for jti exists.
func (c *RedisChecker) IsRevoked(ctx context.Context, jti string) (revoked bool, err error) {
	defer func() { c.metrics.ObserveRevocation(backendRedis, revoked, err) }()

	n, err := c.client.Exists(ctx, model.RevocationKey(jti)).Result()
	if err != nil {
		c.logger.Warn("RedisChecker: lookup failed", "jti", jti, "error", err)
		return false, fmt.Errorf("failed to query revocation key: %w", err)
	}

	return n > 0, nil
}

// WaitReady pings Redis with exponential backoff until it answers or maxWait elapses.
func (c *RedisChecker) WaitReady(ctx context.Context, maxWait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxWait
	notify := func(err error, next time.Duration) {
		c.logger.Warn("RedisChecker: redis not ready", "error", err, "retry_in", next)
	}
	ping := func() error { return c.client.Ping(ctx).Err() }
	if err := backoff.RetryNotify(ping, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}
