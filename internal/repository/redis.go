package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coachbook/internal/config"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "booking_attempts:"

var errNilClient = errors.New("redis client is nil")

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// RedisAttemptLimiter is a fixed-window counter shared by every API instance.
type RedisAttemptLimiter struct {
	client *redis.Client
}

func NewRedisAttemptLimiter(client *redis.Client) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{client: client}
}

// attemptScript counts an attempt and arms the window in one step. A key left without a
// TTL is re-armed on its next attempt.
var attemptScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

func (r *RedisAttemptLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}

	count, err := attemptScript.Run(ctx, r.client, []string{attemptKeyPrefix + key}, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to count booking attempt: %w", err)
	}

	return count <= int64(limit), nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
