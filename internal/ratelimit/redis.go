package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a Limiter backed by a shared Redis instance, so every process
// behind a load balancer sees the same counters. Key expiry replaces the
// window check.
type Redis struct {
	client *redis.Client
	prefix string
	policy Policy
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedis constructs a limiter whose keys are namespaced by scope.
func NewRedis(client *redis.Client, scope string, policy Policy) *Redis {
	return &Redis{
		client: client,
		prefix: "ratelimit:" + scope + ":",
		policy: policy.normalized(),
	}
}

func (r *Redis) IsLimited(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Get(ctx, r.prefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= r.policy.MaxAttempts, nil
}

func (r *Redis) RecordAttempt(ctx context.Context, key string) error {
	k := r.prefix + key
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, r.policy.Window)
		return nil
	})
	return err
}

func (r *Redis) Clear(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
