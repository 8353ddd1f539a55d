// Package redis keeps short-lived counters in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-rbac/internal/repository"
	"github.com/jwalitptl/clinic-rbac/pkg/circuitbreaker"
	"github.com/jwalitptl/clinic-rbac/pkg/metrics"
)

const keyPrefix = "clinic:login_failures:"

// NewClient parses a redis:// URL and checks connectivity.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

type loginAttemptStore struct {
	client  redis.Cmdable
	cb      *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
}

// NewLoginAttemptStore counts failures under clinic:login_failures:<key>.
// Calls go through a circuit breaker so an unreachable Redis fails fast.
func NewLoginAttemptStore(client redis.Cmdable, m *metrics.Metrics) repository.LoginAttemptStore {
	return &loginAttemptStore{
		client: client,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "redis-login-attempts",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
			},
		}),
		metrics: m,
	}
}

func (s *loginAttemptStore) observe(op string, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.RedisOperations.WithLabelValues(op, status).Inc()
}

func (s *loginAttemptStore) Failures(ctx context.Context, key string) (int, error) {
	var n int
	err := s.cb.Execute(func() error {
		v, err := s.client.Get(ctx, keyPrefix+key).Int()
		if errors.Is(err, redis.Nil) {
			n = 0
			return nil
		}
		n = v
		return err
	})
	s.observe("get", err)
	if err != nil {
		return 0, fmt.Errorf("failed to read login failures: %w", err)
	}
	return n, nil
}

// RecordFailure increments the counter and restarts its expiry window.
func (s *loginAttemptStore) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	var incr *redis.IntCmd
	err := s.cb.Execute(func() error {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, keyPrefix+key)
			pipe.Expire(ctx, keyPrefix+key, window)
			return nil
		})
		return err
	})
	s.observe("incr", err)
	if err != nil {
		return 0, fmt.Errorf("failed to record login failure: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *loginAttemptStore) Reset(ctx context.Context, key string) error {
	err := s.cb.Execute(func() error {
		return s.client.Del(ctx, keyPrefix+key).Err()
	})
	s.observe("del", err)
	if err != nil {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}
	return nil
}
