// Package formstore persists the order-entry form snapshot. One logical
// store per form surface, read defensively and written best-effort: a
// dead store degrades the form to non-persistent, nothing more.
package formstore

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// Storage key for the single form snapshot. The "-v1" suffix is the
// snapshot schema revision, not the app version.
const snapshotKey = "orderdesk:trade-form-v1"

const opTimeout = 2 * time.Second

// RedisConfig configures the Redis-backed snapshot store.
type RedisConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// RedisStore keeps the form snapshot in Redis behind a circuit breaker.
type RedisStore struct {
	client *goredis.Client
	cb     *breaker
}

// NewRedis creates a Redis snapshot store and pings the server once.
// A failed ping is logged, not fatal: the store starts with the breaker
// taking the hits and the form simply runs non-persistent until Redis
// comes back.
func NewRedis(cfg RedisConfig) *RedisStore {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[formstore] redis not reachable at %s: %v", cfg.Addr, err)
	} else {
		log.Printf("[formstore] redis connected at %s", cfg.Addr)
	}

	cb := newBreaker(5, 10*time.Second)
	cb.onStateChange = func(from, to BreakerState) {
		log.Printf("[formstore] circuit breaker %s -> %s", from, to)
	}
	return &RedisStore{client: client, cb: cb}
}

// Load returns the stored snapshot, or nil, nil when none exists.
func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var data []byte
	err := s.cb.execute(func() error {
		b, err := s.client.Get(ctx, snapshotKey).Bytes()
		if err == goredis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		data = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("formstore: load: %w", err)
	}
	return data, nil
}

// Save overwrites the stored snapshot. No TTL: the snapshot lives until
// the next save or an explicit reset.
func (s *RedisStore) Save(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := s.cb.execute(func() error {
		return s.client.Set(ctx, snapshotKey, data, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("formstore: save: %w", err)
	}
	return nil
}

// Clear removes the stored snapshot.
func (s *RedisStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := s.cb.execute(func() error {
		return s.client.Del(ctx, snapshotKey).Err()
	})
	if err != nil {
		return fmt.Errorf("formstore: clear: %w", err)
	}
	return nil
}

// BreakerState exposes the breaker state for health reporting.
func (s *RedisStore) BreakerState() BreakerState { return s.cb.currentState() }

// Close releases the Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }
