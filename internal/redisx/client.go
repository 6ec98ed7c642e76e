package redisx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDuplicate means the idempotency key was already burned by an
// earlier successful attempt.
var ErrDuplicate = errors.New("duplicate request")

// Store is the command subset Once needs. *redis.Client satisfies it.
type Store interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

func New(addr string) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	_ = r.WithTimeout(2 * time.Second)
	return r
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Once runs fn at most once per key. A key already on file short-circuits
// with ErrDuplicate; the key is written only after fn succeeds, so a
// failed attempt leaves it free for the retry. The dedup is advisory: a
// redis error on the read side lets fn run, and a failed mark after
// success is dropped rather than turned into a caller-visible failure.
func Once(ctx context.Context, s Store, key string, ttl time.Duration, fn func() error) error {
	if n, err := s.Exists(ctx, key).Result(); err == nil && n > 0 {
		return ErrDuplicate
	}
	if err := fn(); err != nil {
		return err
	}
	_ = s.Set(ctx, key, "1", ttl).Err()
	return nil
}
