package redisx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	keys map[string]bool
}

func (f *fakeStore) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if f.keys[k] {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.keys[key] = true
	return redis.NewStatusResult("OK", nil)
}

func TestOnceBurnsKeyOnlyAfterSuccess(t *testing.T) {
	s := &fakeStore{keys: map[string]bool{}}
	ctx := context.Background()

	calls := 0
	ok := func() error { calls++; return nil }

	require.NoError(t, Once(ctx, s, "idem:payment:o-1:req-1", time.Hour, ok))
	require.Equal(t, 1, calls)

	// same request id replays as a duplicate, fn never runs again
	require.ErrorIs(t, Once(ctx, s, "idem:payment:o-1:req-1", time.Hour, ok), ErrDuplicate)
	require.Equal(t, 1, calls)
}

func TestOnceLeavesKeyFreeAfterFailure(t *testing.T) {
	s := &fakeStore{keys: map[string]bool{}}
	ctx := context.Background()

	boom := errors.New("version conflict")
	require.ErrorIs(t, Once(ctx, s, "idem:payment:o-1:req-2", time.Hour, func() error { return boom }), boom)
	require.Empty(t, s.keys)

	// the retry with the same request id goes through
	require.NoError(t, Once(ctx, s, "idem:payment:o-1:req-2", time.Hour, func() error { return nil }))
	require.True(t, s.keys["idem:payment:o-1:req-2"])
}
