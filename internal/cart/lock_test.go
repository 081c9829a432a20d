package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

func TestRedisLockReleaseOnlyByOwner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := newFakeKV()
	lock := &redisLock{client: kv, key: kv.CartLockKey("guest:a"), ttl: time.Second}

	ok, err := lock.acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	kv.data[lock.key] = "stolen"
	require.NoError(t, lock.release(ctx))
	assert.Equal(t, "stolen", kv.data[lock.key], "foreign owner must not be released")

	other := &redisLock{client: kv, key: lock.key, ttl: time.Second}
	ok, err = other.acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithLockRunsAndReleases(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	locker := &cartLocker{client: kv, ttl: time.Second, retryDelay: time.Millisecond, maxAttempts: 2, logg: logger.Nop()}

	ran := false
	err := locker.withLock(context.Background(), "user:1", func(ctx context.Context) error {
		ran = true
		assert.True(t, kv.has(kv.CartLockKey("user:1")))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, kv.has(kv.CartLockKey("user:1")))
}

func TestWithLockPropagatesWorkError(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	locker := &cartLocker{client: kv, ttl: time.Second, retryDelay: time.Millisecond, maxAttempts: 2}
	boom := errors.New("boom")

	err := locker.withLock(context.Background(), "user:1", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, kv.has(kv.CartLockKey("user:1")))
}

func TestWithLockGivesUpWhenBusy(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.data[kv.CartLockKey("user:1")] = "held"
	locker := &cartLocker{client: kv, ttl: time.Second, retryDelay: time.Millisecond, maxAttempts: 2}

	err := locker.withLock(context.Background(), "user:1", func(context.Context) error {
		t.Fatal("work must not run without the lock")
		return nil
	})
	assert.ErrorIs(t, err, errCartBusy)
}

func TestWithLockTriesExactlyMaxAttempts(t *testing.T) {
	t.Parallel()

	for _, attempts := range []uint64{1, 3} {
		kv := newFakeKV()
		kv.data[kv.CartLockKey("user:1")] = "held"
		locker := &cartLocker{client: kv, ttl: time.Second, retryDelay: time.Millisecond, maxAttempts: attempts}

		err := locker.withLock(context.Background(), "user:1", func(context.Context) error { return nil })
		assert.ErrorIs(t, err, errCartBusy)
		assert.Equal(t, int(attempts), kv.setNXCalls, "attempts=%d", attempts)
	}
}
