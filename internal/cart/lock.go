package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

const (
	defaultLockTTL         = 10 * time.Second
	defaultLockRetryDelay  = 50 * time.Millisecond
	defaultLockMaxAttempts = 20
)

var errCartBusy = errors.New("cart is locked by another request")

// redisLock owns one cart key via SETNX + TTL.
type redisLock struct {
	client kvStore
	key    string
	ttl    time.Duration
	owner  string
}

func (l *redisLock) acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// release frees the lock only if the owner value still matches.
func (l *redisLock) release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.client.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}

// cartLocker serializes work on one cart across requests and instances.
type cartLocker struct {
	client      kvStore
	ttl         time.Duration
	retryDelay  time.Duration
	maxAttempts uint64
	logg        *logger.Logger
}

// withLock runs fn while holding the cart lock. A cart that stays busy for
// every attempt yields errCartBusy.
func (c *cartLocker) withLock(ctx context.Context, owner string, fn func(ctx context.Context) error) error {
	lock := &redisLock{client: c.client, key: c.client.CartLockKey(owner), ttl: c.ttl}

	// maxAttempts counts the first try; go-retry counts only the retries after it.
	retries := uint64(0)
	if c.maxAttempts > 1 {
		retries = c.maxAttempts - 1
	}
	backoff := retry.WithMaxRetries(retries, retry.NewConstant(c.retryDelay))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		ok, err := lock.acquire(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(errCartBusy)
		}
		return nil
	}); err != nil {
		return err
	}

	// An unreleased lock expires with its TTL.
	defer func() {
		if err := lock.release(context.WithoutCancel(ctx)); err != nil && c.logg != nil {
			c.logg.Error(ctx, "release cart lock", err)
		}
	}()
	return fn(ctx)
}
