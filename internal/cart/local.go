package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// kvStore is the subset of pkg/redis used by the local tier and the cart lock.
type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(owner string) string
	CartLockKey(owner string) string
}

type localDocument struct {
	Items     Items     `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// localTier stores carts as JSON documents keyed by owner.
type localTier struct {
	store kvStore
	now   func() time.Time
}

// read returns the stored lines and whether a document existed.
func (l *localTier) read(ctx context.Context, owner string) (Items, bool, error) {
	raw, err := l.store.Get(ctx, l.store.CartKey(owner))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Items{}, false, nil
		}
		return nil, false, fmt.Errorf("read local cart: %w", err)
	}
	var doc localDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, false, fmt.Errorf("decode local cart: %w", err)
	}
	if doc.Items == nil {
		doc.Items = Items{}
	}
	return doc.Items, true, nil
}

func (l *localTier) write(ctx context.Context, owner string, items Items, ttl time.Duration) error {
	if items == nil {
		items = Items{}
	}
	payload, err := json.Marshal(localDocument{Items: items, UpdatedAt: l.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode local cart: %w", err)
	}
	if err := l.store.Set(ctx, l.store.CartKey(owner), string(payload), ttl); err != nil {
		return fmt.Errorf("write local cart: %w", err)
	}
	return nil
}

func (l *localTier) drop(ctx context.Context, owner string) error {
	if err := l.store.Del(ctx, l.store.CartKey(owner)); err != nil {
		return fmt.Errorf("delete local cart: %w", err)
	}
	return nil
}
