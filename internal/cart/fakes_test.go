package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

type fakeKV struct {
	mu         sync.Mutex
	data       map[string]string
	ttls       map[string]time.Duration
	getErr     error
	setErr     error
	setNXCalls int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setNXCalls++
	if _, exists := f.data[key]; exists {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeKV) CartKey(owner string) string     { return "sd:cart:" + owner }
func (f *fakeKV) CartLockKey(owner string) string { return "sd:lock:cart:" + owner }

func (f *fakeKV) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

type fakeRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID][]models.CartItem
	listErr   error
	upsertErr error
	deleteErr error
	upserts   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[uuid.UUID][]models.CartItem{}}
}

func (f *fakeRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.CartItem(nil), f.rows[userID]...), nil
}

func (f *fakeRepo) Upsert(_ context.Context, item *models.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	rows := f.rows[item.UserID]
	for i := range rows {
		if rows[i].ProductID == item.ProductID && rows[i].SizeName == item.SizeName {
			rows[i] = *item
			return nil
		}
	}
	f.rows[item.UserID] = append(rows, *item)
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, userID uuid.UUID, key Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.rows[userID][:0]
	for _, row := range f.rows[userID] {
		if row.ProductID != key.ProductID || row.SizeName != key.SizeName {
			kept = append(kept, row)
		}
	}
	f.rows[userID] = kept
	return nil
}

func (f *fakeRepo) DeleteAllForUser(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, userID)
	return nil
}

type stubProducts struct {
	products map[string]models.Product
}

func (s stubProducts) GetProduct(_ context.Context, id string) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func bakeryCatalog() stubProducts {
	return stubProducts{products: map[string]models.Product{
		"1": {
			ID:       "1",
			Name:     "Celebration Cake",
			IsActive: true,
			Flavors:  []string{"Chocolate", "Vanilla"},
			Sizes: []models.ProductSize{
				{Name: "6 inch", Price: decimal.RequireFromString("35.99")},
				{Name: "8 inch", Price: decimal.RequireFromString("55.99")},
			},
		},
		"2": {
			ID:       "2",
			Name:     "Cupcake Box",
			IsActive: true,
			Flavors:  []string{"Lemon"},
			Sizes:    []models.ProductSize{{Name: "Box of 6", Price: decimal.RequireFromString("18.50")}},
		},
	}}
}

type storeFixture struct {
	kv    *fakeKV
	repo  *fakeRepo
	store Store
}

func newStoreFixture() *storeFixture {
	kv := newFakeKV()
	repo := newFakeRepo()
	s, err := NewStore(repo, kv, bakeryCatalog(), Options{
		GuestTTL:        time.Hour,
		MirrorTTL:       time.Minute,
		LockTTL:         time.Second,
		LockRetryDelay:  time.Millisecond,
		LockMaxAttempts: 3,
	}, nil, logger.Nop())
	if err != nil {
		panic(err)
	}
	return &storeFixture{kv: kv, repo: repo, store: s}
}

var errBackendDown = errors.New("backend unavailable")
