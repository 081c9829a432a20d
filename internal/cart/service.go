package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/pkg/config"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/metrics"
)

// priceScale matches the NUMERIC(10,2) price columns.
const priceScale = 2

type productLookup interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// Store owns the shopper's cart across the local and durable tiers.
type Store interface {
	Load(ctx context.Context, shopper Shopper) *Snapshot
	AddItem(ctx context.Context, shopper Shopper, input AddItemInput) (*Snapshot, error)
	RemoveItem(ctx context.Context, shopper Shopper, productID, sizeName string) (*Snapshot, error)
	UpdateQuantity(ctx context.Context, shopper Shopper, productID, sizeName string, quantity int) (*Snapshot, error)
	Clear(ctx context.Context, shopper Shopper) error
	ClearLines(ctx context.Context, shopper Shopper, ordered Items) error
	Items(ctx context.Context, shopper Shopper) (Items, error)
}

// AddItemInput is one add-to-cart request. Quantity defaults to 1 at the HTTP layer.
type AddItemInput struct {
	ProductID    string
	SizeName     string
	SizePrice    decimal.Decimal
	Flavor       string
	DeliveryDate *time.Time
	Quantity     int
}

// Snapshot is the cart as the caller should render it. Err is set when Load
// could not reach a tier; Items then holds the best stale copy available.
type Snapshot struct {
	Items         Items
	Authenticated bool
	Err           error
}

// TotalItems is the sum of quantities.
func (s *Snapshot) TotalItems() int { return s.Items.TotalItems() }

// Subtotal is the sum of line totals.
func (s *Snapshot) Subtotal() decimal.Decimal { return s.Items.Subtotal() }

// Options tunes tier TTLs and lock behaviour.
type Options struct {
	GuestTTL        time.Duration
	MirrorTTL       time.Duration
	LockTTL         time.Duration
	LockRetryDelay  time.Duration
	LockMaxAttempts uint64
}

// OptionsFromConfig maps the cart config section.
func OptionsFromConfig(cfg config.CartConfig) Options {
	return Options{
		GuestTTL:        cfg.GuestTTL,
		MirrorTTL:       cfg.MirrorTTL,
		LockTTL:         cfg.LockTTL,
		LockRetryDelay:  cfg.LockRetryDelay,
		LockMaxAttempts: cfg.LockMaxAttempts,
	}
}

type store struct {
	repo     Repository
	local    *localTier
	locker   *cartLocker
	products productLookup
	opts     Options
	metrics  *metrics.CartMetrics
	logg     *logger.Logger
}

// NewStore builds the cart store.
func NewStore(repo Repository, kv kvStore, products productLookup, opts Options, cartMetrics *metrics.CartMetrics, logg *logger.Logger) (Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if kv == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if opts.LockRetryDelay <= 0 {
		opts.LockRetryDelay = defaultLockRetryDelay
	}
	if opts.LockMaxAttempts == 0 {
		opts.LockMaxAttempts = defaultLockMaxAttempts
	}
	return &store{
		repo:     repo,
		local:    &localTier{store: kv, now: time.Now},
		locker:   &cartLocker{client: kv, ttl: opts.LockTTL, retryDelay: opts.LockRetryDelay, maxAttempts: opts.LockMaxAttempts, logg: logg},
		products: products,
		opts:     opts,
		metrics:  cartMetrics,
		logg:     logg,
	}, nil
}

// Load returns the shopper's cart. For an authenticated shopper any guest
// lines are merged into the durable tier first and the mirror is refreshed.
// Load never fails; problems are reported on Snapshot.Err.
func (s *store) Load(ctx context.Context, shopper Shopper) *Snapshot {
	if !shopper.Authenticated() {
		owner := shopper.guestOwner()
		if owner == "" {
			return &Snapshot{Items: Items{}}
		}
		items, _, err := s.local.read(ctx, owner)
		if err != nil {
			s.metrics.IncDegradedLoad()
			s.logg.Error(ctx, "load guest cart", err)
			return &Snapshot{Items: Items{}, Err: pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")}
		}
		return &Snapshot{Items: items}
	}

	var state Authenticated
	err := s.withCartLock(ctx, shopper.userOwner(), func(ctx context.Context) error {
		var err error
		state, err = s.syncOnLogin(ctx, shopper)
		return err
	})
	if err != nil {
		s.metrics.IncDegradedLoad()
		s.logg.Error(ctx, "load cart", err)
		return &Snapshot{Items: s.staleItems(ctx, shopper), Authenticated: true, Err: err}
	}
	return &Snapshot{Items: state.Mirror, Authenticated: true}
}

func (s *store) syncOnLogin(ctx context.Context, shopper Shopper) (Authenticated, error) {
	guestOwner := shopper.guestOwner()
	if guestOwner != "" {
		guest, _, err := s.local.read(ctx, guestOwner)
		if err != nil {
			return Authenticated{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read guest cart")
		}
		if len(guest) > 0 {
			rows, err := s.repo.ListByUser(ctx, shopper.UserID)
			if err != nil {
				return Authenticated{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load durable cart")
			}
			_, upserts := MergeOnLogin(guest, itemsFromRows(rows))
			for _, item := range upserts {
				if err := s.repo.Upsert(ctx, rowFromItem(shopper.UserID, item)); err != nil {
					return Authenticated{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge guest cart")
				}
			}
			if err := s.local.drop(ctx, guestOwner); err != nil {
				return Authenticated{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear guest cart")
			}
			s.logg.Info(s.logg.WithField(ctx, "merged_lines", len(upserts)), "guest cart merged")
		}
	}

	rows, err := s.repo.ListByUser(ctx, shopper.UserID)
	if err != nil {
		return Authenticated{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load durable cart")
	}
	durable := itemsFromRows(rows)
	if err := s.local.write(ctx, shopper.userOwner(), durable, s.opts.MirrorTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "refresh cart mirror failed")
	}
	return Authenticated{Durable: durable, Mirror: durable}, nil
}

// staleItems prefers the user mirror, then the guest cart.
func (s *store) staleItems(ctx context.Context, shopper Shopper) Items {
	for _, owner := range []string{shopper.userOwner(), shopper.guestOwner()} {
		if owner == "" {
			continue
		}
		items, found, err := s.local.read(ctx, owner)
		if err == nil && found {
			return items
		}
	}
	return Items{}
}

func (s *store) AddItem(ctx context.Context, shopper Shopper, input AddItemInput) (*Snapshot, error) {
	item, err := s.validateAdd(ctx, input)
	if err != nil {
		s.metrics.IncMutation("add_item", err)
		return nil, err
	}
	return s.mutate(ctx, shopper, "add_item", func(current Items) (mutation, error) {
		next := current.Add(item)
		merged, _ := next.Find(item.Key())
		return mutation{
			next: next,
			durable: func(ctx context.Context) error {
				return s.repo.Upsert(ctx, rowFromItem(shopper.UserID, merged))
			},
		}, nil
	})
}

func (s *store) validateAdd(ctx context.Context, input AddItemInput) (Item, error) {
	input.ProductID = strings.TrimSpace(input.ProductID)
	input.SizeName = strings.TrimSpace(input.SizeName)
	if input.ProductID == "" || input.SizeName == "" {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "product id and size are required")
	}
	if input.Quantity <= 0 {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if !input.SizePrice.IsPositive() {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "size price must be greater than zero")
	}
	if !input.SizePrice.Equal(input.SizePrice.Round(priceScale)) {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "size price must have at most two decimal places").
			WithDetails(map[string]any{"size_price": input.SizePrice.String()})
	}

	product, err := s.products.GetProduct(ctx, input.ProductID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "product does not exist").
				WithDetails(map[string]any{"product_id": input.ProductID})
		}
		return Item{}, err
	}
	if _, ok := product.SizeNamed(input.SizeName); !ok {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "size is not offered for this product").
			WithDetails(map[string]any{"size": input.SizeName})
	}
	if !product.OffersFlavor(input.Flavor) {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "flavor is not offered for this product").
			WithDetails(map[string]any{"flavor": input.Flavor})
	}

	return Item{
		ProductID:    input.ProductID,
		SizeName:     input.SizeName,
		SizePrice:    input.SizePrice,
		Quantity:     input.Quantity,
		Flavor:       input.Flavor,
		DeliveryDate: input.DeliveryDate,
	}, nil
}

func (s *store) RemoveItem(ctx context.Context, shopper Shopper, productID, sizeName string) (*Snapshot, error) {
	key := Key{ProductID: strings.TrimSpace(productID), SizeName: strings.TrimSpace(sizeName)}
	if key.ProductID == "" || key.SizeName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and size are required")
	}
	return s.mutate(ctx, shopper, "remove_item", func(current Items) (mutation, error) {
		if _, ok := current.Find(key); !ok {
			return mutation{next: current, unchanged: true}, nil
		}
		return mutation{
			next: current.Remove(key),
			durable: func(ctx context.Context) error {
				return s.repo.Delete(ctx, shopper.UserID, key)
			},
		}, nil
	})
}

func (s *store) UpdateQuantity(ctx context.Context, shopper Shopper, productID, sizeName string, quantity int) (*Snapshot, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, shopper, productID, sizeName)
	}
	key := Key{ProductID: strings.TrimSpace(productID), SizeName: strings.TrimSpace(sizeName)}
	if key.ProductID == "" || key.SizeName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and size are required")
	}
	return s.mutate(ctx, shopper, "update_quantity", func(current Items) (mutation, error) {
		next, ok := current.SetQuantity(key, quantity)
		if !ok {
			return mutation{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		updated, _ := next.Find(key)
		return mutation{
			next: next,
			durable: func(ctx context.Context) error {
				return s.repo.Upsert(ctx, rowFromItem(shopper.UserID, updated))
			},
		}, nil
	})
}

func (s *store) Clear(ctx context.Context, shopper Shopper) error {
	owner := shopper.owner()
	if owner == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	err := s.withCartLock(ctx, owner, func(ctx context.Context) error {
		previous, found, err := s.local.read(ctx, owner)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read local cart")
		}
		if err := s.local.drop(ctx, owner); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear local cart")
		}
		if !shopper.Authenticated() {
			return nil
		}
		if err := s.repo.DeleteAllForUser(ctx, shopper.UserID); err != nil {
			if found {
				s.rollbackLocal(ctx, owner, previous, s.ttlFor(shopper))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear durable cart")
		}
		return nil
	})
	s.metrics.IncMutation("clear", err)
	return err
}

// ClearLines removes what an order consumed. Quantities added to the cart
// after ordered was read stay in the cart.
func (s *store) ClearLines(ctx context.Context, shopper Shopper, ordered Items) error {
	_, err := s.mutate(ctx, shopper, "clear_lines", func(current Items) (mutation, error) {
		next, removed, reduced := current.Subtract(ordered)
		if len(removed) == 0 && len(reduced) == 0 {
			return mutation{next: current, unchanged: true}, nil
		}
		return mutation{
			next: next,
			durable: func(ctx context.Context) error {
				for _, key := range removed {
					if err := s.repo.Delete(ctx, shopper.UserID, key); err != nil {
						return err
					}
				}
				for _, item := range reduced {
					if err := s.repo.Upsert(ctx, rowFromItem(shopper.UserID, item)); err != nil {
						return err
					}
				}
				return nil
			},
		}, nil
	})
	return err
}

// Items reads the authoritative tier; checkout builds orders from it.
func (s *store) Items(ctx context.Context, shopper Shopper) (Items, error) {
	if shopper.owner() == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	return s.authoritative(ctx, shopper)
}

func (s *store) authoritative(ctx context.Context, shopper Shopper) (Items, error) {
	if shopper.Authenticated() {
		rows, err := s.repo.ListByUser(ctx, shopper.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load durable cart")
		}
		return itemsFromRows(rows), nil
	}
	items, _, err := s.local.read(ctx, shopper.guestOwner())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load local cart")
	}
	return items, nil
}

type mutation struct {
	next      Items
	durable   func(ctx context.Context) error
	unchanged bool
}

// mutate applies change under the cart lock: local tier first, then the
// durable tier for authenticated shoppers. A durable failure restores the
// previous local value.
func (s *store) mutate(ctx context.Context, shopper Shopper, op string, change func(current Items) (mutation, error)) (*Snapshot, error) {
	owner := shopper.owner()
	if owner == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}

	var snapshot *Snapshot
	err := s.withCartLock(ctx, owner, func(ctx context.Context) error {
		current, err := s.authoritative(ctx, shopper)
		if err != nil {
			return err
		}
		m, err := change(current)
		if err != nil {
			return err
		}
		if m.unchanged {
			snapshot = &Snapshot{Items: current, Authenticated: shopper.Authenticated()}
			return nil
		}

		ttl := s.ttlFor(shopper)
		if err := s.local.write(ctx, owner, m.next, ttl); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update local cart")
		}
		if shopper.Authenticated() && m.durable != nil {
			if err := m.durable(ctx); err != nil {
				s.rollbackLocal(ctx, owner, current, ttl)
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync cart to durable storage")
			}
		}
		snapshot = &Snapshot{Items: m.next, Authenticated: shopper.Authenticated()}
		return nil
	})
	s.metrics.IncMutation(op, err)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *store) rollbackLocal(ctx context.Context, owner string, previous Items, ttl time.Duration) {
	if err := s.local.write(context.WithoutCancel(ctx), owner, previous, ttl); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "cart_owner", owner), "roll back local cart", err)
	}
}

func (s *store) withCartLock(ctx context.Context, owner string, fn func(ctx context.Context) error) error {
	err := s.locker.withLock(ctx, owner, fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, errCartBusy) {
		s.metrics.IncLockContention()
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart is being updated, retry shortly")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire cart lock")
}

func (s *store) ttlFor(shopper Shopper) time.Duration {
	if shopper.Authenticated() {
		return s.opts.MirrorTTL
	}
	return s.opts.GuestTTL
}
