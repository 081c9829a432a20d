package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetdelights/bakery-backend/api/middleware"
	cartsvc "github.com/sweetdelights/bakery-backend/internal/cart"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

type recordingCartStore struct {
	snapshot    *cartsvc.Snapshot
	err         error
	addInput    cartsvc.AddItemInput
	removed     []string
	updatedTo   int
	cleared     bool
	lastShopper cartsvc.Shopper
}

func (s *recordingCartStore) Load(_ context.Context, shopper cartsvc.Shopper) *cartsvc.Snapshot {
	s.lastShopper = shopper
	return s.snapshot
}

func (s *recordingCartStore) AddItem(_ context.Context, shopper cartsvc.Shopper, input cartsvc.AddItemInput) (*cartsvc.Snapshot, error) {
	s.lastShopper = shopper
	s.addInput = input
	return s.snapshot, s.err
}

func (s *recordingCartStore) RemoveItem(_ context.Context, _ cartsvc.Shopper, productID, sizeName string) (*cartsvc.Snapshot, error) {
	s.removed = []string{productID, sizeName}
	return s.snapshot, s.err
}

func (s *recordingCartStore) UpdateQuantity(_ context.Context, _ cartsvc.Shopper, _, _ string, quantity int) (*cartsvc.Snapshot, error) {
	s.updatedTo = quantity
	return s.snapshot, s.err
}

func (s *recordingCartStore) Clear(context.Context, cartsvc.Shopper) error {
	s.cleared = true
	return s.err
}

func (s *recordingCartStore) ClearLines(context.Context, cartsvc.Shopper, cartsvc.Items) error {
	return s.err
}

func (s *recordingCartStore) Items(context.Context, cartsvc.Shopper) (cartsvc.Items, error) {
	return s.snapshot.Items, s.err
}

func cakeSnapshot() *cartsvc.Snapshot {
	return &cartsvc.Snapshot{Items: cartsvc.Items{{
		ProductID: "1",
		SizeName:  "8 inch",
		SizePrice: decimal.RequireFromString("55.99"),
		Quantity:  2,
		Flavor:    "Chocolate",
	}}}
}

func guestRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(middleware.WithGuestSession(req.Context(), "guest-1"))
}

type cartEnvelope struct {
	Data cartResponse `json:"data"`
}

func TestCartFetchRendersTotals(t *testing.T) {
	store := &recordingCartStore{snapshot: cakeSnapshot()}
	rec := httptest.NewRecorder()
	CartFetch(store, logger.Nop()).ServeHTTP(rec, guestRequest(http.MethodGet, "/api/v1/cart", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var body cartEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body.Data.TotalItems)
	assert.Equal(t, "111.98", body.Data.Subtotal.StringFixed(2))
	assert.Equal(t, "111.98", body.Data.Items[0].LineTotal.StringFixed(2))
	assert.False(t, body.Data.Stale)
	assert.Equal(t, "guest-1", store.lastShopper.GuestID)
}

func TestCartFetchReportsStaleCart(t *testing.T) {
	snapshot := cakeSnapshot()
	snapshot.Err = pkgerrors.New(pkgerrors.CodeDependency, "load cart")
	rec := httptest.NewRecorder()
	CartFetch(&recordingCartStore{snapshot: snapshot}, logger.Nop()).ServeHTTP(rec, guestRequest(http.MethodGet, "/api/v1/cart", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var body cartEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Data.Stale)
	assert.Len(t, body.Data.Items, 1)
}

func TestCartAddItemDefaultsQuantityAndParsesDate(t *testing.T) {
	store := &recordingCartStore{snapshot: cakeSnapshot()}
	body := `{"product_id":"1","size":"8 inch","size_price":55.99,"flavor":"Chocolate","delivery_date":"2026-10-24"}`
	rec := httptest.NewRecorder()
	CartAddItem(store, logger.Nop()).ServeHTTP(rec, guestRequest(http.MethodPost, "/api/v1/cart/items", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.addInput.Quantity)
	assert.Equal(t, "8 inch", store.addInput.SizeName)
	assert.True(t, store.addInput.SizePrice.Equal(decimal.RequireFromString("55.99")))
	require.NotNil(t, store.addInput.DeliveryDate)
	assert.Equal(t, "2026-10-24", store.addInput.DeliveryDate.Format("2006-01-02"))
}

func TestCartAddItemRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"missing price": `{"product_id":"1","size":"8 inch"}`,
		"bad date":      `{"product_id":"1","size":"8 inch","size_price":10,"delivery_date":"tomorrow"}`,
		"unknown field": `{"product_id":"1","size":"8 inch","size_price":10,"coupon":"x"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			store := &recordingCartStore{snapshot: cakeSnapshot()}
			rec := httptest.NewRecorder()
			CartAddItem(store, logger.Nop()).ServeHTTP(rec, guestRequest(http.MethodPost, "/api/v1/cart/items", body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, store.addInput.ProductID)
		})
	}
}

func TestCartAddItemSurfacesServiceErrors(t *testing.T) {
	store := &recordingCartStore{err: pkgerrors.New(pkgerrors.CodeConflict, "cart is busy, retry")}
	rec := httptest.NewRecorder()
	CartAddItem(store, logger.Nop()).ServeHTTP(rec, guestRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":"1","size":"8 inch","size_price":55.99}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCartRemoveItemReadsQuery(t *testing.T) {
	store := &recordingCartStore{snapshot: cakeSnapshot()}
	rec := httptest.NewRecorder()
	CartRemoveItem(store, logger.Nop()).ServeHTTP(rec, guestRequest(http.MethodDelete, "/api/v1/cart/items?product_id=1&size=8+inch", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"1", "8 inch"}, store.removed)

	rec = httptest.NewRecorder()
	CartRemoveItem(store, logger.Nop()).ServeHTTP(rec, guestRequest(http.MethodDelete, "/api/v1/cart/items?product_id=1", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartUpdateQuantityAllowsZero(t *testing.T) {
	store := &recordingCartStore{snapshot: &cartsvc.Snapshot{Items: cartsvc.Items{}}}
	rec := httptest.NewRecorder()
	CartUpdateQuantity(store, logger.Nop()).ServeHTTP(rec, guestRequest(http.MethodPatch, "/api/v1/cart/items", `{"product_id":"1","size":"8 inch","quantity":0}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, store.updatedTo)
}

func TestCartClear(t *testing.T) {
	store := &recordingCartStore{}
	req := guestRequest(http.MethodDelete, "/api/v1/cart", "")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()
	CartClear(store, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.cleared)

	store.err = errors.New("redis down")
	rec = httptest.NewRecorder()
	CartClear(store, logger.Nop()).ServeHTTP(rec, guestRequest(http.MethodDelete, "/api/v1/cart", ""))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
