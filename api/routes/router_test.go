package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetdelights/bakery-backend/api/middleware"
	"github.com/sweetdelights/bakery-backend/internal/cart"
	"github.com/sweetdelights/bakery-backend/internal/checkout"
	"github.com/sweetdelights/bakery-backend/internal/orders"
	"github.com/sweetdelights/bakery-backend/internal/payments"
	product "github.com/sweetdelights/bakery-backend/internal/products"
	pkgAuth "github.com/sweetdelights/bakery-backend/pkg/auth"
	"github.com/sweetdelights/bakery-backend/pkg/config"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/metrics"
	"github.com/sweetdelights/bakery-backend/pkg/pagination"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type fakeKV struct {
	stubPinger
	data     map[string]string
	counters map[string]int64
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, counters: map[string]int64{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeKV) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeKV) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (f *fakeKV) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeKV) RateLimitKey(parts ...string) string { return "rl:" + strings.Join(parts, ":") }

type stubProducts struct{}

func (stubProducts) ListProducts(context.Context, string) ([]product.ProductDTO, error) {
	return []product.ProductDTO{{ID: "1", Name: "Chocolate Cake"}}, nil
}

func (stubProducts) GetProduct(_ context.Context, id string) (*models.Product, error) {
	return &models.Product{ID: id, Name: "Chocolate Cake"}, nil
}

type stubCart struct {
	lastShopper cart.Shopper
}

func (s *stubCart) Load(_ context.Context, shopper cart.Shopper) *cart.Snapshot {
	s.lastShopper = shopper
	return &cart.Snapshot{Items: cart.Items{{
		ProductID: "1", SizeName: "8 inch", SizePrice: decimal.RequireFromString("55.99"), Quantity: 1, Flavor: "Chocolate",
	}}, Authenticated: shopper.Authenticated()}
}

func (s *stubCart) AddItem(ctx context.Context, shopper cart.Shopper, _ cart.AddItemInput) (*cart.Snapshot, error) {
	return s.Load(ctx, shopper), nil
}

func (s *stubCart) RemoveItem(ctx context.Context, shopper cart.Shopper, _, _ string) (*cart.Snapshot, error) {
	return s.Load(ctx, shopper), nil
}

func (s *stubCart) UpdateQuantity(ctx context.Context, shopper cart.Shopper, _, _ string, _ int) (*cart.Snapshot, error) {
	return s.Load(ctx, shopper), nil
}

func (s *stubCart) Clear(context.Context, cart.Shopper) error { return nil }

func (s *stubCart) ClearLines(context.Context, cart.Shopper, cart.Items) error { return nil }

func (s *stubCart) Items(context.Context, cart.Shopper) (cart.Items, error) { return nil, nil }

type stubCheckout struct {
	calls int
}

func (s *stubCheckout) PaymentConfig(context.Context, cart.Shopper, checkout.CustomerDetails) (*payments.WidgetConfig, error) {
	return &payments.WidgetConfig{Amount: 5599, Currency: "NGN"}, nil
}

func (s *stubCheckout) CompleteCheckout(context.Context, cart.Shopper, checkout.CustomerDetails, checkout.Payment) (*checkout.Result, error) {
	s.calls++
	return &checkout.Result{OrderID: uuid.New(), Status: enums.OrderStatusProcessing, CartCleared: true}, nil
}

type stubOrders struct{}

func (stubOrders) ListOrders(context.Context, uuid.UUID, pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{Orders: []orders.OrderSummary{}}, nil
}

func (stubOrders) GetOrder(_ context.Context, orderID, _ uuid.UUID) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{OrderSummary: orders.OrderSummary{ID: orderID}}, nil
}

func (stubOrders) AdminListOrders(context.Context, *enums.OrderStatus, pagination.Params) (*orders.AdminOrderList, error) {
	return &orders.AdminOrderList{Orders: []orders.AdminOrderSummary{}}, nil
}

func (stubOrders) AdminUpdateStatus(_ context.Context, orderID uuid.UUID, status enums.OrderStatus) (*orders.OrderSummary, error) {
	return &orders.OrderSummary{ID: orderID, Status: status}, nil
}

type routerFixture struct {
	handler  http.Handler
	cart     *stubCart
	checkout *stubCheckout
	cfg      *config.Config
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{Secret: "secret", AdminRole: "admin", ExpirationMinutes: 60},
		RateLimit: config.RateLimitConfig{
			CheckoutWindow:     time.Minute,
			CheckoutIPLimit:    100,
			CheckoutEmailLimit: 100,
		},
	}
	registry := prometheus.NewRegistry()
	metrics.NewCheckoutMetrics(registry)

	f := &routerFixture{cart: &stubCart{}, checkout: &stubCheckout{}, cfg: cfg}
	f.handler = NewRouter(cfg, logger.Nop(), stubPinger{}, newFakeKV(), registry, Services{
		Products: stubProducts{},
		Cart:     f.cart,
		Checkout: f.checkout,
		Orders:   stubOrders{},
	})
	return f
}

func (f *routerFixture) token(t *testing.T, role string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), AppRole: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func (f *routerFixture) do(method, path, auth, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	f := newRouterFixture(t)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health/live", "", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health/ready", "", "", nil).Code)
}

func TestReadyFailsWhenDatabaseDown(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "secret"}}
	handler := NewRouter(cfg, logger.Nop(), stubPinger{err: fmt.Errorf("down")}, newFakeKV(), nil, Services{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(http.MethodGet, "/metrics", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProductsArePublic(t *testing.T) {
	f := newRouterFixture(t)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/products", "", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/products/1", "", "", nil).Code)
}

func TestGuestCartIssuesSession(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(http.MethodGet, "/api/v1/cart", "", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	session := rec.Header().Get(middleware.GuestSessionHeader)
	assert.NotEmpty(t, session)
	assert.Equal(t, session, f.cart.lastShopper.GuestID)
	assert.False(t, f.cart.lastShopper.Authenticated())

	var body struct {
		Data struct {
			TotalItems int    `json:"total_items"`
			Subtotal   string `json:"subtotal"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.TotalItems)
	assert.Equal(t, "55.99", body.Data.Subtotal)
}

func TestSignedInCartCarriesBothIdentities(t *testing.T) {
	f := newRouterFixture(t)
	guest := uuid.NewString()
	rec := f.do(http.MethodGet, "/api/v1/cart", f.token(t, ""), "", map[string]string{middleware.GuestSessionHeader: guest})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.cart.lastShopper.Authenticated())
	assert.Equal(t, guest, f.cart.lastShopper.GuestID)
}

func TestCheckoutRequiresAuthentication(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(http.MethodPost, "/api/v1/checkout/complete", "", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutCompleteRequiresIdempotencyKey(t *testing.T) {
	f := newRouterFixture(t)
	body := `{"name":"Jane Doe","email":"jane@x.com","phone":"0800","address":"1 Main St","payment_reference":"ref-123"}`

	rec := f.do(http.MethodPost, "/api/v1/checkout/complete", f.token(t, ""), body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, f.checkout.calls)
}

func TestCheckoutCompleteReplaysDuplicate(t *testing.T) {
	f := newRouterFixture(t)
	auth := f.token(t, "")
	body := `{"name":"Jane Doe","email":"jane@x.com","phone":"0800","address":"1 Main St","payment_reference":"ref-123"}`
	headers := map[string]string{"Idempotency-Key": "k-1", middleware.GuestSessionHeader: uuid.NewString()}

	first := f.do(http.MethodPost, "/api/v1/checkout/complete", auth, body, headers)
	require.Equal(t, http.StatusCreated, first.Code)
	second := f.do(http.MethodPost, "/api/v1/checkout/complete", auth, body, headers)
	require.Equal(t, http.StatusCreated, second.Code)

	assert.Equal(t, 1, f.checkout.calls)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestPaymentConfigRoute(t *testing.T) {
	f := newRouterFixture(t)
	body := `{"name":"Jane Doe","email":"jane@x.com","phone":"0800","address":"1 Main St"}`
	rec := f.do(http.MethodPost, "/api/v1/checkout/payment-config", f.token(t, ""), body, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/admin/orders", "", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/v1/admin/orders", f.token(t, ""), "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/admin/orders", f.token(t, "admin"), "", nil).Code)

	path := "/api/v1/admin/orders/" + uuid.NewString() + "/status"
	rec := f.do(http.MethodPatch, path, f.token(t, "admin"), `{"status":"shipped"}`, map[string]string{"Idempotency-Key": "s-1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrdersRoutes(t *testing.T) {
	f := newRouterFixture(t)
	auth := f.token(t, "")
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/orders", auth, "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), auth, "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/orders/not-a-uuid", auth, "", nil).Code)
}
