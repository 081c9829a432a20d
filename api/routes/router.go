package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweetdelights/bakery-backend/api/controllers"
	"github.com/sweetdelights/bakery-backend/api/middleware"
	"github.com/sweetdelights/bakery-backend/internal/cart"
	checkoutsvc "github.com/sweetdelights/bakery-backend/internal/checkout"
	"github.com/sweetdelights/bakery-backend/internal/orders"
	product "github.com/sweetdelights/bakery-backend/internal/products"
	"github.com/sweetdelights/bakery-backend/pkg/config"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/redis"
)

// KeyValueStore is the redis surface the HTTP layer needs for idempotency
// records and rate limit counters.
type KeyValueStore interface {
	redis.IdempotencyStore
	middleware.RateLimitStore
}

// Services groups the domain services the router exposes.
type Services struct {
	Products product.Service
	Cart     cart.Store
	Checkout checkoutsvc.Service
	Orders   orders.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	kv KeyValueStore,
	registry *prometheus.Registry,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	var redisPinger controllers.Pinger
	if kv != nil {
		if p, ok := kv.(controllers.Pinger); ok {
			redisPinger = p
		}
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbPinger,
			"redis":    redisPinger,
		}))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutIPLimit,
		cfg.RateLimit.CheckoutEmailLimit,
	)
	idempotent := middleware.Idempotency(kv, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductsList(svc.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(svc.Products, logg))

		// The cart works for guests and signed-in shoppers alike.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.GuestSession(logg))

			r.Get("/cart", controllers.CartFetch(svc.Cart, logg))
			r.Delete("/cart", controllers.CartClear(svc.Cart, logg))
			r.Post("/cart/items", controllers.CartAddItem(svc.Cart, logg))
			r.Patch("/cart/items", controllers.CartUpdateQuantity(svc.Cart, logg))
			r.Delete("/cart/items", controllers.CartRemoveItem(svc.Cart, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.GuestSession(logg))

			r.Route("/checkout", func(r chi.Router) {
				r.Use(middleware.RateLimit(checkoutPolicy, kv, logg))
				r.Post("/payment-config", controllers.CheckoutPaymentConfig(svc.Checkout, logg))
				r.With(idempotent).Post("/complete", controllers.CheckoutComplete(svc.Checkout, logg))
			})

			r.Get("/orders", controllers.OrdersList(svc.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(svc.Orders, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))
				r.Get("/orders", controllers.AdminOrdersList(svc.Orders, logg))
				r.With(idempotent).Patch("/orders/{orderId}/status", controllers.AdminOrderUpdateStatus(svc.Orders, logg))
			})
		})
	})

	return r
}
