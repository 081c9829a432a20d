package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/api/middleware"
	"github.com/sweetdelights/bakery-backend/api/responses"
	"github.com/sweetdelights/bakery-backend/api/validators"
	cartsvc "github.com/sweetdelights/bakery-backend/internal/cart"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

type cartItemResponse struct {
	ProductID    string          `json:"product_id"`
	Size         string          `json:"size"`
	SizePrice    decimal.Decimal `json:"size_price"`
	Quantity     int             `json:"quantity"`
	Flavor       string          `json:"flavor"`
	DeliveryDate string          `json:"delivery_date,omitempty"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type cartResponse struct {
	Items         []cartItemResponse `json:"items"`
	TotalItems    int                `json:"total_items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Authenticated bool               `json:"authenticated"`
	// Stale is set when the cart could not be read from every tier and the
	// items are the last copy the server could reach.
	Stale   bool   `json:"stale,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func newCartResponse(snapshot *cartsvc.Snapshot) cartResponse {
	items := make([]cartItemResponse, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		line := cartItemResponse{
			ProductID: item.ProductID,
			Size:      item.SizeName,
			SizePrice: item.SizePrice,
			Quantity:  item.Quantity,
			Flavor:    item.Flavor,
			LineTotal: item.LineTotal(),
		}
		if item.DeliveryDate != nil {
			line.DeliveryDate = item.DeliveryDate.Format(validators.DateLayout)
		}
		items = append(items, line)
	}
	resp := cartResponse{
		Items:         items,
		TotalItems:    snapshot.TotalItems(),
		Subtotal:      snapshot.Subtotal(),
		Authenticated: snapshot.Authenticated,
	}
	if snapshot.Err != nil {
		resp.Stale = true
		resp.Warning = "cart could not be refreshed"
	}
	return resp
}

// CartFetch loads the shopper's cart. For a signed-in shopper any guest
// lines are merged into the account cart on this call.
func CartFetch(store cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		snapshot := store.Load(r.Context(), middleware.ShopperFromContext(r.Context()))
		responses.WriteSuccess(w, newCartResponse(snapshot))
	}
}

type addCartItemRequest struct {
	ProductID    string           `json:"product_id" validate:"required"`
	Size         string           `json:"size" validate:"required"`
	SizePrice    *decimal.Decimal `json:"size_price" validate:"required"`
	Flavor       string           `json:"flavor"`
	DeliveryDate string           `json:"delivery_date"`
	Quantity     *int             `json:"quantity"`
}

func (req addCartItemRequest) toInput() (cartsvc.AddItemInput, error) {
	delivery, err := validators.ParseDate(req.DeliveryDate, "delivery_date")
	if err != nil {
		return cartsvc.AddItemInput{}, err
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	return cartsvc.AddItemInput{
		ProductID:    validators.SanitizeField(req.ProductID),
		SizeName:     validators.SanitizeField(req.Size),
		SizePrice:    *req.SizePrice,
		Flavor:       validators.SanitizeField(req.Flavor),
		DeliveryDate: delivery,
		Quantity:     quantity,
	}, nil
}

func CartAddItem(store cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := store.AddItem(r.Context(), middleware.ShopperFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snapshot))
	}
}

type updateCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"required"`
}

// CartUpdateQuantity sets a line's quantity; zero or less removes the line.
func CartUpdateQuantity(store cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := store.UpdateQuantity(
			r.Context(),
			middleware.ShopperFromContext(r.Context()),
			validators.SanitizeField(payload.ProductID),
			validators.SanitizeField(payload.Size),
			*payload.Quantity,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snapshot))
	}
}

// CartRemoveItem removes the line named by ?product_id=&size=. Removing a
// line that is not in the cart succeeds and returns the cart unchanged.
func CartRemoveItem(store cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		productID, err := validators.RequireQuery(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.RequireQuery(r, "size")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := store.RemoveItem(r.Context(), middleware.ShopperFromContext(r.Context()), productID, size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snapshot))
	}
}

func CartClear(store cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		shopper := middleware.ShopperFromContext(r.Context())
		if err := store.Clear(r.Context(), shopper); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(&cartsvc.Snapshot{Items: cartsvc.Items{}, Authenticated: shopper.Authenticated()}))
	}
}
