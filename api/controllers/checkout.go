package controllers

import (
	"net/http"

	"github.com/sweetdelights/bakery-backend/api/middleware"
	"github.com/sweetdelights/bakery-backend/api/responses"
	"github.com/sweetdelights/bakery-backend/api/validators"
	checkoutsvc "github.com/sweetdelights/bakery-backend/internal/checkout"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

type customerDetailsRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
}

func (req customerDetailsRequest) toDetails() checkoutsvc.CustomerDetails {
	return checkoutsvc.CustomerDetails{
		Name:    validators.SanitizeField(req.Name),
		Email:   validators.SanitizeField(req.Email),
		Phone:   validators.SanitizeField(req.Phone),
		Address: validators.SanitizeString(req.Address, 1024),
	}
}

type completeCheckoutRequest struct {
	customerDetailsRequest
	PaymentReference string `json:"payment_reference" validate:"required"`
	PaymentID        string `json:"payment_id"`
}

// CheckoutPaymentConfig returns the payment widget configuration for the
// current cart. No order is written until the payment succeeds.
func CheckoutPaymentConfig(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload customerDetailsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg, err := svc.PaymentConfig(r.Context(), middleware.ShopperFromContext(r.Context()), payload.toDetails())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cfg)
	}
}

// CheckoutComplete turns the paid cart into an order. It is called with the
// issued reference and the provider payment id from the widget's success callback.
func CheckoutComplete(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload completeCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CompleteCheckout(
			r.Context(),
			middleware.ShopperFromContext(r.Context()),
			payload.toDetails(),
			checkoutsvc.Payment{
				Reference:         validators.SanitizeField(payload.PaymentReference),
				ProviderPaymentID: validators.SanitizeField(payload.PaymentID),
			},
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
