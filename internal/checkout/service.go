package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/internal/cart"
	"github.com/sweetdelights/bakery-backend/internal/payments"
	"github.com/sweetdelights/bakery-backend/pkg/config"
	"github.com/sweetdelights/bakery-backend/pkg/db"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/metrics"
)

// Saga step names.
const (
	StepCreateOrder    = "create_order"
	StepCreateItems    = "create_items"
	StepMarkProcessing = "mark_processing"
)

type cartStore interface {
	Items(ctx context.Context, shopper cart.Shopper) (cart.Items, error)
	ClearLines(ctx context.Context, shopper cart.Shopper, ordered cart.Items) error
}

type orderWriter interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	PaymentReferenceUsed(ctx context.Context, reference string) (bool, error)
}

// Service turns a paid cart into an order.
type Service interface {
	PaymentConfig(ctx context.Context, shopper cart.Shopper, details CustomerDetails) (*payments.WidgetConfig, error)
	CompleteCheckout(ctx context.Context, shopper cart.Shopper, details CustomerDetails, payment Payment) (*Result, error)
}

// Payment is what the widget's success callback hands back. Reference is the
// one issued by PaymentConfig; ProviderPaymentID is the provider's payment id
// and is required when payments are verified server-side.
type Payment struct {
	Reference         string
	ProviderPaymentID string
}

// CustomerDetails are the contact and delivery fields captured on the checkout form.
type CustomerDetails struct {
	Name    string `validate:"required"`
	Email   string `validate:"required,email"`
	Phone   string `validate:"required"`
	Address string `validate:"required"`
}

func (d CustomerDetails) trimmed() CustomerDetails {
	return CustomerDetails{
		Name:    strings.TrimSpace(d.Name),
		Email:   strings.TrimSpace(d.Email),
		Phone:   strings.TrimSpace(d.Phone),
		Address: strings.TrimSpace(d.Address),
	}
}

// Result is returned once the order is committed. CartCleared is false when
// the order exists but the cart could not be emptied.
type Result struct {
	OrderID     uuid.UUID         `json:"order_id"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Currency    enums.Currency    `json:"currency"`
	ItemCount   int               `json:"item_count"`
	CartCleared bool              `json:"cart_cleared"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// Options selects the status flow and payment settings.
type Options struct {
	Flow                enums.CheckoutFlow
	Currency            enums.Currency
	ReferencePrefix     string
	RequireDeliveryDate bool
}

// OptionsFromConfig maps the checkout config section.
func OptionsFromConfig(cfg config.CheckoutConfig) Options {
	return Options{
		Flow:                cfg.CheckoutFlow(),
		Currency:            cfg.CurrencyCode(),
		ReferencePrefix:     cfg.ReferencePrefix,
		RequireDeliveryDate: cfg.RequireDeliveryDate,
	}
}

type service struct {
	carts    cartStore
	orders   orderWriter
	verifier payments.Verifier
	opts     Options
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	validate *validator.Validate
}

// NewService builds the checkout orchestrator.
func NewService(carts cartStore, orders orderWriter, verifier payments.Verifier, opts Options, checkoutMetrics *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("payment verifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Flow == "" {
		opts.Flow = enums.CheckoutFlowStandard
	}
	if opts.Currency == "" {
		opts.Currency = enums.CurrencyNGN
	}
	return &service{
		carts:    carts,
		orders:   orders,
		verifier: verifier,
		opts:     opts,
		metrics:  checkoutMetrics,
		logg:     logg,
		validate: validator.New(),
	}, nil
}

// PaymentConfig issues the widget session for the shopper's current cart.
// No order exists until CompleteCheckout succeeds.
func (s *service) PaymentConfig(ctx context.Context, shopper cart.Shopper, details CustomerDetails) (*payments.WidgetConfig, error) {
	if !shopper.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out")
	}
	details = details.trimmed()
	if err := s.validate.Var(details.Email, "required,email"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "a valid email is required")
	}
	items, err := s.carts.Items(ctx, shopper)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	cfg := payments.BuildWidgetConfig(items.Subtotal(), s.opts.Currency, payments.Payer{
		Name:    details.Name,
		Email:   details.Email,
		Phone:   details.Phone,
		Address: details.Address,
	}, s.opts.ReferencePrefix)
	return &cfg, nil
}

// CompleteCheckout runs after the payment widget reported success. It
// verifies the payment, writes the order through the saga and clears the cart.
func (s *service) CompleteCheckout(ctx context.Context, shopper cart.Shopper, details CustomerDetails, payment Payment) (*Result, error) {
	items, err := s.preflight(ctx, shopper, &details, &payment)
	if err != nil {
		s.metrics.IncOutcome(metrics.OutcomeRejected)
		return nil, err
	}

	subtotal := items.Subtotal()
	if err := s.verifier.Verify(ctx, payments.Expectation{
		Reference: payment.Reference,
		PaymentID: payment.ProviderPaymentID,
		Amount:    payments.ToMinorUnits(subtotal),
		Currency:  s.opts.Currency.String(),
	}); err != nil {
		s.metrics.IncOutcome(metrics.OutcomeRejected)
		return nil, err
	}

	order := &models.Order{
		ID:                uuid.New(),
		UserID:            shopper.UserID,
		Status:            s.opts.Flow.InitialStatus(),
		TotalAmount:       subtotal,
		Currency:          s.opts.Currency.String(),
		CustomerName:      details.Name,
		CustomerEmail:     details.Email,
		CustomerPhone:     details.Phone,
		DeliveryAddress:   details.Address,
		PaymentReference:  payment.Reference,
		ProviderPaymentID: payment.ProviderPaymentID,
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if err := RunSaga(ctx, s.steps(order, items), s.metrics.ObserveStep); err != nil {
		return nil, s.sagaFailed(ctx, err)
	}

	result := &Result{
		OrderID:     order.ID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Currency:    s.opts.Currency,
		ItemCount:   items.TotalItems(),
		CartCleared: true,
	}
	if err := s.carts.ClearLines(ctx, shopper, items); err != nil {
		result.CartCleared = false
		result.Warnings = append(result.Warnings, "order placed but the cart could not be cleared; it will be refreshed on next load")
		s.metrics.IncOutcome(metrics.OutcomeClearFailed)
		s.logg.Error(ctx, "clear cart after checkout", err)
	}
	s.metrics.IncOutcome(metrics.OutcomeCommitted)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"status":       string(order.Status),
		"total_amount": order.TotalAmount.StringFixed(2),
	}), "checkout committed")
	return result, nil
}

func (s *service) preflight(ctx context.Context, shopper cart.Shopper, details *CustomerDetails, payment *Payment) (cart.Items, error) {
	if !shopper.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out")
	}
	*details = details.trimmed()
	if err := s.validate.Struct(details); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "customer name, email, phone and address are required")
	}
	payment.Reference = strings.TrimSpace(payment.Reference)
	payment.ProviderPaymentID = strings.TrimSpace(payment.ProviderPaymentID)
	if payment.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}

	items, err := s.carts.Items(ctx, shopper)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if s.opts.RequireDeliveryDate {
		for _, item := range items {
			if item.DeliveryDate == nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "every item needs a delivery date").
					WithDetails(map[string]any{"product_id": item.ProductID, "size": item.SizeName})
			}
		}
	}

	used, err := s.orders.PaymentReferenceUsed(ctx, payment.Reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check payment reference")
	}
	if used {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment reference already used")
	}
	return items, nil
}

func (s *service) steps(order *models.Order, items cart.Items) []Step {
	steps := []Step{
		{
			Name: StepCreateOrder,
			Action: func(ctx context.Context) error {
				if err := s.orders.CreateOrder(ctx, order); err != nil {
					if db.IsUniqueViolation(err, "") {
						return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment reference already used")
					}
					return err
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled)
			},
		},
		{
			Name: StepCreateItems,
			Action: func(ctx context.Context) error {
				return s.orders.CreateItems(ctx, orderItems(order.ID, items))
			},
		},
	}
	if s.opts.Flow.AdvancesToProcessing() {
		steps = append(steps, Step{
			Name: StepMarkProcessing,
			Action: func(ctx context.Context) error {
				if err := s.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusProcessing); err != nil {
					return err
				}
				order.Status = enums.OrderStatusProcessing
				return nil
			},
		})
	}
	return steps
}

func (s *service) sagaFailed(ctx context.Context, err error) error {
	s.metrics.IncOutcome(metrics.OutcomeRolledBack)

	var sagaErr *SagaError
	if !errors.As(err, &sagaErr) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout failed")
	}
	fields := map[string]any{
		"failed_step": sagaErr.Step,
		"compensated": strings.Join(sagaErr.Compensated, ","),
	}
	if sagaErr.CompensationErr != nil {
		fields["compensation_error"] = sagaErr.CompensationErr.Error()
		s.logg.Error(s.logg.WithFields(ctx, fields), "checkout rollback incomplete", sagaErr.CompensationErr)
	} else {
		s.logg.Warn(s.logg.WithFields(ctx, fields), "checkout rolled back")
	}

	if pkgerrors.As(sagaErr.Err) != nil {
		return sagaErr.Err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("checkout failed at %s", sagaErr.Step))
}

func orderItems(orderID uuid.UUID, items cart.Items) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.OrderItem{
			OrderID:      orderID,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			PriceAtTime:  item.SizePrice,
			Size:         item.SizeName,
			Flavor:       item.Flavor,
			DeliveryDate: item.DeliveryDate,
		})
	}
	return out
}
