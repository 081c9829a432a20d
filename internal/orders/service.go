package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/enums"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/pagination"
)

// Service is the read side for shoppers plus the back-office status change.
type Service interface {
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	GetOrder(ctx context.Context, orderID, requestingUserID uuid.UUID) (*OrderDetail, error)
	AdminListOrders(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*AdminOrderList, error)
	AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderSummary, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the orders service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := validateCursor(params); err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := &OrderList{Orders: make([]OrderSummary, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		out.Orders = append(out.Orders, newOrderSummary(row))
	}
	return out, nil
}

// GetOrder returns the order only to its owner; anyone else gets NOT_FOUND.
func (s *service) GetOrder(ctx context.Context, orderID, requestingUserID uuid.UUID) (*OrderDetail, error) {
	if requestingUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != requestingUserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err := VerifyTotals(*order); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"order_id": order.ID.String(),
			"error":    err.Error(),
		}), "order total does not match its items")
	}
	detail := newOrderDetail(*order)
	return &detail, nil
}

func (s *service) AdminListOrders(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*AdminOrderList, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if err := validateCursor(params); err != nil {
		return nil, err
	}
	records, next, err := s.repo.ListAll(ctx, status, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list admin orders")
	}
	out := &AdminOrderList{Orders: make([]AdminOrderSummary, 0, len(records)), NextCursor: next}
	for _, rec := range records {
		out.Orders = append(out.Orders, newAdminOrderSummary(rec))
	}
	return out, nil
}

// AdminUpdateStatus sets any valid status; the back office may move orders freely.
func (s *service) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderSummary, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"allowed": enums.OrderStatuses()})
	}
	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, orderID.String()), map[string]any{
		"status": string(status),
	}), "order status updated")
	summary := newOrderSummary(*order)
	return &summary, nil
}

func validateCursor(params pagination.Params) error {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return nil
}
