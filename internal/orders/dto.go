package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
)

// OrderSummary is one row of a shopper's order history.
type OrderSummary struct {
	ID          uuid.UUID         `json:"id"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Currency    string            `json:"currency"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderItemDTO is an order line with the product display fields.
type OrderItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ImageURL     string          `json:"image_url,omitempty"`
	Quantity     int             `json:"quantity"`
	PriceAtTime  decimal.Decimal `json:"price_at_time"`
	Size         string          `json:"size"`
	Flavor       string          `json:"flavor,omitempty"`
	DeliveryDate *time.Time      `json:"delivery_date,omitempty"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// OrderDetail is the full read model of one order.
type OrderDetail struct {
	OrderSummary
	CustomerName     string         `json:"customer_name"`
	CustomerEmail    string         `json:"customer_email"`
	CustomerPhone    string         `json:"customer_phone"`
	DeliveryAddress  string         `json:"delivery_address"`
	PaymentReference string         `json:"payment_reference"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Items            []OrderItemDTO `json:"items"`
}

// AdminOrderSummary is one row of the back-office order list.
type AdminOrderSummary struct {
	OrderSummary
	UserID        uuid.UUID `json:"user_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	ItemCount     int       `json:"item_count"`
}

// AdminOrderList wraps a page of back-office rows.
type AdminOrderList struct {
	Orders     []AdminOrderSummary `json:"orders"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

func newOrderSummary(o models.Order) OrderSummary {
	return OrderSummary{
		ID:          o.ID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency,
		CreatedAt:   o.CreatedAt,
	}
}

func newOrderDetail(o models.Order) OrderDetail {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		dto := OrderItemDTO{
			ID:           it.ID,
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			PriceAtTime:  it.PriceAtTime,
			Size:         it.Size,
			Flavor:       it.Flavor,
			DeliveryDate: it.DeliveryDate,
			LineTotal:    it.LineTotal(),
		}
		if it.Product != nil {
			dto.ProductName = it.Product.Name
			dto.ImageURL = it.Product.ImageURL
		}
		items = append(items, dto)
	}
	return OrderDetail{
		OrderSummary:     newOrderSummary(o),
		CustomerName:     o.CustomerName,
		CustomerEmail:    o.CustomerEmail,
		CustomerPhone:    o.CustomerPhone,
		DeliveryAddress:  o.DeliveryAddress,
		PaymentReference: o.PaymentReference,
		UpdatedAt:        o.UpdatedAt,
		Items:            items,
	}
}

func newAdminOrderSummary(rec AdminOrderRecord) AdminOrderSummary {
	return AdminOrderSummary{
		OrderSummary: OrderSummary{
			ID:          rec.ID,
			Status:      rec.Status,
			TotalAmount: rec.TotalAmount,
			Currency:    rec.Currency,
			CreatedAt:   rec.CreatedAt,
		},
		UserID:        rec.UserID,
		CustomerName:  rec.CustomerName,
		CustomerEmail: rec.CustomerEmail,
		ItemCount:     rec.ItemCount,
	}
}
