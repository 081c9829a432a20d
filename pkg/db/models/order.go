package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/enums"
)

// Order is created once per successful checkout.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null"`
	TotalAmount      decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Currency         string            `gorm:"column:currency;type:text;not null"`
	CustomerName     string            `gorm:"column:customer_name;not null"`
	CustomerEmail    string            `gorm:"column:customer_email;not null"`
	CustomerPhone    string            `gorm:"column:customer_phone;not null"`
	DeliveryAddress  string            `gorm:"column:delivery_address;not null"`
	PaymentReference string            `gorm:"column:payment_reference;type:text;not null;uniqueIndex"`
	// ProviderPaymentID is empty when payments are not verified server-side.
	ProviderPaymentID string      `gorm:"column:provider_payment_id;type:text"`
	CreatedAt         time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time   `gorm:"column:updated_at;autoUpdateTime"`
	Items             []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
