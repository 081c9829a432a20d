package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem snapshots one cart line at checkout; rows are never updated.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID    string          `gorm:"column:product_id;type:text;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	PriceAtTime  decimal.Decimal `gorm:"column:price_at_time;type:numeric(10,2);not null"`
	Size         string          `gorm:"column:size;type:text;not null"`
	Flavor       string          `gorm:"column:flavor;type:text"`
	DeliveryDate *time.Time      `gorm:"column:delivery_date;type:date"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	Product      *Product        `gorm:"foreignKey:ProductID;references:ID"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal is quantity times the captured price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtTime.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
