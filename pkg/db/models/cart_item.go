package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartItem is one durable cart line owned by an authenticated user.
// (user_id, product_id, size_name) is the natural key.
type CartItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_cart_items_natural_key,priority:1"`
	ProductID    string          `gorm:"column:product_id;type:text;not null;uniqueIndex:ux_cart_items_natural_key,priority:2"`
	SizeName     string          `gorm:"column:size_name;type:text;not null;uniqueIndex:ux_cart_items_natural_key,priority:3"`
	SizePrice    decimal.Decimal `gorm:"column:size_price;type:numeric(10,2);not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	Flavor       string          `gorm:"column:flavor;type:text;not null"`
	DeliveryDate *time.Time      `gorm:"column:delivery_date;type:date"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (c *CartItem) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
