package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSize is one purchasable size of a product with its own price.
type ProductSize struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Product is the read-only catalog row; the storefront never edits it.
type Product struct {
	ID          string        `gorm:"column:id;type:text;primaryKey"`
	Name        string        `gorm:"column:name;not null"`
	Description string        `gorm:"column:description"`
	ImageURL    string        `gorm:"column:image_url"`
	Category    string        `gorm:"column:category"`
	Flavors     []string      `gorm:"column:flavors;type:jsonb;serializer:json;not null"`
	Sizes       []ProductSize `gorm:"column:sizes;type:jsonb;serializer:json;not null"`
	IsActive    bool          `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// SizeNamed returns the size entry with the given name.
func (p Product) SizeNamed(name string) (ProductSize, bool) {
	for _, size := range p.Sizes {
		if size.Name == name {
			return size, true
		}
	}
	return ProductSize{}, false
}

// OffersFlavor reports whether the flavor is part of the product allow-list.
func (p Product) OffersFlavor(flavor string) bool {
	for _, candidate := range p.Flavors {
		if candidate == flavor {
			return true
		}
	}
	return false
}
