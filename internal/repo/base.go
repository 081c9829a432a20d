package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the gorm handle shared by the catalog, cart and order repositories.
type Base struct {
	db *gorm.DB
}

// NewBase wraps a gorm connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB scopes the connection to ctx so request cancellation reaches the driver.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bound reports whether a connection was supplied.
func (b Base) Bound() bool {
	return b.db != nil
}
