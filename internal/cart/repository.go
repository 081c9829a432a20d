package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sweetdelights/bakery-backend/internal/repo"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
)

// Repository persists the durable tier.
type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Upsert(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, userID uuid.UUID, key Key) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

type cartItemRepository struct {
	repo.Base
}

// NewRepository binds the durable tier to a gorm connection.
func NewRepository(db *gorm.DB) Repository {
	return &cartItemRepository{Base: repo.NewBase(db)}
}

func (r *cartItemRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("product_id ASC").
		Order("size_name ASC").
		Find(&rows).Error
	return rows, err
}

// Upsert writes the row by natural key; quantity is stored as given.
func (r *cartItemRepository) Upsert(ctx context.Context, item *models.CartItem) error {
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "size_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"size_price", "quantity", "flavor", "delivery_date", "updated_at",
		}),
	}).Create(item).Error
}

func (r *cartItemRepository) Delete(ctx context.Context, userID uuid.UUID, key Key) error {
	return r.DB(ctx).
		Where("user_id = ? AND product_id = ? AND size_name = ?", userID, key.ProductID, key.SizeName).
		Delete(&models.CartItem{}).Error
}

func (r *cartItemRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	return r.DB(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

func itemsFromRows(rows []models.CartItem) Items {
	out := make(Items, 0, len(rows))
	for _, row := range rows {
		out = append(out, Item{
			ProductID:    row.ProductID,
			SizeName:     row.SizeName,
			SizePrice:    row.SizePrice,
			Quantity:     row.Quantity,
			Flavor:       row.Flavor,
			DeliveryDate: row.DeliveryDate,
		})
	}
	return out
}

func rowFromItem(userID uuid.UUID, item Item) *models.CartItem {
	return &models.CartItem{
		UserID:       userID,
		ProductID:    item.ProductID,
		SizeName:     item.SizeName,
		SizePrice:    item.SizePrice,
		Quantity:     item.Quantity,
		Flavor:       item.Flavor,
		DeliveryDate: item.DeliveryDate,
	}
}
