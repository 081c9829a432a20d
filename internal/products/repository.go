package product

import (
	"context"
	"strings"

	"github.com/sweetdelights/bakery-backend/internal/repo"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads the product catalog.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads a single product, active or not.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := r.DB(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActive returns active products ordered by id, optionally filtered by category.
func (r *Repository) ListActive(ctx context.Context, category string) ([]models.Product, error) {
	q := r.DB(ctx).Model(&models.Product{}).Where("is_active = ?", true)
	if category = strings.TrimSpace(category); category != "" {
		q = q.Where("category = ?", category)
	}
	var rows []models.Product
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
