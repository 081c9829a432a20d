package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"gorm.io/gorm"
)

type productRepository interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	ListActive(ctx context.Context, category string) ([]models.Product, error)
}

// Service exposes catalog reads for the storefront and the cart allow-list checks.
type Service interface {
	ListProducts(ctx context.Context, category string) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

type service struct {
	repo productRepository
}

// NewService builds the catalog service.
func NewService(repo productRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

// SizeDTO is one purchasable size.
type SizeDTO struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ProductDTO is the storefront view of a product.
type ProductDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Category    string    `json:"category"`
	Flavors     []string  `json:"flavors"`
	Sizes       []SizeDTO `json:"sizes"`
}

// NewProductDTO converts a catalog row.
func NewProductDTO(p models.Product) ProductDTO {
	sizes := make([]SizeDTO, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		sizes = append(sizes, SizeDTO{Name: s.Name, Price: s.Price})
	}
	flavors := p.Flavors
	if flavors == nil {
		flavors = []string{}
	}
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Flavors:     flavors,
		Sizes:       sizes,
	}
}

func (s *service) ListProducts(ctx context.Context, category string) ([]ProductDTO, error) {
	rows, err := s.repo.ListActive(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewProductDTO(row))
	}
	return out, nil
}

// GetProduct returns an active product. Inactive products read as missing.
func (s *service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !p.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}
