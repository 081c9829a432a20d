package product

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Product{}))

	rows := []models.Product{
		{ID: "1", Name: "Celebration Cake", Category: "cakes", IsActive: true,
			Flavors: []string{"Chocolate", "Vanilla"},
			Sizes:   []models.ProductSize{{Name: "8 inch", Price: decimal.RequireFromString("55.99")}}},
		{ID: "2", Name: "Cupcake Box", Category: "cupcakes", IsActive: true,
			Flavors: []string{"Lemon"},
			Sizes:   []models.ProductSize{{Name: "Box of 6", Price: decimal.RequireFromString("18.50")}}},
		{ID: "3", Name: "Retired Tart", Category: "cakes", IsActive: true,
			Flavors: []string{}, Sizes: []models.ProductSize{}},
	}
	require.NoError(t, conn.Create(&rows).Error)
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", "3").Update("is_active", false).Error)
	return conn
}

func TestRepositoryListActiveFiltersCategory(t *testing.T) {
	r := NewRepository(setupProductsTestDB(t))

	all, err := r.ListActive(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ID)

	cakes, err := r.ListActive(context.Background(), "cakes")
	require.NoError(t, err)
	require.Len(t, cakes, 1)
	assert.Equal(t, "Celebration Cake", cakes[0].Name)
}

func TestRepositoryFindByIDDecodesSizes(t *testing.T) {
	r := NewRepository(setupProductsTestDB(t))

	p, err := r.FindByID(context.Background(), "1")
	require.NoError(t, err)
	size, ok := p.SizeNamed("8 inch")
	require.True(t, ok)
	assert.True(t, size.Price.Equal(decimal.RequireFromString("55.99")))
	assert.True(t, p.OffersFlavor("Chocolate"))
	assert.False(t, p.OffersFlavor("Lemon"))

	_, err = r.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
