package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/internal/repo"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	"github.com/sweetdelights/bakery-backend/pkg/pagination"
)

// Repository persists orders and their line snapshots.
type Repository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	PaymentReferenceUsed(ctx context.Context, reference string) (bool, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]AdminOrderRecord, string, error)
}

type repository struct {
	repo.Base
}

// NewRepository binds the order tables to a gorm connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit("Items").Create(order).Error
}

// CreateItems inserts the whole batch in one statement.
func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB(ctx).Omit("Product").Create(&items).Error
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	res := r.DB(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) PaymentReferenceUsed(ctx context.Context, reference string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Order{}).Where("payment_reference = ?", reference).Count(&count).Error
	return count > 0, err
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDetail loads the order with its items and each item's product.
func (r *repository) FindDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Items.Product").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders newest first.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.DB(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	page, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

// AdminOrderRecord is an order row plus its unit count.
type AdminOrderRecord struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Status        enums.OrderStatus
	TotalAmount   decimal.Decimal
	Currency      string
	CustomerName  string
	CustomerEmail string
	CreatedAt     time.Time
	ItemCount     int
}

// ListAll returns every order newest first, optionally filtered by status.
func (r *repository) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]AdminOrderRecord, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.DB(ctx).
		Table("orders o").
		Select(strings.Join([]string{
			"o.id",
			"o.user_id",
			"o.status",
			"o.total_amount",
			"o.currency",
			"o.customer_name",
			"o.customer_email",
			"o.created_at",
			"(SELECT COALESCE(SUM(oi.quantity), 0) FROM order_items oi WHERE oi.order_id = o.id) AS item_count",
		}, ", "))
	if status != nil {
		qb = qb.Where("o.status = ?", *status)
	}
	if cursor != nil {
		qb = qb.Where("(o.created_at < ?) OR (o.created_at = ? AND o.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var records []AdminOrderRecord
	if err := qb.Order("o.created_at DESC").Order("o.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&records).Error; err != nil {
		return nil, "", err
	}

	page, next := pagination.Trim(records, params.Limit, func(rec AdminOrderRecord) pagination.Cursor {
		return pagination.Cursor{CreatedAt: rec.CreatedAt, ID: rec.ID}
	})
	return page, next, nil
}
