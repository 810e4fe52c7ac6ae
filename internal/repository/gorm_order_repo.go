package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM-based order repository.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts an order.
func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if order.Status == "" {
		order.Status = domain.OrderStatusCompleted
	}

	model := domain.OrderToModel(order)
	if err := r.db.WithContext(ctx).Omit("Buyer", "Product").Create(model).Error; err != nil {
		return err
	}

	order.ID = model.ID
	order.CreatedAt = model.CreatedAt
	return nil
}

// ListByBuyer returns a buyer's orders with product names, newest first.
func (r *GormOrderRepository) ListByBuyer(ctx context.Context, buyerID int64) ([]domain.Order, error) {
	l := log.Ctx(ctx)

	var models []domain.OrderModel
	err := r.db.WithContext(ctx).
		Model(&domain.OrderModel{}).
		Select("orders.*, products.name AS product_name").
		Joins("JOIN products ON products.id = orders.product_id").
		Where("orders.buyer_id = ?", buyerID).
		Order("orders.created_at DESC, orders.id DESC").
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Int64(log.FieldUserID, buyerID).Msg("failed to list orders")
		return nil, err
	}

	orders := make([]domain.Order, len(models))
	for i, model := range models {
		orders[i] = *model.ToDomain()
	}
	return orders, nil
}

// HasPurchased reports whether buyerID holds an order for productID.
func (r *GormOrderRepository) HasPurchased(ctx context.Context, buyerID, productID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.OrderModel{}).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SalesStats counts orders and revenue across a seller's products.
func (r *GormOrderRepository) SalesStats(ctx context.Context, sellerID int64) (*domain.SellerStats, error) {
	var row struct {
		TotalSales   int64
		TotalRevenue float64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.OrderModel{}).
		Select("COUNT(orders.id) AS total_sales, COALESCE(SUM(orders.amount), 0) AS total_revenue").
		Joins("JOIN products ON products.id = orders.product_id").
		Where("products.seller_id = ?", sellerID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &domain.SellerStats{
		TotalSales:   row.TotalSales,
		TotalRevenue: row.TotalRevenue,
	}, nil
}
