package service

import (
	"context"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/audit"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/repository"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

// orderServiceImpl implements OrderService interface.
type orderServiceImpl struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository) OrderService {
	return &orderServiceImpl{
		orders:   orders,
		products: products,
	}
}

// Checkout records a completed order. There is no payment step; an omitted
// amount defaults to the listed price.
func (s *orderServiceImpl) Checkout(ctx context.Context, buyerID int64, req *domain.CheckoutRequest) (*domain.Order, error) {
	l := log.Ctx(ctx)

	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, mapProductErr(err)
	}

	amount := req.Amount
	if amount == 0 {
		amount = product.Price
	}

	order := &domain.Order{
		BuyerID:   buyerID,
		ProductID: product.ID,
		Amount:    amount,
		Status:    domain.OrderStatusCompleted,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		l.Error().Err(err).Int64(log.FieldProductID, product.ID).Msg("failed to create order")
		return nil, err
	}
	order.ProductName = product.Name

	audit.Record(ctx, audit.ActionCheckout, buyerID).Target(product.ID).Msg("order completed")
	return order, nil
}

// ListOrders returns the buyer's orders.
func (s *orderServiceImpl) ListOrders(ctx context.Context, buyerID int64) ([]domain.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}
