package domain

import (
	"time"
)

// OrderStatusCompleted is the only status checkout produces.
const OrderStatusCompleted = "completed"

// Order is a purchase. ProductName is joined from products on read.
type Order struct {
	ID          int64     `json:"id"`
	BuyerID     int64     `json:"buyer_id"`
	ProductID   int64     `json:"product_id"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	ProductName string    `json:"product_name,omitempty"`
}

// CheckoutRequest represents a purchase of one product.
type CheckoutRequest struct {
	ProductID int64   `json:"productId" binding:"required,gt=0"`
	Amount    float64 `json:"amount" binding:"gte=0"`
}
