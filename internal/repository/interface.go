package repository

import (
	"context"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
)

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListSellers(ctx context.Context) ([]domain.Seller, error)
}

// ProductRepository defines the interface for catalogue persistence.
// Reads return products joined with their seller's name.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	IncrementViews(ctx context.Context, id int64) error
	IncrementClicks(ctx context.Context, id int64) error
	UpdateFileURL(ctx context.Context, id int64, fileURL string) error
	// CatalogueStats fills the product, view and click totals for a seller.
	CatalogueStats(ctx context.Context, sellerID int64) (*domain.SellerStats, error)
}

// OrderRepository defines the interface for order persistence.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	ListByBuyer(ctx context.Context, buyerID int64) ([]domain.Order, error)
	HasPurchased(ctx context.Context, buyerID, productID int64) (bool, error)
	// SalesStats fills the sales and revenue totals for a seller.
	SalesStats(ctx context.Context, sellerID int64) (*domain.SellerStats, error)
}

// MessageRepository defines the interface for chat message persistence.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	// ListBetween returns the conversation between two users, oldest first.
	ListBetween(ctx context.Context, userA, userB int64, limit int) ([]domain.ChatMessage, error)
}

// ReviewRepository defines the interface for review persistence.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	ListByProduct(ctx context.Context, productID int64) ([]domain.Review, error)
}
