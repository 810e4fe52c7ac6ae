package service

import (
	"context"
	"io"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/hub"
)

// UserService defines the interface for account business logic.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	ListSellers(ctx context.Context) ([]domain.Seller, error)
}

// ProductService defines the interface for catalogue business logic.
type ProductService interface {
	// CreateProduct inserts the listing and announces it to every open
	// realtime connection.
	CreateProduct(ctx context.Context, sellerID int64, req *domain.CreateProductRequest) (*domain.Product, error)
	GetProduct(ctx context.Context, productID int64) (*domain.ProductDetail, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	RecordView(ctx context.Context, productID int64) error
	RecordClick(ctx context.Context, productID int64) error
	CreateReview(ctx context.Context, userID, productID int64, req *domain.CreateReviewRequest) (*domain.Review, error)
	UploadRelease(ctx context.Context, sellerID, productID int64, filename string, r io.Reader, size int64, contentType string) (*domain.Product, error)
	// Download is allowed for the owner and for buyers holding an order.
	// The caller closes Download.Body when it is set.
	Download(ctx context.Context, userID, productID int64) (*domain.Download, error)
	SellerStats(ctx context.Context, sellerID int64) (*domain.SellerStats, error)
}

// OrderService defines the interface for checkout.
type OrderService interface {
	Checkout(ctx context.Context, buyerID int64, req *domain.CheckoutRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, buyerID int64) ([]domain.Order, error)
}

// MessageService exposes persisted chat history.
type MessageService interface {
	History(ctx context.Context, userID, peerID int64) ([]domain.ChatMessage, error)
}

// RelayService handles realtime frames and fan-out.
type RelayService interface {
	HandleAuth(ctx context.Context, c *hub.Client, frame *domain.AuthFrame) error
	HandleChat(ctx context.Context, c *hub.Client, frame *domain.ChatFrame) error
	HandleDisconnect(ctx context.Context, c *hub.Client)
	// BroadcastNewProduct queues a new_product frame to every open
	// connection and returns how many accepted it.
	BroadcastNewProduct(ctx context.Context, product *domain.Product) (int, error)
}

// ProductNotifier announces freshly created listings.
type ProductNotifier interface {
	NotifyNewProduct(ctx context.Context, product *domain.Product) error
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Generate(userID int64, email, role string) (string, int64, error)
}
