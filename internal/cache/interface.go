package cache

import (
	"context"
	"time"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
)

// ProductCache caches product detail pages (product plus reviews).
type ProductCache interface {
	Get(ctx context.Context, key string) (*domain.ProductDetail, error)
	Set(ctx context.Context, key string, detail *domain.ProductDetail, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	BuildKeyByID(productID int64) string
	Close() error
}
