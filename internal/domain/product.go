package domain

import (
	"io"
	"time"

	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/database"
)

// Product statuses.
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Product is a software listing. SellerName is joined from users on read.
type Product struct {
	ID            int64     `json:"id"`
	SellerID      int64     `json:"seller_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	Version       string    `json:"version"`
	Screenshots   []string  `json:"screenshots"`
	FileURL       string    `json:"file_url"`
	ContactNumber string    `json:"contact_number"`
	Views         int64     `json:"views"`
	Clicks        int64     `json:"clicks"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	SellerName    string    `json:"seller_name"`
}

// ProductDetail is a product with its reviews.
type ProductDetail struct {
	Product
	Reviews []Review `json:"reviews"`
}

// ProductFilter narrows a catalogue listing.
type ProductFilter struct {
	Category string
	Query    string
}

// CreateProductRequest represents a new listing submitted by a seller.
type CreateProductRequest struct {
	Name          string              `json:"name" binding:"required,max=200"`
	Description   string              `json:"description"`
	Price         float64             `json:"price" binding:"gte=0"`
	Category      string              `json:"category"`
	Version       string              `json:"version"`
	Screenshots   database.StringList `json:"screenshots"`
	ContactNumber string              `json:"contact_number"`
}

// CreateProductResponse carries the id of the new listing.
type CreateProductResponse struct {
	ID int64 `json:"id"`
}

// SellerStats aggregates a seller's catalogue and sales.
type SellerStats struct {
	TotalProducts int64   `json:"total_products"`
	TotalSales    int64   `json:"total_sales"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalViews    int64   `json:"total_views"`
	TotalClicks   int64   `json:"total_clicks"`
}

// Download points at a release artifact: either a URL to redirect to or
// an open stream the caller must close.
type Download struct {
	URL         string
	Filename    string
	ContentType string
	Body        io.ReadCloser
}
