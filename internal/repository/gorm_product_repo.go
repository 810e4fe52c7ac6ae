package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

// GormProductRepository implements ProductRepository using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GORM-based product repository.
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// joined selects products together with the seller's display name.
func (r *GormProductRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&domain.ProductModel{}).
		Select("products.*, users.name AS seller_name").
		Joins("JOIN users ON users.id = products.seller_id")
}

// Create inserts a new listing.
func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	l := log.Ctx(ctx)

	if product.Status == "" {
		product.Status = domain.ProductStatusActive
	}

	model := domain.ProductToModel(product)
	if err := r.db.WithContext(ctx).Omit("Seller").Create(model).Error; err != nil {
		l.Error().Err(err).Msg("failed to create product in db")
		return err
	}

	product.ID = model.ID
	product.CreatedAt = model.CreatedAt
	l.Debug().Int64(log.FieldProductID, product.ID).Msg("product created in db")
	return nil
}

// GetByID retrieves a product by ID.
func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	l := log.Ctx(ctx)

	var model domain.ProductModel
	result := r.joined(ctx).Where("products.id = ?", id).Take(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		l.Error().Err(result.Error).Int64(log.FieldProductID, id).Msg("failed to get product by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// List returns active products, newest first.
func (r *GormProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	l := log.Ctx(ctx)

	query := r.joined(ctx).Where("products.status = ?", domain.ProductStatusActive)
	if filter.Category != "" {
		query = query.Where("products.category = ?", filter.Category)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("products.name LIKE ? OR products.description LIKE ?", pattern, pattern)
	}

	var models []domain.ProductModel
	if err := query.Order("products.created_at DESC, products.id DESC").Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to list products from db")
		return nil, err
	}

	products := make([]domain.Product, len(models))
	for i, model := range models {
		products[i] = *model.ToDomain()
	}
	return products, nil
}

// IncrementViews bumps the view counter.
func (r *GormProductRepository) IncrementViews(ctx context.Context, id int64) error {
	return r.increment(ctx, id, "views")
}

// IncrementClicks bumps the click counter.
func (r *GormProductRepository) IncrementClicks(ctx context.Context, id int64) error {
	return r.increment(ctx, id, "clicks")
}

func (r *GormProductRepository) increment(ctx context.Context, id int64, column string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.ProductModel{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// UpdateFileURL records where the release artifact is stored.
func (r *GormProductRepository) UpdateFileURL(ctx context.Context, id int64, fileURL string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.ProductModel{}).
		Where("id = ?", id).
		UpdateColumn("file_url", fileURL)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CatalogueStats sums a seller's listings, views and clicks.
func (r *GormProductRepository) CatalogueStats(ctx context.Context, sellerID int64) (*domain.SellerStats, error) {
	var row struct {
		TotalProducts int64
		TotalViews    int64
		TotalClicks   int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.ProductModel{}).
		Select("COUNT(*) AS total_products, COALESCE(SUM(views), 0) AS total_views, COALESCE(SUM(clicks), 0) AS total_clicks").
		Where("seller_id = ?", sellerID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &domain.SellerStats{
		TotalProducts: row.TotalProducts,
		TotalViews:    row.TotalViews,
		TotalClicks:   row.TotalClicks,
	}, nil
}
