package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
)

// GormReviewRepository implements ReviewRepository using GORM.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GORM-based review repository.
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Create inserts a review.
func (r *GormReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	model := domain.ReviewToModel(review)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	review.ID = model.ID
	review.CreatedAt = model.CreatedAt
	return nil
}

// ListByProduct returns a product's reviews with reviewer names, newest first.
func (r *GormReviewRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.Review, error) {
	var models []domain.ReviewModel
	err := r.db.WithContext(ctx).
		Model(&domain.ReviewModel{}).
		Select("reviews.*, users.name AS user_name").
		Joins("JOIN users ON users.id = reviews.user_id").
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at DESC, reviews.id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	reviews := make([]domain.Review, len(models))
	for i, model := range models {
		reviews[i] = *model.ToDomain()
	}
	return reviews, nil
}
