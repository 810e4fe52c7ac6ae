package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user.
func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.Role == "" {
		user.Role = domain.RoleBuyer
	}

	model := domain.UserToModel(user)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}

	user.ID = model.ID
	user.CreatedAt = model.CreatedAt
	return nil
}

// GetByID retrieves a user by ID.
func (r *GormUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var model domain.UserModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// GetByEmail retrieves a user by email.
func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var model domain.UserModel
	result := r.db.WithContext(ctx).First(&model, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// ListSellers returns every seller with the number of products they list.
func (r *GormUserRepository) ListSellers(ctx context.Context) ([]domain.Seller, error) {
	l := log.Ctx(ctx)

	sellers := make([]domain.Seller, 0)
	err := r.db.WithContext(ctx).
		Model(&domain.UserModel{}).
		Select("users.id, users.name, users.email, users.created_at, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.seller_id = users.id").
		Where("users.role = ?", domain.RoleSeller).
		Group("users.id, users.name, users.email, users.created_at").
		Order("users.id").
		Scan(&sellers).Error
	if err != nil {
		l.Error().Err(err).Msg("failed to list sellers")
		return nil, err
	}
	return sellers, nil
}
