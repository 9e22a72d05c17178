package repository

import (
	"context"

	"restaurant-service/models"

	"gorm.io/gorm"
)

// CartRepository defines data access for cart lines.
type CartRepository interface {
	FindByUser(ctx context.Context, userID uint) ([]models.CartItem, error)
	Exists(ctx context.Context, userID, menuItemID uint) (bool, error)
	Create(ctx context.Context, item *models.CartItem) error
	DeleteByUser(ctx context.Context, userID uint) (int64, error)
}

// GormCartRepository implements CartRepository using GORM.
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository.
func NewGormCartRepository(db *gorm.DB) CartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) FindByUser(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("MenuItem.Category").
		Where("user_id = ?", userID).
		Order("id").
		Find(&items).Error
	return items, err
}

func (r *GormCartRepository) Exists(ctx context.Context, userID, menuItemID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ? AND menuitem_id = ?", userID, menuItemID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormCartRepository) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("MenuItem").Create(item).Error
}

// DeleteByUser empties the cart and returns how many lines were removed.
func (r *GormCartRepository) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}
