package repository

import (
	"context"

	"restaurant-service/models"

	"gorm.io/gorm"
)

// UserRepository defines data access for accounts and their group membership.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ListByGroup(ctx context.Context, group string) ([]models.User, error)
	GroupNames(ctx context.Context, userID uint) ([]string, error)
	AddToGroup(ctx context.Context, userID uint, group string) error
	RemoveFromGroup(ctx context.Context, userID uint, group string) error
}

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Groups").Create(user).Error
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Groups").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Preload("Groups").
		Where("username = ?", username).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByGroup returns the members of a group ordered by id.
func (r *GormUserRepository) ListByGroup(ctx context.Context, group string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Preload("Groups").
		Joins("JOIN user_groups ON user_groups.user_id = users.id").
		Joins("JOIN groups ON groups.id = user_groups.group_id").
		Where("groups.name = ?", group).
		Order("users.id").
		Find(&users).Error
	return users, err
}

// GroupNames returns the names of every group the user belongs to.
func (r *GormUserRepository) GroupNames(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("groups").
		Joins("JOIN user_groups ON user_groups.group_id = groups.id").
		Where("user_groups.user_id = ?", userID).
		Pluck("groups.name", &names).Error
	return names, err
}

// AddToGroup is a no-op when the user is already a member.
func (r *GormUserRepository) AddToGroup(ctx context.Context, userID uint, group string) error {
	g, err := r.findGroup(ctx, group)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.User{ID: userID}).Association("Groups").Append(g)
}

func (r *GormUserRepository) RemoveFromGroup(ctx context.Context, userID uint, group string) error {
	g, err := r.findGroup(ctx, group)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.User{ID: userID}).Association("Groups").Delete(g)
}

func (r *GormUserRepository) findGroup(ctx context.Context, name string) (*models.Group, error) {
	var g models.Group
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}
