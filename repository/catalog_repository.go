package repository

import (
	"context"
	"strings"

	"restaurant-service/models"

	"gorm.io/gorm"
)

// CategoryRepository defines data access for categories.
type CategoryRepository interface {
	FindAll(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id uint) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
}

// MenuItemRepository defines data access for menu items.
type MenuItemRepository interface {
	FindAll(ctx context.Context, filter models.MenuItemFilter) ([]models.MenuItem, int64, error)
	FindByID(ctx context.Context, id uint) (*models.MenuItem, error)
	Create(ctx context.Context, item *models.MenuItem) error
	Update(ctx context.Context, item *models.MenuItem) error
	Delete(ctx context.Context, id uint) error
}

// GormCategoryRepository implements CategoryRepository using GORM.
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository.
func NewGormCategoryRepository(db *gorm.DB) CategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) FindAll(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("id").Find(&categories).Error
	return categories, err
}

func (r *GormCategoryRepository) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

var menuItemOrdering = map[string]string{
	"price":  "menu_items.price ASC",
	"-price": "menu_items.price DESC",
	"id":     "menu_items.id ASC",
	"-id":    "menu_items.id DESC",
}

// MenuItemOrderingAllowed reports whether the ordering key is supported.
func MenuItemOrderingAllowed(key string) bool {
	_, ok := menuItemOrdering[key]
	return key == "" || ok
}

// GormMenuItemRepository implements MenuItemRepository using GORM.
type GormMenuItemRepository struct {
	db *gorm.DB
}

// NewGormMenuItemRepository creates a new GormMenuItemRepository.
func NewGormMenuItemRepository(db *gorm.DB) MenuItemRepository {
	return &GormMenuItemRepository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// FindAll returns one page of menu items with their category joined in.
func (r *GormMenuItemRepository) FindAll(ctx context.Context, filter models.MenuItemFilter) ([]models.MenuItem, int64, error) {
	var items []models.MenuItem
	var total int64

	query := r.db.WithContext(ctx).Model(&models.MenuItem{}).Joins("Category")
	if filter.Category != "" {
		query = query.Where(`"Category"."title" = ?`, filter.Category)
	}
	if filter.Search != "" {
		like := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		query = query.Where(`LOWER(menu_items.title) LIKE ? ESCAPE '\' OR LOWER("Category"."title") LIKE ? ESCAPE '\'`, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := menuItemOrdering[filter.Ordering]
	if !ok {
		order = menuItemOrdering["id"]
	}
	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Order(order).
		Offset(offset).
		Limit(filter.Limit).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *GormMenuItemRepository) FindByID(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).Joins("Category").First(&item, "menu_items.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormMenuItemRepository) Create(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Omit("Category").Create(item).Error
}

func (r *GormMenuItemRepository) Update(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Omit("Category").Save(item).Error
}

func (r *GormMenuItemRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
