package services

import (
	"context"
	"strings"
	"unicode"

	"restaurant-service/models"
	"restaurant-service/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const titleNotUnique = "The title is not unique."

// MenuListCache is the read-through cache used for menu listings.
type MenuListCache interface {
	GetMenuList(ctx context.Context, filter models.MenuItemFilter) (*models.MenuItemPage, bool)
	SetMenuList(ctx context.Context, filter models.MenuItemFilter, page *models.MenuItemPage)
	Invalidate(ctx context.Context) error
}

// CatalogService defines the interface for menu and category logic.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]models.Category, *ServiceError)
	CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, *ServiceError)
	ListMenuItems(ctx context.Context, filter models.MenuItemFilter) (*models.MenuItemPage, *ServiceError)
	GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, *ServiceError)
	CreateMenuItem(ctx context.Context, req *models.CreateMenuItemRequest) (*models.MenuItem, *ServiceError)
	ReplaceMenuItem(ctx context.Context, id uint, req *models.CreateMenuItemRequest) (*models.MenuItem, *ServiceError)
	PatchMenuItem(ctx context.Context, id uint, req *models.PatchMenuItemRequest) (*models.MenuItem, *ServiceError)
	DeleteMenuItem(ctx context.Context, id uint) *ServiceError
}

type catalogServiceImpl struct {
	categories repository.CategoryRepository
	items      repository.MenuItemRepository
	cache      MenuListCache
	logger     *zap.Logger
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(
	categories repository.CategoryRepository,
	items repository.MenuItemRepository,
	cache MenuListCache,
	logger *zap.Logger,
) CatalogService {
	return &catalogServiceImpl{
		categories: categories,
		items:      items,
		cache:      cache,
		logger:     logger,
	}
}

func (s *catalogServiceImpl) ListCategories(ctx context.Context) ([]models.Category, *ServiceError) {
	categories, err := s.categories.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", zap.Error(err))
		return nil, Internal("Failed to list categories")
	}
	return categories, nil
}

func (s *catalogServiceImpl) CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, *ServiceError) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, FieldError("title", "This field may not be blank.")
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = Slugify(title)
	}

	category := &models.Category{Title: title, Slug: slug}
	if err := s.categories.Create(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			if strings.Contains(repository.ViolatedConstraint(err), "slug") {
				return nil, FieldError("slug", "category with this slug already exists.")
			}
			return nil, FieldError("title", titleNotUnique)
		}
		s.logger.Error("Failed to create category", zap.Error(err))
		return nil, Internal("Failed to create category")
	}

	s.logger.Info("Category created", zap.Uint("category_id", category.ID), zap.String("slug", category.Slug))
	return category, nil
}

// ListMenuItems serves from cache when possible.
func (s *catalogServiceImpl) ListMenuItems(ctx context.Context, filter models.MenuItemFilter) (*models.MenuItemPage, *ServiceError) {
	if !repository.MenuItemOrderingAllowed(filter.Ordering) {
		return nil, FieldError("ordering", "Unsupported ordering field.")
	}
	if s.cache != nil {
		if page, ok := s.cache.GetMenuList(ctx, filter); ok {
			return page, nil
		}
	}

	items, total, err := s.items.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list menu items", zap.Error(err))
		return nil, Internal("Failed to list menu items")
	}
	page := &models.MenuItemPage{Items: items, Total: total}
	if s.cache != nil {
		s.cache.SetMenuList(ctx, filter, page)
	}
	return page, nil
}

func (s *catalogServiceImpl) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, *ServiceError) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NotFound("Not found.")
		}
		s.logger.Error("Failed to get menu item", zap.Uint("menuitem_id", id), zap.Error(err))
		return nil, Internal("Failed to get menu item")
	}
	return item, nil
}

func (s *catalogServiceImpl) CreateMenuItem(ctx context.Context, req *models.CreateMenuItemRequest) (*models.MenuItem, *ServiceError) {
	item := &models.MenuItem{
		Title:      strings.TrimSpace(req.Title),
		Price:      req.Price,
		Featured:   req.Featured,
		CategoryID: req.CategoryID,
	}
	if svcErr := s.validateMenuItem(ctx, item); svcErr != nil {
		return nil, svcErr
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, s.menuItemWriteError(err, "Failed to create menu item")
	}
	s.invalidate(ctx)

	s.logger.Info("Menu item created", zap.Uint("menuitem_id", item.ID), zap.String("title", item.Title))
	return s.reload(ctx, item)
}

func (s *catalogServiceImpl) ReplaceMenuItem(ctx context.Context, id uint, req *models.CreateMenuItemRequest) (*models.MenuItem, *ServiceError) {
	item, svcErr := s.GetMenuItem(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	item.Title = strings.TrimSpace(req.Title)
	item.Price = req.Price
	item.Featured = req.Featured
	item.CategoryID = req.CategoryID
	return s.save(ctx, item)
}

func (s *catalogServiceImpl) PatchMenuItem(ctx context.Context, id uint, req *models.PatchMenuItemRequest) (*models.MenuItem, *ServiceError) {
	item, svcErr := s.GetMenuItem(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	if req.Title != nil {
		item.Title = strings.TrimSpace(*req.Title)
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Featured != nil {
		item.Featured = *req.Featured
	}
	if req.CategoryID != nil {
		item.CategoryID = *req.CategoryID
	}
	return s.save(ctx, item)
}

func (s *catalogServiceImpl) DeleteMenuItem(ctx context.Context, id uint) *ServiceError {
	if err := s.items.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return NotFound("Not found.")
		}
		if repository.IsForeignKeyViolation(err) {
			return Conflict("Menu item is referenced by existing orders")
		}
		s.logger.Error("Failed to delete menu item", zap.Uint("menuitem_id", id), zap.Error(err))
		return Internal("Failed to delete menu item")
	}
	s.invalidate(ctx)
	s.logger.Info("Menu item deleted", zap.Uint("menuitem_id", id))
	return nil
}

func (s *catalogServiceImpl) save(ctx context.Context, item *models.MenuItem) (*models.MenuItem, *ServiceError) {
	if svcErr := s.validateMenuItem(ctx, item); svcErr != nil {
		return nil, svcErr
	}
	if err := s.items.Update(ctx, item); err != nil {
		return nil, s.menuItemWriteError(err, "Failed to update menu item")
	}
	s.invalidate(ctx)
	s.logger.Info("Menu item updated", zap.Uint("menuitem_id", item.ID))
	return s.reload(ctx, item)
}

func (s *catalogServiceImpl) validateMenuItem(ctx context.Context, item *models.MenuItem) *ServiceError {
	fields := map[string][]string{}
	if item.Title == "" {
		fields["title"] = []string{"This field may not be blank."}
	}
	if !item.Price.GreaterThan(decimal.Zero) {
		fields["price"] = []string{"Ensure this value is greater than 0."}
	}
	if len(fields) > 0 {
		return Validation(fields)
	}

	if _, err := s.categories.FindByID(ctx, item.CategoryID); err != nil {
		if repository.IsNotFound(err) {
			return FieldError("category_id", "Category does not exist.")
		}
		s.logger.Error("Failed to look up category", zap.Uint("category_id", item.CategoryID), zap.Error(err))
		return Internal("Failed to look up category")
	}
	return nil
}

func (s *catalogServiceImpl) menuItemWriteError(err error, msg string) *ServiceError {
	switch {
	case repository.IsUniqueViolation(err):
		return FieldError("title", titleNotUnique)
	case repository.IsForeignKeyViolation(err):
		return FieldError("category_id", "Category does not exist.")
	}
	s.logger.Error(msg, zap.Error(err))
	return Internal(msg)
}

// reload fetches the item again so the response carries its category.
func (s *catalogServiceImpl) reload(ctx context.Context, item *models.MenuItem) (*models.MenuItem, *ServiceError) {
	fresh, err := s.items.FindByID(ctx, item.ID)
	if err != nil {
		s.logger.Warn("Failed to reload menu item", zap.Uint("menuitem_id", item.ID), zap.Error(err))
		return item, nil
	}
	return fresh, nil
}

func (s *catalogServiceImpl) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Error("Failed to invalidate menu cache", zap.Error(err))
	}
}

// Slugify lowercases title and joins its alphanumeric runs with hyphens.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
