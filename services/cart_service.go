package services

import (
	"context"
	"net/http"

	"restaurant-service/models"
	aws_pkg "restaurant-service/pkg/aws"
	"restaurant-service/repository"

	"go.uber.org/zap"
)

const (
	duplicateCartLine = "The fields user, menuitem_id must make a unique set."
	maxQuantity       = 32767
)

// CartService defines the interface for per-user cart logic.
type CartService interface {
	ListCart(ctx context.Context, userID uint) ([]models.CartItem, *ServiceError)
	AddToCart(ctx context.Context, userID uint, req *models.AddToCartRequest) (*models.CartItem, *ServiceError)
	ClearCart(ctx context.Context, userID uint) *ServiceError
}

type cartServiceImpl struct {
	carts   repository.CartRepository
	items   repository.MenuItemRepository
	metrics *aws_pkg.MetricsClient
	logger  *zap.Logger
}

// NewCartService creates a new CartService. metrics may be nil.
func NewCartService(
	carts repository.CartRepository,
	items repository.MenuItemRepository,
	metrics *aws_pkg.MetricsClient,
	logger *zap.Logger,
) CartService {
	return &cartServiceImpl{carts: carts, items: items, metrics: metrics, logger: logger}
}

func (s *cartServiceImpl) ListCart(ctx context.Context, userID uint) ([]models.CartItem, *ServiceError) {
	lines, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Uint("user_id", userID), zap.Error(err))
		return nil, Internal("Failed to load cart")
	}
	return lines, nil
}

// AddToCart snapshots the menu item's current price onto the new line.
func (s *cartServiceImpl) AddToCart(ctx context.Context, userID uint, req *models.AddToCartRequest) (*models.CartItem, *ServiceError) {
	if req.Quantity < 1 {
		return nil, FieldError("quantity", "Ensure this value is greater than or equal to 1.")
	}
	if req.Quantity > maxQuantity {
		return nil, FieldError("quantity", "Ensure this value is less than or equal to 32767.")
	}

	item, err := s.items.FindByID(ctx, req.MenuItemID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NotFound("Not found.")
		}
		s.logger.Error("Failed to look up menu item", zap.Uint("menuitem_id", req.MenuItemID), zap.Error(err))
		return nil, Internal("Failed to add to cart")
	}

	exists, err := s.carts.Exists(ctx, userID, item.ID)
	if err != nil {
		s.logger.Error("Failed to check cart", zap.Uint("user_id", userID), zap.Error(err))
		return nil, Internal("Failed to add to cart")
	}
	if exists {
		return nil, duplicateLineError()
	}

	line := &models.CartItem{
		UserID:     userID,
		MenuItemID: item.ID,
		Quantity:   req.Quantity,
		UnitPrice:  item.Price,
	}
	line.Price = line.LinePrice()

	if err := s.carts.Create(ctx, line); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, duplicateLineError()
		}
		s.logger.Error("Failed to create cart line", zap.Uint("user_id", userID), zap.Error(err))
		return nil, Internal("Failed to add to cart")
	}
	line.MenuItem = *item

	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricCartAdds, nil)
	s.logger.Info("Cart line added",
		zap.Uint("user_id", userID),
		zap.Uint("menuitem_id", item.ID),
		zap.Int("quantity", line.Quantity),
	)
	return line, nil
}

// ClearCart succeeds even when the cart is already empty.
func (s *cartServiceImpl) ClearCart(ctx context.Context, userID uint) *ServiceError {
	n, err := s.carts.DeleteByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to clear cart", zap.Uint("user_id", userID), zap.Error(err))
		return Internal("Failed to clear cart")
	}
	s.logger.Info("Cart cleared", zap.Uint("user_id", userID), zap.Int64("lines", n))
	return nil
}

func duplicateLineError() *ServiceError {
	return &ServiceError{
		StatusCode: http.StatusBadRequest,
		Message:    duplicateCartLine,
		Body:       map[string][]string{"non_field_errors": {duplicateCartLine}},
	}
}
