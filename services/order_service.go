package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"restaurant-service/events"
	"restaurant-service/models"
	aws_pkg "restaurant-service/pkg/aws"
	"restaurant-service/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const emptyCart = "You don't have anything in your cart."

// OrderUpdate is a role-specific change to an existing order.
type OrderUpdate interface {
	isOrderUpdate()
}

// ManagerOrderUpdate may touch any mutable field. Nil fields are left alone.
type ManagerOrderUpdate struct {
	DeliveryCrewID models.NullableUint
	Status         *models.OrderStatus
	Total          *decimal.Decimal
	Date           *time.Time
}

// CrewStatusUpdate is the only change delivery crew may make.
type CrewStatusUpdate struct {
	Status models.OrderStatus
}

func (ManagerOrderUpdate) isOrderUpdate() {}
func (CrewStatusUpdate) isOrderUpdate()   {}

// NewOrderUpdate turns a request body into the update the caller is allowed
// to make. Full requests (PUT) must carry a status.
func NewOrderUpdate(roles Roles, req *models.OrderUpdateRequest, full bool) (OrderUpdate, *ServiceError) {
	switch {
	case roles.IsManager():
		if full && req.Status == nil {
			return nil, FieldError("status", "This field is required.")
		}
		u := ManagerOrderUpdate{DeliveryCrewID: req.DeliveryCrewID, Status: req.Status, Total: req.Total}
		if req.Date != nil {
			d, err := time.Parse(models.DateLayout, *req.Date)
			if err != nil {
				return nil, FieldError("date", "Date has wrong format. Use YYYY-MM-DD.")
			}
			u.Date = &d
		}
		return u, nil
	case roles.IsDeliveryCrew():
		if full {
			return nil, Forbidden("You do not have permission to perform this action.")
		}
		if req.Status == nil {
			return nil, FieldError("status", "This field is required.")
		}
		return CrewStatusUpdate{Status: *req.Status}, nil
	default:
		return nil, Forbidden("You do not have permission to perform this action.")
	}
}

// OrderService defines the interface for checkout and order tracking.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID uint) (*models.Order, *ServiceError)
	ListOrders(ctx context.Context, roles Roles, filter models.OrderFilter) ([]models.Order, int64, *ServiceError)
	GetOrder(ctx context.Context, roles Roles, id uint) (*models.Order, *ServiceError)
	UpdateOrder(ctx context.Context, roles Roles, id uint, update OrderUpdate) (*models.Order, *ServiceError)
	DeleteOrder(ctx context.Context, roles Roles, id uint) *ServiceError
}

type orderServiceImpl struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	users     repository.UserRepository
	validator *OrderItemValidator
	publisher events.Publisher
	metrics   *aws_pkg.MetricsClient
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new OrderService. publisher and metrics may be nil.
func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	users repository.UserRepository,
	publisher events.Publisher,
	metrics *aws_pkg.MetricsClient,
	logger *zap.Logger,
) OrderService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &orderServiceImpl{
		orders:    orders,
		carts:     carts,
		users:     users,
		validator: NewOrderItemValidator(),
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// PlaceOrder converts the user's cart into an order and empties the cart.
func (s *orderServiceImpl) PlaceOrder(ctx context.Context, userID uint) (*models.Order, *ServiceError) {
	lines, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart for checkout", zap.Uint("user_id", userID), zap.Error(err))
		return nil, Internal("Failed to place order")
	}
	if len(lines) == 0 {
		return nil, RuleViolation(http.StatusBadRequest, emptyCart)
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))
	lineIDs := make([]uint, 0, len(lines))
	for i := range lines {
		line := lines[i]
		total = total.Add(line.Price)
		lineIDs = append(lineIDs, line.ID)
		items = append(items, models.OrderItem{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			Price:      line.Price,
		})
	}

	if fields := s.validator.Validate(items); fields != nil {
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricOrdersFailed, map[string]string{"reason": "validation"})
		return nil, Validation(fields)
	}
	if total.GreaterThan(maxMoney) {
		return nil, FieldError("total", fieldMessages["max_digits"])
	}

	now := s.now().UTC()
	order := &models.Order{
		UserID:     userID,
		Status:     models.OrderStatusOutForDelivery,
		Total:      total,
		Date:       time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		OrderItems: items,
	}

	if err := s.orders.PlaceOrder(ctx, order, lineIDs); err != nil {
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricOrdersFailed, map[string]string{"reason": "persist"})
		if errors.Is(err, repository.ErrCartChanged) {
			s.logger.Warn("Cart changed during checkout", zap.Uint("user_id", userID))
			return nil, Conflict("Your cart changed while placing the order. Please try again.")
		}
		s.logger.Error("Failed to persist order", zap.Uint("user_id", userID), zap.Error(err))
		return nil, Internal("Failed to place order")
	}

	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricOrdersCreated, nil)
	_ = s.metrics.RecordValue(ctx, aws_pkg.MetricOrderTotal, total.InexactFloat64(), nil)
	s.logger.Info("Order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", userID),
		zap.String("total", total.StringFixed(2)),
		zap.Int("items", len(order.OrderItems)),
	)

	s.publish(ctx, order.ID, models.OrderPlacedEvent{
		EventType: events.OrderPlaced,
		OrderID:   order.ID,
		UserID:    userID,
		Total:     total,
		Items:     len(order.OrderItems),
		Timestamp: s.now().UTC(),
	})
	return order, nil
}

// scopeFor returns the orders a caller may see. Managers are unscoped.
func scopeFor(roles Roles) repository.OrderScope {
	id := roles.UserID
	switch {
	case roles.IsManager():
		return repository.OrderScope{}
	case roles.IsDeliveryCrew():
		return repository.OrderScope{DeliveryCrewID: &id}
	default:
		return repository.OrderScope{UserID: &id}
	}
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, roles Roles, filter models.OrderFilter) ([]models.Order, int64, *ServiceError) {
	if !repository.OrderOrderingAllowed(filter.Ordering) {
		return nil, 0, FieldError("ordering", "Unsupported ordering field.")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, invalidStatus(*filter.Status)
	}

	orders, total, err := s.orders.FindAll(ctx, scopeFor(roles), filter)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Uint("user_id", roles.UserID), zap.Error(err))
		return nil, 0, Internal("Failed to list orders")
	}
	return orders, total, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, roles Roles, id uint) (*models.Order, *ServiceError) {
	return s.find(ctx, id, scopeFor(roles))
}

func (s *orderServiceImpl) UpdateOrder(ctx context.Context, roles Roles, id uint, update OrderUpdate) (*models.Order, *ServiceError) {
	switch u := update.(type) {
	case ManagerOrderUpdate:
		if !roles.IsManager() {
			return nil, Forbidden("You do not have permission to perform this action.")
		}
		return s.applyManagerUpdate(ctx, roles, id, u)
	case CrewStatusUpdate:
		if !roles.IsDeliveryCrew() {
			return nil, Forbidden("You do not have permission to perform this action.")
		}
		return s.applyCrewUpdate(ctx, roles, id, u)
	default:
		return nil, BadRequest(fmt.Sprintf("unsupported order update %T", update))
	}
}

func (s *orderServiceImpl) applyManagerUpdate(ctx context.Context, roles Roles, id uint, u ManagerOrderUpdate) (*models.Order, *ServiceError) {
	order, svcErr := s.find(ctx, id, repository.OrderScope{})
	if svcErr != nil {
		return nil, svcErr
	}
	previous := order.Status

	var fields []string
	if u.DeliveryCrewID.Set {
		if u.DeliveryCrewID.Value != nil {
			if svcErr := s.checkDeliveryCrew(ctx, *u.DeliveryCrewID.Value); svcErr != nil {
				return nil, svcErr
			}
		}
		order.DeliveryCrewID = u.DeliveryCrewID.Value
		fields = append(fields, "DeliveryCrewID")
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return nil, invalidStatus(*u.Status)
		}
		order.Status = *u.Status
		fields = append(fields, "Status")
	}
	if u.Total != nil {
		if u.Total.IsNegative() || u.Total.GreaterThan(maxMoney) {
			return nil, FieldError("total", "Ensure this value is between 0 and 9999.99.")
		}
		order.Total = *u.Total
		fields = append(fields, "Total")
	}
	if u.Date != nil {
		order.Date = *u.Date
		fields = append(fields, "Date")
	}

	return s.save(ctx, roles, order, previous, fields)
}

func (s *orderServiceImpl) applyCrewUpdate(ctx context.Context, roles Roles, id uint, u CrewStatusUpdate) (*models.Order, *ServiceError) {
	if !u.Status.Valid() {
		return nil, invalidStatus(u.Status)
	}
	order, svcErr := s.find(ctx, id, scopeFor(roles))
	if svcErr != nil {
		return nil, svcErr
	}
	previous := order.Status
	order.Status = u.Status
	return s.save(ctx, roles, order, previous, []string{"Status"})
}

func (s *orderServiceImpl) save(ctx context.Context, roles Roles, order *models.Order, previous models.OrderStatus, fields []string) (*models.Order, *ServiceError) {
	if err := s.orders.Update(ctx, order, fields); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, NotFound("Not found.")
		}
		s.logger.Error("Failed to update order", zap.Uint("order_id", order.ID), zap.Error(err))
		return nil, Internal("Failed to update order")
	}

	s.logger.Info("Order updated",
		zap.Uint("order_id", order.ID),
		zap.Uint("changed_by", roles.UserID),
		zap.Strings("fields", fields),
	)

	if order.Status != previous {
		if order.Status == models.OrderStatusDelivered {
			_ = s.metrics.RecordCount(ctx, aws_pkg.MetricOrdersDelivered, nil)
		}
		s.publish(ctx, order.ID, models.OrderStatusChangedEvent{
			EventType: events.OrderStatusChanged,
			OrderID:   order.ID,
			Status:    order.Status,
			ChangedBy: roles.UserID,
			Timestamp: s.now().UTC(),
		})
	}
	return order, nil
}

func (s *orderServiceImpl) DeleteOrder(ctx context.Context, roles Roles, id uint) *ServiceError {
	if !roles.IsManager() {
		return Forbidden("You do not have permission to perform this action.")
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return NotFound("Not found.")
		}
		s.logger.Error("Failed to delete order", zap.Uint("order_id", id), zap.Error(err))
		return Internal("Failed to delete order")
	}
	s.logger.Info("Order deleted", zap.Uint("order_id", id), zap.Uint("deleted_by", roles.UserID))
	return nil
}

func (s *orderServiceImpl) find(ctx context.Context, id uint, scope repository.OrderScope) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByID(ctx, id, scope)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NotFound("Not found.")
		}
		s.logger.Error("Failed to get order", zap.Uint("order_id", id), zap.Error(err))
		return nil, Internal("Failed to get order")
	}
	return order, nil
}

func (s *orderServiceImpl) checkDeliveryCrew(ctx context.Context, userID uint) *ServiceError {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return NotFound("Not found.")
		}
		s.logger.Error("Failed to look up delivery crew", zap.Uint("user_id", userID), zap.Error(err))
		return Internal("Failed to update order")
	}
	if !user.InGroup(models.GroupDeliveryCrew) {
		return FieldError("delivery_crew_id", "User does not belong to the Delivery crew group.")
	}
	return nil
}

// publish is best-effort; a failed publish never fails the request.
func (s *orderServiceImpl) publish(ctx context.Context, orderID uint, event any) {
	if err := s.publisher.Publish(ctx, strconv.FormatUint(uint64(orderID), 10), event); err != nil {
		s.logger.Warn("Failed to publish order event", zap.Uint("order_id", orderID), zap.Error(err))
	}
}

func invalidStatus(st models.OrderStatus) *ServiceError {
	return FieldError("status", fmt.Sprintf("\"%d\" is not a valid choice.", st))
}
