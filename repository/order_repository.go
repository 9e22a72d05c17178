package repository

import (
	"context"
	"sort"

	"restaurant-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderScope restricts which orders a query may see. A zero scope sees all.
type OrderScope struct {
	UserID         *uint
	DeliveryCrewID *uint
}

// OrderRepository defines data access for orders.
type OrderRepository interface {
	PlaceOrder(ctx context.Context, order *models.Order, cartLineIDs []uint) error
	FindAll(ctx context.Context, scope OrderScope, filter models.OrderFilter) ([]models.Order, int64, error)
	FindByID(ctx context.Context, id uint, scope OrderScope) (*models.Order, error)
	Update(ctx context.Context, order *models.Order, fields []string) error
	Delete(ctx context.Context, id uint) error
}

var orderOrdering = map[string]string{
	"total":  "orders.total ASC",
	"-total": "orders.total DESC",
	"id":     "orders.id ASC",
	"-id":    "orders.id DESC",
	"user":   "orders.user_id ASC",
	"-user":  "orders.user_id DESC",
	"date":   "orders.date ASC",
	"-date":  "orders.date DESC",
}

// OrderOrderingAllowed reports whether the ordering key is supported.
func OrderOrderingAllowed(key string) bool {
	_, ok := orderOrdering[key]
	return key == "" || ok
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository.
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// PlaceOrder writes the order and its items and empties the cart in one
// transaction. The user's cart rows are locked first; if they no longer match
// cartLineIDs the transaction is rolled back with ErrCartChanged.
func (r *GormOrderRepository) PlaceOrder(ctx context.Context, order *models.Order, cartLineIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []uint
		if err := tx.Model(&models.CartItem{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", order.UserID).
			Order("id").
			Pluck("id", &locked).Error; err != nil {
			return err
		}
		if !sameIDs(locked, cartLineIDs) {
			return ErrCartChanged
		}

		items := order.OrderItems
		order.OrderItems = nil
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
				return err
			}
		}
		order.OrderItems = items

		return tx.Where("user_id = ?", order.UserID).Delete(&models.CartItem{}).Error
	})
}

// FindAll returns one page of orders visible under scope, with items.
func (r *GormOrderRepository) FindAll(ctx context.Context, scope OrderScope, filter models.OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.scoped(r.db.WithContext(ctx).Model(&models.Order{}), scope)
	if filter.Status != nil {
		query = query.Where("orders.status = ?", *filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := orderOrdering[filter.Ordering]
	if !ok {
		order = orderOrdering["id"]
	}
	offset := (filter.Page - 1) * filter.Limit
	if err := preloadItems(query).
		Order(order).
		Offset(offset).
		Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// preloadItems loads each line with its menu item and category.
func preloadItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("OrderItems.MenuItem.Category")
}

// FindByID returns gorm.ErrRecordNotFound when the order exists but is
// outside scope.
func (r *GormOrderRepository) FindByID(ctx context.Context, id uint, scope OrderScope) (*models.Order, error) {
	var order models.Order
	query := r.scoped(r.db.WithContext(ctx), scope)
	if err := preloadItems(query).
		First(&order, "orders.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Update writes only the named fields, including zero values.
func (r *GormOrderRepository) Update(ctx context.Context, order *models.Order, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(order).
		Omit(clause.Associations).
		Select(fields).
		Updates(order).Error
}

func (r *GormOrderRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Order{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormOrderRepository) scoped(db *gorm.DB, scope OrderScope) *gorm.DB {
	if scope.UserID != nil {
		db = db.Where("orders.user_id = ?", *scope.UserID)
	}
	if scope.DeliveryCrewID != nil {
		db = db.Where("orders.delivery_crew_id = ?", *scope.DeliveryCrewID)
	}
	return db
}

func sameIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]uint(nil), a...)
	bs := append([]uint(nil), b...)
	sort.Slice(as, func(i, j int) bool { return as[i] < as[j] })
	sort.Slice(bs, func(i, j int) bool { return bs[i] < bs[j] })
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
