package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a two-valued delivery flag.
type OrderStatus int16

const (
	OrderStatusOutForDelivery OrderStatus = 0
	OrderStatusDelivered      OrderStatus = 1
)

// Valid reports whether s is one of the known codes.
func (s OrderStatus) Valid() bool {
	return s == OrderStatusOutForDelivery || s == OrderStatusDelivered
}

// Order is the immutable result of a checkout. Only delivery assignment and
// status change after creation.
type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;index" json:"user"`
	User           *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	DeliveryCrewID *uint           `gorm:"index" json:"delivery_crew"`
	DeliveryCrew   *User           `gorm:"foreignKey:DeliveryCrewID;constraint:OnDelete:SET NULL" json:"-"`
	Status         OrderStatus     `gorm:"type:smallint;not null;default:0;index" json:"status"`
	Total          decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"total"`
	Date           time.Time       `gorm:"type:date;not null;index" json:"date"`
	OrderItems     []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"orderitems"`
}

// DateLayout is the wire format of Order.Date.
const DateLayout = "2006-01-02"

// MarshalJSON renders Date as a calendar day.
func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(o), o.Date.Format(DateLayout)})
}

func (o *Order) UnmarshalJSON(data []byte) error {
	type alias Order
	aux := struct {
		*alias
		Date string `json:"date"`
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Date == "" {
		return nil
	}
	d, err := time.Parse(DateLayout, aux.Date)
	if err != nil {
		return err
	}
	o.Date = d
	return nil
}

// OrderItem is a frozen copy of a cart line.
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;uniqueIndex:idx_order_item_menuitem" json:"order"`
	MenuItemID uint            `gorm:"column:menuitem_id;not null;uniqueIndex:idx_order_item_menuitem" json:"menuitem_id" validate:"required"`
	MenuItem   *MenuItem       `gorm:"foreignKey:MenuItemID;constraint:OnDelete:RESTRICT" json:"menuitem,omitempty"`
	Quantity   int             `gorm:"type:smallint;not null" json:"quantity" validate:"gte=1"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"unit_price"`
	Price      decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"price"`
}

// OrderUpdateRequest is the raw body of PUT/PATCH /orders/:id. Which fields
// are honoured depends on the caller's role.
type OrderUpdateRequest struct {
	DeliveryCrewID NullableUint     `json:"delivery_crew_id"`
	Status         *OrderStatus     `json:"status"`
	Total          *decimal.Decimal `json:"total"`
	Date           *string          `json:"date"`
}

// OrderFilter narrows GET /orders/.
type OrderFilter struct {
	Status   *OrderStatus
	Ordering string
	Page     int
	Limit    int
}

// OrderPlacedEvent is published after a successful checkout.
type OrderPlacedEvent struct {
	EventType string          `json:"event_type"`
	OrderID   uint            `json:"order_id"`
	UserID    uint            `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Items     int             `json:"items"`
	Timestamp time.Time       `json:"timestamp"`
}

// OrderStatusChangedEvent is published when an order's status flips.
type OrderStatusChangedEvent struct {
	EventType string      `json:"event_type"`
	OrderID   uint        `json:"order_id"`
	Status    OrderStatus `json:"status"`
	ChangedBy uint        `json:"changed_by"`
	Timestamp time.Time   `json:"timestamp"`
}
