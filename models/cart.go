package models

import "github.com/shopspring/decimal"

// CartItem is one pending line of a user's cart. Unit price is copied from the
// menu item when the line is created and is not kept in sync afterwards.
type CartItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;uniqueIndex:idx_cart_user_menuitem" json:"user"`
	MenuItemID uint            `gorm:"column:menuitem_id;not null;uniqueIndex:idx_cart_user_menuitem" json:"menuitem_id"`
	MenuItem   MenuItem        `gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE" json:"menuitem"`
	Quantity   int             `gorm:"type:smallint;not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"unit_price"`
	Price      decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"price"`
}

// LinePrice is quantity times unit price.
func (c *CartItem) LinePrice() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// AddToCartRequest is the payload for POST /cart/menu-items/.
type AddToCartRequest struct {
	MenuItemID uint `json:"menuitem_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required"`
}
