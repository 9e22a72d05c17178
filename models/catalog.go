package models

import "github.com/shopspring/decimal"

// Category groups menu items.
type Category struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Slug  string `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Title string `gorm:"type:varchar(255);uniqueIndex;not null" json:"title"`
}

// MenuItem is a dish that can be put in a cart.
type MenuItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Title      string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"title"`
	Price      decimal.Decimal `gorm:"type:numeric(6,2);not null;index" json:"price"`
	Featured   bool            `gorm:"not null;default:false;index" json:"featured"`
	CategoryID uint            `gorm:"not null;index" json:"category_id"`
	Category   Category        `gorm:"constraint:OnDelete:RESTRICT" json:"category"`
}

// CreateCategoryRequest is the payload for POST /categorys/.
type CreateCategoryRequest struct {
	Title string `json:"title" binding:"required,max=255"`
	Slug  string `json:"slug" binding:"omitempty,max=255"`
}

// CreateMenuItemRequest is the payload for POST /menu-items/ and PUT /menu-items/:id.
type CreateMenuItemRequest struct {
	Title      string          `json:"title" binding:"required,max=255"`
	Price      decimal.Decimal `json:"price" binding:"required"`
	Featured   bool            `json:"featured"`
	CategoryID uint            `json:"category_id" binding:"required"`
}

// PatchMenuItemRequest carries the fields of a partial menu item update.
type PatchMenuItemRequest struct {
	Title      *string          `json:"title" binding:"omitempty,max=255"`
	Price      *decimal.Decimal `json:"price"`
	Featured   *bool            `json:"featured"`
	CategoryID *uint            `json:"category_id"`
}

// MenuItemFilter narrows GET /menu-items/.
type MenuItemFilter struct {
	Category string
	Search   string
	Ordering string
	Page     int
	Limit    int
}

// MenuItemPage is one page of a menu listing together with the unpaged total.
type MenuItemPage struct {
	Items []MenuItem `json:"items"`
	Total int64      `json:"total"`
}
