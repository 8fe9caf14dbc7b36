package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category is the product category enum.
type Category string

const (
	CategoryShawl     Category = "shawl"
	CategoryScarf     Category = "scarf"
	CategoryMiniScarf Category = "mini_scarf"
	CategoryAccessory Category = "accessory"
)

// Categories lists every valid product category.
func Categories() []Category {
	return []Category{CategoryShawl, CategoryScarf, CategoryMiniScarf, CategoryAccessory}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryShawl, CategoryScarf, CategoryMiniScarf, CategoryAccessory:
		return true
	}
	return false
}

// Product represents a catalog entry. Stock is the aggregate quantity across
// all variants; per-variant quantities live in Colors and Sizes.
// Products are soft-deleted by clearing IsActive, never removed.
type Product struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	Name          string         `json:"name" db:"name"`
	Description   string         `json:"description" db:"description"`
	Price         int64          `json:"price" db:"price"`
	DiscountPrice *int64         `json:"discount_price,omitempty" db:"discount_price"`
	Category      Category       `json:"category" db:"category"`
	Images        []string       `json:"images" db:"images"`
	Colors        []ProductColor `json:"colors" db:"colors"`
	Sizes         []ProductSize  `json:"sizes" db:"sizes"`
	Stock         int            `json:"stock" db:"stock"`
	IsActive      bool           `json:"is_active" db:"is_active"`
	IsFeatured    bool           `json:"is_featured" db:"is_featured"`
	AverageRating float64        `json:"average_rating" db:"average_rating"`
	TotalReviews  int            `json:"total_reviews" db:"total_reviews"`
	SoldCount     int            `json:"sold_count" db:"sold_count"`
	ViewCount     int            `json:"view_count" db:"view_count"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// ProductColor is a color variant with its own stock.
type ProductColor struct {
	Name  string `json:"name"`
	Hex   string `json:"hex"`
	Stock int    `json:"stock"`
}

// ProductSize is a size variant (e.g. dimensions of a shawl) with its own stock.
type ProductSize struct {
	Name       string `json:"name"`
	Dimensions string `json:"dimensions"`
	Stock      int    `json:"stock"`
}

// EffectivePrice returns the discounted price when one is set, the list
// price otherwise.
func (p *Product) EffectivePrice() int64 {
	if p.DiscountPrice != nil && *p.DiscountPrice > 0 && *p.DiscountPrice < p.Price {
		return *p.DiscountPrice
	}
	return p.Price
}

// Purchasable reports whether the product can satisfy an order line of the
// given quantity.
func (p *Product) Purchasable(quantity int) bool {
	return p.IsActive && quantity > 0 && p.Stock >= quantity
}

// Review is a customer review attached to a product. A user may review a
// product at most once.
type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	UserName  string    `json:"user_name" db:"user_name"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
