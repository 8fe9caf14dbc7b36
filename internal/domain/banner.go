package domain

import (
	"time"

	"github.com/google/uuid"
)

// BannerPosition is where a banner is rendered on the storefront.
type BannerPosition string

const (
	BannerPositionHero   BannerPosition = "hero"
	BannerPositionMiddle BannerPosition = "middle"
	BannerPositionFooter BannerPosition = "footer"
)

// Valid reports whether p is a known banner position.
func (p BannerPosition) Valid() bool {
	switch p {
	case BannerPositionHero, BannerPositionMiddle, BannerPositionFooter:
		return true
	}
	return false
}

// Banner is a promotional image shown on the storefront. Managed by admins,
// soft-disabled via IsActive.
type Banner struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	Title     string         `json:"title" db:"title"`
	ImageURL  string         `json:"image_url" db:"image_url"`
	Link      string         `json:"link,omitempty" db:"link"`
	Position  BannerPosition `json:"position" db:"position"`
	SortOrder int            `json:"sort_order" db:"sort_order"`
	IsActive  bool           `json:"is_active" db:"is_active"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}
