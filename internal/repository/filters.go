package repository

import (
	"github.com/Kokonsdelche/dg-sub000/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductFilter is the validated query surface for product listings. Zero
// values mean "no constraint"; Normalize fills defaults and discards
// anything outside the allow lists.
type ProductFilter struct {
	Category    domain.Category
	Search      string
	MinPrice    int64
	MaxPrice    int64
	InStockOnly bool
	OnlyActive  bool
	Featured    bool
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   SortOrder
}

var productSortFields = map[string]bool{
	"name":           true,
	"price":          true,
	"created_at":     true,
	"stock":          true,
	"sold_count":     true,
	"average_rating": true,
}

// Normalize clamps pagination, applies sort defaults and drops invalid
// enum values.
func (f *ProductFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if !productSortFields[f.SortBy] {
		f.SortBy = "created_at"
	}
	if f.SortOrder != SortOrderAsc && f.SortOrder != SortOrderDesc {
		f.SortOrder = SortOrderDesc
	}
	if f.Category != "" && !f.Category.Valid() {
		f.Category = ""
	}
	if f.MinPrice < 0 {
		f.MinPrice = 0
	}
	if f.MaxPrice < 0 {
		f.MaxPrice = 0
	}
}

// OrderFilter is the validated query surface for order listings.
type OrderFilter struct {
	Status        domain.OrderStatus
	PaymentStatus domain.PaymentStatus
	OrderNumber   string
	Page          int
	PageSize      int
}

// Normalize clamps pagination and drops invalid enum values.
func (f *OrderFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if f.Status != "" && !f.Status.Valid() {
		f.Status = ""
	}
	switch f.PaymentStatus {
	case "", domain.PaymentStatusPending, domain.PaymentStatusPaid, domain.PaymentStatusFailed:
	default:
		f.PaymentStatus = ""
	}
}

// UserFilter is the validated query surface for admin user listings.
type UserFilter struct {
	Search     string // matches name, email or phone
	ActiveOnly bool
	AdminsOnly bool
	Page       int
	PageSize   int
}

// Normalize clamps pagination.
func (f *UserFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
}
