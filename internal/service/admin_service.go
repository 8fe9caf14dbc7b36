package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kokonsdelche/dg-sub000/internal/domain"
	"github.com/Kokonsdelche/dg-sub000/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidCategory    = errors.New("unknown product category")
	ErrInvalidOrderStatus = errors.New("unknown order status")
	ErrCancelViaStatus    = errors.New("cancellation must go through the cancel operation")
	ErrOrderAlreadyClosed = errors.New("order is in a terminal status")
)

// ProductInput carries the admin-editable fields of a product.
type ProductInput struct {
	Name          string
	Description   string
	Price         int64
	DiscountPrice *int64
	Category      domain.Category
	Images        []string
	Colors        []domain.ProductColor
	Sizes         []domain.ProductSize
	Stock         int
	IsActive      bool
	IsFeatured    bool
}

// BannerInput carries the admin-editable fields of a banner.
type BannerInput struct {
	Title     string
	ImageURL  string
	Link      string
	Position  domain.BannerPosition
	SortOrder int
	IsActive  bool
}

// AdminService defines the interface for the admin panel: dashboard
// aggregation, catalog management, order management and user management.
type AdminService interface {
	Dashboard(ctx context.Context) (*repository.DashboardStats, error)

	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)

	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, trackingNumber, note string) (*domain.Order, error)
	SetOrderPaymentStatus(ctx context.Context, orderID uuid.UUID, status domain.PaymentStatus) error

	ListUsers(ctx context.Context, filter repository.UserFilter) ([]*domain.User, int, error)
	SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error

	CreateBanner(ctx context.Context, input BannerInput) (*domain.Banner, error)
	UpdateBanner(ctx context.Context, id uuid.UUID, input BannerInput) (*domain.Banner, error)
	DeleteBanner(ctx context.Context, id uuid.UUID) error
	ListBanners(ctx context.Context) ([]*domain.Banner, error)
}

type adminService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	statsRepo   repository.StatsRepository
	bannerRepo  repository.BannerRepository
}

// NewAdminService creates a new instance of AdminService
func NewAdminService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	statsRepo repository.StatsRepository,
	bannerRepo repository.BannerRepository,
) AdminService {
	return &adminService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		statsRepo:   statsRepo,
		bannerRepo:  bannerRepo,
	}
}

// Dashboard returns the aggregate stats for the admin landing page.
func (s *adminService) Dashboard(ctx context.Context) (*repository.DashboardStats, error) {
	return s.statsRepo.Dashboard(ctx)
}

// CreateProduct adds a new catalog entry.
func (s *adminService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if !input.Category.Valid() {
		return nil, ErrInvalidCategory
	}

	product := &domain.Product{
		ID:            uuid.New(),
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		DiscountPrice: input.DiscountPrice,
		Category:      input.Category,
		Images:        input.Images,
		Colors:        input.Colors,
		Sizes:         input.Sizes,
		Stock:         input.Stock,
		IsActive:      input.IsActive,
		IsFeatured:    input.IsFeatured,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// UpdateProduct replaces the editable fields of an existing product.
func (s *adminService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if !input.Category.Valid() {
		return nil, ErrInvalidCategory
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.DiscountPrice = input.DiscountPrice
	product.Category = input.Category
	product.Images = input.Images
	product.Colors = input.Colors
	product.Sizes = input.Sizes
	product.Stock = input.Stock
	product.IsActive = input.IsActive
	product.IsFeatured = input.IsFeatured
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// DeleteProduct soft-deletes a product; it disappears from the storefront
// but stays referenced by historical orders.
func (s *adminService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.SoftDelete(ctx, id)
}

// ListProducts returns products for the admin panel, inactive ones included.
func (s *adminService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	return s.productRepo.List(ctx, filter)
}

// ListOrders returns orders for the admin panel.
func (s *adminService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	return s.orderRepo.List(ctx, filter)
}

// UpdateOrderStatus moves an order along its lifecycle and appends a status
// history entry. Setting cancelled here is refused: cancellation restores
// stock and therefore has its own operation.
func (s *adminService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, trackingNumber, note string) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}
	if status == domain.OrderStatusCancelled {
		return nil, ErrCancelViaStatus
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, ErrOrderAlreadyClosed
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status, trackingNumber, note); err != nil {
		return nil, err
	}

	return s.orderRepo.FindByID(ctx, orderID)
}

// SetOrderPaymentStatus updates the payment state of an order, typically
// after a gateway callback is verified manually.
func (s *adminService) SetOrderPaymentStatus(ctx context.Context, orderID uuid.UUID, status domain.PaymentStatus) error {
	switch status {
	case domain.PaymentStatusPending, domain.PaymentStatusPaid, domain.PaymentStatusFailed:
	default:
		return fmt.Errorf("unknown payment status %q", status)
	}
	return s.orderRepo.SetPaymentStatus(ctx, orderID, status)
}

// ListUsers returns accounts for the admin panel.
func (s *adminService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]*domain.User, int, error) {
	return s.userRepo.List(ctx, filter)
}

// SetUserActive toggles the soft-delete flag on an account.
func (s *adminService) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return s.userRepo.SetActive(ctx, userID, active)
}

// CreateBanner adds a storefront banner.
func (s *adminService) CreateBanner(ctx context.Context, input BannerInput) (*domain.Banner, error) {
	if !input.Position.Valid() {
		input.Position = domain.BannerPositionHero
	}

	banner := &domain.Banner{
		ID:        uuid.New(),
		Title:     input.Title,
		ImageURL:  input.ImageURL,
		Link:      input.Link,
		Position:  input.Position,
		SortOrder: input.SortOrder,
		IsActive:  input.IsActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.bannerRepo.Create(ctx, banner); err != nil {
		return nil, err
	}

	return banner, nil
}

// UpdateBanner replaces the editable fields of a banner.
func (s *adminService) UpdateBanner(ctx context.Context, id uuid.UUID, input BannerInput) (*domain.Banner, error) {
	if !input.Position.Valid() {
		input.Position = domain.BannerPositionHero
	}

	banner := &domain.Banner{
		ID:        id,
		Title:     input.Title,
		ImageURL:  input.ImageURL,
		Link:      input.Link,
		Position:  input.Position,
		SortOrder: input.SortOrder,
		IsActive:  input.IsActive,
		UpdatedAt: time.Now(),
	}

	if err := s.bannerRepo.Update(ctx, banner); err != nil {
		return nil, err
	}

	return banner, nil
}

// DeleteBanner removes a banner.
func (s *adminService) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	return s.bannerRepo.Delete(ctx, id)
}

// ListBanners returns every banner for the admin panel.
func (s *adminService) ListBanners(ctx context.Context) ([]*domain.Banner, error) {
	return s.bannerRepo.List(ctx)
}
