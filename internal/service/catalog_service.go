package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kokonsdelche/dg-sub000/internal/domain"
	"github.com/Kokonsdelche/dg-sub000/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// CatalogService defines the interface for the public product catalog.
type CatalogService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FeaturedProducts(ctx context.Context, limit int) ([]*domain.Product, error)
	Categories(ctx context.Context) ([]repository.CategoryCount, error)
	AddReview(ctx context.Context, productID, userID uuid.UUID, rating int, comment string) (*domain.Review, error)
	ListReviews(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
	ListBanners(ctx context.Context, position domain.BannerPosition) ([]*domain.Banner, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	bannerRepo  repository.BannerRepository
	logger      *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	productRepo repository.ProductRepository,
	bannerRepo repository.BannerRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		bannerRepo:  bannerRepo,
		logger:      logger,
	}
}

// ListProducts returns active products matching the filter. Storefront
// listings never see deactivated products.
func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	filter.OnlyActive = true
	return s.productRepo.List(ctx, filter)
}

// GetProduct returns a single product and bumps its view counter. A failed
// counter bump is logged but does not fail the read.
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, repository.ErrProductNotFound
	}

	if err := s.productRepo.IncrementViewCount(ctx, id); err != nil {
		s.logger.Warn("Failed to increment view count",
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
	}
	product.ViewCount++

	return product, nil
}

// FeaturedProducts returns the storefront's featured selection.
func (s *catalogService) FeaturedProducts(ctx context.Context, limit int) ([]*domain.Product, error) {
	return s.productRepo.Featured(ctx, limit)
}

// Categories returns every category with its active product count.
func (s *catalogService) Categories(ctx context.Context) ([]repository.CategoryCount, error) {
	return s.productRepo.CategoryCounts(ctx)
}

// AddReview records a review. Each user may review a product once; a
// duplicate fails with ErrDuplicateReview and the product's rating
// aggregates stay as they were.
func (s *catalogService) AddReview(ctx context.Context, productID, userID uuid.UUID, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, repository.ErrProductNotFound
	}

	review := &domain.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}

	if err := s.productRepo.AddReview(ctx, review); err != nil {
		if err == repository.ErrDuplicateReview {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	return review, nil
}

// ListReviews returns a product's reviews, newest first.
func (s *catalogService) ListReviews(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	return s.productRepo.ListReviews(ctx, productID)
}

// ListBanners returns the active banners for a storefront position.
func (s *catalogService) ListBanners(ctx context.Context, position domain.BannerPosition) ([]*domain.Banner, error) {
	if !position.Valid() {
		position = domain.BannerPositionHero
	}
	return s.bannerRepo.ListActive(ctx, position)
}
